package utils

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	configurationFileTypeConstant              = "yaml"
	environmentKeyDotConstant                  = "."
	environmentKeyUnderscoreConstant           = "_"
	embeddedDefaultsMergeErrorTemplateConstant = "unable to apply embedded defaults: %w"
	configurationFileReadErrorTemplateConstant = "unable to read configuration file: %w"
	configurationDecodeErrorTemplateConstant   = "unable to decode configuration: %w"
)

// ConfigurationLoader resolves configuration by layering embedded YAML
// defaults, an optional configuration file, and prefixed environment
// variables, in ascending precedence.
type ConfigurationLoader struct {
	configurationName string
	environmentPrefix string
	searchPaths       []string
	embeddedDefaults  []byte
}

// LoadedConfiguration reports which configuration file, if any, was applied.
type LoadedConfiguration struct {
	ConfigFileUsed string
}

// NewConfigurationLoader constructs a loader. The embedded defaults are YAML
// and form the lowest-precedence configuration layer.
func NewConfigurationLoader(configurationName string, environmentPrefix string, searchPaths []string, embeddedDefaults []byte) *ConfigurationLoader {
	loader := &ConfigurationLoader{
		configurationName: configurationName,
		environmentPrefix: environmentPrefix,
		searchPaths:       append([]string(nil), searchPaths...),
	}
	if len(embeddedDefaults) > 0 {
		loader.embeddedDefaults = append([]byte(nil), embeddedDefaults...)
	}
	return loader
}

// LoadConfiguration fills targetConfiguration from programmatic defaults,
// embedded defaults, the configuration file, and environment overrides.
func (loader *ConfigurationLoader) LoadConfiguration(configurationFilePath string, defaultValues map[string]any, targetConfiguration any) (LoadedConfiguration, error) {
	viperInstance := viper.New()
	viperInstance.SetConfigName(loader.configurationName)
	viperInstance.SetConfigType(configurationFileTypeConstant)

	for defaultKey, defaultValue := range defaultValues {
		viperInstance.SetDefault(defaultKey, defaultValue)
	}

	if len(loader.embeddedDefaults) > 0 {
		if mergeError := viperInstance.MergeConfig(bytes.NewReader(loader.embeddedDefaults)); mergeError != nil {
			return LoadedConfiguration{}, fmt.Errorf(embeddedDefaultsMergeErrorTemplateConstant, mergeError)
		}
	}

	for _, searchPath := range loader.searchPaths {
		viperInstance.AddConfigPath(searchPath)
	}
	if len(strings.TrimSpace(configurationFilePath)) > 0 {
		viperInstance.SetConfigFile(configurationFilePath)
	}

	viperInstance.SetEnvPrefix(loader.environmentPrefix)
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(environmentKeyDotConstant, environmentKeyUnderscoreConstant))
	viperInstance.AutomaticEnv()

	if readError := viperInstance.MergeInConfig(); readError != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(readError, &configFileNotFoundError) {
			return LoadedConfiguration{}, fmt.Errorf(configurationFileReadErrorTemplateConstant, readError)
		}
	}

	if decodeError := viperInstance.Unmarshal(targetConfiguration); decodeError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationDecodeErrorTemplateConstant, decodeError)
	}

	return LoadedConfiguration{ConfigFileUsed: viperInstance.ConfigFileUsed()}, nil
}
