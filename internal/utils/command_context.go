package utils

import "context"

type commandContextKey string

const (
	configurationFilePathContextKeyConstant = commandContextKey("configuration_file_path")
	logFilePathContextKeyConstant           = commandContextKey("log_file_path")
)

// CommandContextAccessor reads and writes the values codeqlup carries through
// command execution contexts.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor instance.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithConfigurationFilePath attaches the resolved configuration file path to the provided context.
func (accessor CommandContextAccessor) WithConfigurationFilePath(parentContext context.Context, configurationFilePath string) context.Context {
	return storeContextValue(parentContext, configurationFilePathContextKeyConstant, configurationFilePath)
}

// ConfigurationFilePath reports the configuration file path stored in the provided context.
func (accessor CommandContextAccessor) ConfigurationFilePath(executionContext context.Context) (string, bool) {
	return lookupContextValue(executionContext, configurationFilePathContextKeyConstant)
}

// WithLogFilePath attaches the active log file path to the provided context.
func (accessor CommandContextAccessor) WithLogFilePath(parentContext context.Context, logFilePath string) context.Context {
	return storeContextValue(parentContext, logFilePathContextKeyConstant, logFilePath)
}

// LogFilePath reports the log file path stored in the provided context.
func (accessor CommandContextAccessor) LogFilePath(executionContext context.Context) (string, bool) {
	return lookupContextValue(executionContext, logFilePathContextKeyConstant)
}

func storeContextValue(parentContext context.Context, contextKey commandContextKey, contextValue string) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, contextKey, contextValue)
}

func lookupContextValue(executionContext context.Context, contextKey commandContextKey) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	storedValue, storedValueAvailable := executionContext.Value(contextKey).(string)
	return storedValue, storedValueAvailable
}
