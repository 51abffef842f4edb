package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	logLevelDebugStringConstant           = "debug"
	logLevelInfoStringConstant            = "info"
	logLevelWarnStringConstant            = "warn"
	logLevelErrorStringConstant           = "error"
	logFormatStructuredStringConstant     = "structured"
	logFormatConsoleStringConstant        = "console"
	jsonZapEncodingStringConstant         = "json"
	consoleZapEncodingStringConstant      = "console"
	unsupportedLogLevelTemplateConstant   = "unsupported log level: %s"
	unsupportedLogFormatTemplateConstant  = "unsupported log format: %s"
	logDirectoryCreateErrorTemplate       = "failed to create log directory: %w"
	logFileCreateErrorTemplateConstant    = "failed to create log file: %w"
	logFileNameTemplateConstant           = "codeqlup_%s.log"
	logFileTimestampLayoutConstant        = "20060102_150405"
	logDirectoryPermissionsConstant       = 0o755
	logFilePermissionsConstant            = 0o644
	logFileOpenFlagsConstant              = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	timestampEncoderLayoutSecondsConstant = time.RFC3339
)

// LogLevel enumerates supported logging granularities.
type LogLevel string

// Exported log level constants for reuse across packages.
const (
	LogLevelDebug LogLevel = LogLevel(logLevelDebugStringConstant)
	LogLevelInfo  LogLevel = LogLevel(logLevelInfoStringConstant)
	LogLevelWarn  LogLevel = LogLevel(logLevelWarnStringConstant)
	LogLevelError LogLevel = LogLevel(logLevelErrorStringConstant)
)

// LogFormat enumerates supported logger output encodings.
type LogFormat string

// Exported log format constants for reuse across packages.
const (
	LogFormatStructured LogFormat = LogFormat(logFormatStructuredStringConstant)
	LogFormatConsole    LogFormat = LogFormat(logFormatConsoleStringConstant)
)

// LoggerFactory builds zap.Logger instances with consistent configuration.
type LoggerFactory struct{}

var logLevelMapping = map[LogLevel]zapcore.Level{
	LogLevelDebug: zapcore.DebugLevel,
	LogLevelInfo:  zapcore.InfoLevel,
	LogLevelWarn:  zapcore.WarnLevel,
	LogLevelError: zapcore.ErrorLevel,
}

var logFormatEncodingMapping = map[LogFormat]string{
	LogFormatStructured: jsonZapEncodingStringConstant,
	LogFormatConsole:    consoleZapEncodingStringConstant,
}

// NewLoggerFactory constructs a new logger factory.
func NewLoggerFactory() *LoggerFactory {
	return &LoggerFactory{}
}

// CreateLogger produces a zap.Logger honoring the requested log level and format.
func (factory *LoggerFactory) CreateLogger(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (*zap.Logger, error) {
	zapLogLevel, levelExists := logLevelMapping[requestedLogLevel]
	if !levelExists {
		return nil, fmt.Errorf(unsupportedLogLevelTemplateConstant, requestedLogLevel)
	}

	encoding, formatExists := logFormatEncodingMapping[requestedLogFormat]
	if !formatExists {
		return nil, fmt.Errorf(unsupportedLogFormatTemplateConstant, requestedLogFormat)
	}

	configuration := zap.NewProductionConfig()
	configuration.Level = zap.NewAtomicLevelAt(zapLogLevel)
	configuration.Encoding = encoding

	logger, buildError := configuration.Build()
	if buildError != nil {
		return nil, buildError
	}

	return logger, nil
}

// CreateFileBackedLogger produces a logger that writes to the requested format
// on standard error and additionally records every entry as JSON inside a
// timestamped file under logDirectory.
func (factory *LoggerFactory) CreateFileBackedLogger(requestedLogLevel LogLevel, requestedLogFormat LogFormat, logDirectory string) (*zap.Logger, string, error) {
	zapLogLevel, levelExists := logLevelMapping[requestedLogLevel]
	if !levelExists {
		return nil, "", fmt.Errorf(unsupportedLogLevelTemplateConstant, requestedLogLevel)
	}

	encoding, formatExists := logFormatEncodingMapping[requestedLogFormat]
	if !formatExists {
		return nil, "", fmt.Errorf(unsupportedLogFormatTemplateConstant, requestedLogFormat)
	}

	directoryError := os.MkdirAll(logDirectory, logDirectoryPermissionsConstant)
	if directoryError != nil {
		return nil, "", fmt.Errorf(logDirectoryCreateErrorTemplate, directoryError)
	}

	logFileName := fmt.Sprintf(logFileNameTemplateConstant, time.Now().Format(logFileTimestampLayoutConstant))
	logFilePath := filepath.Join(logDirectory, logFileName)
	logFile, openError := os.OpenFile(logFilePath, logFileOpenFlagsConstant, logFilePermissionsConstant)
	if openError != nil {
		return nil, "", fmt.Errorf(logFileCreateErrorTemplateConstant, openError)
	}

	encoderConfiguration := zap.NewProductionEncoderConfig()
	encoderConfiguration.EncodeTime = zapcore.TimeEncoderOfLayout(timestampEncoderLayoutSecondsConstant)

	var consoleEncoder zapcore.Encoder
	if encoding == consoleZapEncodingStringConstant {
		consoleEncoder = zapcore.NewConsoleEncoder(encoderConfiguration)
	} else {
		consoleEncoder = zapcore.NewJSONEncoder(encoderConfiguration)
	}

	consoleCore := zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stderr), zapLogLevel)
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfiguration), zapcore.AddSync(logFile), zapLogLevel)

	logger := zap.New(zapcore.NewTee(consoleCore, fileCore))
	return logger, logFilePath, nil
}
