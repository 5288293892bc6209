// Package logger wraps zap with the module/message/details call shape used
// across the service, and rotates the JSON log file with lumberjack.
package logger

import (
	"log"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the logging contract handed to controllers and services.
type Logger interface {
	Debug(module, message string, details map[string]interface{})
	Info(module, message string, details map[string]interface{})
	Warn(module, message string, details map[string]interface{})
	Error(module, message string, details map[string]interface{})
	Sync() error
}

// ZapLogger writes JSON lines to a rotated file and a console core.
type ZapLogger struct {
	logger *zap.Logger
}

// New creates a logger writing to logFilePath and stdout. An empty path
// disables the file core.
func New(logFilePath, level string, isProd bool) *ZapLogger {
	minLevel := parseLevel(level)

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "message"
	encoderConfig.LevelKey = "level"
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	jsonEncoder := zapcore.NewJSONEncoder(encoderConfig)

	var consoleEncoder zapcore.Encoder
	if isProd {
		consoleEncoder = jsonEncoder
	} else {
		consoleEncoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), minLevel),
	}

	if logFilePath != "" {
		if err := os.MkdirAll(filepath.Dir(logFilePath), 0o755); err == nil {
			rotator := &lumberjack.Logger{
				Filename:   logFilePath,
				MaxSize:    10, // megabytes
				MaxBackups: 5,
				MaxAge:     30, // days
				Compress:   true,
			}
			cores = append(cores, zapcore.NewCore(jsonEncoder, zapcore.AddSync(rotator), minLevel))
		}
	}

	l := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	return &ZapLogger{logger: l}
}

// NewNop returns a logger that discards everything.
func NewNop() *ZapLogger {
	return &ZapLogger{logger: zap.NewNop()}
}

// FromZap wraps an existing zap logger, mostly for tests using observers.
func FromZap(l *zap.Logger) *ZapLogger {
	return &ZapLogger{logger: l}
}

func (l *ZapLogger) Debug(module, message string, details map[string]interface{}) {
	l.logger.Debug(message, fields(module, details)...)
}

func (l *ZapLogger) Info(module, message string, details map[string]interface{}) {
	l.logger.Info(message, fields(module, details)...)
}

func (l *ZapLogger) Warn(module, message string, details map[string]interface{}) {
	l.logger.Warn(message, fields(module, details)...)
}

func (l *ZapLogger) Error(module, message string, details map[string]interface{}) {
	f := fields(module, details)
	if err, ok := details["error"].(error); ok {
		f = append(f, zap.Error(err))
	}
	l.logger.Error(message, f...)
}

func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

// StdLog adapts the logger for libraries that expect a *log.Logger, such as
// the gorm query logger.
func (l *ZapLogger) StdLog(module string) *log.Logger {
	return zap.NewStdLog(l.logger.WithOptions(zap.AddCallerSkip(-1)).With(zap.String("module", module)))
}

func fields(module string, details map[string]interface{}) []zap.Field {
	flat := make(map[string]interface{}, len(details))
	for k, v := range details {
		// errors marshal to {} through reflection
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		flat[k] = v
	}
	return []zap.Field{zap.String("module", module), zap.Any("details", flat)}
}

func parseLevel(level string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel
	}
	return l
}
