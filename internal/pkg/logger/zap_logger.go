package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the module-tagged structured logger used across the pipeline.
type Logger interface {
	Debug(module, message string, details map[string]any)
	Info(module, message string, details map[string]any)
	Warn(module, message string, details map[string]any)
	Error(module, message string, details map[string]any)
	Sync() error
}

type ZapLogger struct {
	logger *zap.Logger
}

// Options configure NewZapLogger.
type Options struct {
	Level string
	// File enables a rotated JSON sink in addition to the console.
	File string
	// Verbose forces debug level on the console.
	Verbose bool
}

func NewZapLogger(opts Options) *ZapLogger {
	level := zap.InfoLevel
	if opts.Level != "" {
		if parsed, err := zapcore.ParseLevel(opts.Level); err == nil {
			level = parsed
		}
	}
	if opts.Verbose {
		level = zap.DebugLevel
	}

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.Lock(os.Stderr),
		level,
	)
	core := consoleCore

	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // Megabytes
			MaxBackups: 5,
			MaxAge:     30, // Days
			Compress:   true,
		}
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderConfig.MessageKey = "message"
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

		fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(rotator), level)
		core = zapcore.NewTee(consoleCore, fileCore)
	}

	// Skip 1 so the caller points past this wrapper.
	return &ZapLogger{logger: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))}
}

// NewFromZap wraps an existing zap logger, e.g. zaptest or zap.NewNop in tests.
func NewFromZap(l *zap.Logger) *ZapLogger {
	return &ZapLogger{logger: l.WithOptions(zap.AddCallerSkip(1))}
}

// NewNop returns a logger that discards everything.
func NewNop() *ZapLogger {
	return &ZapLogger{logger: zap.NewNop()}
}

func (l *ZapLogger) Debug(module, message string, details map[string]any) {
	l.logger.Debug(message, fields(module, details)...)
}

func (l *ZapLogger) Info(module, message string, details map[string]any) {
	l.logger.Info(message, fields(module, details)...)
}

func (l *ZapLogger) Warn(module, message string, details map[string]any) {
	l.logger.Warn(message, fields(module, details)...)
}

func (l *ZapLogger) Error(module, message string, details map[string]any) {
	fs := fields(module, details)
	if err, ok := details["error"].(error); ok {
		fs = append(fs, zap.Error(err))
	}
	l.logger.Error(message, fs...)
}

func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

func fields(module string, details map[string]any) []zap.Field {
	fs := []zap.Field{zap.String("module", module)}
	if len(details) > 0 {
		fs = append(fs, zap.Any("details", details))
	}
	return fs
}
