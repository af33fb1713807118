package logger

import (
	"io"
	"log"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	Info    = log.New(os.Stdout, "[INFO] ", log.LstdFlags)
	Warning = log.New(os.Stdout, "[WARNING] ", log.LstdFlags)
	Error   = log.New(os.Stderr, "[ERROR] ", log.LstdFlags|log.Lshortfile)
	Debug   = log.New(io.Discard, "[DEBUG] ", log.LstdFlags)
	HTTP    = log.New(os.Stdout, "[HTTP] ", log.LstdFlags)

	base = zap.NewNop()
)

// Setup replaces the package loggers with zap backed ones. Production builds
// log JSON, everything else uses the console encoder. Debug output is only
// enabled when LOG_DEBUG is set.
func Setup(production bool) error {
	cfg := zap.NewDevelopmentConfig()
	if production {
		cfg = zap.NewProductionConfig()
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true

	level := zapcore.InfoLevel
	if os.Getenv("LOG_DEBUG") != "" {
		level = zapcore.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	l, err := cfg.Build()
	if err != nil {
		return err
	}
	base = l

	Info = zap.NewStdLog(l)
	Warning = mustStdLog(l, zapcore.WarnLevel)
	Error = mustStdLog(l, zapcore.ErrorLevel)
	Debug = mustStdLog(l, zapcore.DebugLevel)
	HTTP = zap.NewStdLog(l.Named("http"))
	return nil
}

func mustStdLog(l *zap.Logger, level zapcore.Level) *log.Logger {
	std, err := zap.NewStdLogAt(l, level)
	if err != nil {
		return zap.NewStdLog(l)
	}
	return std
}

// Sync flushes buffered entries, call it before exit.
func Sync() {
	_ = base.Sync()
}
