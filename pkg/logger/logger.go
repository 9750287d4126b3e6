// Package logger provides a zap-based logger shared by all components
package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logger initialization options
type Config struct {
	LogFile   string // Path to the log file ("" disables file output)
	LogLevel  string // Minimal level: debug, info, warn, error
	AppName   string // Added to every entry as the "app" field
	AddCaller bool   // Annotate entries with the caller position
}

// Logger wraps zap.Logger so packages depend on one local type
type Logger struct {
	*zap.Logger
}

var (
	global *Logger
	once   sync.Once
)

// Init builds the global logger from cfg. It must be called once
// before Get; subsequent calls are no-ops.
func Init(cfg Config) error {
	var initErr error

	once.Do(func() {
		level := zapcore.InfoLevel
		if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			level = zapcore.InfoLevel
		}

		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

		cores := []zapcore.Core{
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(encCfg),
				zapcore.AddSync(os.Stdout),
				level,
			),
		}

		if cfg.LogFile != "" {
			file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				initErr = err
				return
			}

			cores = append(cores, zapcore.NewCore(
				zapcore.NewJSONEncoder(encCfg),
				zapcore.AddSync(file),
				level,
			))
		}

		opts := []zap.Option{
			zap.Fields(zap.String("app", cfg.AppName)),
		}
		if cfg.AddCaller {
			opts = append(opts, zap.AddCaller())
		}

		global = &Logger{zap.New(zapcore.NewTee(cores...), opts...)}
	})

	return initErr
}

// Get returns the global logger. A no-op logger is returned
// if Init was never called, so callers never get nil.
func Get() *Logger {
	if global == nil {
		return &Logger{zap.NewNop()}
	}
	return global
}

// Sync flushes buffered log entries
func Sync() error {
	if global == nil {
		return nil
	}
	return global.Logger.Sync()
}
