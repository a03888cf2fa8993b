package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// diagnostic file rotation limits
const (
	diagMaxSizeMB  = 50
	diagMaxBackups = 3
	diagMaxAgeDays = 7
)

// newLogger builds the diagnostics logger: console lines on stderr and,
// when DiagLogFile is set, JSON lines in a rotated file. The returned func
// flushes and closes the outputs.
func newLogger(cfg *Config) (*zap.Logger, func(), error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level),
	}
	var diag *lumberjack.Logger
	if cfg.DiagLogFile != "" {
		diag = &lumberjack.Logger{
			Filename:   cfg.DiagLogFile,
			MaxSize:    diagMaxSizeMB,
			MaxBackups: diagMaxBackups,
			MaxAge:     diagMaxAgeDays,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(diag), level))
	}

	logger := zap.New(zapcore.NewTee(cores...)).Named("logshard")
	closeFn := func() {
		_ = logger.Sync()
		if diag != nil {
			_ = diag.Close()
		}
	}
	return logger, closeFn, nil
}
