package main

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Seliarn/nc2018team1/internal/config"
)

// newLogger builds the process logger at the configured level. Falls
// back to info when no config is readable.
func newLogger() *zap.Logger {
	level := zapcore.InfoLevel
	if cfg, err := config.Load(); err == nil {
		if parsed, err := zapcore.ParseLevel(cfg.Log.Level); err == nil {
			level = parsed
		}
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	logger, err := zc.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
