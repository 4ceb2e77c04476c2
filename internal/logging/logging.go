package logging

import (
	"github.com/blinklabs-io/nft-indexer/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var globalLogger *zap.SugaredLogger

// Configure builds the global logger from the current config. Safe to
// call again after config.Load to pick up a changed level/format.
func Configure() {
	cfg := config.GetConfig()
	var level zapcore.Level
	if err := level.Set(cfg.Logging.Level); err != nil {
		level = zapcore.InfoLevel
	}
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	if cfg.Logging.Format == "console" {
		zapCfg.Encoding = "console"
		zapCfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	logger, err := zapCfg.Build()
	if err != nil {
		logger = zap.NewNop()
	}
	globalLogger = logger.Sugar().With("component", "indexer")
}

// GetLogger returns the global logger, configuring it on first use.
func GetLogger() *zap.SugaredLogger {
	if globalLogger == nil {
		Configure()
	}
	return globalLogger
}
