package daemon

import (
	"github.com/ridgedb/ridge/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds ridge's process-wide structured logger from the
// logging config section: a production JSON encoder when Production is
// set, a human-readable development encoder otherwise, at the configured
// level, writing to File when set or stderr by default.
func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Production {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.Set(cfg.Level); err == nil {
			zcfg.Level = zap.NewAtomicLevelAt(level)
		}
	}

	if cfg.File != "" {
		zcfg.OutputPaths = []string{cfg.File}
		zcfg.ErrorOutputPaths = []string{cfg.File}
	}

	return zcfg.Build()
}
