package logger

import (
	"strings"

	"linkcart/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the service logger from LOG_LEVEL and LOG_FORMAT.
func New(cfg config.Log, env string) (*zap.Logger, error) {
	var zc zap.Config
	if strings.EqualFold(cfg.Format, "console") {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(parseLevel(cfg.Level))

	l, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return l.With(zap.String("service", "linkcart"), zap.String("env", env)), nil
}

func parseLevel(lvl string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
