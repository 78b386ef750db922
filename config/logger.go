package config

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Prepare builds the program logger from the logging section: development
// console encoding, level by configuration, a nop logger when silenced.
func (c LoggingConfig) Prepare() (*zap.Logger, error) {
	var level zapcore.Level
	switch c.Level {
	case "none":
		return zap.NewNop(), nil
	case "debug":
		level = zapcore.DebugLevel
	default:
		level = zapcore.InfoLevel
	}

	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	ec.EncodeLevel = zapcore.CapitalLevelEncoder

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    ec,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	return cfg.Build()
}
