package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger: JSON for prod, colored console otherwise.
func New(env string) (*zap.Logger, error) {
	var cfg zap.Config

	if env == "prod" || env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	cfg.OutputPaths = []string{"stdout"}

	return cfg.Build()
}

// Must is New for command entrypoints that cannot run without a logger.
func Must(env string) *zap.Logger {
	l, err := New(env)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	return l
}
