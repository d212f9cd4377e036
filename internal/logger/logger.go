package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config returns the zap configuration for env. Production logs JSON with
// ISO8601 timestamps; other environments log colored console output. An
// empty or unknown level keeps the environment default (info in production,
// debug otherwise). Every entry carries the service name.
func Config(env, level, service string) zap.Config {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if lvl, err := zapcore.ParseLevel(level); err == nil && level != "" {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	// Containers collect stdout
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	if service != "" {
		cfg.InitialFields = map[string]interface{}{"service": service}
	}
	return cfg
}

// New creates the process logger
func New(env, level, service string) (*zap.Logger, error) {
	return Config(env, level, service).Build(
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
}
