package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// L is the global logger instance.
var L *zap.Logger = zap.NewNop()

// Init sets up the logger for the given environment.
func Init(env string) {
	var config zap.Config

	if env == "production" {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	l, err := config.Build()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	L = l
}

// Sync flushes any buffered log entries.
func Sync() {
	_ = L.Sync()
}
