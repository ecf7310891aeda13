// Package logging constructs the *zap.Logger shared by every
// component of the server — the store, the ingest pipeline, and the
// API facade all log through the instance built here rather than each
// configuring their own.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap logger. debug selects human-readable console
// output at debug level; production builds use JSON at info level so
// log aggregation can parse every field.
func New(debug bool) (*zap.Logger, error) {
	if debug {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg.Build()
	}
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}
