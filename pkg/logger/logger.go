// Package logger provides the structured logging setup shared by every
// component of the position database: storage, pipeline, importer and
// query engine all take a *zap.SugaredLogger built here rather than
// constructing their own.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production-configured, JSON-encoded logger scoped to
// service (e.g. "partition", "importer", "query"). Callers get a
// *zap.SugaredLogger so call sites can use the key/value Infow/Errorw
// style used throughout this module.
func New(service string) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	log, err := cfg.Build()
	if err != nil {
		// Logging construction failing means the process can't observe
		// itself; fall back to a no-op logger rather than panicking so
		// that a misconfigured encoder never takes down the database.
		log = zap.NewNop()
	}

	return log.Sugar().With("service", service)
}

// Nop returns a logger that discards everything, for tests and for
// callers that genuinely don't want output.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
