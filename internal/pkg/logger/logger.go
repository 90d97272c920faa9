// Package logger adapts zap to the ports.Logger abstraction.
package logger

import (
	"go.uber.org/zap"

	"github.com/doeshing/opsgpt/internal/ports"
)

// ZapLogger routes structured application logs through a zap core.
type ZapLogger struct {
	log *zap.SugaredLogger
}

// New builds a ZapLogger. Verbose enables development output at debug level;
// otherwise the production config is used.
func New(verbose bool) (*ZapLogger, error) {
	var core *zap.Logger
	var err error
	if verbose {
		core, err = zap.NewDevelopment()
	} else {
		core, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return &ZapLogger{log: core.Sugar()}, nil
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() *ZapLogger {
	return &ZapLogger{log: zap.NewNop().Sugar()}
}

func (l *ZapLogger) Debug(msg string, fields map[string]any) {
	l.log.Debugw(msg, flatten(fields)...)
}

func (l *ZapLogger) Info(msg string, fields map[string]any) {
	l.log.Infow(msg, flatten(fields)...)
}

func (l *ZapLogger) Warn(msg string, fields map[string]any) {
	l.log.Warnw(msg, flatten(fields)...)
}

func (l *ZapLogger) Error(msg string, err error, fields map[string]any) {
	kv := flatten(fields)
	if err != nil {
		kv = append(kv, "error", err.Error())
	}
	l.log.Errorw(msg, kv...)
}

// Sync flushes buffered log entries. Safe to call on shutdown.
func (l *ZapLogger) Sync() error {
	return l.log.Sync()
}

var _ ports.Logger = (*ZapLogger)(nil)

func flatten(fields map[string]any) []any {
	kv := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		kv = append(kv, k, v)
	}
	return kv
}
