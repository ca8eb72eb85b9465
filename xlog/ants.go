package xlog

import (
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap/zapcore"
)

// AntsXLogger receives the pool panics and worker errors.
type AntsXLogger struct {
	logger XLogger
}

var _ ants.Logger = (*AntsXLogger)(nil)

func (l *AntsXLogger) Printf(format string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Logf(zapcore.ErrorLevel, format, args...)
}

func NewAntsXLogger(logger XLogger) *AntsXLogger {
	return &AntsXLogger{logger: componentLogger(logger, "Ants")}
}
