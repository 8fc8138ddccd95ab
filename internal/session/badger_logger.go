package session

import (
	"strings"

	"go.uber.org/zap"

	"github.com/tribler/tsap/service/internal/infrastructure/logging"
)

// badgerLogger routes badger's printf-style logging into zap
type badgerLogger struct {
	sugar *zap.SugaredLogger
}

func newBadgerLogger(logger *logging.Logger) *badgerLogger {
	return &badgerLogger{sugar: logger.Named("badger").Sugar()}
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.sugar.Errorf(strings.TrimSpace(format), args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.sugar.Warnf(strings.TrimSpace(format), args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.sugar.Infof(strings.TrimSpace(format), args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.sugar.Debugf(strings.TrimSpace(format), args...)
}
