package temporal

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"go.temporal.io/sdk/log"
)

// Logger adapts a logrus logger to the Temporal SDK logger interface.
type Logger struct {
	entry logrus.FieldLogger
}

var _ log.Logger = (*Logger)(nil)

// NewLogger wraps logger for use by Temporal clients and workers.
func NewLogger(logger logrus.FieldLogger) *Logger {
	return &Logger{entry: logger.WithField("component", "temporal")}
}

func (l *Logger) Debug(msg string, keyvals ...interface{}) { l.with(keyvals).Debug(msg) }
func (l *Logger) Info(msg string, keyvals ...interface{})  { l.with(keyvals).Info(msg) }
func (l *Logger) Warn(msg string, keyvals ...interface{})  { l.with(keyvals).Warn(msg) }
func (l *Logger) Error(msg string, keyvals ...interface{}) { l.with(keyvals).Error(msg) }

// with turns alternating key/value pairs into logrus fields. A trailing key
// without a value is kept under "extra".
func (l *Logger) with(keyvals []interface{}) logrus.FieldLogger {
	if len(keyvals) == 0 {
		return l.entry
	}
	fields := make(logrus.Fields, len(keyvals)/2+1)
	for i := 0; i < len(keyvals); i += 2 {
		if i+1 == len(keyvals) {
			fields["extra"] = keyvals[i]
			break
		}
		fields[fmt.Sprint(keyvals[i])] = keyvals[i+1]
	}
	return l.entry.WithFields(fields)
}
