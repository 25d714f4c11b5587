package log

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

var logger = &logrusLogger{log: newDefault()}

func newDefault() *logrus.Logger {
	l := logrus.New()
	// Libraries stay quiet unless the embedder asks for more.
	l.SetLevel(logrus.WarnLevel)
	return l
}

// GetLogger returns the process-wide logger.
func GetLogger() Logger { return logger }

// Configure sets the level and format of the process-wide logger.
// Levels follow logrus naming (trace, debug, info, warn, error);
// format is "text" or "json".
func Configure(level, format string) error {
	lv, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger.log.SetLevel(lv)

	switch strings.ToLower(format) {
	case "", "text":
		logger.log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unsupported log format %q (text or json)", format)
	}
	return nil
}

type logrusLogger struct {
	log *logrus.Logger
}

func (l *logrusLogger) Trace(args ...interface{}) {
	l.log.Trace(args...)
}

func (l *logrusLogger) Tracef(format string, args ...interface{}) {
	l.log.Tracef(format, args...)
}

func (l *logrusLogger) Debug(args ...interface{}) {
	l.log.Debug(args...)
}

func (l *logrusLogger) Debugf(format string, args ...interface{}) {
	l.log.Debugf(format, args...)
}

func (l *logrusLogger) Info(args ...interface{}) {
	l.log.Info(args...)
}

func (l *logrusLogger) Infof(format string, args ...interface{}) {
	l.log.Infof(format, args...)
}

func (l *logrusLogger) Warn(args ...interface{}) {
	l.log.Warn(args...)
}

func (l *logrusLogger) Warnf(format string, args ...interface{}) {
	l.log.Warnf(format, args...)
}

func (l *logrusLogger) Error(args ...interface{}) {
	l.log.Error(args...)
}

func (l *logrusLogger) Errorf(format string, args ...interface{}) {
	l.log.Errorf(format, args...)
}

func (l *logrusLogger) WithField(field string, value interface{}) Logger {
	return &entryLogger{entry: l.log.WithField(field, value)}
}

func (l *logrusLogger) WithError(err error) Logger {
	return &entryLogger{entry: l.log.WithError(err)}
}

func (l *logrusLogger) IsTraceEnabled() bool {
	return l.log.IsLevelEnabled(logrus.TraceLevel)
}

func (l *logrusLogger) IsDebugEnabled() bool {
	return l.log.IsLevelEnabled(logrus.DebugLevel)
}

// entryLogger carries structured fields accumulated via WithField.
type entryLogger struct {
	entry *logrus.Entry
}

func (l *entryLogger) Trace(args ...interface{}) {
	l.entry.Trace(args...)
}

func (l *entryLogger) Tracef(format string, args ...interface{}) {
	l.entry.Tracef(format, args...)
}

func (l *entryLogger) Debug(args ...interface{}) {
	l.entry.Debug(args...)
}

func (l *entryLogger) Debugf(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

func (l *entryLogger) Info(args ...interface{}) {
	l.entry.Info(args...)
}

func (l *entryLogger) Infof(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

func (l *entryLogger) Warn(args ...interface{}) {
	l.entry.Warn(args...)
}

func (l *entryLogger) Warnf(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

func (l *entryLogger) Error(args ...interface{}) {
	l.entry.Error(args...)
}

func (l *entryLogger) Errorf(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

func (l *entryLogger) WithField(field string, value interface{}) Logger {
	return &entryLogger{entry: l.entry.WithField(field, value)}
}

func (l *entryLogger) WithError(err error) Logger {
	return &entryLogger{entry: l.entry.WithError(err)}
}

func (l *entryLogger) IsTraceEnabled() bool {
	return l.entry.Logger.IsLevelEnabled(logrus.TraceLevel)
}

func (l *entryLogger) IsDebugEnabled() bool {
	return l.entry.Logger.IsLevelEnabled(logrus.DebugLevel)
}
