package logger

import (
	"io"

	"github.com/sirupsen/logrus"
)

// LogrusLogger implements the Logger interface on top of a logrus.Logger.
type LogrusLogger struct {
	l *logrus.Logger
}

// NewLogrusLogger returns a Logger writing to out at the given logrus level. json selects
// the JSON formatter instead of the text one.
func NewLogrusLogger(out io.Writer, level string, json bool) (Logger, error) {
	l := logrus.New()

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	l.SetLevel(parsed)
	l.SetOutput(out)
	if json {
		l.SetFormatter(&logrus.JSONFormatter{})
	}

	return &LogrusLogger{l: l}, nil
}

func (logger *LogrusLogger) Debugf(msg string, args ...any) {
	logger.l.Debugf(msg, args...)
}

func (logger *LogrusLogger) Infof(msg string, args ...any) {
	logger.l.Infof(msg, args...)
}

func (logger *LogrusLogger) Warnf(msg string, args ...any) {
	logger.l.Warnf(msg, args...)
}

func (logger *LogrusLogger) Errorf(msg string, args ...any) {
	logger.l.Errorf(msg, args...)
}
