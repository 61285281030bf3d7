package log

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogrusLogger adapts a logrus logger to the Logger interface. The crawl
// command uses it so long passes produce timestamped, leveled output.
type LogrusLogger struct {
	logger *logrus.Logger
}

func NewLogrusLogger() (*LogrusLogger, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetLevel(logrus.DebugLevel)
	return &LogrusLogger{logger: logger}, nil
}

func (l *LogrusLogger) Info(ctx context.Context, format string, args ...interface{}) {
	l.logger.Infof(format, args...)
}

func (l *LogrusLogger) Alert(ctx context.Context, format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

func (l *LogrusLogger) Error(ctx context.Context, format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

func (l *LogrusLogger) Warn(ctx context.Context, format string, args ...interface{}) {
	l.logger.Warnf(format, args...)
}

func (l *LogrusLogger) Debug(ctx context.Context, format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

func (l *LogrusLogger) Notice(ctx context.Context, format string, args ...interface{}) {
	l.logger.Infof(format, args...)
}

func (l *LogrusLogger) Critical(ctx context.Context, format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

func (l *LogrusLogger) Emergency(ctx context.Context, format string, args ...interface{}) {
	l.logger.Fatalf(format, args...)
}
