package scheduler

import (
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/platform/logging"
	"github.com/robfig/cron/v3"
)

type cronLogger struct {
	logger *logging.Logger
}

func newCronLogger(logger *logging.Logger) cron.Logger {
	return cronLogger{logger: logger}
}

// cron reports every dispatch through Info, keep those at debug.
func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	args := append([]interface{}{"error", err}, keysAndValues...)
	l.logger.Error("cron: "+msg, args...)
}
