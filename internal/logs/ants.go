package logs

import "context"

// AntsLogger forwards the worker pool's Printf output to a Logger at warn level.
type AntsLogger struct {
	Logger Logger
}

func (l *AntsLogger) Printf(format string, args ...interface{}) {
	l.Logger.Warn(context.Background(), "worker pool: "+format, args...)
}
