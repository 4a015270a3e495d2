package cancel_hold

import "context"

type HoldCoordinator interface {
	ReleaseHold(ctx context.Context, idSlot int64) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
