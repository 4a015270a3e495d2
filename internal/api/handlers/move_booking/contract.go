package move_booking

import "context"

type BookingCoordinator interface {
	MoveBooking(ctx context.Context, idFrom, idTo int64, seats int) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
