package cancel_booking

import "context"

type BookingCoordinator interface {
	ReleaseBooking(ctx context.Context, idSlot int64, seats int) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
