package commit_booking

import (
	"context"

	"github.com/m04kA/SMC-SlotService/internal/domain"
)

type BookingCoordinator interface {
	CommitBooking(ctx context.Context, draft *domain.BookingDraft) (*domain.Appointment, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
