package get_calendar

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SlotService/internal/domain"
)

type SlotPlanner interface {
	BuildRange(ctx context.Context, idForm int64, startingDate, endingDate time.Time) ([]domain.Slot, error)
	GenerateGrouped(ctx context.Context, idForm int64, startingDate, endingDate time.Time, seats int, allOpen bool) ([]domain.GroupedSlot, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
