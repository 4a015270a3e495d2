package update_slot

import (
	"context"

	"github.com/m04kA/SMC-SlotService/internal/domain"
)

type SlotCoordinator interface {
	UpdateSlot(ctx context.Context, edited *domain.Slot, endingTimeChanged, shift bool) (*domain.Slot, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
