package place_hold

import (
	"context"

	"github.com/m04kA/SMC-SlotService/internal/domain"
)

type HoldCoordinator interface {
	PlaceHold(ctx context.Context, slot *domain.Slot, places int) (*domain.Hold, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
