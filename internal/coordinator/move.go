package coordinator

import (
	"context"
	"fmt"

	"github.com/m04kA/SMC-SlotService/internal/domain"
)

// MoveBooking переносит занятые места между двумя слотами
//
// Обе блокировки берутся в фиксированном глобальном порядке (по возрастанию
// id), поэтому встречные переносы не взаимоблокируются. Списание с целевого
// и возврат на исходный слот выполняются в одной транзакции
func (c *Coordinator) MoveBooking(ctx context.Context, idFrom, idTo int64, seats int) error {
	if seats <= 0 {
		return fmt.Errorf("%w: seats=%d", ErrInvalidInput, seats)
	}
	if idFrom == idTo {
		return fmt.Errorf("%w: source and target slot are the same", ErrInvalidInput)
	}

	unlock := c.slotLocks.LockOrdered(idFrom, idTo)
	defer unlock()

	from, err := c.getSlot(ctx, idFrom)
	if err != nil {
		return err
	}
	to, err := c.getSlot(ctx, idTo)
	if err != nil {
		return err
	}

	now := c.timeProvider.Now()
	if to.IsElapsed(now) {
		return domain.ErrSlotElapsed
	}
	if !to.IsOpen || seats > to.NbRemainingPlaces {
		return domain.ErrSlotFull
	}

	// Целевой слот: списание как при подтверждении
	to.NbRemainingPlaces -= seats
	if to.NbPotentialRemainingPlaces > to.NbRemainingPlaces {
		to.NbPotentialRemainingPlaces = to.NbRemainingPlaces
	}
	to.NbPlacesTaken += seats

	// Исходный слот: возврат как при отмене, с зажимом maxCapacity
	from.NbRemainingPlaces += seats
	if from.NbRemainingPlaces > from.MaxCapacity {
		from.NbRemainingPlaces = from.MaxCapacity
	}
	from.NbPotentialRemainingPlaces += seats
	if from.NbPotentialRemainingPlaces > from.MaxCapacity {
		from.NbPotentialRemainingPlaces = from.MaxCapacity
	}
	from.NbPlacesTaken = clampZero(from.NbPlacesTaken - seats)

	err = c.tx.DoSerializable(ctx, func(txCtx context.Context) error {
		if err := c.slots.Update(txCtx, to); err != nil {
			return fmt.Errorf("%w: persist target slot: %v", ErrInternal, err)
		}
		if err := c.slots.Update(txCtx, from); err != nil {
			return fmt.Errorf("%w: persist source slot: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.notifySlotChanged(ctx, from.ID)
	c.notifySlotChanged(ctx, to.ID)

	c.logger.Info("MoveBooking: %d seats moved from slot id=%d to slot id=%d", seats, idFrom, idTo)
	return nil
}
