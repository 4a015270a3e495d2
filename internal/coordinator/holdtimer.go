package coordinator

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SlotService/internal/domain"
)

// realScheduler планировщик на time.AfterFunc
type realScheduler struct{}

// NewScheduler возвращает планировщик, работающий на системных таймерах
func NewScheduler() Scheduler {
	return realScheduler{}
}

type realTimer struct {
	t *time.Timer
}

func (t realTimer) Stop() bool {
	return t.t.Stop()
}

func (realScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return realTimer{t: time.AfterFunc(d, fn)}
}

// activeHold зарегистрированное удержание с его таймером
//
// Поле cancelled читается и пишется только под блокировкой слота, поэтому
// гонка отмены против срабатывания исключена: проснувшийся таймер сначала
// берёт ту же блокировку и проверяет флаг
type activeHold struct {
	hold      domain.Hold
	timer     Timer
	cancelled bool
}

// expireHold срабатывание TTL удержания
//
// Под блокировкой слота: перечитывает слот и возвращает удержанные места
// только в nbPotentialRemainingPlaces — никогда в nbRemainingPlaces, чтобы
// протухшее удержание не воскресило места, уже потраченные подтверждённой
// бронью. Потенциал зажимается сверху текущим nbRemainingPlaces
func (c *Coordinator) expireHold(idSlot int64, token string) {
	ctx := context.Background()

	unlock := c.slotLocks.Lock(idSlot)
	defer unlock()

	entry := c.lookupHold(idSlot)
	if entry == nil || entry.hold.Token != token || entry.cancelled {
		return
	}
	c.removeHold(idSlot)

	slot, err := c.getSlot(ctx, idSlot)
	if err != nil {
		c.logger.Error("HoldTimer: slot id=%d reread failed on expiry: %v", idSlot, err)
		return
	}

	restored := slot.NbPotentialRemainingPlaces + entry.hold.PlacesHeld
	if restored > slot.NbRemainingPlaces {
		restored = slot.NbRemainingPlaces
	}
	slot.NbPotentialRemainingPlaces = restored

	if err := c.slots.Update(ctx, slot); err != nil {
		c.logger.Error("HoldTimer: failed to persist slot id=%d on expiry: %v", idSlot, err)
		return
	}

	if c.metrics != nil {
		c.metrics.HoldsExpired.Inc()
		c.metrics.HoldsActive.Dec()
	}

	c.logger.Info("HoldTimer: hold token=%s on slot id=%d expired, %d places returned to potential",
		token, idSlot, entry.hold.PlacesHeld)
}
