package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SlotService/internal/domain"
)

// UpdateSlot применяет административную правку слота
//
// Правка вместимости масштабирует счётчики на дельту (с зажимом снизу
// нулём), никогда не выводя новые брони. Если изменилась длительность и
// shift=false, последующие слоты дня, накрытые новым концом, удаляются и
// синтезируется ровно один filler-слот до следующего незатронутого слота
// или конца дня. Если shift=true, все последующие слоты дня (сохранённые и
// шаблонные) переносятся на дельту; вытолкнутые за время закрытия
// удаляются, открывшийся при сдвиге назад хвост заполняется filler-слотами
// до конца дня
//
// Порядок блокировок: form-lock → slot-lock'и всех затронутых слотов в
// возрастающем порядке id
func (c *Coordinator) UpdateSlot(ctx context.Context, edited *domain.Slot, endingTimeChanged, shift bool) (*domain.Slot, error) {
	if edited.MaxCapacity < 0 {
		return nil, fmt.Errorf("%w: negative capacity", ErrInvalidInput)
	}

	day := truncateToDay(edited.StartingDateTime)

	// Слоты дня в исходной раскладке — до каких-либо мутаций
	daySlots, err := c.planner.Generate(ctx, edited.IDForm, day, day)
	if err != nil {
		return nil, fmt.Errorf("%w: regenerate day: %v", ErrInternal, err)
	}

	// Правка ещё не материализованного слота: сначала сохраняем его
	// шаблонную версию, дельты считаются от неё
	if !edited.IsPersisted() {
		base := findByStart(daySlots, edited.StartingDateTime)
		if base == nil {
			return nil, domain.ErrSlotNotFound
		}
		persisted, err := c.ensurePersisted(ctx, base)
		if err != nil {
			return nil, err
		}
		edited.ID = persisted.ID
	}

	unlockForm := c.formLocks.Lock(edited.IDForm)
	defer unlockForm()

	ids := []int64{edited.ID}
	for i := range daySlots {
		if daySlots[i].IsPersisted() && daySlots[i].ID != edited.ID {
			ids = append(ids, daySlots[i].ID)
		}
	}
	unlock := c.slotLocks.LockOrdered(ids...)
	defer unlock()

	current, err := c.getSlot(ctx, edited.ID)
	if err != nil {
		return nil, err
	}

	oldEnd := current.EndingDateTime
	delta := edited.EndingDateTime.Sub(oldEnd)

	// Чистая правка вместимости: масштабируем счётчики на дельту
	if capDelta := edited.MaxCapacity - current.MaxCapacity; capDelta != 0 {
		current.MaxCapacity = edited.MaxCapacity
		current.NbRemainingPlaces = clampZero(current.NbRemainingPlaces + capDelta)
		current.NbPotentialRemainingPlaces = clampZero(current.NbPotentialRemainingPlaces + capDelta)
	}
	current.IsOpen = edited.IsOpen
	if endingTimeChanged {
		current.EndingDateTime = edited.EndingDateTime
	}

	workingDay, err := c.planner.ResolveWorkingDay(ctx, current.IDForm, day)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve working day: %v", ErrInternal, err)
	}
	current.IsSpecific = !matchesWorkingDay(workingDay, current)

	if err := c.slots.Update(ctx, current); err != nil {
		return nil, fmt.Errorf("%w: persist slot edit: %v", ErrInternal, err)
	}
	c.notifySlotChanged(ctx, current.ID)

	if endingTimeChanged && delta != 0 {
		dayEnd := dayClosingTime(workingDay, day, daySlots)
		subsequent := slotsAfter(daySlots, current.StartingDateTime)

		if shift {
			err = c.shiftDay(ctx, current, subsequent, delta, dayEnd)
		} else {
			err = c.reflowDay(ctx, current, subsequent, dayEnd)
		}
		if err != nil {
			return nil, err
		}
	}

	c.logger.Info("UpdateSlot: slot id=%d form=%d updated (endingTimeChanged=%t shift=%t)",
		current.ID, current.IDForm, endingTimeChanged, shift)

	return current, nil
}

// reflowDay правка длительности без сдвига: удаляет последующие слоты,
// накрытые новым концом, и строит один filler-слот до следующего
// незатронутого слота или конца дня
func (c *Coordinator) reflowDay(ctx context.Context, edited *domain.Slot, subsequent []domain.Slot, dayEnd time.Time) error {
	newEnd := edited.EndingDateTime
	nextStart := dayEnd

	for i := range subsequent {
		s := &subsequent[i]
		if s.StartingDateTime.Before(newEnd) {
			if s.IsPersisted() {
				if err := c.slots.Delete(ctx, s.ID); err != nil {
					return fmt.Errorf("%w: delete covered slot id=%d: %v", ErrInternal, s.ID, err)
				}
				c.notifySlotRemoved(ctx, s.ID)
			}
			continue
		}
		nextStart = s.StartingDateTime
		break
	}

	if newEnd.Before(nextStart) {
		filler := &domain.Slot{
			IDForm:                     edited.IDForm,
			StartingDateTime:           newEnd,
			EndingDateTime:             nextStart,
			MaxCapacity:                edited.MaxCapacity,
			NbRemainingPlaces:          edited.MaxCapacity,
			NbPotentialRemainingPlaces: edited.MaxCapacity,
			IsOpen:                     true,
			IsSpecific:                 true,
		}
		created, err := c.slots.Create(ctx, filler)
		if err != nil {
			return fmt.Errorf("%w: create filler slot: %v", ErrInternal, err)
		}
		c.notifySlotCreated(ctx, created.ID)
	}

	return nil
}

// shiftDay переносит каждый последующий слот дня на дельту
// Вытолкнутые за закрытие удаляются; при сдвиге назад хвост дня
// заполняется filler-слотами до времени закрытия
func (c *Coordinator) shiftDay(ctx context.Context, edited *domain.Slot, subsequent []domain.Slot, delta time.Duration, dayEnd time.Time) error {
	lastEnd := edited.EndingDateTime

	for i := range subsequent {
		s := subsequent[i]
		newStart := s.StartingDateTime.Add(delta)
		newEnd := s.EndingDateTime.Add(delta)

		if newEnd.After(dayEnd) {
			// Вытолкнут за время закрытия
			if s.IsPersisted() {
				if err := c.slots.Delete(ctx, s.ID); err != nil {
					return fmt.Errorf("%w: delete pushed-out slot id=%d: %v", ErrInternal, s.ID, err)
				}
				c.notifySlotRemoved(ctx, s.ID)
			}
			continue
		}

		s.StartingDateTime = newStart
		s.EndingDateTime = newEnd
		s.IsSpecific = true

		if s.IsPersisted() {
			if err := c.slots.Update(ctx, &s); err != nil {
				return fmt.Errorf("%w: retime slot id=%d: %v", ErrInternal, s.ID, err)
			}
			c.notifySlotChanged(ctx, s.ID)
		} else {
			// Шаблонный слот материализуется уже со сдвинутыми границами,
			// иначе генерация вернула бы его на шаблонную позицию
			created, err := c.slots.Create(ctx, &s)
			if err != nil {
				return fmt.Errorf("%w: materialize shifted slot: %v", ErrInternal, err)
			}
			c.notifySlotCreated(ctx, created.ID)
		}

		if newEnd.After(lastEnd) {
			lastEnd = newEnd
		}
	}

	// Сдвиг назад открыл хвост дня — заполняем его filler-слотами
	if delta < 0 && lastEnd.Before(dayEnd) {
		fillerDuration := edited.EndingDateTime.Sub(edited.StartingDateTime)
		if len(subsequent) > 0 {
			last := subsequent[len(subsequent)-1]
			fillerDuration = last.EndingDateTime.Sub(last.StartingDateTime)
		}
		if fillerDuration <= 0 {
			return nil
		}

		for cursor := lastEnd; !cursor.Add(fillerDuration).After(dayEnd); cursor = cursor.Add(fillerDuration) {
			filler := &domain.Slot{
				IDForm:                     edited.IDForm,
				StartingDateTime:           cursor,
				EndingDateTime:             cursor.Add(fillerDuration),
				MaxCapacity:                edited.MaxCapacity,
				NbRemainingPlaces:          edited.MaxCapacity,
				NbPotentialRemainingPlaces: edited.MaxCapacity,
				IsOpen:                     true,
				IsSpecific:                 true,
			}
			created, err := c.slots.Create(ctx, filler)
			if err != nil {
				return fmt.Errorf("%w: create tail filler: %v", ErrInternal, err)
			}
			c.notifySlotCreated(ctx, created.ID)
		}
	}

	return nil
}

// findByStart ищет слот дня с точным временем начала
func findByStart(slots []domain.Slot, start time.Time) *domain.Slot {
	for i := range slots {
		if slots[i].StartingDateTime.Equal(start) {
			return &slots[i]
		}
	}
	return nil
}

// slotsAfter возвращает слоты дня, начинающиеся строго позже start
func slotsAfter(slots []domain.Slot, start time.Time) []domain.Slot {
	var result []domain.Slot
	for i := range slots {
		if slots[i].StartingDateTime.After(start) {
			result = append(result, slots[i])
		}
	}
	return result
}

// dayClosingTime время закрытия дня: максимальный конец шаблона, при
// отсутствии шаблонов — конец последнего слота дня
func dayClosingTime(workingDay *domain.WorkingDay, day time.Time, daySlots []domain.Slot) time.Time {
	if workingDay != nil {
		if max, ok := workingDay.MaxEndingTime(); ok {
			if at, err := max.At(day); err == nil {
				return at
			}
		}
	}
	var latest time.Time
	for i := range daySlots {
		if daySlots[i].EndingDateTime.After(latest) {
			latest = daySlots[i].EndingDateTime
		}
	}
	return latest
}

// matchesWorkingDay проверяет соответствие слота хотя бы одному шаблону дня
func matchesWorkingDay(workingDay *domain.WorkingDay, slot *domain.Slot) bool {
	if workingDay == nil {
		return false
	}
	for i := range workingDay.TimeSlots {
		if slot.MatchesTemplate(&workingDay.TimeSlots[i]) {
			return true
		}
	}
	return false
}

func clampZero(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
