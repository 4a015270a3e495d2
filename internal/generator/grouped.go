package generator

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SlotService/internal/domain"
)

// GenerateGrouped генерирует минимальные слоты за диапазон и склеивает
// последовательные слоты в синтетические агрегаты
//
// В обычном режиме агрегат закрывается, как только суммарная потенциальная
// вместимость его слотов достигает seats. В режиме allOpen агрегат закрывается
// ровно после seats минимальных слотов независимо от их вместимости.
// Слот вне предиката (закрыт, в прошлом, разрыв по времени) обрывает текущий
// агрегат; недобравший порог агрегат отбрасывается — он не способен
// удовлетворить запрос
func (g *Generator) GenerateGrouped(ctx context.Context, idForm int64, startingDate, endingDate time.Time, seats int, allOpen bool) ([]domain.GroupedSlot, error) {
	if seats <= 0 {
		return nil, ErrInvalidSeatTarget
	}

	minimal, err := g.Generate(ctx, idForm, startingDate, endingDate)
	if err != nil {
		return nil, err
	}

	now := g.timeProvider.Now()

	var groups []domain.GroupedSlot
	var current *domain.GroupedSlot
	accumulated := 0

	reset := func() {
		current = nil
		accumulated = 0
	}

	for i := range minimal {
		slot := &minimal[i]

		if !slot.IsOpen || slot.IsElapsed(now) {
			reset()
			continue
		}

		// Разрыв непрерывности (другой день или дыра в расписании)
		if current != nil && !slot.StartingDateTime.Equal(current.EndingDateTime) {
			reset()
		}

		if current == nil {
			current = &domain.GroupedSlot{
				IDForm:           idForm,
				StartingDateTime: slot.StartingDateTime,
			}
		}

		current.EndingDateTime = slot.EndingDateTime
		current.NbSlots++
		current.NbPotentialRemainingPlaces += slot.NbPotentialRemainingPlaces
		if slot.NbPotentialRemainingPlaces == 0 {
			current.IsFull = true
		}

		if allOpen {
			accumulated++
		} else {
			accumulated += slot.NbPotentialRemainingPlaces
		}

		if accumulated >= seats {
			groups = append(groups, *current)
			reset()
		}
	}

	return groups, nil
}
