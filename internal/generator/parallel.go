package generator

import (
	"context"
	"sync"
	"time"

	"github.com/m04kA/SMC-SlotService/internal/domain"
)

// dateRange партиция диапазона генерации (обе даты включительно)
type dateRange struct {
	from time.Time
	to   time.Time
}

// BuildRange генерирует слоты за диапазон, распараллеливая по месяцам
//
// Диапазон длиннее одного месяца режется по границам месяцев, партиции
// генерируются конкурентно и склеиваются в порядке запуска (не в порядке
// завершения). Корректность не зависит от порядка исполнения: генерация
// одного дня не мутирует ничего, что читает другой день
func (g *Generator) BuildRange(ctx context.Context, idForm int64, startingDate, endingDate time.Time) ([]domain.Slot, error) {
	partitions := monthPartitions(truncateToDay(startingDate), truncateToDay(endingDate))

	if len(partitions) <= 1 {
		return g.Generate(ctx, idForm, startingDate, endingDate)
	}

	results := make([][]domain.Slot, len(partitions))
	errs := make([]error, len(partitions))

	var wg sync.WaitGroup
	for i, part := range partitions {
		wg.Add(1)
		go func(i int, part dateRange) {
			defer wg.Done()
			results[i], errs[i] = g.Generate(ctx, idForm, part.from, part.to)
		}(i, part)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	var merged []domain.Slot
	for _, chunk := range results {
		merged = append(merged, chunk...)
	}
	return merged, nil
}

// monthPartitions режет диапазон по границам календарных месяцев
func monthPartitions(from, to time.Time) []dateRange {
	if to.Before(from) {
		return []dateRange{{from: from, to: to}}
	}

	var parts []dateRange
	cursor := from
	for !cursor.After(to) {
		monthEnd := endOfMonth(cursor)
		partEnd := monthEnd
		if to.Before(monthEnd) {
			partEnd = to
		}
		parts = append(parts, dateRange{from: cursor, to: partEnd})
		cursor = monthEnd.AddDate(0, 0, 1)
	}
	return parts
}

// endOfMonth возвращает последний день месяца даты
func endOfMonth(t time.Time) time.Time {
	firstOfNext := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1)
}
