package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SlotService/internal/domain"
)

// ResolveWorkingDay возвращает рабочий день шаблона, действующий на дату
// (closest-in-past по date_of_apply), либо nil для нерабочего дня
func (g *Generator) ResolveWorkingDay(ctx context.Context, idForm int64, date time.Time) (*domain.WorkingDay, error) {
	weeks, err := g.weeks.ListWeeksByForm(ctx, idForm)
	if err != nil {
		return nil, fmt.Errorf("%w: load week definitions: %v", ErrInternal, err)
	}

	effWeek := domain.EffectiveWeekDefinition(weeks, truncateToDay(date))
	if effWeek == nil {
		return nil, nil
	}
	return effWeek.WorkingDayFor(date), nil
}

// ResolveRule возвращает правило бронирования, действующее на дату,
// либо nil, если ни одно правило ещё не применимо
func (g *Generator) ResolveRule(ctx context.Context, idForm int64, date time.Time) (*domain.ReservationRule, error) {
	rules, err := g.loadValidRules(ctx, idForm)
	if err != nil {
		return nil, err
	}
	return domain.EffectiveRule(rules, truncateToDay(date)), nil
}
