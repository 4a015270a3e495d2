package domain

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-SlotService/pkg/types"
)

// ReservationRule capacity/duration policy effective from DateOfApply
// until superseded by a rule with a later DateOfApply
type ReservationRule struct {
	ID                      int64
	IDForm                  int64
	DateOfApply             time.Time
	MaxCapacityPerSlot      int
	MaxPeoplePerAppointment int
	DurationMinutes         int
	TimeStart               types.TimeString
	TimeEnd                 types.TimeString
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// Validate проверяет пригодность правила для синтеза слотов
// Непригодное правило исключается из расписания целиком
func (r *ReservationRule) Validate() error {
	if r.DurationMinutes <= 0 {
		return fmt.Errorf("%w: rule id=%d has non-positive duration %d",
			ErrInvalidRuleConfiguration, r.ID, r.DurationMinutes)
	}
	if !r.TimeStart.IsBefore(r.TimeEnd) {
		return fmt.Errorf("%w: rule id=%d has empty window %s-%s",
			ErrInvalidRuleConfiguration, r.ID, r.TimeStart, r.TimeEnd)
	}
	if r.MaxCapacityPerSlot < 0 {
		return fmt.Errorf("%w: rule id=%d has negative capacity %d",
			ErrInvalidRuleConfiguration, r.ID, r.MaxCapacityPerSlot)
	}
	return nil
}

// EffectiveRule возвращает правило с наибольшим DateOfApply <= date
// Правила должны быть отсортированы по DateOfApply по возрастанию
// Возвращает nil, если ни одно правило ещё не действует на эту дату
func EffectiveRule(rules []ReservationRule, date time.Time) *ReservationRule {
	var effective *ReservationRule
	for i := range rules {
		if rules[i].DateOfApply.After(date) {
			break
		}
		effective = &rules[i]
	}
	return effective
}

// EffectiveWeekDefinition возвращает определение недели с наибольшим
// DateOfApply <= date (та же семантика closest-in-past, что и у правил)
func EffectiveWeekDefinition(weeks []WeekDefinition, date time.Time) *WeekDefinition {
	var effective *WeekDefinition
	for i := range weeks {
		if weeks[i].DateOfApply.After(date) {
			break
		}
		effective = &weeks[i]
	}
	return effective
}
