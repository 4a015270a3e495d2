package generator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SlotService/internal/domain"
	"github.com/m04kA/SMC-SlotService/pkg/types"
)

// testDay понедельник в будущем, чтобы слоты не считались прошедшими
var testDay = time.Date(2030, 6, 3, 0, 0, 0, 0, time.UTC)

const testFormID int64 = 42

type fakeRules struct {
	rules []domain.ReservationRule
}

func (f *fakeRules) ListRulesByForm(ctx context.Context, idForm int64) ([]domain.ReservationRule, error) {
	return f.rules, nil
}

type fakeWeeks struct {
	weeks []domain.WeekDefinition
}

func (f *fakeWeeks) ListWeeksByForm(ctx context.Context, idForm int64) ([]domain.WeekDefinition, error) {
	return f.weeks, nil
}

type fakeClosings struct {
	days []domain.ClosingDay
}

func (f *fakeClosings) ListClosingDaysBetween(ctx context.Context, idForm int64, from, to time.Time) ([]domain.ClosingDay, error) {
	return f.days, nil
}

type fakeSlots struct {
	slots []domain.Slot
}

func (f *fakeSlots) FindByDateRange(ctx context.Context, idForm int64, from, to time.Time) ([]domain.Slot, error) {
	var result []domain.Slot
	for _, s := range f.slots {
		if s.IDForm == idForm && !s.StartingDateTime.Before(from) && s.StartingDateTime.Before(to) {
			result = append(result, s)
		}
	}
	return result, nil
}

type nopLogger struct{}

func (nopLogger) Debug(format string, v ...interface{}) {}
func (nopLogger) Info(format string, v ...interface{})  {}
func (nopLogger) Warn(format string, v ...interface{})  {}
func (nopLogger) Error(format string, v ...interface{}) {}

func defaultRule() domain.ReservationRule {
	return domain.ReservationRule{
		ID:                 1,
		IDForm:             testFormID,
		DateOfApply:        testDay.AddDate(-1, 0, 0),
		MaxCapacityPerSlot: 3,
		DurationMinutes:    30,
		TimeStart:          "09:00",
		TimeEnd:            "10:00",
	}
}

func mondayWeek(templates ...domain.TimeSlotTemplate) domain.WeekDefinition {
	return domain.WeekDefinition{
		ID:          1,
		IDForm:      testFormID,
		DateOfApply: testDay.AddDate(-1, 0, 0),
		WorkingDays: []domain.WorkingDay{
			{ID: 1, DayOfWeek: 1, TimeSlots: templates},
		},
	}
}

func tpl(start, end types.TimeString, capacity int) domain.TimeSlotTemplate {
	return domain.TimeSlotTemplate{
		StartingTime: start,
		EndingTime:   end,
		IsOpen:       true,
		MaxCapacity:  capacity,
	}
}

func newTestGenerator(rules *fakeRules, weeks *fakeWeeks, closings *fakeClosings, slots *fakeSlots) *Generator {
	if rules == nil {
		rules = &fakeRules{}
	}
	if weeks == nil {
		weeks = &fakeWeeks{}
	}
	if closings == nil {
		closings = &fakeClosings{}
	}
	if slots == nil {
		slots = &fakeSlots{}
	}
	return New(rules, weeks, closings, slots, nopLogger{})
}

func TestGenerate_SynthesizesSlotsFromTemplates(t *testing.T) {
	g := newTestGenerator(
		&fakeRules{rules: []domain.ReservationRule{defaultRule()}},
		&fakeWeeks{weeks: []domain.WeekDefinition{mondayWeek(
			tpl("09:00", "09:30", 3),
			tpl("09:30", "10:00", 3),
		)}},
		nil, nil,
	)

	slots, err := g.Generate(context.Background(), testFormID, testDay, testDay)
	require.NoError(t, err)
	require.Len(t, slots, 2)

	first := slots[0]
	assert.Equal(t, time.Date(2030, 6, 3, 9, 0, 0, 0, time.UTC), first.StartingDateTime)
	assert.Equal(t, time.Date(2030, 6, 3, 9, 30, 0, 0, time.UTC), first.EndingDateTime)
	assert.Equal(t, 3, first.MaxCapacity)
	assert.Equal(t, 3, first.NbRemainingPlaces)
	assert.Equal(t, 3, first.NbPotentialRemainingPlaces)
	assert.True(t, first.IsOpen)
	assert.False(t, first.IsPersisted())

	second := slots[1]
	assert.Equal(t, time.Date(2030, 6, 3, 9, 30, 0, 0, time.UTC), second.StartingDateTime)
	assert.Equal(t, time.Date(2030, 6, 3, 10, 0, 0, 0, time.UTC), second.EndingDateTime)
}

func TestGenerate_NoApplicableRuleYieldsNoSlots(t *testing.T) {
	futureRule := defaultRule()
	futureRule.DateOfApply = testDay.AddDate(1, 0, 0)

	g := newTestGenerator(
		&fakeRules{rules: []domain.ReservationRule{futureRule}},
		&fakeWeeks{weeks: []domain.WeekDefinition{mondayWeek(tpl("09:00", "09:30", 3))}},
		nil, nil,
	)

	slots, err := g.Generate(context.Background(), testFormID, testDay, testDay)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestGenerate_ClosingDayProducesSingleClosedSlot(t *testing.T) {
	g := newTestGenerator(
		&fakeRules{rules: []domain.ReservationRule{defaultRule()}},
		&fakeWeeks{weeks: []domain.WeekDefinition{mondayWeek(
			tpl("09:00", "09:30", 3),
			tpl("09:30", "10:00", 3),
		)}},
		&fakeClosings{days: []domain.ClosingDay{{IDForm: testFormID, Date: testDay}}},
		nil,
	)

	slots, err := g.Generate(context.Background(), testFormID, testDay, testDay)
	require.NoError(t, err)
	require.Len(t, slots, 1)

	closed := slots[0]
	assert.Equal(t, time.Date(2030, 6, 3, 9, 0, 0, 0, time.UTC), closed.StartingDateTime)
	assert.Equal(t, time.Date(2030, 6, 3, 10, 0, 0, 0, time.UTC), closed.EndingDateTime)
	assert.False(t, closed.IsOpen)
	assert.Zero(t, closed.MaxCapacity)
	assert.Zero(t, closed.NbRemainingPlaces)
	assert.Zero(t, closed.NbPotentialRemainingPlaces)
	assert.Equal(t, domain.SlotStateClosed, closed.State())
}

func TestGenerate_NonWorkingDaySynthesizesClosedSlots(t *testing.T) {
	// Вторник не определён в недельном шаблоне, но правило действует:
	// день собирается из закрытых слотов по окну правила
	tuesday := testDay.AddDate(0, 0, 1)

	g := newTestGenerator(
		&fakeRules{rules: []domain.ReservationRule{defaultRule()}},
		&fakeWeeks{weeks: []domain.WeekDefinition{mondayWeek(tpl("09:00", "10:00", 3))}},
		nil, nil,
	)

	slots, err := g.Generate(context.Background(), testFormID, tuesday, tuesday)
	require.NoError(t, err)
	require.Len(t, slots, 2)

	for _, s := range slots {
		assert.False(t, s.IsOpen)
		assert.Equal(t, 3, s.MaxCapacity)
		assert.Equal(t, 3, s.NbRemainingPlaces)
	}
	assert.Equal(t, time.Date(2030, 6, 4, 9, 0, 0, 0, time.UTC), slots[0].StartingDateTime)
	assert.Equal(t, time.Date(2030, 6, 4, 9, 30, 0, 0, time.UTC), slots[1].StartingDateTime)
}

func TestGenerate_GapInTemplatesTruncatesDay(t *testing.T) {
	// Дыра между 09:30 и 10:00: день обрывается после первого слота
	g := newTestGenerator(
		&fakeRules{rules: []domain.ReservationRule{defaultRule()}},
		&fakeWeeks{weeks: []domain.WeekDefinition{mondayWeek(
			tpl("09:00", "09:30", 3),
			tpl("10:00", "10:30", 3),
		)}},
		nil, nil,
	)

	slots, err := g.Generate(context.Background(), testFormID, testDay, testDay)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, time.Date(2030, 6, 3, 9, 0, 0, 0, time.UTC), slots[0].StartingDateTime)
}

func TestGenerate_PersistedSlotTakesPrecedence(t *testing.T) {
	persisted := domain.Slot{
		ID:                         7,
		IDForm:                     testFormID,
		StartingDateTime:           time.Date(2030, 6, 3, 9, 0, 0, 0, time.UTC),
		EndingDateTime:             time.Date(2030, 6, 3, 9, 30, 0, 0, time.UTC),
		MaxCapacity:                5,
		NbRemainingPlaces:          1,
		NbPotentialRemainingPlaces: 1,
		NbPlacesTaken:              4,
		IsOpen:                     true,
	}

	g := newTestGenerator(
		&fakeRules{rules: []domain.ReservationRule{defaultRule()}},
		&fakeWeeks{weeks: []domain.WeekDefinition{mondayWeek(
			tpl("09:00", "09:30", 3),
			tpl("09:30", "10:00", 3),
		)}},
		nil,
		&fakeSlots{slots: []domain.Slot{persisted}},
	)

	slots, err := g.Generate(context.Background(), testFormID, testDay, testDay)
	require.NoError(t, err)
	require.Len(t, slots, 2)

	assert.Equal(t, int64(7), slots[0].ID)
	assert.Equal(t, 1, slots[0].NbRemainingPlaces)
	// Вместимость отличается от шаблона — слот помечается специфичным
	assert.True(t, slots[0].IsSpecific)

	assert.False(t, slots[1].IsPersisted())
	assert.False(t, slots[1].IsSpecific)
}

func TestGenerate_ClosestInPastRuleWins(t *testing.T) {
	oldRule := defaultRule()
	oldRule.ID = 1
	oldRule.MaxCapacityPerSlot = 2

	newRule := defaultRule()
	newRule.ID = 2
	newRule.DateOfApply = testDay.AddDate(0, 0, -1)
	newRule.MaxCapacityPerSlot = 9

	g := newTestGenerator(
		&fakeRules{rules: []domain.ReservationRule{oldRule, newRule}},
		&fakeWeeks{weeks: []domain.WeekDefinition{mondayWeek(
			// Нулевая вместимость шаблона наследует вместимость правила
			domain.TimeSlotTemplate{StartingTime: "09:00", EndingTime: "09:30", IsOpen: true},
		)}},
		nil, nil,
	)

	slots, err := g.Generate(context.Background(), testFormID, testDay, testDay)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, 9, slots[0].MaxCapacity)
}

func TestGenerate_InvalidRuleIsExcluded(t *testing.T) {
	broken := defaultRule()
	broken.ID = 2
	broken.DateOfApply = testDay.AddDate(0, 0, -1)
	broken.DurationMinutes = 0
	broken.MaxCapacityPerSlot = 9

	g := newTestGenerator(
		&fakeRules{rules: []domain.ReservationRule{defaultRule(), broken}},
		&fakeWeeks{weeks: []domain.WeekDefinition{mondayWeek(
			domain.TimeSlotTemplate{StartingTime: "09:00", EndingTime: "09:30", IsOpen: true},
		)}},
		nil, nil,
	)

	slots, err := g.Generate(context.Background(), testFormID, testDay, testDay)
	require.NoError(t, err)
	require.Len(t, slots, 1)

	// Непригодное правило исключено, день откатился к более раннему
	assert.Equal(t, 3, slots[0].MaxCapacity)
}

func TestGenerate_RejectsInvertedRange(t *testing.T) {
	g := newTestGenerator(nil, nil, nil, nil)

	_, err := g.Generate(context.Background(), testFormID, testDay, testDay.AddDate(0, 0, -1))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRange)
}
