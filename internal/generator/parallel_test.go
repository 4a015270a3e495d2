package generator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SlotService/internal/domain"
)

func everyDayWeek() domain.WeekDefinition {
	week := domain.WeekDefinition{
		ID:          1,
		IDForm:      testFormID,
		DateOfApply: testDay.AddDate(-1, 0, 0),
	}
	for dow := 1; dow <= 7; dow++ {
		week.WorkingDays = append(week.WorkingDays, domain.WorkingDay{
			ID:        int64(dow),
			DayOfWeek: dow,
			TimeSlots: []domain.TimeSlotTemplate{
				tpl("09:00", "09:30", 3),
				tpl("09:30", "10:00", 3),
			},
		})
	}
	return week
}

func TestBuildRange_MatchesSequentialGeneration(t *testing.T) {
	g := newTestGenerator(
		&fakeRules{rules: []domain.ReservationRule{defaultRule()}},
		&fakeWeeks{weeks: []domain.WeekDefinition{everyDayWeek()}},
		nil, nil,
	)

	from := time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2030, 8, 15, 0, 0, 0, 0, time.UTC)

	sequential, err := g.Generate(context.Background(), testFormID, from, to)
	require.NoError(t, err)

	parallel, err := g.BuildRange(context.Background(), testFormID, from, to)
	require.NoError(t, err)

	// Порядок склейки — порядок запуска партиций, не порядок завершения
	require.Equal(t, len(sequential), len(parallel))
	assert.Equal(t, sequential, parallel)
}

func TestBuildRange_SingleMonthDelegates(t *testing.T) {
	g := newTestGenerator(
		&fakeRules{rules: []domain.ReservationRule{defaultRule()}},
		&fakeWeeks{weeks: []domain.WeekDefinition{everyDayWeek()}},
		nil, nil,
	)

	from := time.Date(2030, 6, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2030, 6, 8, 0, 0, 0, 0, time.UTC)

	slots, err := g.BuildRange(context.Background(), testFormID, from, to)
	require.NoError(t, err)
	// 7 дней по 2 слота
	assert.Len(t, slots, 14)
}

func TestMonthPartitions_SplitsAtCalendarBoundaries(t *testing.T) {
	from := time.Date(2030, 6, 15, 0, 0, 0, 0, time.UTC)
	to := time.Date(2030, 8, 10, 0, 0, 0, 0, time.UTC)

	parts := monthPartitions(from, to)
	require.Len(t, parts, 3)

	assert.Equal(t, from, parts[0].from)
	assert.Equal(t, time.Date(2030, 6, 30, 0, 0, 0, 0, time.UTC), parts[0].to)
	assert.Equal(t, time.Date(2030, 7, 1, 0, 0, 0, 0, time.UTC), parts[1].from)
	assert.Equal(t, time.Date(2030, 7, 31, 0, 0, 0, 0, time.UTC), parts[1].to)
	assert.Equal(t, time.Date(2030, 8, 1, 0, 0, 0, 0, time.UTC), parts[2].from)
	assert.Equal(t, to, parts[2].to)
}
