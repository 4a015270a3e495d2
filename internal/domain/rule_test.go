package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestEffectiveRule_ClosestInPast(t *testing.T) {
	rules := []ReservationRule{
		{ID: 1, DateOfApply: date(2030, 1, 1)},
		{ID: 2, DateOfApply: date(2030, 3, 1)},
		{ID: 3, DateOfApply: date(2030, 6, 1)},
	}

	tests := []struct {
		name   string
		date   time.Time
		wantID int64
	}{
		{"before any rule", date(2029, 12, 31), 0},
		{"exactly on date of apply", date(2030, 3, 1), 2},
		{"between two rules", date(2030, 4, 15), 2},
		{"after the latest rule", date(2031, 1, 1), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EffectiveRule(rules, tt.date)
			if tt.wantID == 0 {
				assert.Nil(t, got)
				return
			}
			assert.NotNil(t, got)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestReservationRuleValidate(t *testing.T) {
	valid := ReservationRule{
		ID:                 1,
		MaxCapacityPerSlot: 3,
		DurationMinutes:    30,
		TimeStart:          "09:00",
		TimeEnd:            "18:00",
	}
	assert.NoError(t, valid.Validate())

	zeroDuration := valid
	zeroDuration.DurationMinutes = 0
	assert.ErrorIs(t, zeroDuration.Validate(), ErrInvalidRuleConfiguration)

	invertedWindow := valid
	invertedWindow.TimeStart = "18:00"
	invertedWindow.TimeEnd = "09:00"
	assert.ErrorIs(t, invertedWindow.Validate(), ErrInvalidRuleConfiguration)

	negativeCapacity := valid
	negativeCapacity.MaxCapacityPerSlot = -1
	assert.ErrorIs(t, negativeCapacity.Validate(), ErrInvalidRuleConfiguration)
}

func TestEffectiveWeekDefinition_ClosestInPast(t *testing.T) {
	weeks := []WeekDefinition{
		{ID: 1, DateOfApply: date(2030, 1, 1)},
		{ID: 2, DateOfApply: date(2030, 6, 1)},
	}

	assert.Nil(t, EffectiveWeekDefinition(weeks, date(2029, 5, 1)))
	assert.Equal(t, int64(1), EffectiveWeekDefinition(weeks, date(2030, 5, 31)).ID)
	assert.Equal(t, int64(2), EffectiveWeekDefinition(weeks, date(2030, 6, 1)).ID)
}

func TestISODayOfWeek(t *testing.T) {
	// 2030-06-03 понедельник, 2030-06-09 воскресенье
	assert.Equal(t, 1, ISODayOfWeek(date(2030, 6, 3)))
	assert.Equal(t, 7, ISODayOfWeek(date(2030, 6, 9)))
}

func TestSlotState(t *testing.T) {
	slot := Slot{
		MaxCapacity:                4,
		NbRemainingPlaces:          4,
		NbPotentialRemainingPlaces: 4,
		IsOpen:                     true,
	}
	assert.Equal(t, SlotStateFree, slot.State())

	slot.NbPotentialRemainingPlaces = 2
	assert.Equal(t, SlotStatePartiallyHeld, slot.State())

	slot.NbRemainingPlaces = 0
	assert.Equal(t, SlotStateFull, slot.State())

	slot.IsOpen = false
	assert.Equal(t, SlotStateClosed, slot.State())
}

func TestHoldIsExpired(t *testing.T) {
	hold := Hold{Expiry: date(2030, 6, 3)}

	assert.False(t, hold.IsExpired(date(2030, 6, 2)))
	assert.True(t, hold.IsExpired(date(2030, 6, 3)))
	assert.True(t, hold.IsExpired(date(2030, 6, 4)))
}
