package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeStringFromString(t *testing.T) {
	ts, err := NewTimeStringFromString("09:30")
	require.NoError(t, err)
	assert.Equal(t, "09:30", ts.String())

	_, err = NewTimeStringFromString("25:00")
	assert.ErrorIs(t, err, ErrInvalidTimeString)

	_, err = NewTimeStringFromString("not a time")
	assert.ErrorIs(t, err, ErrInvalidTimeString)
}

func TestAddMinutes(t *testing.T) {
	ts := TimeString("09:30")

	moved, err := ts.AddMinutes(45)
	require.NoError(t, err)
	assert.Equal(t, TimeString("10:15"), moved)

	back, err := ts.AddMinutes(-40)
	require.NoError(t, err)
	assert.Equal(t, TimeString("08:50"), back)

	// Выход за границы суток обрезается
	clamped, err := TimeString("23:30").AddMinutes(60)
	require.NoError(t, err)
	assert.Equal(t, TimeString("23:59"), clamped)

	floor, err := TimeString("00:10").AddMinutes(-30)
	require.NoError(t, err)
	assert.Equal(t, TimeString("00:00"), floor)
}

func TestAt(t *testing.T) {
	day := time.Date(2030, 6, 3, 0, 0, 0, 0, time.UTC)

	at, err := TimeString("09:30").At(day)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 6, 3, 9, 30, 0, 0, time.UTC), at)
}

func TestOrdering(t *testing.T) {
	assert.True(t, TimeString("09:00").IsBefore("10:00"))
	assert.False(t, TimeString("10:00").IsBefore("09:00"))
	assert.True(t, TimeString("10:00").IsAfter("09:59"))
}

func TestScan(t *testing.T) {
	var ts TimeString

	// Postgres возвращает "HH:MM:SS" для колонок TIME
	require.NoError(t, ts.Scan("09:30:00"))
	assert.Equal(t, TimeString("09:30"), ts)

	require.NoError(t, ts.Scan([]byte("14:45:59")))
	assert.Equal(t, TimeString("14:45"), ts)

	require.NoError(t, ts.Scan(time.Date(2030, 6, 3, 8, 15, 0, 0, time.UTC)))
	assert.Equal(t, TimeString("08:15"), ts)

	assert.Error(t, ts.Scan(42))
}
