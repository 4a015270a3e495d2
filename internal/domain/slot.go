package domain

import "time"

// SlotState agregated availability state of a slot
type SlotState string

const (
	SlotStateFree          SlotState = "free"
	SlotStatePartiallyHeld SlotState = "partially_held"
	SlotStateFull          SlotState = "full"
	SlotStateClosed        SlotState = "closed"
)

// Slot represents a concrete, date-stamped bookable (or closed) time window
// with capacity counters. ID == 0 means the slot exists only as a projection
// of the weekly template and has not been persisted yet.
type Slot struct {
	ID                         int64
	IDForm                     int64
	StartingDateTime           time.Time
	EndingDateTime             time.Time
	MaxCapacity                int
	NbRemainingPlaces          int
	NbPotentialRemainingPlaces int
	NbPlacesTaken              int
	IsOpen                     bool

	// IsSpecific помечает слот, чьи границы/вместимость/открытость
	// отличаются от шаблонного TimeSlot его рабочего дня
	IsSpecific bool
}

// IsPersisted returns true if the slot has been stored
func (s *Slot) IsPersisted() bool {
	return s.ID != 0
}

// IsElapsed returns true if the slot's start time is in the past
func (s *Slot) IsElapsed(now time.Time) bool {
	return !s.StartingDateTime.After(now)
}

// HasPotentialPlaces returns true if at least one place is available
// taking active holds into account
func (s *Slot) HasPotentialPlaces() bool {
	return s.NbPotentialRemainingPlaces > 0
}

// State returns the aggregated availability state of the slot
func (s *Slot) State() SlotState {
	switch {
	case !s.IsOpen:
		return SlotStateClosed
	case s.NbRemainingPlaces <= 0:
		return SlotStateFull
	case s.NbPotentialRemainingPlaces < s.NbRemainingPlaces:
		return SlotStatePartiallyHeld
	default:
		return SlotStateFree
	}
}

// DurationMinutes returns the slot length in minutes
func (s *Slot) DurationMinutes() int {
	return int(s.EndingDateTime.Sub(s.StartingDateTime) / time.Minute)
}

// MatchesTemplate returns true if the slot's window, openness and capacity
// coincide with the given template TimeSlot on the slot's own day
func (s *Slot) MatchesTemplate(tpl *TimeSlotTemplate) bool {
	start, err := tpl.StartingTime.At(s.StartingDateTime)
	if err != nil {
		return false
	}
	end, err := tpl.EndingTime.At(s.StartingDateTime)
	if err != nil {
		return false
	}
	return s.StartingDateTime.Equal(start) &&
		s.EndingDateTime.Equal(end) &&
		s.IsOpen == tpl.IsOpen &&
		s.MaxCapacity == tpl.MaxCapacity
}

// GroupedSlot synthetic aggregate of consecutive minimal slots covering
// enough contiguous capacity for a requested number of seats
type GroupedSlot struct {
	IDForm                     int64
	StartingDateTime           time.Time
	EndingDateTime             time.Time
	NbPotentialRemainingPlaces int
	NbSlots                    int

	// IsFull выставляется, если хотя бы один из склеенных минимальных
	// слотов был без потенциально свободных мест
	IsFull bool
}
