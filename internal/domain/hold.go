package domain

import "time"

// Hold a temporary, non-persisted claim on slot capacity while a user
// completes a booking. Keyed by slot id; the token is returned to the
// client for reference.
type Hold struct {
	Token      string
	IDSlot     int64
	IDForm     int64
	PlacesHeld int
	Expiry     time.Time
	CreatedAt  time.Time
}

// IsExpired returns true if the hold's TTL has elapsed
func (h *Hold) IsExpired(now time.Time) bool {
	return !h.Expiry.After(now)
}
