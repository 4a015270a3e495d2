package cancel_booking

// CancelBookingRequest HTTP request model
type CancelBookingRequest struct {
	SlotID   int64 `json:"slotId"`
	NbPlaces int   `json:"nbPlaces"`
}
