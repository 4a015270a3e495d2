package move_booking

// MoveBookingRequest HTTP request model
type MoveBookingRequest struct {
	FromSlotID int64 `json:"fromSlotId"`
	ToSlotID   int64 `json:"toSlotId"`
	NbPlaces   int   `json:"nbPlaces"`
}
