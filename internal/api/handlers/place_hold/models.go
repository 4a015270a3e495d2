package place_hold

import (
	"time"

	"github.com/m04kA/SMC-SlotService/internal/domain"
)

// PlaceHoldRequest HTTP request model
// Слот может быть ещё не сохранён (id отсутствует) — тогда передаётся момент
// его начала, а вместимость координатор берёт из проекции расписания, не из
// запроса
type PlaceHoldRequest struct {
	SlotID           int64  `json:"slotId,omitempty"`
	FormID           int64  `json:"formId"`
	StartingDateTime string `json:"startingDateTime,omitempty"`
	Places           int    `json:"places"`
}

// PlaceHoldResponse HTTP response model
type PlaceHoldResponse struct {
	Token      string `json:"token"`
	SlotID     int64  `json:"slotId"`
	PlacesHeld int    `json:"placesHeld"`
	Expiry     string `json:"expiry"`
}

// ToSlot строит доменный слот из запроса (с парсингом времени)
func (r *PlaceHoldRequest) ToSlot() (*domain.Slot, error) {
	slot := &domain.Slot{
		ID:     r.SlotID,
		IDForm: r.FormID,
		IsOpen: true,
	}

	if r.SlotID != 0 {
		return slot, nil
	}

	start, err := time.Parse(time.RFC3339, r.StartingDateTime)
	if err != nil {
		return nil, err
	}

	slot.StartingDateTime = start
	return slot, nil
}

// FromHold конвертирует удержание домена в HTTP response
func FromHold(h *domain.Hold) *PlaceHoldResponse {
	return &PlaceHoldResponse{
		Token:      h.Token,
		SlotID:     h.IDSlot,
		PlacesHeld: h.PlacesHeld,
		Expiry:     h.Expiry.Format(time.RFC3339),
	}
}
