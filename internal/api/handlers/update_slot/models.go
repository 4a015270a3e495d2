package update_slot

import (
	"time"

	"github.com/m04kA/SMC-SlotService/internal/domain"
)

// UpdateSlotRequest HTTP request model
// endingDateTime опционален: его присутствие означает правку длительности.
// shift управляет стратегией пересборки дня: перенос последующих слотов
// против удаления накрытых и вставки одного filler-слота
type UpdateSlotRequest struct {
	SlotID           int64   `json:"slotId,omitempty"`
	FormID           int64   `json:"formId"`
	StartingDateTime string  `json:"startingDateTime"`
	EndingDateTime   *string `json:"endingDateTime,omitempty"`
	MaxCapacity      int     `json:"maxCapacity"`
	IsOpen           bool    `json:"isOpen"`
	Shift            bool    `json:"shift,omitempty"`
}

// UpdateSlotResponse HTTP response model
type UpdateSlotResponse struct {
	ID                         int64  `json:"id"`
	FormID                     int64  `json:"formId"`
	StartingDateTime           string `json:"startingDateTime"`
	EndingDateTime             string `json:"endingDateTime"`
	MaxCapacity                int    `json:"maxCapacity"`
	NbRemainingPlaces          int    `json:"nbRemainingPlaces"`
	NbPotentialRemainingPlaces int    `json:"nbPotentialRemainingPlaces"`
	IsOpen                     bool   `json:"isOpen"`
	IsSpecific                 bool   `json:"isSpecific"`
}

// ToSlot строит доменный слот из запроса (с парсингом времени)
// Второй результат сообщает, меняется ли время окончания
func (r *UpdateSlotRequest) ToSlot() (*domain.Slot, bool, error) {
	start, err := time.Parse(time.RFC3339, r.StartingDateTime)
	if err != nil {
		return nil, false, err
	}

	slot := &domain.Slot{
		ID:               r.SlotID,
		IDForm:           r.FormID,
		StartingDateTime: start,
		EndingDateTime:   start,
		MaxCapacity:      r.MaxCapacity,
		IsOpen:           r.IsOpen,
	}

	endingTimeChanged := r.EndingDateTime != nil
	if endingTimeChanged {
		end, err := time.Parse(time.RFC3339, *r.EndingDateTime)
		if err != nil {
			return nil, false, err
		}
		slot.EndingDateTime = end
	}

	return slot, endingTimeChanged, nil
}

// FromSlot конвертирует слот домена в HTTP response
func FromSlot(s *domain.Slot) *UpdateSlotResponse {
	return &UpdateSlotResponse{
		ID:                         s.ID,
		FormID:                     s.IDForm,
		StartingDateTime:           s.StartingDateTime.Format(time.RFC3339),
		EndingDateTime:             s.EndingDateTime.Format(time.RFC3339),
		MaxCapacity:                s.MaxCapacity,
		NbRemainingPlaces:          s.NbRemainingPlaces,
		NbPotentialRemainingPlaces: s.NbPotentialRemainingPlaces,
		IsOpen:                     s.IsOpen,
		IsSpecific:                 s.IsSpecific,
	}
}
