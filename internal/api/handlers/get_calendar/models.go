package get_calendar

import (
	"time"

	"github.com/m04kA/SMC-SlotService/internal/domain"
)

// CalendarResponse HTTP response model
type CalendarResponse struct {
	FormID int64          `json:"formId"`
	From   string         `json:"from"`
	To     string         `json:"to"`
	Slots  []CalendarSlot `json:"slots"`
}

// CalendarSlot модель слота календаря
type CalendarSlot struct {
	ID                         int64  `json:"id,omitempty"`
	StartingDateTime           string `json:"startingDateTime"`
	EndingDateTime             string `json:"endingDateTime"`
	MaxCapacity                int    `json:"maxCapacity"`
	NbRemainingPlaces          int    `json:"nbRemainingPlaces"`
	NbPotentialRemainingPlaces int    `json:"nbPotentialRemainingPlaces"`
	IsOpen                     bool   `json:"isOpen"`
	IsSpecific                 bool   `json:"isSpecific"`
	State                      string `json:"state"`
}

// GroupedCalendarResponse HTTP response model для агрегированного календаря
type GroupedCalendarResponse struct {
	FormID int64         `json:"formId"`
	From   string        `json:"from"`
	To     string        `json:"to"`
	Seats  int           `json:"seats"`
	Groups []GroupedSlot `json:"groups"`
}

// GroupedSlot модель агрегата последовательных слотов
type GroupedSlot struct {
	StartingDateTime           string `json:"startingDateTime"`
	EndingDateTime             string `json:"endingDateTime"`
	NbPotentialRemainingPlaces int    `json:"nbPotentialRemainingPlaces"`
	NbSlots                    int    `json:"nbSlots"`
	IsFull                     bool   `json:"isFull"`
}

// FromSlots конвертирует слоты домена в HTTP response
func FromSlots(idForm int64, from, to time.Time, slots []domain.Slot) *CalendarResponse {
	out := make([]CalendarSlot, len(slots))
	for i, s := range slots {
		out[i] = CalendarSlot{
			ID:                         s.ID,
			StartingDateTime:           s.StartingDateTime.Format(time.RFC3339),
			EndingDateTime:             s.EndingDateTime.Format(time.RFC3339),
			MaxCapacity:                s.MaxCapacity,
			NbRemainingPlaces:          s.NbRemainingPlaces,
			NbPotentialRemainingPlaces: s.NbPotentialRemainingPlaces,
			IsOpen:                     s.IsOpen,
			IsSpecific:                 s.IsSpecific,
			State:                      string(s.State()),
		}
	}

	return &CalendarResponse{
		FormID: idForm,
		From:   from.Format(domain.DateFormat),
		To:     to.Format(domain.DateFormat),
		Slots:  out,
	}
}

// FromGroups конвертирует агрегаты домена в HTTP response
func FromGroups(idForm int64, from, to time.Time, seats int, groups []domain.GroupedSlot) *GroupedCalendarResponse {
	out := make([]GroupedSlot, len(groups))
	for i, g := range groups {
		out[i] = GroupedSlot{
			StartingDateTime:           g.StartingDateTime.Format(time.RFC3339),
			EndingDateTime:             g.EndingDateTime.Format(time.RFC3339),
			NbPotentialRemainingPlaces: g.NbPotentialRemainingPlaces,
			NbSlots:                    g.NbSlots,
			IsFull:                     g.IsFull,
		}
	}

	return &GroupedCalendarResponse{
		FormID: idForm,
		From:   from.Format(domain.DateFormat),
		To:     to.Format(domain.DateFormat),
		Seats:  seats,
		Groups: out,
	}
}
