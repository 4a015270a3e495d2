package commit_booking

import (
	"time"

	"github.com/m04kA/SMC-SlotService/internal/domain"
)

// CommitBookingRequest HTTP request model
// Пользователь в теле не передаётся: бронь записывается на ID
// аутентифицированного пользователя из заголовка X-User-ID
type CommitBookingRequest struct {
	SlotID           int64   `json:"slotId"`
	FormID           int64   `json:"formId"`
	NbPlaces         int     `json:"nbPlaces"`
	Notes            *string `json:"notes,omitempty"`
	HoldToken        *string `json:"holdToken,omitempty"`
	AllowOverbooking bool    `json:"allowOverbooking,omitempty"`
}

// CommitBookingResponse HTTP response model
type CommitBookingResponse struct {
	ID        int64   `json:"id"`
	SlotID    int64   `json:"slotId"`
	FormID    int64   `json:"formId"`
	UserID    int64   `json:"userId"`
	NbPlaces  int     `json:"nbPlaces"`
	StartTime string  `json:"startTime"`
	EndTime   string  `json:"endTime"`
	Notes     *string `json:"notes,omitempty"`
	CreatedAt string  `json:"createdAt"`
}

// ToDraft конвертирует HTTP запрос в доменную заявку на бронь
func (r *CommitBookingRequest) ToDraft(userID int64) *domain.BookingDraft {
	return &domain.BookingDraft{
		IDSlot:           r.SlotID,
		IDForm:           r.FormID,
		IDUser:           userID,
		NbPlaces:         r.NbPlaces,
		Notes:            r.Notes,
		HoldToken:        r.HoldToken,
		AllowOverbooking: r.AllowOverbooking,
	}
}

// FromAppointment конвертирует запись о брони в HTTP response
func FromAppointment(a *domain.Appointment) *CommitBookingResponse {
	return &CommitBookingResponse{
		ID:        a.ID,
		SlotID:    a.IDSlot,
		FormID:    a.IDForm,
		UserID:    a.IDUser,
		NbPlaces:  a.NbPlaces,
		StartTime: a.StartTime.Format(time.RFC3339),
		EndTime:   a.EndTime.Format(time.RFC3339),
		Notes:     a.Notes,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	}
}
