package cancel_booking

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-SlotService/internal/api/handlers"
	"github.com/m04kA/SMC-SlotService/internal/coordinator"
	"github.com/m04kA/SMC-SlotService/internal/domain"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgSlotNotFound       = "слот не найден"
	msgInvalidSeats       = "некорректное число мест"
)

type Handler struct {
	coordinator BookingCoordinator
	logger      Logger
}

func NewHandler(c BookingCoordinator, logger Logger) *Handler {
	return &Handler{
		coordinator: c,
		logger:      logger,
	}
}

// Handle POST /api/v1/bookings/release
// Возвращает места отменённой брони обратно слоту
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CancelBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings/release - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	if err := h.coordinator.ReleaseBooking(r.Context(), req.SlotID, req.NbPlaces); err != nil {
		switch {
		case errors.Is(err, domain.ErrSlotNotFound):
			h.logger.Warn("POST /bookings/release - Slot not found: slot_id=%d", req.SlotID)
			handlers.RespondNotFound(w, msgSlotNotFound)

		case errors.Is(err, coordinator.ErrInvalidInput):
			h.logger.Warn("POST /bookings/release - Invalid seats: seats=%d", req.NbPlaces)
			handlers.RespondBadRequest(w, msgInvalidSeats)

		default:
			h.logger.Error("POST /bookings/release - Failed to release booking: slot_id=%d, error=%v",
				req.SlotID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings/release - Booking released: slot_id=%d, seats=%d", req.SlotID, req.NbPlaces)
	handlers.RespondJSON(w, http.StatusNoContent, nil)
}
