package move_booking

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
	msgSlotFull           = "в целевом слоте недостаточно свободных мест"
	msgSlotElapsed        = "время начала целевого слота уже прошло"
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

// Handle POST /api/v1/bookings/move
// Переносит места брони с одного слота на другой атомарно
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req MoveBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings/move - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	if err := h.coordinator.MoveBooking(r.Context(), req.FromSlotID, req.ToSlotID, req.NbPlaces); err != nil {
		switch {
		case errors.Is(err, domain.ErrSlotFull):
			h.logger.Warn("POST /bookings/move - Target slot full: from=%d, to=%d, seats=%d",
				req.FromSlotID, req.ToSlotID, req.NbPlaces)
			handlers.RespondError(w, http.StatusConflict, msgSlotFull)

		case errors.Is(err, domain.ErrSlotElapsed):
			h.logger.Warn("POST /bookings/move - Target slot elapsed: to=%d", req.ToSlotID)
			handlers.RespondError(w, http.StatusConflict, msgSlotElapsed)

		case errors.Is(err, domain.ErrSlotNotFound):
			h.logger.Warn("POST /bookings/move - Slot not found: from=%d, to=%d", req.FromSlotID, req.ToSlotID)
			handlers.RespondNotFound(w, msgSlotNotFound)

		case errors.Is(err, coordinator.ErrInvalidInput):
			h.logger.Warn("POST /bookings/move - Invalid seats: seats=%d", req.NbPlaces)
			handlers.RespondBadRequest(w, msgInvalidSeats)

		default:
			h.logger.Error("POST /bookings/move - Failed to move booking: from=%d, to=%d, error=%v",
				req.FromSlotID, req.ToSlotID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings/move - Booking moved: from=%d, to=%d, seats=%d",
		req.FromSlotID, req.ToSlotID, req.NbPlaces)
	handlers.RespondJSON(w, http.StatusNoContent, nil)
}
