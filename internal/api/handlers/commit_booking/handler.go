package commit_booking

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-SlotService/internal/api/handlers"
	"github.com/m04kA/SMC-SlotService/internal/api/middleware"
	"github.com/m04kA/SMC-SlotService/internal/coordinator"
	"github.com/m04kA/SMC-SlotService/internal/domain"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUser        = "пользователь не аутентифицирован"
	msgSlotFull           = "в слоте недостаточно свободных мест"
	msgSlotNotFound       = "слот не найден"
	msgSlotElapsed        = "время начала слота уже прошло"
	msgHoldExpired        = "удержание истекло, повторите оформление"
	msgInvalidDraft       = "некорректные параметры бронирования"
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

// Handle POST /api/v1/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	// Бронь записывается на аутентифицированного пользователя, не на
	// идентификатор из тела запроса
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.logger.Warn("POST /bookings - Missing authenticated user")
		handlers.RespondError(w, http.StatusUnauthorized, msgMissingUser)
		return
	}

	var req CommitBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	appointment, err := h.coordinator.CommitBooking(r.Context(), req.ToDraft(userID))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSlotFull):
			h.logger.Warn("POST /bookings - Slot full: slot_id=%d, user_id=%d, places=%d",
				req.SlotID, userID, req.NbPlaces)
			handlers.RespondError(w, http.StatusConflict, msgSlotFull)

		case errors.Is(err, domain.ErrHoldExpired):
			h.logger.Warn("POST /bookings - Hold expired: slot_id=%d, user_id=%d", req.SlotID, userID)
			handlers.RespondError(w, http.StatusConflict, msgHoldExpired)

		case errors.Is(err, domain.ErrSlotElapsed):
			h.logger.Warn("POST /bookings - Slot elapsed: slot_id=%d, user_id=%d", req.SlotID, userID)
			handlers.RespondError(w, http.StatusConflict, msgSlotElapsed)

		case errors.Is(err, domain.ErrSlotNotFound):
			h.logger.Warn("POST /bookings - Slot not found: slot_id=%d", req.SlotID)
			handlers.RespondNotFound(w, msgSlotNotFound)

		case errors.Is(err, coordinator.ErrInvalidInput):
			h.logger.Warn("POST /bookings - Invalid draft: slot_id=%d, places=%d", req.SlotID, req.NbPlaces)
			handlers.RespondBadRequest(w, msgInvalidDraft)

		default:
			h.logger.Error("POST /bookings - Failed to commit booking: slot_id=%d, user_id=%d, error=%v",
				req.SlotID, userID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings - Booking committed: appointment_id=%d, slot_id=%d, user_id=%d, places=%d",
		appointment.ID, req.SlotID, userID, req.NbPlaces)
	handlers.RespondJSON(w, http.StatusCreated, FromAppointment(appointment))
}
