package place_hold

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-SlotService/internal/api/handlers"
	"github.com/m04kA/SMC-SlotService/internal/coordinator"
	"github.com/m04kA/SMC-SlotService/internal/domain"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDateTime    = "некорректный формат времени, ожидается RFC3339"
	msgSlotFull           = "в слоте недостаточно свободных мест"
	msgSlotNotFound       = "слот не найден"
	msgSlotElapsed        = "время начала слота уже прошло"
	msgInvalidPlaces      = "некорректное число мест"
)

type Handler struct {
	coordinator HoldCoordinator
	logger      Logger
}

func NewHandler(c HoldCoordinator, logger Logger) *Handler {
	return &Handler{
		coordinator: c,
		logger:      logger,
	}
}

// Handle POST /api/v1/holds
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req PlaceHoldRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /holds - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	slot, err := req.ToSlot()
	if err != nil {
		h.logger.Warn("POST /holds - Failed to parse slot times: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDateTime)
		return
	}

	hold, err := h.coordinator.PlaceHold(r.Context(), slot, req.Places)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSlotFull):
			h.logger.Warn("POST /holds - Slot full: slot_id=%d, places=%d", req.SlotID, req.Places)
			handlers.RespondError(w, http.StatusConflict, msgSlotFull)

		case errors.Is(err, domain.ErrSlotElapsed):
			h.logger.Warn("POST /holds - Slot elapsed: slot_id=%d", req.SlotID)
			handlers.RespondError(w, http.StatusConflict, msgSlotElapsed)

		case errors.Is(err, domain.ErrSlotNotFound):
			h.logger.Warn("POST /holds - Slot not found: slot_id=%d", req.SlotID)
			handlers.RespondNotFound(w, msgSlotNotFound)

		case errors.Is(err, coordinator.ErrInvalidInput):
			h.logger.Warn("POST /holds - Invalid places: places=%d", req.Places)
			handlers.RespondBadRequest(w, msgInvalidPlaces)

		default:
			h.logger.Error("POST /holds - Failed to place hold: form_id=%d, error=%v", req.FormID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /holds - Hold placed: slot_id=%d, places=%d, token=%s",
		hold.IDSlot, hold.PlacesHeld, hold.Token)
	handlers.RespondJSON(w, http.StatusCreated, FromHold(hold))
}
