package update_slot

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
	msgSlotNotFound       = "слот не найден"
	msgInvalidEdit        = "некорректные параметры правки слота"
)

type Handler struct {
	coordinator SlotCoordinator
	logger      Logger
}

func NewHandler(c SlotCoordinator, logger Logger) *Handler {
	return &Handler{
		coordinator: c,
		logger:      logger,
	}
}

// Handle PATCH /api/v1/slots
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req UpdateSlotRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /slots - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	edited, endingTimeChanged, err := req.ToSlot()
	if err != nil {
		h.logger.Warn("PATCH /slots - Failed to parse slot times: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDateTime)
		return
	}

	updated, err := h.coordinator.UpdateSlot(r.Context(), edited, endingTimeChanged, req.Shift)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSlotNotFound):
			h.logger.Warn("PATCH /slots - Slot not found: slot_id=%d, form_id=%d", req.SlotID, req.FormID)
			handlers.RespondNotFound(w, msgSlotNotFound)

		case errors.Is(err, coordinator.ErrInvalidInput):
			h.logger.Warn("PATCH /slots - Invalid edit: slot_id=%d", req.SlotID)
			handlers.RespondBadRequest(w, msgInvalidEdit)

		default:
			h.logger.Error("PATCH /slots - Failed to update slot: slot_id=%d, form_id=%d, error=%v",
				req.SlotID, req.FormID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /slots - Slot updated: slot_id=%d, form_id=%d, shift=%t",
		updated.ID, updated.IDForm, req.Shift)
	handlers.RespondJSON(w, http.StatusOK, FromSlot(updated))
}
