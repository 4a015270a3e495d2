package cancel_hold

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SlotService/internal/api/handlers"
	"github.com/m04kA/SMC-SlotService/internal/coordinator"
	"github.com/m04kA/SMC-SlotService/internal/domain"
)

const (
	msgInvalidSlotID = "некорректный ID слота"
	msgHoldNotFound  = "активное удержание не найдено"
	msgSlotNotFound  = "слот не найден"
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

// Handle DELETE /api/v1/slots/{slotId}/hold
// Возвращает удержанные места в потенциал слота
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	slotID, err := strconv.ParseInt(vars["slotId"], 10, 64)
	if err != nil {
		h.logger.Warn("DELETE /slots/{id}/hold - Invalid slot ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidSlotID)
		return
	}

	if err := h.coordinator.ReleaseHold(r.Context(), slotID); err != nil {
		switch {
		case errors.Is(err, coordinator.ErrHoldNotFound):
			h.logger.Warn("DELETE /slots/{id}/hold - Hold not found: slot_id=%d", slotID)
			handlers.RespondNotFound(w, msgHoldNotFound)

		case errors.Is(err, domain.ErrSlotNotFound):
			h.logger.Warn("DELETE /slots/{id}/hold - Slot not found: slot_id=%d", slotID)
			handlers.RespondNotFound(w, msgSlotNotFound)

		default:
			h.logger.Error("DELETE /slots/{id}/hold - Failed to release hold: slot_id=%d, error=%v", slotID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("DELETE /slots/{id}/hold - Hold released: slot_id=%d", slotID)
	handlers.RespondJSON(w, http.StatusNoContent, nil)
}
