package get_calendar

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SlotService/internal/api/handlers"
	"github.com/m04kA/SMC-SlotService/internal/domain"
	"github.com/m04kA/SMC-SlotService/internal/generator"
)

const (
	msgInvalidFormID = "некорректный ID формы"
	msgMissingFrom   = "параметр from обязателен"
	msgMissingTo     = "параметр to обязателен"
	msgInvalidDate   = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgInvalidRange  = "некорректный диапазон дат"
	msgInvalidSeats  = "некорректное число мест"
)

type Handler struct {
	planner SlotPlanner
	logger  Logger
}

func NewHandler(planner SlotPlanner, logger Logger) *Handler {
	return &Handler{
		planner: planner,
		logger:  logger,
	}
}

// Handle GET /api/v1/forms/{formId}/calendar
// Query params: from, to (required, YYYY-MM-DD), seats, allOpen (optional)
// При заданном seats возвращается агрегированный календарь
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	formID, err := strconv.ParseInt(vars["formId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /forms/{id}/calendar - Invalid form ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidFormID)
		return
	}

	fromStr := r.URL.Query().Get("from")
	if fromStr == "" {
		h.logger.Warn("GET /forms/{id}/calendar - Missing from: form_id=%d", formID)
		handlers.RespondBadRequest(w, msgMissingFrom)
		return
	}
	from, err := time.Parse(domain.DateFormat, fromStr)
	if err != nil {
		h.logger.Warn("GET /forms/{id}/calendar - Invalid from date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	toStr := r.URL.Query().Get("to")
	if toStr == "" {
		h.logger.Warn("GET /forms/{id}/calendar - Missing to: form_id=%d", formID)
		handlers.RespondBadRequest(w, msgMissingTo)
		return
	}
	to, err := time.Parse(domain.DateFormat, toStr)
	if err != nil {
		h.logger.Warn("GET /forms/{id}/calendar - Invalid to date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	// Опциональный агрегированный режим
	if seatsStr := r.URL.Query().Get("seats"); seatsStr != "" {
		seats, err := strconv.Atoi(seatsStr)
		if err != nil {
			h.logger.Warn("GET /forms/{id}/calendar - Invalid seats: %v", err)
			handlers.RespondBadRequest(w, msgInvalidSeats)
			return
		}
		allOpen := r.URL.Query().Get("allOpen") == "true"

		groups, err := h.planner.GenerateGrouped(r.Context(), formID, from, to, seats, allOpen)
		if err != nil {
			switch {
			case errors.Is(err, generator.ErrInvalidSeatTarget):
				h.logger.Warn("GET /forms/{id}/calendar - Invalid seat target: form_id=%d, seats=%d", formID, seats)
				handlers.RespondBadRequest(w, msgInvalidSeats)
			case errors.Is(err, generator.ErrInvalidRange):
				h.logger.Warn("GET /forms/{id}/calendar - Invalid range: form_id=%d, from=%s, to=%s", formID, fromStr, toStr)
				handlers.RespondBadRequest(w, msgInvalidRange)
			default:
				h.logger.Error("GET /forms/{id}/calendar - Failed to build grouped calendar: form_id=%d, error=%v", formID, err)
				handlers.RespondInternalError(w)
			}
			return
		}

		h.logger.Info("GET /forms/{id}/calendar - Grouped calendar built: form_id=%d, seats=%d, groups_count=%d",
			formID, seats, len(groups))
		handlers.RespondJSON(w, http.StatusOK, FromGroups(formID, from, to, seats, groups))
		return
	}

	slots, err := h.planner.BuildRange(r.Context(), formID, from, to)
	if err != nil {
		switch {
		case errors.Is(err, generator.ErrInvalidRange):
			h.logger.Warn("GET /forms/{id}/calendar - Invalid range: form_id=%d, from=%s, to=%s", formID, fromStr, toStr)
			handlers.RespondBadRequest(w, msgInvalidRange)
		default:
			h.logger.Error("GET /forms/{id}/calendar - Failed to build calendar: form_id=%d, error=%v", formID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /forms/{id}/calendar - Calendar built: form_id=%d, slots_count=%d", formID, len(slots))
	handlers.RespondJSON(w, http.StatusOK, FromSlots(formID, from, to, slots))
}
