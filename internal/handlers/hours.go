package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shaharm-dev/apptbook/internal/booking"
	"github.com/shaharm-dev/apptbook/internal/schedule"
)

type HoursHandler struct {
	svc    *booking.Service
	logger *slog.Logger
}

func NewHoursHandler(svc *booking.Service, logger *slog.Logger) *HoursHandler {
	return &HoursHandler{svc: svc, logger: logger}
}

type dayHours struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// Handle serves both reads and writes of the weekly schedule on one route.
func (h *HoursHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPut:
		h.put(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *HoursHandler) get(w http.ResponseWriter, r *http.Request) {
	hours, err := h.svc.Hours(r.Context())
	if err != nil {
		h.logger.Error("hours lookup failed", "err", err)
		http.Error(w, "failed to load business hours", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, hoursToBody(hours))
}

func (h *HoursHandler) put(w http.ResponseWriter, r *http.Request) {
	var body map[string]dayHours
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	hours := make(schedule.WeeklyHours, len(body))
	for name, dh := range body {
		day, err := schedule.ParseWeekday(name)
		if err != nil {
			http.Error(w, "unknown weekday: "+name, http.StatusBadRequest)
			return
		}
		open, err := schedule.ParseTimeOfDay(dh.Open)
		if err != nil {
			http.Error(w, "invalid open time for "+name, http.StatusBadRequest)
			return
		}
		closeAt, err := schedule.ParseTimeOfDay(dh.Close)
		if err != nil {
			http.Error(w, "invalid close time for "+name, http.StatusBadRequest)
			return
		}
		hours[day] = schedule.Window{Open: open, Close: closeAt}
	}
	if len(hours) != len(schedule.Week) {
		http.Error(w, "all seven weekdays are required", http.StatusBadRequest)
		return
	}

	if err := h.svc.UpdateHours(r.Context(), hours); err != nil {
		var windowErr *schedule.WindowError
		if errors.As(err, &windowErr) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		h.logger.Error("hours update failed", "err", err)
		http.Error(w, "failed to save business hours", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, hoursToBody(hours))
}

func hoursToBody(hours schedule.WeeklyHours) map[string]dayHours {
	body := make(map[string]dayHours, len(hours))
	for _, day := range schedule.Week {
		w, ok := hours[day]
		if !ok {
			continue
		}
		body[strings.ToLower(day.String())] = dayHours{
			Open:  w.Open.String(),
			Close: w.Close.String(),
		}
	}
	return body
}
