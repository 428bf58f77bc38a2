package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shaharm-dev/apptbook/internal/booking"
	"github.com/shaharm-dev/apptbook/internal/model"
)

type AppointmentHandler struct {
	svc    *booking.Service
	logger *slog.Logger
}

func NewAppointmentHandler(svc *booking.Service, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{svc: svc, logger: logger}
}

type bookRequest struct {
	CustomerID string `json:"customer_id"`
	Date       string `json:"date"`
	Time       string `json:"time"`
}

type bookResponse struct {
	AppointmentID   string `json:"appointment_id"`
	StartsAt        string `json:"starts_at"`
	DurationSeconds int    `json:"duration_seconds"`
	Status          string `json:"status"`
}

type cancelRequest struct {
	AppointmentID string `json:"appointment_id"`
}

type cancelResponse struct {
	AppointmentID string `json:"appointment_id"`
	Status        string `json:"status"`
}

type appointmentItem struct {
	AppointmentID   string `json:"appointment_id"`
	CustomerID      string `json:"customer_id"`
	StartsAt        string `json:"starts_at"`
	DurationSeconds int    `json:"duration_seconds"`
	Status          string `json:"status"`
	CanceledAt      string `json:"canceled_at,omitempty"`
	CreatedAt       string `json:"created_at"`
}

func (h *AppointmentHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	if dateStr == "" {
		http.Error(w, "date is required", http.StatusBadRequest)
		return
	}
	date, err := h.svc.ParseDate(dateStr)
	if err != nil {
		http.Error(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	slots, err := h.svc.AvailableSlots(r.Context(), date)
	if err != nil {
		if errors.Is(err, booking.ErrNoBusinessHours) {
			http.Error(w, "business hours not configured", http.StatusNotFound)
			return
		}
		h.logger.Error("slot lookup failed", "err", err, "date", dateStr)
		http.Error(w, "failed to load slots", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":  dateStr,
		"slots": slots,
	})
}

func (h *AppointmentHandler) Book(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.CustomerID = strings.TrimSpace(req.CustomerID)
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	if req.CustomerID == "" || req.Date == "" || req.Time == "" {
		http.Error(w, "customer_id, date, and time are required", http.StatusBadRequest)
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		http.Error(w, "invalid customer_id", http.StatusBadRequest)
		return
	}
	date, err := h.svc.ParseDate(req.Date)
	if err != nil {
		http.Error(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	clock, err := h.svc.ParseClock(req.Time)
	if err != nil {
		http.Error(w, "invalid time, expected HH:MM", http.StatusBadRequest)
		return
	}

	appt, err := h.svc.Book(r.Context(), customerID, date, clock)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrCustomerNotFound):
			http.Error(w, "customer not found", http.StatusNotFound)
		case errors.Is(err, booking.ErrNoBusinessHours):
			http.Error(w, "business hours not configured", http.StatusNotFound)
		case errors.Is(err, booking.ErrOutsideBusinessHours):
			http.Error(w, "requested time is outside business hours", http.StatusUnprocessableEntity)
		case errors.Is(err, booking.ErrPastTime):
			http.Error(w, "requested time is in the past", http.StatusUnprocessableEntity)
		case errors.Is(err, booking.ErrSlotTaken):
			http.Error(w, "time slot already booked", http.StatusConflict)
		default:
			h.logger.Error("booking failed", "err", err, "customer_id", req.CustomerID)
			http.Error(w, "failed to create appointment", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, bookResponse{
		AppointmentID:   appt.ID.String(),
		StartsAt:        appt.StartsAt.Format(time.RFC3339),
		DurationSeconds: int(appt.Duration.Seconds()),
		Status:          appt.Status,
	})
}

func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	id, err := uuid.Parse(strings.TrimSpace(req.AppointmentID))
	if err != nil {
		http.Error(w, "invalid appointment_id", http.StatusBadRequest)
		return
	}

	if err := h.svc.Cancel(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, booking.ErrNotFound):
			http.Error(w, "appointment not found", http.StatusNotFound)
		case errors.Is(err, booking.ErrAlreadyPast):
			http.Error(w, "appointment already took place", http.StatusConflict)
		default:
			h.logger.Error("cancel failed", "err", err, "appointment_id", req.AppointmentID)
			http.Error(w, "failed to cancel appointment", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, cancelResponse{
		AppointmentID: id.String(),
		Status:        model.StatusCanceled,
	})
}

func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	appts, err := h.svc.Appointments(r.Context())
	if err != nil {
		h.logger.Error("list appointments failed", "err", err)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}

	items := make([]appointmentItem, 0, len(appts))
	for _, appt := range appts {
		item := appointmentItem{
			AppointmentID:   appt.ID.String(),
			CustomerID:      appt.CustomerID.String(),
			StartsAt:        appt.StartsAt.Format(time.RFC3339),
			DurationSeconds: int(appt.Duration.Seconds()),
			Status:          appt.Status,
			CreatedAt:       appt.CreatedAt.Format(time.RFC3339),
		}
		if appt.CanceledAt != nil {
			item.CanceledAt = appt.CanceledAt.Format(time.RFC3339)
		}
		items = append(items, item)
	}

	writeJSON(w, http.StatusOK, items)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
