package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shaharm-dev/apptbook/internal/model"
	"github.com/shaharm-dev/apptbook/internal/storage"
)

type CustomerStore interface {
	Create(ctx context.Context, c *model.Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (model.Customer, error)
}

type CustomerHandler struct {
	store  CustomerStore
	logger *slog.Logger
}

func NewCustomerHandler(store CustomerStore, logger *slog.Logger) *CustomerHandler {
	return &CustomerHandler{store: store, logger: logger}
}

type createCustomerRequest struct {
	Email            string `json:"email"`
	FullName         string `json:"full_name"`
	Phone            string `json:"phone"`
	ReceiveReminders *bool  `json:"receive_reminders"`
}

type customerResponse struct {
	CustomerID       string `json:"customer_id"`
	Email            string `json:"email"`
	FullName         string `json:"full_name"`
	Phone            string `json:"phone,omitempty"`
	ReceiveReminders bool   `json:"receive_reminders"`
	CreatedAt        string `json:"created_at"`
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Email == "" || req.FullName == "" {
		http.Error(w, "email and full_name are required", http.StatusBadRequest)
		return
	}
	if !strings.Contains(req.Email, "@") {
		http.Error(w, "invalid email", http.StatusBadRequest)
		return
	}

	// Reminders are opt-out: omitted means enabled.
	receive := true
	if req.ReceiveReminders != nil {
		receive = *req.ReceiveReminders
	}

	customer := model.Customer{
		ID:               uuid.New(),
		Email:            req.Email,
		FullName:         req.FullName,
		Phone:            req.Phone,
		ReceiveReminders: receive,
	}
	if err := h.store.Create(r.Context(), &customer); err != nil {
		if storage.IsConflict(err) {
			http.Error(w, "email already registered", http.StatusConflict)
			return
		}
		h.logger.Error("customer create failed", "err", err)
		http.Error(w, "failed to create customer", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, customerBody(customer))
}

// Get serves /api/v1/customers/{id} with the id as the trailing path segment.
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/api/v1/customers/")
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		http.Error(w, "invalid customer id", http.StatusBadRequest)
		return
	}

	customer, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "customer not found", http.StatusNotFound)
			return
		}
		h.logger.Error("customer lookup failed", "err", err, "customer_id", id)
		http.Error(w, "failed to load customer", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, customerBody(customer))
}

func customerBody(c model.Customer) customerResponse {
	return customerResponse{
		CustomerID:       c.ID.String(),
		Email:            c.Email,
		FullName:         c.FullName,
		Phone:            c.Phone,
		ReceiveReminders: c.ReceiveReminders,
		CreatedAt:        c.CreatedAt.Format(time.RFC3339),
	}
}
