package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shaharm-dev/apptbook/internal/booking"
	"github.com/shaharm-dev/apptbook/internal/model"
	"github.com/shaharm-dev/apptbook/internal/outbox"
	"github.com/shaharm-dev/apptbook/internal/reminder"
	"github.com/shaharm-dev/apptbook/internal/schedule"
)

type memAppointments struct {
	byID map[uuid.UUID]model.Appointment
}

func (m *memAppointments) FindScheduledAt(_ context.Context, startsAt time.Time) (bool, error) {
	for _, a := range m.byID {
		if a.Status == model.StatusScheduled && a.StartsAt.Equal(startsAt) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memAppointments) Create(_ context.Context, appt *model.Appointment, _ []outbox.Event, _ []reminder.Job) error {
	for _, a := range m.byID {
		if a.Status == model.StatusScheduled && a.StartsAt.Equal(appt.StartsAt) {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	m.byID[appt.ID] = *appt
	return nil
}

func (m *memAppointments) GetByID(_ context.Context, id uuid.UUID) (model.Appointment, error) {
	a, ok := m.byID[id]
	if !ok {
		return model.Appointment{}, pgx.ErrNoRows
	}
	return a, nil
}

func (m *memAppointments) Cancel(_ context.Context, id uuid.UUID, _ []outbox.Event) error {
	a, ok := m.byID[id]
	if !ok || a.Status != model.StatusScheduled {
		return pgx.ErrNoRows
	}
	a.Status = model.StatusCanceled
	m.byID[id] = a
	return nil
}

func (m *memAppointments) ListOn(_ context.Context, from, to time.Time) ([]model.Appointment, error) {
	var out []model.Appointment
	for _, a := range m.byID {
		if !a.StartsAt.Before(from) && a.StartsAt.Before(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAppointments) ListAll(_ context.Context, _ int) ([]model.Appointment, error) {
	var out []model.Appointment
	for _, a := range m.byID {
		out = append(out, a)
	}
	return out, nil
}

type memHours struct {
	hours schedule.WeeklyHours
}

func (m *memHours) Get(context.Context) (schedule.WeeklyHours, error) {
	if m.hours == nil {
		return nil, pgx.ErrNoRows
	}
	return m.hours, nil
}

func (m *memHours) GetOrCreate(context.Context) (schedule.WeeklyHours, error) {
	if m.hours == nil {
		m.hours = schedule.Default()
	}
	return m.hours, nil
}

func (m *memHours) Save(_ context.Context, hours schedule.WeeklyHours) error {
	m.hours = hours
	return nil
}

type memCustomers struct {
	byID map[uuid.UUID]model.Customer
}

func (m *memCustomers) Create(_ context.Context, c *model.Customer) error {
	for _, existing := range m.byID {
		if existing.Email == c.Email {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	c.CreatedAt = time.Now()
	m.byID[c.ID] = *c
	return nil
}

func (m *memCustomers) GetByID(_ context.Context, id uuid.UUID) (model.Customer, error) {
	c, ok := m.byID[id]
	if !ok {
		return model.Customer{}, pgx.ErrNoRows
	}
	return c, nil
}

var handlerLoc = time.FixedZone("IST", 2*60*60)

func fixture(t *testing.T) (*booking.Service, *memAppointments, *memCustomers) {
	t.Helper()
	appts := &memAppointments{byID: make(map[uuid.UUID]model.Appointment)}
	hours := &memHours{hours: schedule.Default()}
	customers := &memCustomers{byID: make(map[uuid.UUID]model.Customer)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := func() time.Time { return time.Date(2026, 3, 2, 7, 0, 0, 0, handlerLoc) }
	svc := booking.NewService(appts, hours, customers, logger, handlerLoc, booking.WithNow(now))
	return svc, appts, customers
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSlotsEndpoint(t *testing.T) {
	svc, _, _ := fixture(t)
	h := NewAppointmentHandler(svc, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/slots?date=2026-03-03", nil)
	rw := httptest.NewRecorder()
	h.Slots(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rw.Code, rw.Body.String())
	}

	var resp struct {
		Date  string   `json:"date"`
		Slots []string `json:"slots"`
	}
	if err := json.Unmarshal(rw.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Slots) != 9 || resp.Slots[0] != "08:00" {
		t.Fatalf("slots = %v", resp.Slots)
	}
}

func TestSlotsEndpointBadDate(t *testing.T) {
	svc, _, _ := fixture(t)
	h := NewAppointmentHandler(svc, testLogger())

	for _, q := range []string{"", "?date=03-03-2026"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/slots"+q, nil)
		rw := httptest.NewRecorder()
		h.Slots(rw, req)
		if rw.Code != http.StatusBadRequest {
			t.Fatalf("query %q: expected 400, got %d", q, rw.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/slots?date=2026-03-03", nil)
	rw := httptest.NewRecorder()
	h.Slots(rw, req)
	if rw.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rw.Code)
	}
}

func TestBookEndpoint(t *testing.T) {
	svc, _, customers := fixture(t)
	h := NewAppointmentHandler(svc, testLogger())

	c := model.Customer{ID: uuid.New(), Email: "dana@example.com", FullName: "Dana Levi"}
	customers.byID[c.ID] = c

	body := `{"customer_id":"` + c.ID.String() + `","date":"2026-03-03","time":"09:00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/book", strings.NewReader(body))
	rw := httptest.NewRecorder()
	h.Book(rw, req)
	if rw.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rw.Code, rw.Body.String())
	}

	var resp bookResponse
	if err := json.Unmarshal(rw.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != model.StatusScheduled {
		t.Fatalf("status = %s", resp.Status)
	}

	// Same slot again conflicts.
	req2 := httptest.NewRequest(http.MethodPost, "/api/v1/book", strings.NewReader(body))
	rw2 := httptest.NewRecorder()
	h.Book(rw2, req2)
	if rw2.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rw2.Code)
	}
}

func TestBookEndpointValidation(t *testing.T) {
	svc, _, customers := fixture(t)
	h := NewAppointmentHandler(svc, testLogger())

	c := model.Customer{ID: uuid.New(), Email: "dana@example.com", FullName: "Dana Levi"}
	customers.byID[c.ID] = c

	cases := []struct {
		name string
		body string
		want int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"missing fields", `{"date":"2026-03-03"}`, http.StatusBadRequest},
		{"bad customer id", `{"customer_id":"nope","date":"2026-03-03","time":"09:00"}`, http.StatusBadRequest},
		{"unknown customer", `{"customer_id":"` + uuid.NewString() + `","date":"2026-03-03","time":"09:00"}`, http.StatusNotFound},
		{"bad time", `{"customer_id":"` + c.ID.String() + `","date":"2026-03-03","time":"9am"}`, http.StatusBadRequest},
		{"outside hours", `{"customer_id":"` + c.ID.String() + `","date":"2026-03-03","time":"07:00"}`, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/book", strings.NewReader(tc.body))
		rw := httptest.NewRecorder()
		h.Book(rw, req)
		if rw.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d: %s", tc.name, tc.want, rw.Code, rw.Body.String())
		}
	}
}

func TestCancelEndpoint(t *testing.T) {
	svc, appts, customers := fixture(t)
	h := NewAppointmentHandler(svc, testLogger())

	c := model.Customer{ID: uuid.New(), Email: "dana@example.com", FullName: "Dana Levi"}
	customers.byID[c.ID] = c
	appt := model.Appointment{
		ID:         uuid.New(),
		CustomerID: c.ID,
		StartsAt:   time.Date(2026, 3, 3, 9, 0, 0, 0, handlerLoc),
		Duration:   time.Hour,
		Status:     model.StatusScheduled,
	}
	appts.byID[appt.ID] = appt

	body := `{"appointment_id":"` + appt.ID.String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments/cancel", strings.NewReader(body))
	rw := httptest.NewRecorder()
	h.Cancel(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rw.Code, rw.Body.String())
	}
	if appts.byID[appt.ID].Status != model.StatusCanceled {
		t.Fatal("appointment not canceled")
	}

	unknown := `{"appointment_id":"` + uuid.NewString() + `"}`
	req2 := httptest.NewRequest(http.MethodPost, "/api/v1/appointments/cancel", strings.NewReader(unknown))
	rw2 := httptest.NewRecorder()
	h.Cancel(rw2, req2)
	if rw2.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rw2.Code)
	}
}

func TestHoursEndpoint(t *testing.T) {
	svc, _, _ := fixture(t)
	h := NewHoursHandler(svc, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/business-hours", nil)
	rw := httptest.NewRecorder()
	h.Handle(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	var body map[string]dayHours
	if err := json.Unmarshal(rw.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body) != 7 || body["monday"].Open != "08:00" || body["monday"].Close != "17:00" {
		t.Fatalf("body = %+v", body)
	}
}

func TestHoursEndpointRejectsInvertedWindow(t *testing.T) {
	svc, _, _ := fixture(t)
	h := NewHoursHandler(svc, testLogger())

	update := map[string]dayHours{}
	for _, day := range schedule.Week {
		update[strings.ToLower(day.String())] = dayHours{Open: "08:00", Close: "17:00"}
	}
	update["tuesday"] = dayHours{Open: "18:00", Close: "09:00"}

	raw, _ := json.Marshal(update)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/business-hours", strings.NewReader(string(raw)))
	rw := httptest.NewRecorder()
	h.Handle(rw, req)
	if rw.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rw.Code, rw.Body.String())
	}
	if !strings.Contains(strings.ToLower(rw.Body.String()), "tuesday") {
		t.Fatalf("body %q should name the day", rw.Body.String())
	}
}

func TestCustomerEndpoints(t *testing.T) {
	customers := &memCustomers{byID: make(map[uuid.UUID]model.Customer)}
	h := NewCustomerHandler(customers, testLogger())

	body := `{"email":"dana@example.com","full_name":"Dana Levi","phone":"+972501234567"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/customers", strings.NewReader(body))
	rw := httptest.NewRecorder()
	h.Create(rw, req)
	if rw.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rw.Code, rw.Body.String())
	}
	var created customerResponse
	if err := json.Unmarshal(rw.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if !created.ReceiveReminders {
		t.Fatal("reminders should default on")
	}

	// Duplicate email conflicts.
	req2 := httptest.NewRequest(http.MethodPost, "/api/v1/customers", strings.NewReader(body))
	rw2 := httptest.NewRecorder()
	h.Create(rw2, req2)
	if rw2.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rw2.Code)
	}

	req3 := httptest.NewRequest(http.MethodGet, "/api/v1/customers/"+created.CustomerID, nil)
	rw3 := httptest.NewRecorder()
	h.Get(rw3, req3)
	if rw3.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw3.Code)
	}

	req4 := httptest.NewRequest(http.MethodGet, "/api/v1/customers/"+uuid.NewString(), nil)
	rw4 := httptest.NewRecorder()
	h.Get(rw4, req4)
	if rw4.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rw4.Code)
	}
}
