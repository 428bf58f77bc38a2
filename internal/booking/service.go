package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaharm-dev/apptbook/internal/availability"
	"github.com/shaharm-dev/apptbook/internal/model"
	"github.com/shaharm-dev/apptbook/internal/outbox"
	"github.com/shaharm-dev/apptbook/internal/reminder"
	"github.com/shaharm-dev/apptbook/internal/schedule"
	"github.com/shaharm-dev/apptbook/internal/storage"
)

var (
	ErrNoBusinessHours      = errors.New("business hours not configured")
	ErrOutsideBusinessHours = errors.New("time is outside business hours")
	ErrSlotTaken            = errors.New("slot already booked")
	ErrPastTime             = errors.New("cannot book in the past")
	ErrCustomerNotFound     = errors.New("customer not found")
	ErrNotFound             = errors.New("appointment not found")
	ErrAlreadyPast          = errors.New("cannot cancel a past appointment")
	ErrInvalidDate          = errors.New("invalid date")
	ErrInvalidTime          = errors.New("invalid time")
)

const DateFormat = "2006-01-02"

type AppointmentStore interface {
	FindScheduledAt(ctx context.Context, startsAt time.Time) (bool, error)
	Create(ctx context.Context, appt *model.Appointment, events []outbox.Event, jobs []reminder.Job) error
	GetByID(ctx context.Context, id uuid.UUID) (model.Appointment, error)
	Cancel(ctx context.Context, id uuid.UUID, events []outbox.Event) error
	ListOn(ctx context.Context, from, to time.Time) ([]model.Appointment, error)
	ListAll(ctx context.Context, limit int) ([]model.Appointment, error)
}

type HoursStore interface {
	Get(ctx context.Context) (schedule.WeeklyHours, error)
	GetOrCreate(ctx context.Context) (schedule.WeeklyHours, error)
	Save(ctx context.Context, hours schedule.WeeklyHours) error
}

type CustomerStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (model.Customer, error)
}

// Service runs availability queries and booking commits against shared
// persistent state. Every call is independent; concurrency control for the
// commit lives in the store's unique constraint, not in memory.
type Service struct {
	appointments AppointmentStore
	hours        HoursStore
	customers    CustomerStore
	logger       *slog.Logger
	loc          *time.Location
	offsets      []time.Duration
	now          func() time.Time
}

type Option func(*Service)

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithReminderOffsets sets how long before an appointment reminders fire.
func WithReminderOffsets(offsets []time.Duration) Option {
	return func(s *Service) {
		if len(offsets) > 0 {
			s.offsets = offsets
		}
	}
}

func NewService(appointments AppointmentStore, hours HoursStore, customers CustomerStore, logger *slog.Logger, loc *time.Location, opts ...Option) *Service {
	s := &Service{
		appointments: appointments,
		hours:        hours,
		customers:    customers,
		logger:       logger,
		loc:          loc,
		offsets:      []time.Duration{24 * time.Hour, time.Hour},
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParseDate parses a YYYY-MM-DD calendar date in the business timezone.
func (s *Service) ParseDate(v string) (time.Time, error) {
	t, err := time.ParseInLocation(DateFormat, v, s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, v)
	}
	return t, nil
}

// ParseClock parses an HH:MM time of day.
func (s *Service) ParseClock(v string) (schedule.TimeOfDay, error) {
	t, err := schedule.ParseTimeOfDay(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, v)
	}
	return t, nil
}

// AvailableSlots returns the free HH:MM slot starts for a calendar date.
//
// Appointments of any status occupy their slot for display purposes: a
// canceled appointment still hides its time here even though a direct
// booking commit for that time would succeed. Long-standing product
// behavior, kept deliberately.
func (s *Service) AvailableSlots(ctx context.Context, date time.Time) ([]string, error) {
	hours, err := s.hours.Get(ctx)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, ErrNoBusinessHours
		}
		return nil, err
	}

	candidates := hours.Candidates(date, s.now().In(s.loc))
	if len(candidates) == 0 {
		return []string{}, nil
	}

	dayStart := date
	appts, err := s.appointments.ListOn(ctx, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	occupied := make([]time.Time, 0, len(appts))
	for _, appt := range appts {
		occupied = append(occupied, appt.StartsAt.In(s.loc))
	}

	slots := availability.FreeSlots(candidates, occupied)
	if slots == nil {
		slots = []string{}
	}
	return slots, nil
}

// Book commits an appointment for the customer at date+clock.
//
// The window and conflict checks are re-run here at write time; the friendly
// slot check can still race with another commit, so the insert relies on the
// store's uniqueness guarantee and translates its violation to ErrSlotTaken.
// Exactly one of two racing commits for the same slot succeeds.
func (s *Service) Book(ctx context.Context, customerID uuid.UUID, date time.Time, clock schedule.TimeOfDay) (model.Appointment, error) {
	customer, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		if storage.IsNotFound(err) {
			return model.Appointment{}, ErrCustomerNotFound
		}
		return model.Appointment{}, err
	}

	hours, err := s.hours.Get(ctx)
	if err != nil {
		if storage.IsNotFound(err) {
			return model.Appointment{}, ErrNoBusinessHours
		}
		return model.Appointment{}, err
	}

	window, ok := hours[date.Weekday()]
	if !ok {
		return model.Appointment{}, ErrNoBusinessHours
	}
	if !window.Contains(clock) {
		return model.Appointment{}, ErrOutsideBusinessHours
	}

	now := s.now().In(s.loc)
	startsAt := clock.On(date)
	if startsAt.Before(now) {
		return model.Appointment{}, ErrPastTime
	}

	taken, err := s.appointments.FindScheduledAt(ctx, startsAt)
	if err != nil {
		return model.Appointment{}, err
	}
	if taken {
		return model.Appointment{}, ErrSlotTaken
	}

	appt := model.Appointment{
		ID:         uuid.New(),
		CustomerID: customer.ID,
		StartsAt:   startsAt,
		Duration:   schedule.SlotLength, // forced; caller input is ignored
		Status:     model.StatusScheduled,
		CreatedAt:  now,
	}

	var events []outbox.Event
	var jobs []reminder.Job
	if customer.ReceiveReminders {
		events = append(events, s.bookedEvent(appt, customer))
		jobs = s.reminderJobs(appt, customer, now)
	}

	if err := s.appointments.Create(ctx, &appt, events, jobs); err != nil {
		if storage.IsConflict(err) {
			return model.Appointment{}, ErrSlotTaken
		}
		return model.Appointment{}, err
	}

	return appt, nil
}

// Cancel transitions a scheduled appointment to canceled and enqueues the
// cancellation notice. Canceling an appointment that already started is
// rejected; canceling twice is a no-op.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			return ErrNotFound
		}
		return err
	}

	if appt.IsPast(s.now().In(s.loc)) {
		return ErrAlreadyPast
	}
	if appt.Status == model.StatusCanceled {
		return nil
	}

	var events []outbox.Event
	customer, err := s.customers.GetByID(ctx, appt.CustomerID)
	switch {
	case err == nil:
		events = append(events, s.canceledEvent(appt, customer))
	case storage.IsNotFound(err):
		// Customer record gone; cancel anyway, skip the notice.
		s.logger.Warn("canceling appointment without notice, customer missing", "appointment_id", appt.ID)
	default:
		return err
	}

	if err := s.appointments.Cancel(ctx, id, events); err != nil {
		if storage.IsNotFound(err) {
			// Lost a race with another cancel; the end state is what was asked for.
			return nil
		}
		return err
	}
	return nil
}

// Appointments returns every appointment for the owner dashboard.
func (s *Service) Appointments(ctx context.Context) ([]model.Appointment, error) {
	return s.appointments.ListAll(ctx, 0)
}

// Hours returns the weekly schedule, seeding defaults on first access.
func (s *Service) Hours(ctx context.Context) (schedule.WeeklyHours, error) {
	return s.hours.GetOrCreate(ctx)
}

// UpdateHours validates and stores the full week. Validation reports every
// offending weekday, never silently corrects.
func (s *Service) UpdateHours(ctx context.Context, hours schedule.WeeklyHours) error {
	if err := hours.Validate(); err != nil {
		return err
	}
	return s.hours.Save(ctx, hours)
}

func (s *Service) bookedEvent(appt model.Appointment, customer model.Customer) outbox.Event {
	payload, _ := json.Marshal(map[string]any{
		"appointment_id": appt.ID.String(),
		"customer_name":  customer.FullName,
		"recipient":      customer.Email,
		"phone":          customer.Phone,
		"starts_at":      appt.StartsAt.Format(time.RFC3339),
	})
	return outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID.String(),
		EventType:     outbox.TopicAppointmentBooked,
		Payload:       payload,
	}
}

func (s *Service) canceledEvent(appt model.Appointment, customer model.Customer) outbox.Event {
	payload, _ := json.Marshal(map[string]any{
		"appointment_id": appt.ID.String(),
		"customer_name":  customer.FullName,
		"recipient":      customer.Email,
		"phone":          customer.Phone,
		"starts_at":      appt.StartsAt.In(s.loc).Format(time.RFC3339),
		"canceled_at":    s.now().UTC().Format(time.RFC3339),
	})
	return outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID.String(),
		EventType:     outbox.TopicAppointmentCanceled,
		Payload:       payload,
	}
}

func (s *Service) reminderJobs(appt model.Appointment, customer model.Customer, now time.Time) []reminder.Job {
	data := map[string]any{
		"customer_name": customer.FullName,
		"starts_at":     appt.StartsAt.Format(time.RFC3339),
	}

	var jobs []reminder.Job
	for _, offset := range s.offsets {
		remindAt := appt.StartsAt.Add(-offset)
		if remindAt.Before(now) {
			continue
		}
		jobs = append(jobs, reminder.Job{
			AppointmentID: appt.ID.String(),
			Channel:       "email",
			Recipient:     customer.Email,
			RemindAt:      remindAt,
			TemplateData:  data,
		})
		if customer.Phone != "" {
			jobs = append(jobs, reminder.Job{
				AppointmentID: appt.ID.String(),
				Channel:       "sms",
				Recipient:     customer.Phone,
				RemindAt:      remindAt,
				TemplateData:  data,
			})
		}
	}
	return jobs
}
