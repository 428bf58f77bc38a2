package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/shaharm-dev/apptbook/internal/notify/email"
	"github.com/shaharm-dev/apptbook/internal/notify/sms"
	"github.com/shaharm-dev/apptbook/internal/outbox"
	"github.com/shaharm-dev/apptbook/internal/storage"
)

// Store persists one audit row per delivery attempt.
type Store interface {
	Insert(ctx context.Context, n storage.Notification) error
}

// Dispatcher turns consumed appointment events into outbound messages.
// Payload problems are logged and dropped (retrying cannot fix them);
// delivery and persistence failures are returned so the consumer can
// surface them.
type Dispatcher struct {
	logger *slog.Logger
	email  email.Sender
	sms    sms.Sender
	store  Store
	loc    *time.Location
}

func NewDispatcher(logger *slog.Logger, emailSender email.Sender, smsSender sms.Sender, store Store, loc *time.Location) *Dispatcher {
	return &Dispatcher{
		logger: logger,
		email:  emailSender,
		sms:    smsSender,
		store:  store,
		loc:    loc,
	}
}

type bookedPayload struct {
	AppointmentID string `json:"appointment_id"`
	CustomerName  string `json:"customer_name"`
	Recipient     string `json:"recipient"`
	Phone         string `json:"phone"`
	StartsAt      string `json:"starts_at"`
}

type canceledPayload struct {
	AppointmentID string `json:"appointment_id"`
	CustomerName  string `json:"customer_name"`
	Recipient     string `json:"recipient"`
	Phone         string `json:"phone"`
	StartsAt      string `json:"starts_at"`
	CanceledAt    string `json:"canceled_at"`
}

type reminderPayload struct {
	AppointmentID string         `json:"appointment_id"`
	Channel       string         `json:"channel"`
	Recipient     string         `json:"recipient"`
	RemindAt      string         `json:"remind_at"`
	TemplateData  map[string]any `json:"template_data"`
}

// Handle routes a consumed message by topic.
func (d *Dispatcher) Handle(ctx context.Context, msg kafka.Message) error {
	switch msg.Topic {
	case outbox.TopicAppointmentBooked:
		return d.handleBooked(ctx, msg.Value)
	case outbox.TopicAppointmentCanceled:
		return d.handleCanceled(ctx, msg.Value)
	case outbox.TopicReminderDue:
		return d.handleReminderDue(ctx, msg.Value)
	default:
		d.logger.Error("unexpected topic", "topic", msg.Topic)
		return nil
	}
}

func (d *Dispatcher) handleBooked(ctx context.Context, raw []byte) error {
	var p bookedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		d.logger.Error("invalid booked payload", "err", err)
		return nil
	}
	if p.AppointmentID == "" || p.Recipient == "" || p.StartsAt == "" {
		d.logger.Error("missing booked fields", "appointment_id", p.AppointmentID)
		return nil
	}

	subject := "Appointment confirmed"
	body := fmt.Sprintf("Hi %s, your appointment on %s is confirmed.", displayName(p.CustomerName), d.displayTime(p.StartsAt))

	status := "sent"
	if err := d.email.Send(p.Recipient, subject, body); err != nil {
		status = "failed"
		d.logger.Error("confirmation email failed", "err", err, "appointment_id", p.AppointmentID)
	}

	if err := d.store.Insert(ctx, storage.Notification{
		AppointmentID: p.AppointmentID,
		Kind:          "confirmation",
		Channel:       "email",
		Recipient:     p.Recipient,
		Payload:       map[string]any{"starts_at": p.StartsAt},
		Status:        status,
	}); err != nil {
		d.logger.Error("failed to persist notification", "err", err)
		return err
	}

	d.logger.Info("confirmation processed", "appointment_id", p.AppointmentID, "status", status)
	return nil
}

func (d *Dispatcher) handleCanceled(ctx context.Context, raw []byte) error {
	var p canceledPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		d.logger.Error("invalid canceled payload", "err", err)
		return nil
	}
	if p.AppointmentID == "" || p.Recipient == "" {
		d.logger.Error("missing canceled fields", "appointment_id", p.AppointmentID)
		return nil
	}

	subject := "Appointment canceled"
	body := fmt.Sprintf("Hi %s, your appointment on %s has been canceled.", displayName(p.CustomerName), d.displayTime(p.StartsAt))

	status := "sent"
	if err := d.email.Send(p.Recipient, subject, body); err != nil {
		status = "failed"
		d.logger.Error("cancellation email failed", "err", err, "appointment_id", p.AppointmentID)
	}

	if p.Phone != "" {
		smsBody := fmt.Sprintf("Your appointment on %s has been canceled.", d.displayTime(p.StartsAt))
		if err := d.sms.Send(ctx, p.Phone, smsBody); err != nil {
			d.logger.Error("cancellation sms failed", "err", err, "appointment_id", p.AppointmentID)
		}
	}

	if err := d.store.Insert(ctx, storage.Notification{
		AppointmentID: p.AppointmentID,
		Kind:          "cancellation",
		Channel:       "email",
		Recipient:     p.Recipient,
		Payload:       map[string]any{"starts_at": p.StartsAt, "canceled_at": p.CanceledAt},
		Status:        status,
	}); err != nil {
		d.logger.Error("failed to persist notification", "err", err)
		return err
	}

	d.logger.Info("cancellation processed", "appointment_id", p.AppointmentID, "status", status)
	return nil
}

func (d *Dispatcher) handleReminderDue(ctx context.Context, raw []byte) error {
	var p reminderPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		d.logger.Error("invalid reminder payload", "err", err)
		return nil
	}
	if p.AppointmentID == "" || p.Channel == "" || p.Recipient == "" || p.RemindAt == "" {
		d.logger.Error("missing reminder fields", "appointment_id", p.AppointmentID)
		return nil
	}
	if _, err := time.Parse(time.RFC3339, p.RemindAt); err != nil {
		d.logger.Error("invalid remind_at", "err", err, "appointment_id", p.AppointmentID)
		return nil
	}

	startsAt, _ := p.TemplateData["starts_at"].(string)
	name, _ := p.TemplateData["customer_name"].(string)
	body := fmt.Sprintf("Hi %s, reminder: you have an appointment on %s.", displayName(name), d.displayTime(startsAt))

	status := "sent"
	switch strings.ToLower(p.Channel) {
	case "email":
		if err := d.email.Send(p.Recipient, "Appointment reminder", body); err != nil {
			status = "failed"
			d.logger.Error("reminder email failed", "err", err, "recipient", p.Recipient)
		}
	case "sms":
		if err := d.sms.Send(ctx, p.Recipient, body); err != nil {
			status = "failed"
			d.logger.Error("reminder sms failed", "err", err, "recipient", p.Recipient)
		}
	default:
		status = "failed"
		d.logger.Error("unsupported channel", "channel", p.Channel)
	}

	if err := d.store.Insert(ctx, storage.Notification{
		AppointmentID: p.AppointmentID,
		Kind:          "reminder",
		Channel:       strings.ToLower(p.Channel),
		Recipient:     p.Recipient,
		Payload:       p.TemplateData,
		Status:        status,
	}); err != nil {
		d.logger.Error("failed to persist notification", "err", err)
		return err
	}

	d.logger.Info("reminder processed", "appointment_id", p.AppointmentID, "channel", p.Channel, "status", status)
	return nil
}

func (d *Dispatcher) displayTime(rfc3339 string) string {
	t, err := time.Parse(time.RFC3339, rfc3339)
	if err != nil {
		return rfc3339
	}
	return t.In(d.loc).Format("Monday, 02 Jan 2006 at 15:04")
}

func displayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "there"
	}
	return name
}
