package storage

import (
	"context"
	"encoding/json"

	"github.com/shaharm-dev/apptbook/libs/db"
)

// Notification is one delivery attempt, persisted for auditing regardless of
// whether the send succeeded.
type Notification struct {
	AppointmentID string
	Kind          string
	Channel       string
	Recipient     string
	Payload       map[string]any
	Status        string
}

type NotificationRepository struct {
	pool *db.Pool
}

func NewNotificationRepository(pool *db.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

func (r *NotificationRepository) Insert(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO notifications (appointment_id, kind, channel, recipient, payload, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, n.AppointmentID, n.Kind, n.Channel, n.Recipient, payload, n.Status)
	return err
}
