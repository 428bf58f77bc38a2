package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shaharm-dev/apptbook/internal/model"
	"github.com/shaharm-dev/apptbook/internal/outbox"
	"github.com/shaharm-dev/apptbook/internal/reminder"
	"github.com/shaharm-dev/apptbook/libs/db"
)

// AppointmentRepository owns the appointments table. Writes that must be
// atomic with their side effects (outbox events, reminder jobs) run in a
// single transaction here, the way the booking flow requires.
type AppointmentRepository struct {
	pool      *db.Pool
	outbox    *outbox.Repository
	reminders *reminder.Repository
}

func NewAppointmentRepository(pool *db.Pool, outboxRepo *outbox.Repository, reminderRepo *reminder.Repository) *AppointmentRepository {
	return &AppointmentRepository{pool: pool, outbox: outboxRepo, reminders: reminderRepo}
}

// FindScheduledAt reports whether a scheduled appointment already starts at
// the given instant. This is only the friendly pre-check; the partial unique
// index on (starts_at) WHERE status = 'scheduled' is what actually prevents
// two racing inserts from both succeeding.
func (r *AppointmentRepository) FindScheduledAt(ctx context.Context, startsAt time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE starts_at = $1 AND status = 'scheduled'
		)
	`, startsAt).Scan(&exists)
	return exists, err
}

// Create inserts the appointment together with its outbox events and
// reminder jobs. A unique-index violation on the scheduled start time is
// returned as-is; callers detect it with IsConflict.
func (r *AppointmentRepository) Create(ctx context.Context, appt *model.Appointment, events []outbox.Event, jobs []reminder.Job) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO appointments (id, customer_id, starts_at, duration_seconds, status)
		VALUES ($1, $2, $3, $4, $5)
	`, appt.ID, appt.CustomerID, appt.StartsAt, int(appt.Duration.Seconds()), appt.Status)
	if err != nil {
		return err
	}

	for _, evt := range events {
		if err := r.outbox.Insert(ctx, tx, evt); err != nil {
			return err
		}
	}
	for _, job := range jobs {
		if err := r.reminders.Insert(ctx, tx, job); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Appointment, error) {
	var appt model.Appointment
	var durationSeconds int
	err := r.pool.QueryRow(ctx, `
		SELECT id, customer_id, starts_at, duration_seconds, status, canceled_at, created_at
		FROM appointments
		WHERE id = $1
	`, id).Scan(&appt.ID, &appt.CustomerID, &appt.StartsAt, &durationSeconds, &appt.Status, &appt.CanceledAt, &appt.CreatedAt)
	if err != nil {
		return model.Appointment{}, err
	}
	appt.Duration = time.Duration(durationSeconds) * time.Second
	return appt, nil
}

// Cancel flips the appointment to canceled, drops its pending reminders and
// writes the cancellation events, all in one transaction.
func (r *AppointmentRepository) Cancel(ctx context.Context, id uuid.UUID, events []outbox.Event) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE appointments
		SET status = 'canceled', canceled_at = now()
		WHERE id = $1 AND status = 'scheduled'
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	if err := r.reminders.CancelPending(ctx, tx, id.String()); err != nil {
		return err
	}
	for _, evt := range events {
		if err := r.outbox.Insert(ctx, tx, evt); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// ListOn returns appointments of any status starting within [from, to).
func (r *AppointmentRepository) ListOn(ctx context.Context, from, to time.Time) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, customer_id, starts_at, duration_seconds, status, canceled_at, created_at
		FROM appointments
		WHERE starts_at >= $1 AND starts_at < $2
		ORDER BY starts_at ASC
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

func (r *AppointmentRepository) ListAll(ctx context.Context, limit int) ([]model.Appointment, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, customer_id, starts_at, duration_seconds, status, canceled_at, created_at
		FROM appointments
		ORDER BY starts_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

func scanAppointments(rows pgx.Rows) ([]model.Appointment, error) {
	var appts []model.Appointment
	for rows.Next() {
		var appt model.Appointment
		var durationSeconds int
		if err := rows.Scan(&appt.ID, &appt.CustomerID, &appt.StartsAt, &durationSeconds, &appt.Status, &appt.CanceledAt, &appt.CreatedAt); err != nil {
			return nil, err
		}
		appt.Duration = time.Duration(durationSeconds) * time.Second
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

// IsConflict reports a Postgres unique violation (23505), which the booking
// path translates into its slot-taken error.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
