package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/shaharm-dev/apptbook/internal/schedule"
	"github.com/shaharm-dev/apptbook/libs/db"
)

// HoursRepository persists the single business's weekly hours, one row per
// weekday.
type HoursRepository struct {
	pool *db.Pool
}

func NewHoursRepository(pool *db.Pool) *HoursRepository {
	return &HoursRepository{pool: pool}
}

// Get loads the configured schedule. pgx.ErrNoRows when hours were never set.
func (r *HoursRepository) Get(ctx context.Context) (schedule.WeeklyHours, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT weekday, open_minute, close_minute
		FROM business_hours
		ORDER BY weekday
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hours := make(schedule.WeeklyHours, 7)
	for rows.Next() {
		var weekday, openMin, closeMin int
		if err := rows.Scan(&weekday, &openMin, &closeMin); err != nil {
			return nil, err
		}
		hours[time.Weekday(weekday)] = schedule.Window{
			Open:  schedule.TimeOfDay(openMin),
			Close: schedule.TimeOfDay(closeMin),
		}
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	if len(hours) == 0 {
		return nil, pgx.ErrNoRows
	}
	return hours, nil
}

// GetOrCreate seeds the default 08:00-17:00 schedule on first access, then
// reads whatever is stored. Owner-dashboard semantics: hours exist after the
// owner has looked at them once.
func (r *HoursRepository) GetOrCreate(ctx context.Context) (schedule.WeeklyHours, error) {
	defaults := schedule.Default()
	for _, day := range schedule.Week {
		w := defaults[day]
		if _, err := r.pool.Exec(ctx, `
			INSERT INTO business_hours (weekday, open_minute, close_minute)
			VALUES ($1, $2, $3)
			ON CONFLICT (weekday) DO NOTHING
		`, int(day), int(w.Open), int(w.Close)); err != nil {
			return nil, err
		}
	}
	return r.Get(ctx)
}

// Save upserts the full week atomically.
func (r *HoursRepository) Save(ctx context.Context, hours schedule.WeeklyHours) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, day := range schedule.Week {
		w, ok := hours[day]
		if !ok {
			continue
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO business_hours (weekday, open_minute, close_minute)
			VALUES ($1, $2, $3)
			ON CONFLICT (weekday) DO UPDATE
			SET open_minute = EXCLUDED.open_minute,
				close_minute = EXCLUDED.close_minute,
				updated_at = now()
		`, int(day), int(w.Open), int(w.Close)); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
