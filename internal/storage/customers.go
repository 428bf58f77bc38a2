package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/shaharm-dev/apptbook/internal/model"
	"github.com/shaharm-dev/apptbook/libs/db"
)

type CustomerRepository struct {
	pool *db.Pool
}

func NewCustomerRepository(pool *db.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// Create inserts the customer. A duplicate email surfaces as a unique
// violation; callers detect it with IsConflict.
func (r *CustomerRepository) Create(ctx context.Context, c *model.Customer) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO customers (id, email, full_name, phone, receive_reminders)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, c.ID, c.Email, c.FullName, c.Phone, c.ReceiveReminders).Scan(&c.CreatedAt)
}

func (r *CustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Customer, error) {
	var c model.Customer
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, full_name, COALESCE(phone, ''), receive_reminders, created_at
		FROM customers
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Email, &c.FullName, &c.Phone, &c.ReceiveReminders, &c.CreatedAt)
	if err != nil {
		return model.Customer{}, err
	}
	return c, nil
}
