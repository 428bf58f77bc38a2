package model

import (
	"time"

	"github.com/google/uuid"
)

type Customer struct {
	ID               uuid.UUID
	Email            string
	FullName         string
	Phone            string
	ReceiveReminders bool
	CreatedAt        time.Time
}
