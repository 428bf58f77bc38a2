package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusScheduled = "scheduled"
	StatusCanceled  = "canceled"
)

type Appointment struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	StartsAt   time.Time
	Duration   time.Duration
	Status     string
	CanceledAt *time.Time
	CreatedAt  time.Time
}

func (a Appointment) IsPast(now time.Time) bool {
	return a.StartsAt.Before(now)
}
