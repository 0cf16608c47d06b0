package cyclelog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no entry exists for the requested day. Other
// errors mean the lookup itself failed.
var ErrNotFound = errors.New("cycle log not found")

// Repository defines persistence operations for cycle logs. A user has at
// most one entry per calendar day.
type Repository interface {
	Create(ctx context.Context, l *CycleLog) error
	// GetByUserAndDate returns ErrNotFound when the user has no entry for
	// that calendar day.
	GetByUserAndDate(ctx context.Context, userID uuid.UUID, date time.Time) (*CycleLog, error)
	Update(ctx context.Context, l *CycleLog) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*CycleLog, int, error)
}
