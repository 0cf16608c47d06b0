package healthtip

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence operations for health tips.
type Repository interface {
	Create(ctx context.Context, tip *HealthTip) error
	GetByID(ctx context.Context, id uuid.UUID) (*HealthTip, error)
	Update(ctx context.Context, tip *HealthTip) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter Filter, limit, offset int) ([]*HealthTip, int, error)
}
