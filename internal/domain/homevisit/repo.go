package homevisit

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence operations for home visits.
type Repository interface {
	Create(ctx context.Context, v *HomeVisit) error
	GetByID(ctx context.Context, id uuid.UUID) (*HomeVisit, error)
	Update(ctx context.Context, v *HomeVisit) error
	List(ctx context.Context, limit, offset int) ([]*HomeVisit, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*HomeVisit, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*HomeVisit, int, error)
}
