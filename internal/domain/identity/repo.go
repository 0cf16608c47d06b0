package identity

import (
	"context"

	"github.com/google/uuid"
)

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByExternalID(ctx context.Context, externalID string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
}

type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetByExternalID(ctx context.Context, externalID string) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	List(ctx context.Context, filter DoctorFilter, limit, offset int) ([]*Doctor, int, error)
	SetOnline(ctx context.Context, id uuid.UUID, online bool) error
	ListUnverified(ctx context.Context, limit, offset int) ([]*Doctor, int, error)
	SetVerified(ctx context.Context, id uuid.UUID) error
}

type AdminRepository interface {
	Create(ctx context.Context, a *Admin) error
	GetByEmail(ctx context.Context, email string) (*Admin, error)
}
