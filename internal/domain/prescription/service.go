package prescription

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service implements prescription business logic.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Create issues a new prescription. The doctor id comes from the caller's
// session, never from the request body.
func (s *Service) Create(ctx context.Context, p *Prescription) error {
	if p.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if p.DoctorID == uuid.Nil {
		return fmt.Errorf("doctor_id is required")
	}
	if p.Medication == "" {
		return fmt.Errorf("medication is required")
	}
	if p.Dosage == "" {
		return fmt.Errorf("dosage is required")
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return fmt.Errorf("create prescription: %w", err)
	}
	s.logger.Info().Str("prescription_id", p.ID.String()).Str("doctor_id", p.DoctorID.String()).Msg("prescription issued")
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.repo.GetByID(ctx, id)
}

// Update modifies the medication details of an existing prescription. The
// patient, doctor, and consultation bindings are immutable.
func (s *Service) Update(ctx context.Context, p *Prescription) error {
	if p.Medication == "" {
		return fmt.Errorf("medication is required")
	}
	if p.Dosage == "" {
		return fmt.Errorf("dosage is required")
	}
	return s.repo.Update(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Prescription, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return s.repo.ListByDoctor(ctx, doctorID, limit, offset)
}
