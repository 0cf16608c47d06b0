package homevisit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BaseCost is the default visit fee applied when a request does not quote one.
const BaseCost = 50.0

// Service implements home visit scheduling logic.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Create schedules a new visit. Every visit starts pending and unassigned.
func (s *Service) Create(ctx context.Context, v *HomeVisit) error {
	if v.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if v.Address == "" {
		return fmt.Errorf("address is required")
	}
	if v.ScheduledAt.IsZero() {
		return fmt.Errorf("scheduled_at is required")
	}
	if v.ScheduledAt.Before(time.Now()) {
		return fmt.Errorf("scheduled_at must be in the future")
	}

	v.Status = StatusPending
	v.DoctorID = nil
	if v.Cost == 0 {
		v.Cost = BaseCost
	}

	if err := s.repo.Create(ctx, v); err != nil {
		return fmt.Errorf("create home visit: %w", err)
	}
	s.logger.Info().Str("visit_id", v.ID.String()).Str("patient_id", v.PatientID.String()).Msg("home visit requested")
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*HomeVisit, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*HomeVisit, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*HomeVisit, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*HomeVisit, int, error) {
	return s.repo.ListByDoctor(ctx, doctorID, limit, offset)
}

// Assign binds a provider to a pending visit.
func (s *Service) Assign(ctx context.Context, visitID, doctorID uuid.UUID) (*HomeVisit, error) {
	v, err := s.repo.GetByID(ctx, visitID)
	if err != nil {
		return nil, fmt.Errorf("home visit not found")
	}
	if v.Status != StatusPending {
		return nil, fmt.Errorf("cannot assign a provider to a %s visit", v.Status)
	}

	v.DoctorID = &doctorID
	if err := s.repo.Update(ctx, v); err != nil {
		return nil, fmt.Errorf("assign provider: %w", err)
	}
	s.logger.Info().Str("visit_id", visitID.String()).Str("doctor_id", doctorID.String()).Msg("home visit assigned")
	return v, nil
}

// UpdateStatus advances a visit through its lifecycle. The status string is
// parsed case-insensitively. Confirming requires an assigned provider.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus string) (*HomeVisit, error) {
	to, err := ParseStatus(newStatus)
	if err != nil {
		return nil, err
	}

	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("home visit not found")
	}
	if v.Status == to {
		return v, nil
	}
	if !CanTransition(v.Status, to) {
		return nil, fmt.Errorf("cannot transition home visit from %s to %s", v.Status, to)
	}
	if to == StatusConfirmed && v.DoctorID == nil {
		return nil, fmt.Errorf("cannot confirm a visit without an assigned provider")
	}

	v.Status = to
	if err := s.repo.Update(ctx, v); err != nil {
		return nil, fmt.Errorf("update home visit status: %w", err)
	}
	return v, nil
}
