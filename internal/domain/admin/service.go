package admin

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/echomed/echomed/internal/domain/identity"
)

// Directory is the slice of the identity service the back office needs.
type Directory interface {
	ListUnverifiedDoctors(ctx context.Context, limit, offset int) ([]*identity.Doctor, int, error)
	VerifyDoctor(ctx context.Context, id uuid.UUID) error
	CreateAdmin(ctx context.Context, email, name, password string) (*identity.Admin, error)
}

// Service composes platform statistics with the verification queue.
type Service struct {
	stats     StatsRepository
	directory Directory
	logger    zerolog.Logger
}

func NewService(stats StatsRepository, directory Directory, logger zerolog.Logger) *Service {
	return &Service{stats: stats, directory: directory, logger: logger}
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	counts, err := s.stats.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load platform stats: %w", err)
	}
	return counts, nil
}

func (s *Service) PendingDoctors(ctx context.Context, limit, offset int) ([]*identity.Doctor, int, error) {
	return s.directory.ListUnverifiedDoctors(ctx, limit, offset)
}

func (s *Service) VerifyDoctor(ctx context.Context, id uuid.UUID) error {
	if err := s.directory.VerifyDoctor(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("doctor_id", id.String()).Msg("doctor verified")
	return nil
}

func (s *Service) CreateAdmin(ctx context.Context, email, name, password string) (*identity.Admin, error) {
	return s.directory.CreateAdmin(ctx, email, name, password)
}
