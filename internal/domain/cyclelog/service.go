package cyclelog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service implements cycle log business logic.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Log records an entry for a day. An empty date defaults to today. Logging
// the same day twice replaces the earlier entry.
func (s *Service) Log(ctx context.Context, l *CycleLog) error {
	if l.UserID == uuid.Nil {
		return fmt.Errorf("user_id is required")
	}
	flow, err := ParseFlow(string(l.Flow))
	if err != nil {
		return err
	}
	l.Flow = flow

	if l.Date.IsZero() {
		l.Date = time.Now().UTC().Truncate(24 * time.Hour)
	}

	existing, err := s.repo.GetByUserAndDate(ctx, l.UserID, l.Date)
	switch {
	case err == nil:
		existing.Flow = l.Flow
		existing.Symptoms = l.Symptoms
		existing.Mood = l.Mood
		existing.Notes = l.Notes
		*l = *existing
		return s.repo.Update(ctx, existing)
	case !errors.Is(err, ErrNotFound):
		return fmt.Errorf("look up cycle log: %w", err)
	}

	if err := s.repo.Create(ctx, l); err != nil {
		return fmt.Errorf("create cycle log: %w", err)
	}
	return nil
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*CycleLog, int, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}
