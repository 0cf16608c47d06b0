package healthtip

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/echomed/echomed/internal/platform/llm"
)

// Service implements health tip management. The generator is optional; when
// nil, drafting tips on demand is disabled.
type Service struct {
	repo      Repository
	generator llm.TipGenerator
	logger    zerolog.Logger
}

func NewService(repo Repository, generator llm.TipGenerator, logger zerolog.Logger) *Service {
	return &Service{repo: repo, generator: generator, logger: logger}
}

func (s *Service) Create(ctx context.Context, tip *HealthTip) error {
	if tip.Title == "" {
		return fmt.Errorf("title is required")
	}
	if tip.Content == "" {
		return fmt.Errorf("content is required")
	}
	lang, err := ParseLanguage(tip.Language)
	if err != nil {
		return err
	}
	tip.Language = lang

	if err := s.repo.Create(ctx, tip); err != nil {
		return fmt.Errorf("create health tip: %w", err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*HealthTip, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, tip *HealthTip) error {
	if tip.Title == "" {
		return fmt.Errorf("title is required")
	}
	if tip.Content == "" {
		return fmt.Errorf("content is required")
	}
	lang, err := ParseLanguage(tip.Language)
	if err != nil {
		return err
	}
	tip.Language = lang
	return s.repo.Update(ctx, tip)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// List returns tips matching the filter. An invalid language in the filter
// is an error rather than an empty result.
func (s *Service) List(ctx context.Context, filter Filter, limit, offset int) ([]*HealthTip, int, error) {
	if filter.Language != "" {
		lang, err := ParseLanguage(filter.Language)
		if err != nil {
			return nil, 0, err
		}
		filter.Language = lang
	}
	return s.repo.List(ctx, filter, limit, offset)
}

// Generate drafts a tip with the language model and stores it. The stored
// tip is returned for admin review.
func (s *Service) Generate(ctx context.Context, category, language string) (*HealthTip, error) {
	if s.generator == nil {
		return nil, fmt.Errorf("tip generation is not configured")
	}
	if category == "" {
		return nil, fmt.Errorf("category is required")
	}
	lang, err := ParseLanguage(language)
	if err != nil {
		return nil, err
	}

	draft, err := s.generator.GenerateTip(ctx, category, lang)
	if err != nil {
		return nil, err
	}

	tip := &HealthTip{
		Title:    draft.Title,
		Content:  draft.Content,
		Category: category,
		Language: lang,
	}
	if err := s.repo.Create(ctx, tip); err != nil {
		return nil, fmt.Errorf("store generated tip: %w", err)
	}
	s.logger.Info().Str("tip_id", tip.ID.String()).Str("category", category).Str("language", lang).Msg("health tip generated")
	return tip, nil
}
