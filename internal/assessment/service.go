// Package assessment связывает проверку правдоподобия, кодирование признаков
// и оценку риска в одну операцию.
package assessment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Krimson/heart-risk/internal/advisory"
	"github.com/Krimson/heart-risk/internal/clinical"
	"github.com/Krimson/heart-risk/internal/features"
	"github.com/Krimson/heart-risk/internal/feed"
	"github.com/Krimson/heart-risk/internal/scoring"
)

// Result результат обработки одного наблюдения.
// Assessment nil, если оценка не выполнена.
type Result struct {
	ID         string              `json:"id"`
	Advisories []advisory.Message  `json:"advisories"`
	Assessment *scoring.Assessment `json:"assessment,omitempty"`
	Features   features.Vector     `json:"-"`
	CreatedAt  time.Time           `json:"created_at"`
}

// Service выполняет оценку. Состояния между запросами нет.
type Service struct {
	validator *advisory.Validator
	scorer    *scoring.Scorer
	publisher feed.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewService publisher может быть nil.
func NewService(validator *advisory.Validator, scorer *scoring.Scorer, publisher feed.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		validator: validator,
		scorer:    scorer,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// ModelAvailable загружена ли модель.
func (s *Service) ModelAvailable() bool {
	return s.scorer.Available()
}

// Advise только рекомендательные сообщения. Модель не нужна, диапазоны
// формы не проверяются: правила сами распознают неправдоподобные значения.
func (s *Service) Advise(o clinical.Observation) []advisory.Message {
	return s.validator.Validate(o)
}

// Assess проверяет наблюдение, кодирует его и оценивает риск.
//
// Некорректное наблюдение: nil и *clinical.InputValidationError.
// Сбой модели: Result с сообщениями валидатора без Assessment и ошибка
// scoring.ErrModelUnavailable или *scoring.ScoringError.
func (s *Service) Assess(ctx context.Context, o clinical.Observation) (*Result, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	result := &Result{
		ID:         uuid.NewString(),
		Advisories: s.validator.Validate(o),
		Features:   features.Encode(o),
		CreatedAt:  s.now().UTC(),
	}

	a, err := s.scorer.Score(ctx, result.Features)
	if err != nil {
		s.logScoringFailure(result.ID, err)
		return result, err
	}
	result.Assessment = &a

	s.logger.Info("assessment completed",
		slog.String("id", result.ID),
		slog.String("label", string(a.Label)),
		slog.Float64("percentage", a.Percentage),
		slog.Int("advisories", len(result.Advisories)))

	s.publish(ctx, result)
	return result, nil
}

func (s *Service) logScoringFailure(id string, err error) {
	var se *scoring.ScoringError
	switch {
	case errors.Is(err, scoring.ErrModelUnavailable):
		s.logger.Warn("assessment without model", slog.String("id", id))
	case errors.As(err, &se):
		s.logger.Error("scoring failed",
			slog.String("id", id),
			slog.String("op", se.Op),
			slog.String("error", se.Err.Error()))
	default:
		s.logger.Error("scoring failed", slog.String("id", id), slog.String("error", err.Error()))
	}
}

// publish ошибка публикации не влияет на результат.
func (s *Service) publish(ctx context.Context, r *Result) {
	if s.publisher == nil {
		return
	}

	rules := make([]string, 0, len(r.Advisories))
	for _, m := range r.Advisories {
		rules = append(rules, m.Rule)
	}
	e := feed.Event{
		ID:         r.ID,
		Scored:     r.Assessment != nil,
		Advisories: rules,
		CreatedAt:  r.CreatedAt,
	}
	if r.Assessment != nil {
		e.Label = r.Assessment.Label
		e.Percentage = r.Assessment.Percentage
	}

	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn("failed to publish assessment event",
			slog.String("id", r.ID),
			slog.String("error", err.Error()))
	}
}
