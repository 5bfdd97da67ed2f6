package assessment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Krimson/heart-risk/internal/advisory"
	"github.com/Krimson/heart-risk/internal/clinical"
	"github.com/Krimson/heart-risk/internal/features"
	"github.com/Krimson/heart-risk/internal/feed"
	"github.com/Krimson/heart-risk/internal/forest"
	"github.com/Krimson/heart-risk/internal/scoring"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []feed.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, e feed.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

type failingClassifier struct{ err error }

func (f failingClassifier) PredictLabel(ctx context.Context, v features.Vector) (int, error) {
	return 0, f.err
}

func (f failingClassifier) PredictProbability(ctx context.Context, v features.Vector) (float64, error) {
	return 0, f.err
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixtureScorer(t *testing.T) *scoring.Scorer {
	t.Helper()
	model, err := forest.New([]forest.Tree{
		{Nodes: []forest.Node{forest.Split(features.IdxMajorVessels, 0.5, 1, 2), forest.Leaf(0.9, 0.1), forest.Leaf(0.2, 0.8)}},
		{Nodes: []forest.Node{forest.Split(features.IdxMaxHeartRate, 140.5, 1, 2), forest.Leaf(0.3, 0.7), forest.Leaf(0.85, 0.15)}},
	}, nil)
	require.NoError(t, err)
	return scoring.NewScorer(model)
}

func newService(t *testing.T, scorer *scoring.Scorer, pub feed.Publisher) *Service {
	t.Helper()
	s := NewService(advisory.NewValidator(advisory.DefaultThresholds()), scorer, pub, quiet())
	s.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	return s
}

func healthyReference() clinical.Observation {
	o := clinical.DefaultObservation()
	o.Age = 30
	o.MajorVessels = 0
	o.MaxHeartRate = 160
	o.STDepression = 0
	return o
}

func TestAssess_HealthyReference(t *testing.T) {
	pub := &recordingPublisher{}
	s := newService(t, fixtureScorer(t), pub)

	r, err := s.Assess(context.Background(), healthyReference())
	require.NoError(t, err)

	assert.Empty(t, r.Advisories)
	require.NotNil(t, r.Assessment)
	assert.Equal(t, scoring.LabelHealthy, r.Assessment.Label)
	assert.Equal(t, 12.5, r.Assessment.Percentage)
	assert.Equal(t, features.Encode(healthyReference()), r.Features)
	assert.NotEmpty(t, r.ID)

	require.Len(t, pub.events, 1)
	assert.Equal(t, feed.Event{
		ID:         r.ID,
		Label:      scoring.LabelHealthy,
		Percentage: 12.5,
		Scored:     true,
		Advisories: []string{},
		CreatedAt:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}, pub.events[0])
}

func TestAssess_AdvisoriesAccompanyScore(t *testing.T) {
	s := newService(t, fixtureScorer(t), nil)

	o := healthyReference()
	o.RestingBP = 210
	o.MaxHeartRate = 50

	r, err := s.Assess(context.Background(), o)
	require.NoError(t, err)
	require.Len(t, r.Advisories, 1)
	assert.Equal(t, advisory.RuleBPHeartRate, r.Advisories[0].Rule)
	require.NotNil(t, r.Assessment)
}

func TestAssess_InvalidInput(t *testing.T) {
	pub := &recordingPublisher{}
	s := newService(t, fixtureScorer(t), pub)

	o := healthyReference()
	o.Age = 0

	r, err := s.Assess(context.Background(), o)
	assert.Nil(t, r)
	var ive *clinical.InputValidationError
	require.ErrorAs(t, err, &ive)
	assert.Equal(t, "age", ive.Field)
	assert.Empty(t, pub.events)
}

func TestAssess_ModelUnavailableKeepsAdvisories(t *testing.T) {
	pub := &recordingPublisher{}
	s := newService(t, scoring.NewScorer(nil), pub)
	assert.False(t, s.ModelAvailable())

	o := healthyReference()
	o.Age = 25
	o.Cholesterol = 300

	r, err := s.Assess(context.Background(), o)
	assert.ErrorIs(t, err, scoring.ErrModelUnavailable)
	require.NotNil(t, r)
	assert.Nil(t, r.Assessment)
	require.Len(t, r.Advisories, 1)
	assert.Equal(t, advisory.RuleCholYoung, r.Advisories[0].Rule)
	assert.Empty(t, pub.events)
}

func TestAssess_ScoringError(t *testing.T) {
	s := newService(t, scoring.NewScorer(failingClassifier{err: errors.New("shape mismatch")}), nil)

	r, err := s.Assess(context.Background(), healthyReference())
	var se *scoring.ScoringError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, scoring.LayoutHint, se.Hint())
	require.NotNil(t, r)
	assert.Nil(t, r.Assessment)
}

func TestAssess_PublishFailureIgnored(t *testing.T) {
	s := newService(t, fixtureScorer(t), &recordingPublisher{err: errors.New("redis down")})

	r, err := s.Assess(context.Background(), healthyReference())
	require.NoError(t, err)
	assert.NotNil(t, r.Assessment)
}

func TestAdvise(t *testing.T) {
	s := newService(t, scoring.NewScorer(nil), nil)

	o := healthyReference()
	o.Cholesterol = 650
	messages := s.Advise(o)
	require.Len(t, messages, 1)
	assert.Equal(t, advisory.RuleCholImplausible, messages[0].Rule)

	// через Assess то же наблюдение не проходит проверку диапазона
	_, err := s.Assess(context.Background(), o)
	assert.ErrorIs(t, err, clinical.ErrInvalidInput)
}
