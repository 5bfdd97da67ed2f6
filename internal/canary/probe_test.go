package canary

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Krimson/heart-risk/internal/features"
	"github.com/Krimson/heart-risk/internal/forest"
	"github.com/Krimson/heart-risk/internal/scoring"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func constantModel(t *testing.T, healthy, diseased float64) *scoring.Scorer {
	t.Helper()
	model, err := forest.New([]forest.Tree{{Nodes: []forest.Node{forest.Leaf(healthy, diseased)}}}, nil)
	require.NoError(t, err)
	return scoring.NewScorer(model)
}

func TestReference(t *testing.T) {
	v := features.Encode(Reference())
	assert.Equal(t, 30.0, v[features.IdxAge])
	assert.Equal(t, 0.0, v[features.IdxMajorVessels])
	assert.Equal(t, 160.0, v[features.IdxMaxHeartRate])
	assert.Equal(t, 0.0, v[features.IdxSTDepression])
	require.NoError(t, Reference().Validate())

	// остальные поля берутся из значений формы по умолчанию, а не обнуляются
	assert.Equal(t, 1.0, v[features.IdxSex])
	assert.Equal(t, 120.0, v[features.IdxRestingBP])
	assert.Equal(t, 200.0, v[features.IdxCholesterol])
	assert.Equal(t, 1.0, v[features.IdxThal1])
}

func TestCheck(t *testing.T) {
	p := NewProbe(constantModel(t, 8, 2), quiet())
	_, ok := p.Last()
	assert.False(t, ok)

	res, err := p.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, scoring.LabelHealthy, res.Label)
	assert.Equal(t, 20.0, res.Percentage)

	last, ok := p.Last()
	require.True(t, ok)
	assert.Equal(t, res, last)
}

func TestCheck_Failures(t *testing.T) {
	res, err := NewProbe(constantModel(t, 1, 9), quiet()).Check(context.Background())
	assert.ErrorIs(t, err, ErrCanaryFailed)
	assert.False(t, res.OK())
	assert.Equal(t, scoring.LabelDiseased, res.Label)

	res, err = NewProbe(scoring.NewScorer(nil), quiet()).Check(context.Background())
	assert.ErrorIs(t, err, scoring.ErrModelUnavailable)
	assert.False(t, res.OK())
}

func TestStart(t *testing.T) {
	p := NewProbe(constantModel(t, 8, 2), quiet())
	require.NoError(t, p.Start(context.Background(), "@every 1h"))
	defer p.Stop()

	_, ok := p.Last()
	assert.True(t, ok)

	assert.Error(t, NewProbe(constantModel(t, 8, 2), quiet()).Start(context.Background(), "every hour"))
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule("0 9 * * 1-5"))
	assert.NoError(t, ValidateSchedule("@every 30m"))
	assert.Error(t, ValidateSchedule("61 * * * *"))
}
