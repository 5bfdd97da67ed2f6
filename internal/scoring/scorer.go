package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/Krimson/heart-risk/internal/features"
)

// Ошибки
var (
	ErrModelUnavailable = errors.New("model unavailable")
	ErrInvalidOutput    = errors.New("classifier returned invalid output")
)

// LayoutHint подсказка оператору при ошибке оценки.
const LayoutHint = "the number or order of feature columns in the model may not match the preprocessing code; check the feature layout used at training time"

// Classifier обученный классификатор. Реализации должны быть безопасны
// для конкурентного чтения.
type Classifier interface {
	PredictLabel(ctx context.Context, v features.Vector) (int, error)
	PredictProbability(ctx context.Context, v features.Vector) (float64, error)
}

// Prediction метка и вероятность болезни из одного вызова.
type Prediction struct {
	Label       int
	Probability float64
}

// Predictor необязательное расширение Classifier: метка и вероятность за один вызов.
type Predictor interface {
	Predict(ctx context.Context, v features.Vector) (Prediction, error)
}

// Label бинарный вывод модели.
type Label string

const (
	LabelHealthy  Label = "healthy"
	LabelDiseased Label = "diseased"
)

// Assessment результат оценки риска.
type Assessment struct {
	Label       Label   `json:"label"`
	Probability float64 `json:"probability"`
	Percentage  float64 `json:"percentage"`
}

// High true, если модель отнесла наблюдение к больным.
func (a Assessment) High() bool { return a.Label == LabelDiseased }

// ScoringError сбой вызова классификатора.
type ScoringError struct {
	Op  string
	Err error
}

func (e *ScoringError) Error() string {
	return fmt.Sprintf("scoring failed (%s): %v", e.Op, e.Err)
}

func (e *ScoringError) Unwrap() error { return e.Err }

// Hint подсказка для пользователя.
func (e *ScoringError) Hint() string { return LayoutHint }

// Scorer обёртка над классификатором. После создания только читается.
type Scorer struct {
	classifier Classifier
}

// NewScorer создаёт Scorer. nil означает, что модель не загрузилась.
func NewScorer(c Classifier) *Scorer {
	return &Scorer{classifier: c}
}

// Available загружена ли модель.
func (s *Scorer) Available() bool {
	return s != nil && s.classifier != nil
}

// Score вызывает классификатор и строит Assessment.
// Метка берётся у классификатора и не выводится заново из вероятности.
func (s *Scorer) Score(ctx context.Context, v features.Vector) (Assessment, error) {
	if !s.Available() {
		return Assessment{}, ErrModelUnavailable
	}

	p, err := s.predict(ctx, v)
	if err != nil {
		return Assessment{}, err
	}

	var label Label
	switch p.Label {
	case 0:
		label = LabelHealthy
	case 1:
		label = LabelDiseased
	default:
		return Assessment{}, &ScoringError{Op: "predict_label", Err: fmt.Errorf("%w: label %d", ErrInvalidOutput, p.Label)}
	}

	if math.IsNaN(p.Probability) || p.Probability < 0 || p.Probability > 1 {
		return Assessment{}, &ScoringError{Op: "predict_probability", Err: fmt.Errorf("%w: probability %v", ErrInvalidOutput, p.Probability)}
	}

	return Assessment{
		Label:       label,
		Probability: p.Probability,
		Percentage:  Percentage(p.Probability),
	}, nil
}

func (s *Scorer) predict(ctx context.Context, v features.Vector) (Prediction, error) {
	if pr, ok := s.classifier.(Predictor); ok {
		p, err := pr.Predict(ctx, v)
		if err != nil {
			return Prediction{}, &ScoringError{Op: "predict", Err: err}
		}
		return p, nil
	}

	label, err := s.classifier.PredictLabel(ctx, v)
	if err != nil {
		return Prediction{}, &ScoringError{Op: "predict_label", Err: err}
	}
	prob, err := s.classifier.PredictProbability(ctx, v)
	if err != nil {
		return Prediction{}, &ScoringError{Op: "predict_probability", Err: err}
	}
	return Prediction{Label: label, Probability: prob}, nil
}

// Percentage вероятность в процентах с одним знаком после запятой, в пределах [0, 100].
func Percentage(p float64) float64 {
	pct := math.Round(p*1000) / 10
	return math.Max(0, math.Min(100, pct))
}
