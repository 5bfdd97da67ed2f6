// Package canary периодически проверяет, что модель считает заведомо
// здорового человека здоровым.
package canary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Krimson/heart-risk/internal/clinical"
	"github.com/Krimson/heart-risk/internal/features"
	"github.com/Krimson/heart-risk/internal/scoring"
)

// ErrCanaryFailed модель отнесла эталонного здорового человека к больным.
var ErrCanaryFailed = errors.New("model labels the healthy reference as diseased")

// Reference эталонный здоровый человек: 30 лет, 0 сосудов, пульс 160,
// депрессия ST 0, остальные поля как в форме по умолчанию.
func Reference() clinical.Observation {
	o := clinical.DefaultObservation()
	o.Age = 30
	o.MajorVessels = 0
	o.MaxHeartRate = 160
	o.STDepression = 0
	return o
}

// Result итог одной проверки.
type Result struct {
	CheckedAt  time.Time     `json:"checked_at"`
	Label      scoring.Label `json:"label,omitempty"`
	Percentage float64       `json:"percentage"`
	Error      string        `json:"error,omitempty"`
}

// OK модель ответила и ответ ожидаемый.
func (r Result) OK() bool { return r.Error == "" }

// Probe проверка модели по расписанию.
type Probe struct {
	scorer *scoring.Scorer
	logger *slog.Logger
	now    func() time.Time

	mu   sync.RWMutex
	last *Result
	cron *cron.Cron
}

func NewProbe(scorer *scoring.Scorer, logger *slog.Logger) *Probe {
	if logger == nil {
		logger = slog.Default()
	}
	return &Probe{scorer: scorer, logger: logger, now: time.Now}
}

// Check выполняет одну проверку и запоминает результат.
func (p *Probe) Check(ctx context.Context) (Result, error) {
	res := Result{CheckedAt: p.now().UTC()}

	a, err := p.scorer.Score(ctx, features.Encode(Reference()))
	if err == nil {
		res.Label = a.Label
		res.Percentage = a.Percentage
		if a.High() {
			err = fmt.Errorf("%w (%.1f%%)", ErrCanaryFailed, a.Percentage)
		}
	}

	if err != nil {
		res.Error = err.Error()
		if errors.Is(err, scoring.ErrModelUnavailable) {
			p.logger.Warn("canary skipped: model unavailable")
		} else {
			p.logger.Error("canary check failed", slog.String("error", err.Error()))
		}
	} else {
		p.logger.Info("canary check passed", slog.Float64("percentage", res.Percentage))
	}

	p.mu.Lock()
	p.last = &res
	p.mu.Unlock()
	return res, err
}

// Last результат последней проверки.
func (p *Probe) Last() (Result, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.last == nil {
		return Result{}, false
	}
	return *p.last, true
}

// ValidateSchedule проверяет cron-выражение (5 полей или @every/@daily).
func ValidateSchedule(schedule string) error {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid canary schedule %q: %w", schedule, err)
	}
	return nil
}

// Start выполняет проверку сразу и затем по расписанию.
// Пустое расписание: только однократная проверка.
func (p *Probe) Start(ctx context.Context, schedule string) error {
	p.Check(ctx)

	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		p.logger.Info("canary schedule disabled")
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { p.Check(ctx) }); err != nil {
		return fmt.Errorf("invalid canary schedule %q: %w", schedule, err)
	}
	c.Start()

	p.mu.Lock()
	p.cron = c
	p.mu.Unlock()

	p.logger.Info("canary scheduled", slog.String("schedule", schedule))
	return nil
}

// Stop останавливает расписание и ждёт завершения текущей проверки.
func (p *Probe) Stop() {
	p.mu.Lock()
	c := p.cron
	p.cron = nil
	p.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}
