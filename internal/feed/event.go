// Package feed рассылает сводки выполненных оценок подключённым клиентам.
//
// Событие не содержит клинических данных наблюдения, только результат.
// Ничего не сохраняется: клиент, подключившийся позже, прошлых событий не увидит.
package feed

import (
	"context"
	"time"

	"github.com/Krimson/heart-risk/internal/scoring"
)

// Event сводка одной оценки.
type Event struct {
	ID         string        `json:"id"`
	Label      scoring.Label `json:"label,omitempty"`
	Percentage float64       `json:"percentage"`
	Scored     bool          `json:"scored"`
	Advisories []string      `json:"advisories"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Publisher получатель событий.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}
