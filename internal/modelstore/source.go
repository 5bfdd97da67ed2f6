// Package modelstore находит и загружает артефакт классификатора.
//
// Загрузка выполняется один раз при старте процесса; ядро приложения
// получает готовый классификатор и само путей не ищет.
package modelstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Krimson/heart-risk/internal/scoring"
)

// ErrArtifactNotFound источник не содержит артефакта.
var ErrArtifactNotFound = errors.New("model artifact not found")

// Source источник артефакта модели.
type Source interface {
	// Name описание источника для логов.
	Name() string
	// Open возвращает ErrArtifactNotFound, если артефакта нет.
	Open(ctx context.Context) (scoring.Classifier, error)
}

// Load перебирает источники по порядку и возвращает первый успешно
// загруженный классификатор. Каждый сбой пишется в лог; если не подошёл ни один
// источник, ошибка оборачивает scoring.ErrModelUnavailable.
func Load(ctx context.Context, logger *slog.Logger, sources ...Source) (scoring.Classifier, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var errs []error
	for _, src := range sources {
		model, err := src.Open(ctx)
		switch {
		case err == nil:
			logger.Info("model loaded", slog.String("source", src.Name()))
			return model, nil
		case errors.Is(err, ErrArtifactNotFound):
			logger.Info("no model artifact in source", slog.String("source", src.Name()))
		default:
			logger.Error("failed to load model",
				slog.String("source", src.Name()),
				slog.String("error", err.Error()))
		}
		errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}

	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: no model sources configured", scoring.ErrModelUnavailable)
	}
	return nil, fmt.Errorf("%w: %w", scoring.ErrModelUnavailable, errors.Join(errs...))
}
