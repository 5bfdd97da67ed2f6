// Package app собирает зависимости команд из конфигурации.
package app

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/Krimson/heart-risk/internal/config"
	"github.com/Krimson/heart-risk/internal/mlclient"
	"github.com/Krimson/heart-risk/internal/modelstore"
	"github.com/Krimson/heart-risk/internal/scoring"
)

// Closers закрывает накопленные ресурсы в обратном порядке.
type Closers []io.Closer

func (c Closers) Close() error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		errs = append(errs, c[i].Close())
	}
	return errors.Join(errs...)
}

// LoadClassifier перебирает источники из cfg.ModelSources через modelstore.Load.
// Ошибка оборачивает scoring.ErrModelUnavailable; вызывающая сторона
// продолжает работать без модели. allowRemote false для самого сервиса
// классификатора, чтобы он не обращался к себе.
func LoadClassifier(ctx context.Context, cfg *config.Config, logger *slog.Logger, allowRemote bool) (scoring.Classifier, Closers, error) {
	var (
		closers Closers
		sources []modelstore.Source
	)

	for _, name := range cfg.ModelSources {
		switch name {
		case config.ModelSourceFile:
			sources = append(sources, modelstore.NewFileSource(cfg.ModelPaths...))

		case config.ModelSourcePostgres:
			pg, err := modelstore.NewPostgresSource(ctx, cfg.PostgresDSN, cfg.ModelName)
			if err != nil {
				logger.Error("postgres model source disabled", slog.String("error", err.Error()))
				continue
			}
			closers = append(closers, pg)
			sources = append(sources, pg)

		case config.ModelSourceRemote:
			if !allowRemote {
				continue
			}
			client, err := mlclient.New(cfg.MLServiceAddr, cfg.MLTimeout)
			if err != nil {
				logger.Error("remote model source disabled", slog.String("error", err.Error()))
				continue
			}
			closers = append(closers, client)
			sources = append(sources, &modelstore.RemoteSource{Addr: cfg.MLServiceAddr, Client: client})
		}
	}

	model, err := modelstore.Load(ctx, logger, sources...)
	if err != nil {
		return nil, closers, err
	}
	return model, closers, nil
}

// PostgresStore открывает хранилище артефактов для публикации.
func PostgresStore(ctx context.Context, cfg *config.Config) (*modelstore.PostgresSource, error) {
	if cfg.PostgresDSN == "" {
		return nil, errors.New("postgres_dsn is not configured")
	}
	return modelstore.NewPostgresSource(ctx, cfg.PostgresDSN, cfg.ModelName)
}
