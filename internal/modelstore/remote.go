package modelstore

import (
	"context"
	"fmt"

	"github.com/Krimson/heart-risk/internal/mlclient"
	"github.com/Krimson/heart-risk/internal/scoring"
)

// RemoteSource классификатор в отдельном gRPC сервисе (cmd/mlstub).
// Подходит, только если сервис сообщает, что модель загружена.
type RemoteSource struct {
	Addr   string
	Client *mlclient.Client
}

func (s *RemoteSource) Name() string {
	return "remote(" + s.Addr + ")"
}

func (s *RemoteSource) Open(ctx context.Context) (scoring.Classifier, error) {
	ready, err := s.Client.Ready(ctx)
	if err != nil {
		return nil, err
	}
	if !ready {
		return nil, fmt.Errorf("remote classifier at %s has no model: %w", s.Addr, ErrArtifactNotFound)
	}
	return s.Client, nil
}
