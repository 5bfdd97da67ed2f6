package modelstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/Krimson/heart-risk/internal/forest"
	"github.com/Krimson/heart-risk/internal/scoring"
)

// DefaultCandidates пути, по которым ищется артефакт, в порядке приоритета.
var DefaultCandidates = []string{
	"models/heart_disease_model.json",
	"notebooks/models/heart_disease_model.json",
	"heart_disease_model.json",
}

// FileSource артефакт в локальной файловой системе.
// Используется первый существующий файл из Candidates; ошибка его
// разбора окончательна, следующие кандидаты не пробуются.
type FileSource struct {
	Candidates []string
}

// NewFileSource создаёт источник; без аргументов берутся DefaultCandidates.
func NewFileSource(candidates ...string) *FileSource {
	if len(candidates) == 0 {
		candidates = DefaultCandidates
	}
	return &FileSource{Candidates: append([]string(nil), candidates...)}
}

func (s *FileSource) Name() string {
	return "file(" + strings.Join(s.Candidates, ", ") + ")"
}

// Resolve путь первого существующего кандидата.
func (s *FileSource) Resolve() (string, error) {
	for _, path := range s.Candidates {
		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}
		return path, nil
	}
	return "", ErrArtifactNotFound
}

func (s *FileSource) Open(ctx context.Context) (scoring.Classifier, error) {
	model, err := s.Forest(ctx)
	if err != nil {
		return nil, err
	}
	return model, nil
}

// Forest читает и проверяет артефакт.
func (s *FileSource) Forest(ctx context.Context) (*forest.Forest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := s.Resolve()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	model, err := forest.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return model, nil
}
