package modelstore

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"github.com/Krimson/heart-risk/internal/forest"
	"github.com/Krimson/heart-risk/internal/scoring"
)

const artifactsTable = "model_artifacts"

const createTableSQL = `
CREATE TABLE IF NOT EXISTS model_artifacts (
    name TEXT NOT NULL,
    version INTEGER NOT NULL,
    payload JSONB NOT NULL,
    created_at TIMESTAMP NOT NULL,
    PRIMARY KEY (name, version)
);
`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Artifact одна опубликованная версия модели.
type Artifact struct {
	Name      string
	Version   int
	Payload   []byte
	CreatedAt time.Time
}

// PostgresSource версии артефактов в таблице model_artifacts.
// Хранится только сама модель, наблюдения и оценки не сохраняются.
type PostgresSource struct {
	db   *sql.DB
	name string
}

// NewPostgresSource подключается к PostgreSQL и создаёт таблицу, если её нет.
func NewPostgresSource(ctx context.Context, connStr, name string) (*PostgresSource, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &PostgresSource{db: db, name: name}, nil
}

func (s *PostgresSource) Name() string {
	return "postgres(" + s.name + ")"
}

func (s *PostgresSource) Close() error {
	return s.db.Close()
}

func latestQuery(name string) (string, []any, error) {
	return psql.
		Select("name", "version", "payload", "created_at").
		From(artifactsTable).
		Where(sq.Eq{"name": name}).
		OrderBy("version DESC").
		Limit(1).
		ToSql()
}

func nextVersionQuery(name string) (string, []any, error) {
	return psql.
		Select("COALESCE(MAX(version), 0) + 1").
		From(artifactsTable).
		Where(sq.Eq{"name": name}).
		ToSql()
}

// payload передаётся строкой: []byte драйвер отправил бы как bytea.
func insertQuery(a Artifact) (string, []any, error) {
	return psql.
		Insert(artifactsTable).
		Columns("name", "version", "payload", "created_at").
		Values(a.Name, a.Version, string(a.Payload), a.CreatedAt).
		ToSql()
}

// Latest последняя версия артефакта.
func (s *PostgresSource) Latest(ctx context.Context) (*Artifact, error) {
	query, args, err := latestQuery(s.name)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var a Artifact
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&a.Name, &a.Version, &a.Payload, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrArtifactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get model artifact: %w", err)
	}
	return &a, nil
}

func (s *PostgresSource) Open(ctx context.Context) (scoring.Classifier, error) {
	model, err := s.Forest(ctx)
	if err != nil {
		return nil, err
	}
	return model, nil
}

// Forest последняя версия, разобранная и проверенная.
func (s *PostgresSource) Forest(ctx context.Context) (*forest.Forest, error) {
	a, err := s.Latest(ctx)
	if err != nil {
		return nil, err
	}
	model, err := forest.Decode(bytes.NewReader(a.Payload))
	if err != nil {
		return nil, fmt.Errorf("decode %s v%d: %w", a.Name, a.Version, err)
	}
	return model, nil
}

// Publish проверяет артефакт и сохраняет его следующей версией.
func (s *PostgresSource) Publish(ctx context.Context, payload []byte) (*Artifact, error) {
	if _, err := forest.Decode(bytes.NewReader(payload)); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query, args, err := nextVersionQuery(s.name)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	a := Artifact{Name: s.name, Payload: payload, CreatedAt: time.Now().UTC()}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&a.Version); err != nil {
		return nil, fmt.Errorf("failed to get next version: %w", err)
	}

	query, args, err = insertQuery(a)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to insert model artifact: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &a, nil
}
