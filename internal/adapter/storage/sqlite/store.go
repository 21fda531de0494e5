// Package sqlite persists job history in a single-writer SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"

	"github.com/polixdev/voicescribe/internal/domain"
	"github.com/polixdev/voicescribe/internal/port"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Store struct {
	db *sql.DB
}

var hookOnce sync.Once

func registerHook() {
	hookOnce.Do(func() {
		sqlite.RegisterConnectionHook(func(conn sqlite.ExecQuerierContext, dsn string) error {
			pragmas := []string{
				"PRAGMA journal_mode = WAL",
				"PRAGMA busy_timeout = 5000",
				"PRAGMA synchronous = NORMAL",
				"PRAGMA foreign_keys = ON",
			}
			for _, p := range pragmas {
				if _, err := conn.ExecContext(context.Background(), p, nil); err != nil {
					return fmt.Errorf("execute %s: %w", p, err)
				}
			}
			return nil
		})
	})
}

func NewStore(dataDir string) (*Store, error) {
	registerHook()

	dbPath := filepath.Join(dataDir, "voicescribe.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single connection for SQLite (WAL allows concurrent reads but only one writer)
	db.SetMaxOpenConns(1)

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Insert(ctx context.Context, job *domain.Job) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, locator, title, stage, created_at) VALUES (?, ?, ?, ?, ?)`,
		job.ID, job.Locator, job.Title, string(job.Stage), job.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (s *Store) UpdateStage(ctx context.Context, id string, stage domain.Stage) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET stage = ?, started_at = COALESCE(started_at, ?) WHERE id = ?`,
		string(stage), time.Now().UTC().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("update stage: %w", err)
	}
	return checkAffected(res)
}

func (s *Store) Complete(ctx context.Context, job *domain.Job) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs
		 SET stage = ?, title = ?, failure_kind = ?, error_message = ?, output_path = ?, completed_at = ?
		 WHERE id = ?`,
		string(job.Stage), job.Title, string(job.Kind), job.ErrorMessage, job.OutputPath,
		time.Now().UTC().Unix(), job.ID,
	)
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	return checkAffected(res)
}

func (s *Store) Get(ctx context.Context, id string) (*domain.Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, locator, title, stage, failure_kind, error_message, output_path,
		        created_at, started_at, completed_at
		 FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]*domain.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, locator, title, stage, failure_kind, error_message, output_path,
		        created_at, started_at, completed_at
		 FROM jobs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var (
		job         domain.Job
		stage       string
		kind        string
		createdAt   int64
		startedAt   sql.NullInt64
		completedAt sql.NullInt64
	)
	err := row.Scan(&job.ID, &job.Locator, &job.Title, &stage, &kind, &job.ErrorMessage,
		&job.OutputPath, &createdAt, &startedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	job.Stage = domain.Stage(stage)
	job.Kind = domain.FailureKind(kind)
	job.CreatedAt = time.Unix(createdAt, 0).UTC()
	if startedAt.Valid {
		job.StartedAt = sql.NullTime{Time: time.Unix(startedAt.Int64, 0).UTC(), Valid: true}
	}
	if completedAt.Valid {
		job.CompletedAt = sql.NullTime{Time: time.Unix(completedAt.Int64, 0).UTC(), Valid: true}
	}
	return &job, nil
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

var _ port.JobStore = (*Store)(nil)
