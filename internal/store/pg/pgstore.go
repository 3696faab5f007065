// Package pg implements the persistence contracts on PostgreSQL through
// database/sql with the pgx stdlib driver.
package pg

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"fusionhub.org/internal/feedback"
	"fusionhub.org/internal/project"
	"fusionhub.org/internal/sprint"
	"fusionhub.org/internal/task"
)

const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
)

// Store wraps the shared connection pool. The auth contracts hang off the
// Store itself; the entity stores are exposed through accessors.
type Store struct {
	db *sql.DB
}

// Open connects to the database and tunes the pool.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewStore wraps an existing pool; tests hand in sqlmock connections here.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// Projects returns the project store view.
func (s *Store) Projects() project.Store { return projectStore{s} }

// Feedback returns the feedback store view.
func (s *Store) Feedback() feedback.Store { return feedbackStore{s} }

// Sprints returns the sprint store view.
func (s *Store) Sprints() sprint.Store { return sprintStore{s} }

// Tasks returns the task store view.
func (s *Store) Tasks() task.Store { return taskStore{s} }

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

func nullIfEmpty(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}
