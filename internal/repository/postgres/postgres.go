package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"chama-backend/internal/domain"
	"chama-backend/internal/repository"

	_ "github.com/lib/pq"
)

type Store struct {
	db *sql.DB
	repository.UserRepository
	repository.GroupRepository
	repository.TransactionRepository
	repository.GoalRepository
	repository.NotificationRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                     db,
		UserRepository:         NewUserRepository(db),
		GroupRepository:        NewGroupRepository(db),
		TransactionRepository:  NewTransactionRepository(db),
		GoalRepository:         NewGoalRepository(db),
		NotificationRepository: NewNotificationRepository(db),
	}
}

// PingContext reports whether the underlying database is reachable.
func (s *Store) PingContext(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func notFound(err error, what string, id int32) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", what, id, domain.ErrNotFound)
	}
	return err
}
