package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"chama-backend/internal/domain"
)

// ErrConflict is returned when an update loses an optimistic-concurrency race.
var ErrConflict = errors.New("concurrent modification")

type UserRepository interface {
	GetByID(ctx context.Context, id int32) (*domain.User, error)
}

type GroupRepository interface {
	GetByID(ctx context.Context, id int32) (*domain.Group, error)
	ListByUser(ctx context.Context, userID int32) ([]domain.Group, error)
	GetMember(ctx context.Context, groupID, userID int32) (*domain.Member, error)
	ListMembers(ctx context.Context, groupID int32) ([]domain.Member, error)
}

type TransactionFilter struct {
	UserID   int32
	Types    []domain.TransactionType
	Statuses []domain.TransactionStatus
	GoalID   *int32
}

type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	// CreateLoan inserts a loan and its guarantors while holding the group's
	// lock. check runs against the group's contribution and loan history
	// read inside the same transaction; a non-nil result aborts the insert.
	CreateLoan(ctx context.Context, tx *domain.Transaction, check func(history []domain.Transaction) error) error
	GetByID(ctx context.Context, id int32) (*domain.Transaction, error)
	// Update persists status, flags and guarantor approvals when tx.Version
	// still matches the stored row, then bumps tx.Version. ErrConflict otherwise.
	Update(ctx context.Context, tx *domain.Transaction) error
	ListByGroup(ctx context.Context, groupID int32, filter TransactionFilter) ([]domain.Transaction, error)
	ListPending(ctx context.Context) ([]domain.Transaction, error)
	SumGoalContributions(ctx context.Context, goalID int32) (decimal.Decimal, error)
}

type GoalRepository interface {
	Create(ctx context.Context, goal *domain.Goal) error
	GetByID(ctx context.Context, id int32) (*domain.Goal, error)
	Update(ctx context.Context, goal *domain.Goal) error
	ListByGroup(ctx context.Context, groupID int32) ([]domain.Goal, error)
	ListByStatus(ctx context.Context, status domain.GoalStatus) ([]domain.Goal, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	List(ctx context.Context, userID int32, limit int32, offset int64) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, id, userID int32) error
}
