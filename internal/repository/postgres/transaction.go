package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"chama-backend/internal/domain"
	"chama-backend/internal/logger"
	"chama-backend/internal/repository"
)

type transactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

const transactionColumns = `id, group_id, user_id, created_by_id, amount, transaction_type, status,
	payment_method, description, reference, treasurer_approved, secretary_approved,
	chairperson_approved, created_by_treasurer, is_manual_entry, rejection_reason, goal_id,
	required_guarantee_amount, guarantor_share, user_savings, max_loan_amount, duration,
	version, created_at, updated_at`

func scanTransaction(s scanner) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := s.Scan(&t.ID, &t.GroupID, &t.UserID, &t.CreatedByID, &t.Amount, &t.TransactionType, &t.Status,
		&t.PaymentMethod, &t.Description, &t.Reference, &t.TreasurerApproved, &t.SecretaryApproved,
		&t.ChairpersonApproved, &t.CreatedByTreasurer, &t.IsManualEntry, &t.RejectionReason, &t.GoalID,
		&t.RequiredGuaranteeAmount, &t.GuarantorShare, &t.UserSavings, &t.MaxLoanAmount, &t.Duration,
		&t.Version, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *transactionRepository) Create(ctx context.Context, t *domain.Transaction) error {
	logger.EnterMethod("transactionRepository.Create", "groupID", t.GroupID, "type", t.TransactionType)
	err := insertTransaction(ctx, r.db, t)
	if err != nil {
		logger.ExitMethodWithError("transactionRepository.Create", err, "groupID", t.GroupID)
		return err
	}
	logger.ExitMethod("transactionRepository.Create", "transactionID", t.ID)
	return nil
}

func (r *transactionRepository) CreateLoan(ctx context.Context, t *domain.Transaction, check func([]domain.Transaction) error) error {
	logger.EnterMethod("transactionRepository.CreateLoan", "groupID", t.GroupID, "borrowerID", t.UserID)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	logger.DatabaseCall("LOCK", "pg_advisory_xact_lock", "groupID", t.GroupID)
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(t.GroupID)); err != nil {
		logger.ExitMethodWithError("transactionRepository.CreateLoan", err, "reason", "lock")
		return err
	}

	history, err := listByGroup(ctx, tx, t.GroupID, repository.TransactionFilter{
		Types: []domain.TransactionType{domain.TransactionTypeContribution, domain.TransactionTypeLoan},
	})
	if err != nil {
		logger.ExitMethodWithError("transactionRepository.CreateLoan", err, "reason", "history")
		return err
	}
	if check != nil {
		if err := check(history); err != nil {
			logger.ExitMethodWithError("transactionRepository.CreateLoan", err, "reason", "check")
			return err
		}
	}

	if err := insertTransaction(ctx, tx, t); err != nil {
		logger.ExitMethodWithError("transactionRepository.CreateLoan", err, "reason", "insert")
		return err
	}
	for _, g := range t.Guarantors {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO transaction_guarantors (transaction_id, user_id, email, has_approved, approved_at) VALUES ($1, $2, $3, $4, $5)`,
			t.ID, g.UserID, g.Email, g.HasApproved, g.ApprovedAt)
		if err != nil {
			logger.ExitMethodWithError("transactionRepository.CreateLoan", err, "reason", "guarantor insert")
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	logger.ExitMethod("transactionRepository.CreateLoan", "transactionID", t.ID, "guarantors", len(t.Guarantors))
	return nil
}

func insertTransaction(ctx context.Context, q querier, t *domain.Transaction) error {
	query := `INSERT INTO transactions (group_id, user_id, created_by_id, amount, transaction_type, status,
	          payment_method, description, reference, treasurer_approved, secretary_approved, chairperson_approved,
	          created_by_treasurer, is_manual_entry, rejection_reason, goal_id, required_guarantee_amount,
	          guarantor_share, user_savings, max_loan_amount, duration, version, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, 1, $22, $22)
	          RETURNING id`
	now := time.Now().UTC()
	logger.DatabaseCall("INSERT", "transactions", "groupID", t.GroupID, "userID", t.UserID)
	err := q.QueryRowContext(ctx, query, t.GroupID, t.UserID, t.CreatedByID, t.Amount, t.TransactionType, t.Status,
		t.PaymentMethod, t.Description, t.Reference, t.TreasurerApproved, t.SecretaryApproved, t.ChairpersonApproved,
		t.CreatedByTreasurer, t.IsManualEntry, t.RejectionReason, t.GoalID, t.RequiredGuaranteeAmount,
		t.GuarantorShare, t.UserSavings, t.MaxLoanAmount, t.Duration, now).Scan(&t.ID)
	logger.DatabaseResult("INSERT", 1, err, "transactionID", t.ID)
	if err != nil {
		return err
	}
	t.Version = 1
	t.CreatedAt, t.UpdatedAt = now, now
	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id int32) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	t, err := scanTransaction(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "transaction", id)
	}
	txs := []domain.Transaction{*t}
	if err := loadGuarantors(ctx, r.db, txs); err != nil {
		return nil, err
	}
	return &txs[0], nil
}

func (r *transactionRepository) Update(ctx context.Context, t *domain.Transaction) error {
	logger.EnterMethod("transactionRepository.Update", "transactionID", t.ID, "version", t.Version, "status", t.Status)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	query := `UPDATE transactions SET status = $1, treasurer_approved = $2, secretary_approved = $3,
	          chairperson_approved = $4, rejection_reason = $5, version = version + 1, updated_at = $6
	          WHERE id = $7 AND version = $8`
	logger.DatabaseCall("UPDATE", "transactions", "transactionID", t.ID)
	res, err := tx.ExecContext(ctx, query, t.Status, t.TreasurerApproved, t.SecretaryApproved,
		t.ChairpersonApproved, t.RejectionReason, now, t.ID, t.Version)
	if err != nil {
		logger.ExitMethodWithError("transactionRepository.Update", err)
		return err
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult("UPDATE", n, err, "transactionID", t.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		logger.ExitMethodWithError("transactionRepository.Update", repository.ErrConflict, "transactionID", t.ID, "version", t.Version)
		return fmt.Errorf("transaction %d: %w", t.ID, repository.ErrConflict)
	}

	for _, g := range t.Guarantors {
		_, err := tx.ExecContext(ctx,
			`UPDATE transaction_guarantors SET has_approved = $1, approved_at = $2 WHERE transaction_id = $3 AND user_id = $4`,
			g.HasApproved, g.ApprovedAt, t.ID, g.UserID)
		if err != nil {
			logger.ExitMethodWithError("transactionRepository.Update", err, "reason", "guarantor update")
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	t.Version++
	t.UpdatedAt = now
	logger.ExitMethod("transactionRepository.Update", "transactionID", t.ID, "version", t.Version)
	return nil
}

func (r *transactionRepository) ListByGroup(ctx context.Context, groupID int32, filter repository.TransactionFilter) ([]domain.Transaction, error) {
	return listByGroup(ctx, r.db, groupID, filter)
}

func listByGroup(ctx context.Context, q querier, groupID int32, filter repository.TransactionFilter) ([]domain.Transaction, error) {
	where := []string{"group_id = $1"}
	args := []any{groupID}
	if filter.UserID != 0 {
		args = append(args, filter.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if len(filter.Types) > 0 {
		types := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			types[i] = string(t)
		}
		args = append(args, pq.Array(types))
		where = append(where, fmt.Sprintf("transaction_type = ANY($%d)", len(args)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, pq.Array(statuses))
		where = append(where, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if filter.GoalID != nil {
		args = append(args, *filter.GoalID)
		where = append(where, fmt.Sprintf("goal_id = $%d", len(args)))
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_at DESC, id DESC`
	logger.DatabaseCall("SELECT", "transactions", "groupID", groupID)
	return queryTransactions(ctx, q, query, args...)
}

func (r *transactionRepository) ListPending(ctx context.Context) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE status = $1 ORDER BY group_id, created_at`
	return queryTransactions(ctx, r.db, query, domain.TransactionStatusPending)
}

func queryTransactions(ctx context.Context, q querier, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := loadGuarantors(ctx, q, txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// loadGuarantors fills the guarantor list of every loan in txs with one query.
func loadGuarantors(ctx context.Context, q querier, txs []domain.Transaction) error {
	index := make(map[int32]int)
	var ids []int64
	for i := range txs {
		if txs[i].IsLoan() {
			index[txs[i].ID] = i
			ids = append(ids, int64(txs[i].ID))
		}
	}
	if len(ids) == 0 {
		return nil
	}

	query := `SELECT transaction_id, user_id, email, has_approved, approved_at
	          FROM transaction_guarantors WHERE transaction_id = ANY($1) ORDER BY transaction_id, user_id`
	rows, err := q.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var txID int32
		var g domain.Guarantor
		if err := rows.Scan(&txID, &g.UserID, &g.Email, &g.HasApproved, &g.ApprovedAt); err != nil {
			return err
		}
		if i, ok := index[txID]; ok {
			txs[i].Guarantors = append(txs[i].Guarantors, g)
		}
	}
	return rows.Err()
}

func (r *transactionRepository) SumGoalContributions(ctx context.Context, goalID int32) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := `SELECT COALESCE(SUM(amount), 0) FROM transactions
	          WHERE goal_id = $1 AND transaction_type = $2 AND status = $3`
	err := r.db.QueryRowContext(ctx, query, goalID, domain.TransactionTypeContribution, domain.TransactionStatusCompleted).Scan(&total)
	return total, err
}
