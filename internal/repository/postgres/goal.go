package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"chama-backend/internal/domain"
	"chama-backend/internal/logger"
	"chama-backend/internal/repository"
)

type goalRepository struct {
	db *sql.DB
}

func NewGoalRepository(db *sql.DB) repository.GoalRepository {
	return &goalRepository{db: db}
}

const goalColumns = `id, group_id, created_by_id, title, description, target_amount, deadline,
	treasurer_approved, secretary_approved, chairperson_approved, status, rejection_reason,
	version, created_at, updated_at`

func scanGoal(s scanner) (*domain.Goal, error) {
	g := &domain.Goal{}
	err := s.Scan(&g.ID, &g.GroupID, &g.CreatedByID, &g.Title, &g.Description, &g.TargetAmount, &g.Deadline,
		&g.TreasurerApproved, &g.SecretaryApproved, &g.ChairpersonApproved, &g.Status, &g.RejectionReason,
		&g.Version, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (r *goalRepository) Create(ctx context.Context, g *domain.Goal) error {
	query := `INSERT INTO goals (group_id, created_by_id, title, description, target_amount, deadline,
	          treasurer_approved, secretary_approved, chairperson_approved, status, rejection_reason,
	          version, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1, $12, $12) RETURNING id`
	now := time.Now().UTC()
	logger.DatabaseCall("INSERT", "goals", "groupID", g.GroupID)
	err := r.db.QueryRowContext(ctx, query, g.GroupID, g.CreatedByID, g.Title, g.Description, g.TargetAmount, g.Deadline,
		g.TreasurerApproved, g.SecretaryApproved, g.ChairpersonApproved, g.Status, g.RejectionReason, now).Scan(&g.ID)
	logger.DatabaseResult("INSERT", 1, err, "goalID", g.ID)
	if err != nil {
		return err
	}
	g.Version = 1
	g.CreatedAt, g.UpdatedAt = now, now
	return nil
}

func (r *goalRepository) GetByID(ctx context.Context, id int32) (*domain.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE id = $1`
	g, err := scanGoal(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "goal", id)
	}
	return g, nil
}

func (r *goalRepository) Update(ctx context.Context, g *domain.Goal) error {
	now := time.Now().UTC()
	query := `UPDATE goals SET status = $1, treasurer_approved = $2, secretary_approved = $3,
	          chairperson_approved = $4, rejection_reason = $5, version = version + 1, updated_at = $6
	          WHERE id = $7 AND version = $8`
	logger.DatabaseCall("UPDATE", "goals", "goalID", g.ID, "version", g.Version)
	res, err := r.db.ExecContext(ctx, query, g.Status, g.TreasurerApproved, g.SecretaryApproved,
		g.ChairpersonApproved, g.RejectionReason, now, g.ID, g.Version)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult("UPDATE", n, err, "goalID", g.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("goal %d: %w", g.ID, repository.ErrConflict)
	}
	g.Version++
	g.UpdatedAt = now
	return nil
}

func (r *goalRepository) ListByGroup(ctx context.Context, groupID int32) ([]domain.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE group_id = $1 ORDER BY created_at DESC`
	return r.query(ctx, query, groupID)
}

func (r *goalRepository) ListByStatus(ctx context.Context, status domain.GoalStatus) ([]domain.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE status = $1 ORDER BY deadline`
	return r.query(ctx, query, status)
}

func (r *goalRepository) query(ctx context.Context, query string, args ...any) ([]domain.Goal, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []domain.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}
