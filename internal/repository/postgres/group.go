package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"chama-backend/internal/domain"
	"chama-backend/internal/repository"
)

type groupRepository struct {
	db *sql.DB
}

func NewGroupRepository(db *sql.DB) repository.GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) GetByID(ctx context.Context, id int32) (*domain.Group, error) {
	g := &domain.Group{}
	query := `SELECT id, name, description, created_by_id, created_on FROM groups WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&g.ID, &g.Name, &g.Description, &g.CreatedByID, &g.CreatedOn)
	if err != nil {
		return nil, notFound(err, "group", id)
	}
	return g, nil
}

// ListByUser returns the groups userID belongs to.
func (r *groupRepository) ListByUser(ctx context.Context, userID int32) ([]domain.Group, error) {
	query := `SELECT g.id, g.name, g.description, g.created_by_id, g.created_on
	          FROM groups g JOIN group_members m ON m.group_id = g.id
	          WHERE m.user_id = $1 ORDER BY g.id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []domain.Group
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.CreatedByID, &g.CreatedOn); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

const memberColumns = `m.group_id, m.user_id, m.role_name, u.name, u.email, m.joined_on`

func (r *groupRepository) GetMember(ctx context.Context, groupID, userID int32) (*domain.Member, error) {
	m := &domain.Member{}
	query := `SELECT ` + memberColumns + `
	          FROM group_members m JOIN users u ON u.id = m.user_id
	          WHERE m.group_id = $1 AND m.user_id = $2`
	err := r.db.QueryRowContext(ctx, query, groupID, userID).Scan(&m.GroupID, &m.UserID, &m.RoleName, &m.Name, &m.Email, &m.JoinedOn)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %d in group %d: %w", userID, groupID, domain.ErrNotMember)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *groupRepository) ListMembers(ctx context.Context, groupID int32) ([]domain.Member, error) {
	query := `SELECT ` + memberColumns + `
	          FROM group_members m JOIN users u ON u.id = m.user_id
	          WHERE m.group_id = $1 ORDER BY m.user_id`
	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.GroupID, &m.UserID, &m.RoleName, &m.Name, &m.Email, &m.JoinedOn); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
