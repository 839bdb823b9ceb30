package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"community-service/internal/models"
)

// GroupRepository abstracts group and membership persistence.
type GroupRepository interface {
	ListGroups(ctx context.Context) ([]models.GroupRow, error)
	GetGroup(ctx context.Context, groupID string) (models.GroupRow, error)
	CreateGroup(ctx context.Context, creatorID, name, description string) (models.Group, error)
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	MemberRole(ctx context.Context, groupID, userID string) (string, error)
	AddMember(ctx context.Context, groupID, userID, role string) error
	RemoveMember(ctx context.Context, groupID, userID string) error
}

// GroupRepo is a sqlx implementation of GroupRepository.
type GroupRepo struct {
	db *sqlx.DB
}

// NewGroupRepo constructs a GroupRepo.
func NewGroupRepo(db *sqlx.DB) *GroupRepo {
	return &GroupRepo{db: db}
}

const groupSelect = `SELECT g.id, g.name, g.description, g.created_by, g.created_at,
       COALESCE(p.username, '') AS creator_username,
       COALESCE((SELECT array_agg(m.user_id::text ORDER BY m.joined_at) FROM group_members m WHERE m.group_id = g.id), '{}') AS member_ids
FROM groups g
LEFT JOIN profiles p ON p.id = g.created_by`

// ListGroups returns all groups newest first.
func (r *GroupRepo) ListGroups(ctx context.Context) ([]models.GroupRow, error) {
	rows := []models.GroupRow{}
	err := r.db.SelectContext(ctx, &rows, groupSelect+` ORDER BY g.created_at DESC`)
	return rows, translate(err)
}

// GetGroup fetches a single group with its members.
func (r *GroupRepo) GetGroup(ctx context.Context, groupID string) (models.GroupRow, error) {
	var row models.GroupRow
	err := r.db.GetContext(ctx, &row, groupSelect+` WHERE g.id = $1`, groupID)
	return row, translate(err)
}

// CreateGroup creates a group and enrolls the creator as admin atomically.
func (r *GroupRepo) CreateGroup(ctx context.Context, creatorID, name, description string) (models.Group, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Group{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var group models.Group
	if err = tx.GetContext(ctx, &group, `INSERT INTO groups (name, description, created_by) VALUES ($1, $2, $3) RETURNING id, name, description, created_by, created_at`,
		name, description, creatorID); err != nil {
		return models.Group{}, translate(err)
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO group_members (group_id, user_id, role) VALUES ($1, $2, $3)`, group.ID, creatorID, models.RoleAdmin); err != nil {
		return models.Group{}, translate(err)
	}

	if err = tx.Commit(); err != nil {
		return models.Group{}, err
	}
	return group, nil
}

// IsMember checks membership.
func (r *GroupRepo) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id=$1 AND user_id=$2)`, groupID, userID)
	return exists, translate(err)
}

// MemberRole returns the role of a member, or ErrNotFound.
func (r *GroupRepo) MemberRole(ctx context.Context, groupID, userID string) (string, error) {
	var role string
	err := r.db.GetContext(ctx, &role, `SELECT role FROM group_members WHERE group_id=$1 AND user_id=$2`, groupID, userID)
	return role, translate(err)
}

// AddMember enrolls a user with the given role.
func (r *GroupRepo) AddMember(ctx context.Context, groupID, userID, role string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO group_members (group_id, user_id, role) VALUES ($1, $2, $3)`, groupID, userID, role)
	return translate(err)
}

// RemoveMember withdraws a user from a group.
func (r *GroupRepo) RemoveMember(ctx context.Context, groupID, userID string) error {
	return removeRow(r.db.ExecContext(ctx, `DELETE FROM group_members WHERE group_id=$1 AND user_id=$2`, groupID, userID))
}
