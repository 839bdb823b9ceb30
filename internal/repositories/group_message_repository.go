package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"community-service/internal/models"
)

// GroupMessageRepository defines interactions for group chat messages.
type GroupMessageRepository interface {
	ListGroupMessages(ctx context.Context, groupID string) ([]models.GroupMessageRow, error)
	CreateGroupMessage(ctx context.Context, msg models.GroupMessage) (models.GroupMessage, error)
}

// GroupMessageRepo is a sqlx-backed implementation.
type GroupMessageRepo struct {
	db *sqlx.DB
}

// NewGroupMessageRepo constructs a GroupMessageRepo.
func NewGroupMessageRepo(db *sqlx.DB) *GroupMessageRepo {
	return &GroupMessageRepo{db: db}
}

// ListGroupMessages returns a group's messages ordered by creation.
func (r *GroupMessageRepo) ListGroupMessages(ctx context.Context, groupID string) ([]models.GroupMessageRow, error) {
	msgs := []models.GroupMessageRow{}
	err := r.db.SelectContext(ctx, &msgs, `SELECT m.id, m.group_id, m.user_id, m.content, m.media_url, m.media_type, m.created_at,
       COALESCE(p.username, '') AS author_username
FROM group_messages m
LEFT JOIN profiles p ON p.id = m.user_id
WHERE m.group_id = $1
ORDER BY m.created_at ASC`, groupID)
	return msgs, translate(err)
}

// CreateGroupMessage persists a group message.
func (r *GroupMessageRepo) CreateGroupMessage(ctx context.Context, msg models.GroupMessage) (models.GroupMessage, error) {
	var created models.GroupMessage
	err := r.db.GetContext(ctx, &created, `INSERT INTO group_messages (group_id, user_id, content, media_url, media_type) VALUES ($1, $2, $3, $4, $5) RETURNING id, group_id, user_id, content, media_url, media_type, created_at`,
		msg.GroupID, msg.UserID, msg.Content, msg.MediaURL, msg.MediaType)
	return created, translate(err)
}
