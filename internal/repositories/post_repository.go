package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"community-service/internal/models"
)

// PostRepository abstracts group posts and post likes.
type PostRepository interface {
	ListPosts(ctx context.Context, groupID string) ([]models.PostRow, error)
	CreatePost(ctx context.Context, p models.Post) (models.Post, error)
	AddPostLike(ctx context.Context, postID, userID string) error
	RemovePostLike(ctx context.Context, postID, userID string) error
}

// PostRepo is a sqlx implementation of PostRepository.
type PostRepo struct {
	db *sqlx.DB
}

// NewPostRepo constructs a PostRepo.
func NewPostRepo(db *sqlx.DB) *PostRepo {
	return &PostRepo{db: db}
}

// ListPosts returns a group's posts newest first.
func (r *PostRepo) ListPosts(ctx context.Context, groupID string) ([]models.PostRow, error) {
	rows := []models.PostRow{}
	err := r.db.SelectContext(ctx, &rows, `SELECT po.id, po.group_id, po.user_id, po.content, po.media_urls, po.media_types, po.created_at,
       COALESCE(p.username, '') AS author_username,
       COALESCE((SELECT array_agg(l.user_id::text ORDER BY l.created_at) FROM post_likes l WHERE l.post_id = po.id), '{}') AS like_user_ids
FROM posts po
LEFT JOIN profiles p ON p.id = po.user_id
WHERE po.group_id = $1
ORDER BY po.created_at DESC`, groupID)
	return rows, translate(err)
}

// CreatePost inserts a post with its media columns.
func (r *PostRepo) CreatePost(ctx context.Context, p models.Post) (models.Post, error) {
	if p.MediaURLs == nil {
		p.MediaURLs = []string{}
	}
	if p.MediaTypes == nil {
		p.MediaTypes = []string{}
	}
	var created models.Post
	err := r.db.GetContext(ctx, &created, `INSERT INTO posts (group_id, user_id, content, media_urls, media_types) VALUES ($1, $2, $3, $4, $5) RETURNING id, group_id, user_id, content, media_urls, media_types, created_at`,
		p.GroupID, p.UserID, p.Content, p.MediaURLs, p.MediaTypes)
	return created, translate(err)
}

// AddPostLike inserts the (post, user) like row.
func (r *PostRepo) AddPostLike(ctx context.Context, postID, userID string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2)`, postID, userID)
	return translate(err)
}

// RemovePostLike deletes the (post, user) like row.
func (r *PostRepo) RemovePostLike(ctx context.Context, postID, userID string) error {
	return removeRow(r.db.ExecContext(ctx, `DELETE FROM post_likes WHERE post_id=$1 AND user_id=$2`, postID, userID))
}
