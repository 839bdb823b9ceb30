package models

import (
	"time"

	"github.com/lib/pq"
)

// Group member roles.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Group represents a community group.
type Group struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedBy   string    `db:"created_by" json:"created_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// GroupMember is a membership row.
type GroupMember struct {
	GroupID  string    `db:"group_id" json:"group_id"`
	UserID   string    `db:"user_id" json:"user_id"`
	Role     string    `db:"role" json:"role"`
	JoinedAt time.Time `db:"joined_at" json:"joined_at"`
}

// GroupRow is a group with its creator and member ids embedded.
type GroupRow struct {
	Group
	CreatorUsername string         `db:"creator_username"`
	MemberIDs       pq.StringArray `db:"member_ids"`
}

// GroupCard is the view-model of a group.
type GroupCard struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	CreatorID       string    `json:"creator_id"`
	CreatorUsername string    `json:"creator_username"`
	CreatedAt       time.Time `json:"created_at"`
	MembersCount    int       `json:"members_count"`
	ViewerIsMember  bool      `json:"viewer_is_member"`
}

// Post is a row of the posts table. MediaURLs and MediaTypes are index-aligned.
type Post struct {
	ID         string         `db:"id" json:"id"`
	GroupID    string         `db:"group_id" json:"group_id"`
	UserID     string         `db:"user_id" json:"user_id"`
	Content    string         `db:"content" json:"content"`
	MediaURLs  pq.StringArray `db:"media_urls" json:"media_urls"`
	MediaTypes pq.StringArray `db:"media_types" json:"media_types"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// PostRow is a post with its author and like set embedded.
type PostRow struct {
	Post
	AuthorUsername string         `db:"author_username"`
	LikeUserIDs    pq.StringArray `db:"like_user_ids"`
}

// MediaItem is one attachment of a post or message.
type MediaItem struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

// PostView is the view-model of a group post.
type PostView struct {
	ID             string      `json:"id"`
	GroupID        string      `json:"group_id"`
	Content        string      `json:"content"`
	AuthorID       string      `json:"author_id"`
	AuthorUsername string      `json:"author_username"`
	Media          []MediaItem `json:"media"`
	CreatedAt      time.Time   `json:"created_at"`
	LikesCount     int         `json:"likes_count"`
	LikedByViewer  bool        `json:"liked_by_viewer"`
}

// GroupMessage represents a chat message sent in a group.
type GroupMessage struct {
	ID        string    `db:"id" json:"id"`
	GroupID   string    `db:"group_id" json:"group_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Content   string    `db:"content" json:"content"`
	MediaURL  *string   `db:"media_url" json:"media_url,omitempty"`
	MediaType *string   `db:"media_type" json:"media_type,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// GroupMessageRow is a message with its author embedded.
type GroupMessageRow struct {
	GroupMessage
	AuthorUsername string `db:"author_username"`
}

// MessageView is the view-model of a chat message.
type MessageView struct {
	ID             string     `json:"id"`
	Content        string     `json:"content"`
	AuthorID       string     `json:"author_id"`
	AuthorUsername string     `json:"author_username"`
	Media          *MediaItem `json:"media,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	Mine           bool       `json:"mine"`
}
