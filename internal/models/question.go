package models

import (
	"time"

	"github.com/lib/pq"
)

// Question is a row of the questions table.
type Question struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	Language  string    `db:"language" json:"language"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// QuestionRow is a question with its author, like set and answer count embedded.
type QuestionRow struct {
	Question
	AuthorUsername string         `db:"author_username"`
	LikeUserIDs    pq.StringArray `db:"like_user_ids"`
	AnswerCount    int            `db:"answer_count"`
}

// Answer is a row of the answers table.
type Answer struct {
	ID         string    `db:"id" json:"id"`
	QuestionID string    `db:"question_id" json:"question_id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Content    string    `db:"content" json:"content"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AnswerRow is an answer with its author and like set embedded.
type AnswerRow struct {
	Answer
	AuthorUsername string         `db:"author_username"`
	LikeUserIDs    pq.StringArray `db:"like_user_ids"`
}

// QuestionCard is the view-model of a question in lists and on its detail page.
type QuestionCard struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	Language       string    `json:"language,omitempty"`
	AuthorID       string    `json:"author_id"`
	AuthorUsername string    `json:"author_username"`
	CreatedAt      time.Time `json:"created_at"`
	LikeUserIDs    []string  `json:"like_user_ids"`
	LikesCount     int       `json:"likes_count"`
	LikedByViewer  bool      `json:"liked_by_viewer"`
	AnswersCount   int       `json:"answers_count"`
}

// AnswerView is the view-model of an answer.
type AnswerView struct {
	ID             string    `json:"id"`
	QuestionID     string    `json:"question_id"`
	Content        string    `json:"content"`
	AuthorID       string    `json:"author_id"`
	AuthorUsername string    `json:"author_username"`
	CreatedAt      time.Time `json:"created_at"`
	LikeUserIDs    []string  `json:"like_user_ids"`
	LikesCount     int       `json:"likes_count"`
	LikedByViewer  bool      `json:"liked_by_viewer"`
}
