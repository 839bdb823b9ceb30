package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"community-service/internal/models"
)

// QuestionRepository abstracts question and question-like persistence.
type QuestionRepository interface {
	ListQuestions(ctx context.Context, authorID string) ([]models.QuestionRow, error)
	GetQuestion(ctx context.Context, id string) (models.QuestionRow, error)
	CreateQuestion(ctx context.Context, q models.Question) (models.Question, error)
	AddQuestionLike(ctx context.Context, questionID, userID string) error
	RemoveQuestionLike(ctx context.Context, questionID, userID string) error
}

// QuestionRepo is a sqlx implementation of QuestionRepository.
type QuestionRepo struct {
	db *sqlx.DB
}

// NewQuestionRepo constructs a QuestionRepo.
func NewQuestionRepo(db *sqlx.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

const questionSelect = `SELECT q.id, q.user_id, q.title, q.content, q.language, q.created_at,
       COALESCE(p.username, '') AS author_username,
       COALESCE((SELECT array_agg(l.user_id::text ORDER BY l.created_at) FROM question_likes l WHERE l.question_id = q.id), '{}') AS like_user_ids,
       (SELECT COUNT(*) FROM answers a WHERE a.question_id = q.id) AS answer_count
FROM questions q
LEFT JOIN profiles p ON p.id = q.user_id`

// ListQuestions returns questions newest first. An empty authorID lists everyone's.
func (r *QuestionRepo) ListQuestions(ctx context.Context, authorID string) ([]models.QuestionRow, error) {
	rows := []models.QuestionRow{}
	var err error
	if authorID == "" {
		err = r.db.SelectContext(ctx, &rows, questionSelect+` ORDER BY q.created_at DESC`)
	} else {
		err = r.db.SelectContext(ctx, &rows, questionSelect+` WHERE q.user_id = $1 ORDER BY q.created_at DESC`, authorID)
	}
	return rows, translate(err)
}

// GetQuestion fetches a single question with its relations.
func (r *QuestionRepo) GetQuestion(ctx context.Context, id string) (models.QuestionRow, error) {
	var row models.QuestionRow
	err := r.db.GetContext(ctx, &row, questionSelect+` WHERE q.id = $1`, id)
	return row, translate(err)
}

// CreateQuestion inserts a question.
func (r *QuestionRepo) CreateQuestion(ctx context.Context, q models.Question) (models.Question, error) {
	var created models.Question
	err := r.db.GetContext(ctx, &created, `INSERT INTO questions (user_id, title, content, language) VALUES ($1, $2, $3, $4) RETURNING id, user_id, title, content, language, created_at`,
		q.UserID, q.Title, q.Content, q.Language)
	return created, translate(err)
}

// AddQuestionLike inserts the (question, user) like row.
func (r *QuestionRepo) AddQuestionLike(ctx context.Context, questionID, userID string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO question_likes (question_id, user_id) VALUES ($1, $2)`, questionID, userID)
	return translate(err)
}

// RemoveQuestionLike deletes the (question, user) like row.
func (r *QuestionRepo) RemoveQuestionLike(ctx context.Context, questionID, userID string) error {
	return removeRow(r.db.ExecContext(ctx, `DELETE FROM question_likes WHERE question_id=$1 AND user_id=$2`, questionID, userID))
}
