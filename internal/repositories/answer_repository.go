package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"community-service/internal/models"
)

// AnswerRepository abstracts answer and answer-like persistence.
type AnswerRepository interface {
	ListAnswers(ctx context.Context, questionID string) ([]models.AnswerRow, error)
	CreateAnswer(ctx context.Context, a models.Answer) (models.Answer, error)
	AddAnswerLike(ctx context.Context, answerID, userID string) error
	RemoveAnswerLike(ctx context.Context, answerID, userID string) error
}

// AnswerRepo is a sqlx implementation of AnswerRepository.
type AnswerRepo struct {
	db *sqlx.DB
}

// NewAnswerRepo constructs an AnswerRepo.
func NewAnswerRepo(db *sqlx.DB) *AnswerRepo {
	return &AnswerRepo{db: db}
}

// ListAnswers returns a question's answers oldest first.
func (r *AnswerRepo) ListAnswers(ctx context.Context, questionID string) ([]models.AnswerRow, error) {
	rows := []models.AnswerRow{}
	err := r.db.SelectContext(ctx, &rows, `SELECT a.id, a.question_id, a.user_id, a.content, a.created_at,
       COALESCE(p.username, '') AS author_username,
       COALESCE((SELECT array_agg(l.user_id::text ORDER BY l.created_at) FROM answer_likes l WHERE l.answer_id = a.id), '{}') AS like_user_ids
FROM answers a
LEFT JOIN profiles p ON p.id = a.user_id
WHERE a.question_id = $1
ORDER BY a.created_at ASC`, questionID)
	return rows, translate(err)
}

// CreateAnswer inserts an answer.
func (r *AnswerRepo) CreateAnswer(ctx context.Context, a models.Answer) (models.Answer, error) {
	var created models.Answer
	err := r.db.GetContext(ctx, &created, `INSERT INTO answers (question_id, user_id, content) VALUES ($1, $2, $3) RETURNING id, question_id, user_id, content, created_at`,
		a.QuestionID, a.UserID, a.Content)
	return created, translate(err)
}

// AddAnswerLike inserts the (answer, user) like row.
func (r *AnswerRepo) AddAnswerLike(ctx context.Context, answerID, userID string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO answer_likes (answer_id, user_id) VALUES ($1, $2)`, answerID, userID)
	return translate(err)
}

// RemoveAnswerLike deletes the (answer, user) like row.
func (r *AnswerRepo) RemoveAnswerLike(ctx context.Context, answerID, userID string) error {
	return removeRow(r.db.ExecContext(ctx, `DELETE FROM answer_likes WHERE answer_id=$1 AND user_id=$2`, answerID, userID))
}
