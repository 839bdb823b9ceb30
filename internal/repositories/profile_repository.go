package repositories

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"community-service/internal/models"
)

// ProfileRepository reads public profiles.
type ProfileRepository interface {
	GetProfile(ctx context.Context, id string) (models.Profile, error)
}

// UserRepository persists identity-provider accounts and sessions.
type UserRepository interface {
	ProfileRepository
	CreateUser(ctx context.Context, email, passwordHash, username string) (models.User, models.Profile, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	CreateSession(ctx context.Context, userID string, expiresAt time.Time) (models.Session, error)
	GetSession(ctx context.Context, id string) (models.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// UserRepo is a sqlx implementation of UserRepository and ProfileRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// CreateUser creates the account and its profile atomically.
func (r *UserRepo) CreateUser(ctx context.Context, email, passwordHash, username string) (models.User, models.Profile, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.User{}, models.Profile{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var user models.User
	if err = tx.GetContext(ctx, &user, `INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING id, email, password_hash, created_at`, email, passwordHash); err != nil {
		return models.User{}, models.Profile{}, translate(err)
	}

	var profile models.Profile
	if err = tx.GetContext(ctx, &profile, `INSERT INTO profiles (id, username) VALUES ($1, $2) RETURNING id, username, created_at`, user.ID, username); err != nil {
		return models.User{}, models.Profile{}, translate(err)
	}

	if err = tx.Commit(); err != nil {
		return models.User{}, models.Profile{}, err
	}
	return user, profile, nil
}

// GetUserByEmail fetches an account by email.
func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT id, email, password_hash, created_at FROM users WHERE email=$1`, email)
	return user, translate(err)
}

// CreateSession opens a session for the user.
func (r *UserRepo) CreateSession(ctx context.Context, userID string, expiresAt time.Time) (models.Session, error) {
	var session models.Session
	err := r.db.GetContext(ctx, &session, `INSERT INTO sessions (user_id, expires_at) VALUES ($1, $2) RETURNING id, user_id, expires_at, created_at`, userID, expiresAt)
	return session, translate(err)
}

// GetSession fetches a session by id.
func (r *UserRepo) GetSession(ctx context.Context, id string) (models.Session, error) {
	var session models.Session
	err := r.db.GetContext(ctx, &session, `SELECT id, user_id, expires_at, created_at FROM sessions WHERE id=$1`, id)
	return session, translate(err)
}

// DeleteSession removes a session.
func (r *UserRepo) DeleteSession(ctx context.Context, id string) error {
	return removeRow(r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id=$1`, id))
}

// DeleteExpiredSessions purges sessions that expired before now.
func (r *UserRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetProfile fetches a single profile.
func (r *UserRepo) GetProfile(ctx context.Context, id string) (models.Profile, error) {
	var profile models.Profile
	err := r.db.GetContext(ctx, &profile, `SELECT id, username, created_at FROM profiles WHERE id=$1`, id)
	return profile, translate(err)
}
