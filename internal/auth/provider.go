package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eko/gocache/lib/v4/store"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"community-service/internal/models"
	"community-service/internal/repositories"
	"community-service/internal/validation"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountExists      = errors.New("email or username already registered")
	ErrInvalidToken       = errors.New("invalid token")
	ErrSessionExpired     = errors.New("session expired")
)

// SessionCache is the subset of the gocache marshaler used for sessions.
type SessionCache interface {
	Get(ctx context.Context, key any, returnObj any) (any, error)
	Set(ctx context.Context, key, object any, options ...store.Option) error
	Delete(ctx context.Context, key any) error
}

// Config holds token and session settings.
type Config struct {
	Secret     string
	Issuer     string
	SessionTTL time.Duration
	CacheTTL   time.Duration
}

// Claims is the JWT payload. RegisteredClaims.ID is the session id.
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// SignUpInput is the sign-up form.
type SignUpInput struct {
	Email    string `json:"email" form:"email" validate:"required,email" label:"Email"`
	Password string `json:"password" form:"password" validate:"required,min=6" label:"Password"`
	Username string `json:"username" form:"username" validate:"notblank,max=50" label:"Username"`
}

// SignInInput is the sign-in form.
type SignInInput struct {
	Email    string `json:"email" form:"email" validate:"required,email" label:"Email"`
	Password string `json:"password" form:"password" validate:"required" label:"Password"`
}

// Result is a successful sign-in.
type Result struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	Viewer    models.Viewer `json:"viewer"`
}

type cachedSession struct {
	UserID    string
	ExpiresAt time.Time
}

// Provider is the identity provider: accounts, passwords and sessions.
type Provider struct {
	users repositories.UserRepository
	cache SessionCache
	cfg   Config
	log   zerolog.Logger
	now   func() time.Time
}

// NewProvider constructs a Provider. cache may be nil.
func NewProvider(users repositories.UserRepository, cache SessionCache, cfg Config, log zerolog.Logger) *Provider {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 7 * 24 * time.Hour
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	return &Provider{users: users, cache: cache, cfg: cfg, log: log, now: time.Now}
}

// SignUp registers an account with its profile and opens a session.
func (p *Provider) SignUp(ctx context.Context, in SignUpInput) (Result, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	if err := validation.Struct(in); err != nil {
		return Result{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return Result{}, fmt.Errorf("hash password: %w", err)
	}

	user, profile, err := p.users.CreateUser(ctx, in.Email, string(hash), in.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return Result{}, ErrAccountExists
		}
		return Result{}, err
	}
	p.log.Info().Str("user_id", user.ID).Msg("account created")
	return p.openSession(ctx, user.ID, profile.Username)
}

// SignIn checks credentials and opens a session.
func (p *Provider) SignIn(ctx context.Context, in SignInInput) (Result, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if err := validation.Struct(in); err != nil {
		return Result{}, err
	}

	user, err := p.users.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return Result{}, ErrInvalidCredentials
		}
		return Result{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return Result{}, ErrInvalidCredentials
	}

	profile, err := p.users.GetProfile(ctx, user.ID)
	if err != nil {
		return Result{}, err
	}
	return p.openSession(ctx, user.ID, profile.Username)
}

// SignOut closes the session behind token. Unknown sessions are ignored.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	claims, err := p.parse(token)
	if err != nil {
		return err
	}
	if p.cache != nil {
		_ = p.cache.Delete(ctx, sessionKey(claims.ID))
	}
	if err := p.users.DeleteSession(ctx, claims.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return err
	}
	return nil
}

// Authenticate resolves a token into the viewer it belongs to.
func (p *Provider) Authenticate(ctx context.Context, token string) (models.Viewer, error) {
	claims, err := p.parse(token)
	if err != nil {
		return models.Viewer{}, err
	}

	session, err := p.lookupSession(ctx, claims.ID)
	if err != nil {
		return models.Viewer{}, err
	}
	if session.UserID != claims.UserID {
		return models.Viewer{}, ErrInvalidToken
	}
	if !session.ExpiresAt.After(p.now()) {
		return models.Viewer{}, ErrSessionExpired
	}
	return models.Viewer{UserID: claims.UserID, Username: claims.Username, SessionID: claims.ID}, nil
}

// PurgeExpired removes sessions past their expiry.
func (p *Provider) PurgeExpired(ctx context.Context) (int64, error) {
	return p.users.DeleteExpiredSessions(ctx, p.now())
}

func (p *Provider) openSession(ctx context.Context, userID, username string) (Result, error) {
	expiresAt := p.now().Add(p.cfg.SessionTTL)
	session, err := p.users.CreateSession(ctx, userID, expiresAt)
	if err != nil {
		return Result{}, fmt.Errorf("create session: %w", err)
	}

	claims := &Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(p.now()),
			Issuer:    p.cfg.Issuer,
			Subject:   userID,
			ID:        session.ID,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(p.cfg.Secret))
	if err != nil {
		return Result{}, fmt.Errorf("sign token: %w", err)
	}

	p.remember(ctx, session)
	return Result{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		Viewer:    models.Viewer{UserID: userID, Username: username, SessionID: session.ID},
	}, nil
}

func (p *Provider) parse(token string) (*Claims, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(p.cfg.Secret), nil
	}, jwt.WithTimeFunc(p.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.ID == "" || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (p *Provider) lookupSession(ctx context.Context, id string) (cachedSession, error) {
	if p.cache != nil {
		if v, err := p.cache.Get(ctx, sessionKey(id), new(cachedSession)); err == nil {
			if s, ok := v.(*cachedSession); ok {
				return *s, nil
			}
		}
	}

	session, err := p.users.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return cachedSession{}, ErrInvalidToken
		}
		return cachedSession{}, err
	}
	p.remember(ctx, session)
	return cachedSession{UserID: session.UserID, ExpiresAt: session.ExpiresAt}, nil
}

func (p *Provider) remember(ctx context.Context, session models.Session) {
	if p.cache == nil {
		return
	}
	err := p.cache.Set(ctx, sessionKey(session.ID),
		cachedSession{UserID: session.UserID, ExpiresAt: session.ExpiresAt},
		store.WithExpiration(p.cfg.CacheTTL),
		store.WithTags([]string{"session", "user#" + session.UserID}),
	)
	if err != nil {
		p.log.Debug().Err(err).Str("session_id", session.ID).Msg("session cache set failed")
	}
}

func sessionKey(id string) string {
	return "session#" + id
}
