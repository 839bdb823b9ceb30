package db

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

// Options controls the connection pool.
type Options struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	NotifyChannel   string
}

// Connect initializes the database connection and runs migrations.
func Connect(opts Options, log zerolog.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	channel := opts.NotifyChannel
	if channel == "" {
		channel = DefaultNotifyChannel
	}
	if err := runMigrations(db, channel); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	log.Info().Int("tables", len(WatchedTables)).Msg("database migrations applied")
	return db, nil
}

// DefaultNotifyChannel is the LISTEN channel fed by the change triggers.
const DefaultNotifyChannel = "table_changes"

// WatchedTables carry a change-notification trigger.
var WatchedTables = []string{
	"questions",
	"answers",
	"question_likes",
	"answer_likes",
	"groups",
	"group_members",
	"posts",
	"post_likes",
	"group_messages",
}

func runMigrations(db *sqlx.DB, channel string) error {
	migrations := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE TABLE IF NOT EXISTS users (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            email TEXT NOT NULL UNIQUE,
            password_hash TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS sessions (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            expires_at TIMESTAMPTZ NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS profiles (
            id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
            username TEXT NOT NULL UNIQUE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS questions (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            user_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            title TEXT NOT NULL CHECK (length(btrim(title)) > 0),
            content TEXT NOT NULL CHECK (length(btrim(content)) > 0),
            language TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS answers (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            question_id UUID NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
            user_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            content TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS question_likes (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            question_id UUID NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
            user_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            UNIQUE (question_id, user_id)
        );`,
		`CREATE TABLE IF NOT EXISTS answer_likes (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            answer_id UUID NOT NULL REFERENCES answers(id) ON DELETE CASCADE,
            user_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            UNIQUE (answer_id, user_id)
        );`,
		`CREATE TABLE IF NOT EXISTS groups (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            name TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            created_by UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS group_members (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            group_id UUID NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
            user_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            role TEXT NOT NULL DEFAULT 'member' CHECK (role IN ('admin', 'member')),
            joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            UNIQUE (group_id, user_id)
        );`,
		`CREATE TABLE IF NOT EXISTS posts (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            group_id UUID NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
            user_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            content TEXT NOT NULL DEFAULT '',
            media_urls TEXT[] NOT NULL DEFAULT '{}',
            media_types TEXT[] NOT NULL DEFAULT '{}',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS post_likes (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
            user_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            UNIQUE (post_id, user_id)
        );`,
		`CREATE TABLE IF NOT EXISTS group_messages (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            group_id UUID NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
            user_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            content TEXT NOT NULL DEFAULT '',
            media_url TEXT,
            media_type TEXT CHECK (media_type IS NULL OR media_type IN ('image', 'video')),
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_answers_question ON answers (question_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_posts_group ON posts (group_id, created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_group_messages_group ON group_messages (group_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions (expires_at);`,
		notifyFunction(channel),
	}
	for _, table := range WatchedTables {
		migrations = append(migrations,
			fmt.Sprintf(`DROP TRIGGER IF EXISTS %[1]s_notify ON %[1]s;`, table),
			fmt.Sprintf(`CREATE TRIGGER %[1]s_notify AFTER INSERT OR UPDATE OR DELETE ON %[1]s
                FOR EACH ROW EXECUTE FUNCTION notify_table_change();`, table),
		)
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// notifyFunction publishes the changed row without its large text columns;
// NOTIFY payloads are capped at 8000 bytes.
func notifyFunction(channel string) string {
	return fmt.Sprintf(`CREATE OR REPLACE FUNCTION notify_table_change() RETURNS trigger AS $$
DECLARE
    rec JSONB;
BEGIN
    IF TG_OP = 'DELETE' THEN
        rec := to_jsonb(OLD);
    ELSE
        rec := to_jsonb(NEW);
    END IF;
    rec := rec - 'content' - 'description' - 'media_urls';
    PERFORM pg_notify('%s', json_build_object('table', TG_TABLE_NAME, 'op', TG_OP, 'record', rec)::text);
    RETURN NULL;
END;
$$ LANGUAGE plpgsql;`, channel)
}
