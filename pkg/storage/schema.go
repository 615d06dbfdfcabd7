package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements create the tables the service needs. Statements are
// idempotent so startup can run them unconditionally.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		phone VARCHAR(32) NOT NULL UNIQUE,
		email VARCHAR(255) NOT NULL UNIQUE,
		login VARCHAR(64) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		first_name VARCHAR(128) NOT NULL DEFAULT '',
		last_name VARCHAR(128) NOT NULL DEFAULT '',
		avatar_url TEXT,
		role VARCHAR(16) NOT NULL DEFAULT 'student',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS password_resets (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token_hash VARCHAR(255) NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_password_resets_expires_at ON password_resets(expires_at)`,
	`CREATE TABLE IF NOT EXISTS courses (
		id BIGSERIAL PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price NUMERIC(10,2) NOT NULL DEFAULT 0,
		thumbnail_url TEXT,
		instructor_id BIGINT REFERENCES users(id),
		is_published BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS lessons (
		id BIGSERIAL PRIMARY KEY,
		course_id BIGINT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
		title VARCHAR(255) NOT NULL,
		order_index INT NOT NULL DEFAULT 0,
		video_url TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_lessons_course_id ON lessons(course_id)`,
	`CREATE TABLE IF NOT EXISTS quizzes (
		id BIGSERIAL PRIMARY KEY,
		lesson_id BIGINT NOT NULL UNIQUE REFERENCES lessons(id) ON DELETE CASCADE,
		title VARCHAR(255) NOT NULL,
		pass_score INT NOT NULL DEFAULT 70
	)`,
	`CREATE TABLE IF NOT EXISTS questions (
		id BIGSERIAL PRIMARY KEY,
		quiz_id BIGINT NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
		question_text TEXT NOT NULL,
		order_index INT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS answers (
		id BIGSERIAL PRIMARY KEY,
		question_id BIGINT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
		answer_text TEXT NOT NULL,
		is_correct BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS purchases (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		course_id BIGINT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
		amount NUMERIC(10,2) NOT NULL,
		payment_status VARCHAR(16) NOT NULL DEFAULT 'pending',
		payment_id VARCHAR(64),
		purchased_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_purchases_user_id ON purchases(user_id)`,
	`CREATE TABLE IF NOT EXISTS cart_items (
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		course_id BIGINT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
		added_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE(user_id, course_id)
	)`,
	`CREATE TABLE IF NOT EXISTS quiz_attempts (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		quiz_id BIGINT NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
		score INT NOT NULL,
		passed BOOLEAN NOT NULL,
		attempted_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_quiz_attempts_user_id ON quiz_attempts(user_id)`,
}

// EnsureSchema creates all tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
