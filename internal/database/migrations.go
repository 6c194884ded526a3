package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	`CREATE TABLE IF NOT EXISTS accounts (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		email VARCHAR(255) UNIQUE NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		display_name VARCHAR(255) NOT NULL DEFAULT '',
		photo_url VARCHAR(500) NOT NULL DEFAULT '',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS sessions (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		token_hash VARCHAR(255) NOT NULL UNIQUE,
		expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	// Profiles are keyed by the account id, like a document keyed by uid.
	`CREATE TABLE IF NOT EXISTS profiles (
		user_id UUID PRIMARY KEY,
		email VARCHAR(255) NOT NULL DEFAULT '',
		role VARCHAR(50) NOT NULL,
		school_code VARCHAR(100) NOT NULL DEFAULT '',
		display_name VARCHAR(255) NOT NULL DEFAULT '',
		photo_url VARCHAR(500) NOT NULL DEFAULT '',
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		last_active_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS news (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		image_url VARCHAR(1000) NOT NULL DEFAULT '',
		image_key VARCHAR(600) NOT NULL DEFAULT '',
		category VARCHAR(255) NOT NULL DEFAULT '',
		priority VARCHAR(20) NOT NULL DEFAULT 'normal',
		school_code VARCHAR(100) NOT NULL,
		target_user_types TEXT[] NOT NULL DEFAULT ARRAY['student', 'teacher', 'parent'],
		author_email VARCHAR(255) NOT NULL DEFAULT '',
		author_id UUID NOT NULL,
		author_role VARCHAR(50) NOT NULL DEFAULT '',
		version INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS blobs (
		key VARCHAR(600) PRIMARY KEY,
		content_type VARCHAR(255) NOT NULL,
		size BIGINT NOT NULL,
		data BYTEA NOT NULL,
		state VARCHAR(20) NOT NULL DEFAULT 'pending',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_sessions_account_id ON sessions(account_id)`,
	`CREATE INDEX IF NOT EXISTS idx_news_school_code_created_at ON news(school_code, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_news_created_at ON news(created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_blobs_state_created_at ON blobs(state, created_at)`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
