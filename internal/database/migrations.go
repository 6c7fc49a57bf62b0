// internal/database/migrations.go
package database

import (
	"database/sql"
	"fmt"
)

// RunMigrations runs all database migrations
func RunMigrations(db *sql.DB) error {
	// Enable UUID extension
	if err := enableExtensions(db); err != nil {
		return fmt.Errorf("failed to enable extensions: %w", err)
	}

	// Create tables
	if err := createTables(db); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	// Create functions and triggers
	if err := createFunctionsAndTriggers(db); err != nil {
		return fmt.Errorf("failed to create functions and triggers: %w", err)
	}

	return nil
}

func enableExtensions(db *sql.DB) error {
	query := `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`
	_, err := db.Exec(query)
	return err
}

func createTables(db *sql.DB) error {
	queries := []string{
		// Marketplace profiles (created out-of-band, read here)
		`CREATE TABLE IF NOT EXISTS profiles (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			phone VARCHAR(20) UNIQUE,
			display_name VARCHAR(255),
			role VARCHAR(20) NOT NULL DEFAULT 'user',
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW(),
			CONSTRAINT check_role CHECK (role IN ('user', 'admin', 'moderator'))
		)`,

		// PIN hash + brute-force state, one row per profile
		`CREATE TABLE IF NOT EXISTS user_security (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			user_id UUID NOT NULL UNIQUE,
			phone VARCHAR(20) NOT NULL UNIQUE,
			pin_hash VARCHAR(64) NOT NULL,
			failed_attempts INTEGER NOT NULL DEFAULT 0,
			is_locked BOOLEAN NOT NULL DEFAULT false,
			blocked_until TIMESTAMP,
			last_login TIMESTAMP,
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,

		// Append-only PIN verification audit trail
		`CREATE TABLE IF NOT EXISTS pin_verification_attempts (
			id BIGSERIAL PRIMARY KEY,
			phone VARCHAR(20) NOT NULL,
			attempted_at TIMESTAMP NOT NULL DEFAULT NOW(),
			success BOOLEAN NOT NULL,
			source VARCHAR(20) NOT NULL DEFAULT 'whatsapp'
		)`,

		// Timed authentication sessions
		`CREATE TABLE IF NOT EXISTS user_sessions (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			user_id UUID NOT NULL,
			phone VARCHAR(20) NOT NULL,
			token VARCHAR(64) NOT NULL UNIQUE,
			is_active BOOLEAN NOT NULL DEFAULT true,
			session_type VARCHAR(20) NOT NULL DEFAULT 'timed',
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			expires_at TIMESTAMP NOT NULL,
			last_activity TIMESTAMP NOT NULL DEFAULT NOW(),
			ended_at TIMESTAMP,
			end_reason VARCHAR(30),
			CONSTRAINT check_session_type CHECK (session_type IN ('timed', 'event-based')),
			CONSTRAINT check_end_reason CHECK (end_reason IS NULL OR end_reason IN ('timeout', 'user_cancelled', 'operation_completed', 'manual')),
			CONSTRAINT check_ended CHECK (is_active OR (ended_at IS NOT NULL AND end_reason IS NOT NULL))
		)`,

		// Append-only image safety audit trail
		`CREATE TABLE IF NOT EXISTS image_safety_flags (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			user_id UUID,
			image_ref TEXT,
			flag_type VARCHAR(20) NOT NULL,
			confidence VARCHAR(10) NOT NULL,
			message TEXT,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			created_at TIMESTAMP DEFAULT NOW(),
			reviewed_at TIMESTAMP,
			reviewer UUID,
			notes TEXT,
			CONSTRAINT check_flag_type CHECK (flag_type IN ('none', 'weapon', 'drugs', 'violence', 'abuse', 'terrorism', 'stolen', 'document', 'sexual', 'hate', 'unknown')),
			CONSTRAINT check_confidence CHECK (confidence IN ('high', 'medium', 'low')),
			CONSTRAINT check_flag_status CHECK (status IN ('pending', 'confirmed', 'dismissed', 'banned'))
		)`,

		// One in-progress draft per user
		`CREATE TABLE IF NOT EXISTS active_drafts (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			user_id UUID NOT NULL UNIQUE,
			state VARCHAR(20) NOT NULL DEFAULT 'DRAFT',
			listing_data JSONB,
			images TEXT[],
			vision_product JSONB,
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW(),
			CONSTRAINT check_draft_state CHECK (state IN ('DRAFT', 'PREVIEW', 'PUBLISHED', 'CANCELLED'))
		)`,

		// Published listings
		`CREATE TABLE IF NOT EXISTS listings (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			user_id UUID NOT NULL,
			title VARCHAR(255) NOT NULL,
			price BIGINT NOT NULL,
			category VARCHAR(100) NOT NULL,
			description TEXT,
			condition VARCHAR(20) NOT NULL DEFAULT 'used',
			location VARCHAR(100) NOT NULL DEFAULT 'Türkiye',
			stock INTEGER NOT NULL DEFAULT 1,
			status VARCHAR(20) NOT NULL DEFAULT 'active',
			metadata JSONB,
			images TEXT[],
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW(),
			CONSTRAINT check_price CHECK (price >= 0)
		)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w\nQuery: %s", err, query)
		}
	}

	return nil
}

func createIndexes(db *sql.DB) error {
	indexes := []string{
		// At most one active session per phone
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_user_sessions_active_phone ON user_sessions(phone) WHERE is_active = true`,

		// Sessions indexes
		`CREATE INDEX IF NOT EXISTS idx_user_sessions_user_id ON user_sessions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_user_sessions_phone ON user_sessions(phone)`,
		`CREATE INDEX IF NOT EXISTS idx_user_sessions_expires ON user_sessions(expires_at) WHERE is_active = true`,

		// PIN attempt audit indexes
		`CREATE INDEX IF NOT EXISTS idx_pin_attempts_phone ON pin_verification_attempts(phone, attempted_at)`,

		// Safety flag indexes
		`CREATE INDEX IF NOT EXISTS idx_safety_flags_user_id ON image_safety_flags(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_safety_flags_status ON image_safety_flags(status)`,

		// Listings indexes
		`CREATE INDEX IF NOT EXISTS idx_listings_user_id ON listings(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_listings_status ON listings(status)`,
	}

	for _, index := range indexes {
		if _, err := db.Exec(index); err != nil {
			return fmt.Errorf("failed to create index: %w\nIndex: %s", err, index)
		}
	}

	return nil
}

func createFunctionsAndTriggers(db *sql.DB) error {
	// Function to update updated_at timestamp
	updateTimestampFunc := `
	CREATE OR REPLACE FUNCTION update_updated_at_column()
	RETURNS TRIGGER AS $$
	BEGIN
		NEW.updated_at = NOW();
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql;`

	if _, err := db.Exec(updateTimestampFunc); err != nil {
		return fmt.Errorf("failed to create update_updated_at_column function: %w", err)
	}

	triggers := []string{
		`DROP TRIGGER IF EXISTS update_profiles_updated_at ON profiles`,
		`CREATE TRIGGER update_profiles_updated_at
			BEFORE UPDATE ON profiles
			FOR EACH ROW
			EXECUTE FUNCTION update_updated_at_column()`,

		`DROP TRIGGER IF EXISTS update_user_security_updated_at ON user_security`,
		`CREATE TRIGGER update_user_security_updated_at
			BEFORE UPDATE ON user_security
			FOR EACH ROW
			EXECUTE FUNCTION update_updated_at_column()`,

		`DROP TRIGGER IF EXISTS update_active_drafts_updated_at ON active_drafts`,
		`CREATE TRIGGER update_active_drafts_updated_at
			BEFORE UPDATE ON active_drafts
			FOR EACH ROW
			EXECUTE FUNCTION update_updated_at_column()`,

		`DROP TRIGGER IF EXISTS update_listings_updated_at ON listings`,
		`CREATE TRIGGER update_listings_updated_at
			BEFORE UPDATE ON listings
			FOR EACH ROW
			EXECUTE FUNCTION update_updated_at_column()`,
	}

	for _, trigger := range triggers {
		if _, err := db.Exec(trigger); err != nil {
			return fmt.Errorf("failed to create trigger: %w\nTrigger: %s", err, trigger)
		}
	}

	return nil
}

// DropAllTables drops all tables (use with caution!)
func DropAllTables(db *sql.DB) error {
	tables := []string{
		"listings",
		"active_drafts",
		"image_safety_flags",
		"user_sessions",
		"pin_verification_attempts",
		"user_security",
		"profiles",
	}

	for _, table := range tables {
		query := fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}

	return nil
}
