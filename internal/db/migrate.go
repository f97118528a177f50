package db

import (
	"fmt"
	"log"
)

// Migrate applies the schema idempotently at startup.
func Migrate(db *DB) error {
	for i, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	log.Printf("[db] schema up to date (%d statements)", len(schema))
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS broadcasts (
		id BIGSERIAL PRIMARY KEY,
		radio_station TEXT NOT NULL,
		broadcast_recording TEXT NOT NULL,
		duration_seconds INT NOT NULL DEFAULT 0,
		broadcast_date TIMESTAMPTZ NOT NULL,
		filename TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'Pending',
		city TEXT NOT NULL DEFAULT '',
		language TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS ad_masters (
		id BIGSERIAL PRIMARY KEY,
		brand TEXT NOT NULL,
		advertisement TEXT NOT NULL,
		upload_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		duration_seconds INT NOT NULL DEFAULT 0,
		filename TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'Active',
		city TEXT NOT NULL DEFAULT '',
		language TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		radio_station TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS song_masters (
		id BIGSERIAL PRIMARY KEY,
		artist TEXT NOT NULL,
		name TEXT NOT NULL,
		upload_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		duration_seconds INT NOT NULL DEFAULT 0,
		filename TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'Active'
	)`,
	`CREATE TABLE IF NOT EXISTS detection_results (
		id BIGSERIAL PRIMARY KEY,
		ad_id BIGINT NOT NULL,
		broadcast_id BIGINT NOT NULL REFERENCES broadcasts(id) ON DELETE CASCADE,
		clip_type TEXT NOT NULL,
		brand TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		start_time_seconds DOUBLE PRECISION NOT NULL,
		end_time_seconds DOUBLE PRECISION NOT NULL,
		duration_seconds DOUBLE PRECISION NOT NULL DEFAULT 0,
		correlation_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		raw_correlation DOUBLE PRECISION NOT NULL DEFAULT 0,
		mfcc_correlation DOUBLE PRECISION NOT NULL DEFAULT 0,
		overlap_duration DOUBLE PRECISION NOT NULL DEFAULT 0,
		detection_timestamp TEXT NOT NULL DEFAULT '',
		processing_status TEXT NOT NULL DEFAULT '',
		total_matches_found INT NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_detections_broadcast
		ON detection_results (broadcast_id, start_time_seconds)`,
	`CREATE TABLE IF NOT EXISTS designations (
		id BIGSERIAL PRIMARY KEY,
		broadcast_id BIGINT NOT NULL REFERENCES broadcasts(id) ON DELETE CASCADE,
		brand_artist TEXT NOT NULL DEFAULT '',
		advertisement_name TEXT NOT NULL DEFAULT '',
		start_time DOUBLE PRECISION NOT NULL,
		end_time DOUBLE PRECISION NOT NULL,
		clip_type TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}
