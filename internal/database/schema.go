// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

package database

import (
	"context"
	"fmt"
)

// schemaStatements are executed in order at startup. Features carry a
// sequence column so unfiltered scans replay storage order.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id VARCHAR PRIMARY KEY,
		email VARCHAR NOT NULL UNIQUE,
		password_hash VARCHAR NOT NULL,
		name VARCHAR NOT NULL,
		role VARCHAR NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS user_preferences (
		user_id VARCHAR PRIMARY KEY,
		preferences_json VARCHAR NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS datasets (
		id VARCHAR PRIMARY KEY,
		name VARCHAR NOT NULL,
		type VARCHAR NOT NULL,
		record_count INTEGER NOT NULL DEFAULT 0,
		storage_key VARCHAR,
		schema_json VARCHAR,
		status VARCHAR NOT NULL,
		created_by VARCHAR NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE SEQUENCE IF NOT EXISTS features_seq`,
	`CREATE TABLE IF NOT EXISTS features (
		id VARCHAR PRIMARY KEY,
		seq BIGINT DEFAULT nextval('features_seq'),
		dataset_id VARCHAR NOT NULL,
		geometry_type VARCHAR NOT NULL,
		min_lon DOUBLE,
		min_lat DOUBLE,
		max_lon DOUBLE,
		max_lat DOUBLE,
		properties_json VARCHAR NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_features_dataset ON features(dataset_id)`,
	`CREATE TABLE IF NOT EXISTS layer_styles (
		id VARCHAR PRIMARY KEY,
		dataset_id VARCHAR NOT NULL,
		name VARCHAR NOT NULL,
		style_json VARCHAR NOT NULL,
		is_default BOOLEAN NOT NULL DEFAULT FALSE,
		created_by VARCHAR NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_styles_dataset ON layer_styles(dataset_id)`,
	`CREATE TABLE IF NOT EXISTS activity_logs (
		id VARCHAR PRIMARY KEY,
		user_id VARCHAR NOT NULL,
		action VARCHAR NOT NULL,
		resource_type VARCHAR NOT NULL,
		resource_id VARCHAR NOT NULL,
		details_json VARCHAR NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL
	)`,
}

func (db *DB) initSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
