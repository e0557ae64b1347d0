// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

package database

import (
	"context"
	"fmt"

	"github.com/choiwjun/gis/internal/models"
)

// LogActivity appends one audit row.
func (db *DB) LogActivity(ctx context.Context, entry *models.ActivityLog) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO activity_logs
		 (id, user_id, action, resource_type, resource_id, details_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, entry.Action, entry.ResourceType,
		entry.ResourceID, entry.Details, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting activity log: %w", err)
	}
	return nil
}
