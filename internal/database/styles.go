// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/choiwjun/gis/internal/models"
	"github.com/choiwjun/gis/internal/store"
)

// CreateStyle inserts a style row.
func (db *DB) CreateStyle(ctx context.Context, s *models.Style) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO layer_styles
		 (id, dataset_id, name, style_json, is_default, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.DatasetID, s.Name, string(s.Style), s.IsDefault, s.CreatedBy, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting style: %w", err)
	}
	return nil
}

// Style returns a style by id.
func (db *DB) Style(ctx context.Context, id string) (*models.Style, error) {
	s := &models.Style{}
	var styleJSON string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, dataset_id, name, style_json, is_default, created_by, created_at, updated_at
		 FROM layer_styles WHERE id = ?`, id).
		Scan(&s.ID, &s.DatasetID, &s.Name, &styleJSON, &s.IsDefault, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying style: %w", err)
	}
	s.Style = []byte(styleJSON)
	return s, nil
}

// StylesByDataset lists a dataset's styles, the default first, then
// newest first.
func (db *DB) StylesByDataset(ctx context.Context, datasetID string) ([]models.Style, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, dataset_id, name, style_json, is_default, created_by, created_at, updated_at
		 FROM layer_styles WHERE dataset_id = ?
		 ORDER BY is_default DESC, created_at DESC`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("listing styles: %w", err)
	}
	defer rows.Close()

	styles := []models.Style{}
	for rows.Next() {
		var s models.Style
		var styleJSON string
		if err := rows.Scan(&s.ID, &s.DatasetID, &s.Name, &styleJSON, &s.IsDefault,
			&s.CreatedBy, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning style: %w", err)
		}
		s.Style = []byte(styleJSON)
		styles = append(styles, s)
	}
	return styles, rows.Err()
}

// UpdateStyle applies a partial update.
func (db *DB) UpdateStyle(ctx context.Context, id string, upd store.StyleUpdate) error {
	set := []string{}
	args := []interface{}{}
	if upd.Name != nil {
		set = append(set, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.StyleJSON != nil {
		set = append(set, "style_json = ?")
		args = append(args, *upd.StyleJSON)
	}
	if upd.IsDefault != nil {
		set = append(set, "is_default = ?")
		args = append(args, *upd.IsDefault)
	}
	if len(set) == 0 {
		return nil
	}
	set = append(set, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	res, err := db.conn.ExecContext(ctx,
		`UPDATE layer_styles SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("updating style: %w", err)
	}
	return requireRow(res)
}

// DeleteStyle removes a style.
func (db *DB) DeleteStyle(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM layer_styles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting style: %w", err)
	}
	return requireRow(res)
}

// ClearDefaultStyle unsets is_default on every style of the dataset.
func (db *DB) ClearDefaultStyle(ctx context.Context, datasetID string) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE layer_styles SET is_default = FALSE WHERE dataset_id = ?`, datasetID)
	if err != nil {
		return fmt.Errorf("clearing default style: %w", err)
	}
	return nil
}
