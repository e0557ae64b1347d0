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
	"time"

	"github.com/choiwjun/gis/internal/models"
	"github.com/choiwjun/gis/internal/store"
)

// CreateDataset inserts a dataset row.
func (db *DB) CreateDataset(ctx context.Context, d *models.Dataset) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO datasets
		 (id, name, type, record_count, storage_key, schema_json, status, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Name, d.Type, d.RecordCount, nullable(d.StorageKey), nullable(d.SchemaJSON),
		d.Status, d.CreatedBy, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting dataset: %w", err)
	}
	return nil
}

// Dataset returns a dataset by id.
func (db *DB) Dataset(ctx context.Context, id string) (*models.Dataset, error) {
	d := &models.Dataset{}
	var storageKey, schemaJSON sql.NullString
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, type, record_count, storage_key, schema_json, status, created_by, created_at, updated_at
		 FROM datasets WHERE id = ?`, id).
		Scan(&d.ID, &d.Name, &d.Type, &d.RecordCount, &storageKey, &schemaJSON,
			&d.Status, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying dataset: %w", err)
	}
	d.StorageKey = storageKey.String
	d.SchemaJSON = schemaJSON.String
	return d, nil
}

// ListDatasets returns a page of datasets, newest first, optionally
// filtered by type.
func (db *DB) ListDatasets(ctx context.Context, page, pageSize int, typ string) ([]models.Dataset, int, error) {
	where := ""
	countArgs := []interface{}{}
	if typ != "" {
		where = " WHERE type = ?"
		countArgs = append(countArgs, typ)
	}

	var total int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM datasets`+where, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting datasets: %w", err)
	}

	if page < 1 {
		page = 1
	}
	args := append(countArgs, pageSize, (page-1)*pageSize)
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, type, record_count, storage_key, schema_json, status, created_by, created_at, updated_at
		 FROM datasets`+where+` ORDER BY created_at DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing datasets: %w", err)
	}
	defer rows.Close()

	datasets := []models.Dataset{}
	for rows.Next() {
		var d models.Dataset
		var storageKey, schemaJSON sql.NullString
		if err := rows.Scan(&d.ID, &d.Name, &d.Type, &d.RecordCount, &storageKey, &schemaJSON,
			&d.Status, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning dataset: %w", err)
		}
		d.StorageKey = storageKey.String
		d.SchemaJSON = schemaJSON.String
		datasets = append(datasets, d)
	}
	return datasets, total, rows.Err()
}

// DeleteDataset removes the dataset with its features and styles in one
// transaction.
func (db *DB) DeleteDataset(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM features WHERE dataset_id = ?`, id); err != nil {
		return fmt.Errorf("deleting features: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM layer_styles WHERE dataset_id = ?`, id); err != nil {
		return fmt.Errorf("deleting styles: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting dataset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return tx.Commit()
}

// AdjustRecordCount applies the delta as a single statement, keeping
// concurrent feature edits from losing increments.
func (db *DB) AdjustRecordCount(ctx context.Context, id string, delta int) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE datasets SET record_count = record_count + ?, updated_at = ? WHERE id = ?`,
		delta, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("adjusting record count: %w", err)
	}
	return requireRow(res)
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
