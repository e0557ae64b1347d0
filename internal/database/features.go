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

	"github.com/choiwjun/gis/internal/models"
	"github.com/choiwjun/gis/internal/store"
)

const featureColumns = `id, dataset_id, geometry_type, min_lon, min_lat, max_lon, max_lat, properties_json, created_at`

// InsertFeature stores a single feature.
func (db *DB) InsertFeature(ctx context.Context, f *models.Feature) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO features
		 (id, dataset_id, geometry_type, min_lon, min_lat, max_lon, max_lat, properties_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		featureArgs(f)...)
	if err != nil {
		return fmt.Errorf("inserting feature: %w", err)
	}
	return nil
}

// InsertFeatures stores a batch in one transaction, preserving slice
// order as storage order.
func (db *DB) InsertFeatures(ctx context.Context, fs []models.Feature) error {
	if len(fs) == 0 {
		return nil
	}
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO features
		 (id, dataset_id, geometry_type, min_lon, min_lat, max_lon, max_lat, properties_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i := range fs {
		if _, err := stmt.ExecContext(ctx, featureArgs(&fs[i])...); err != nil {
			return fmt.Errorf("inserting feature %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func featureArgs(f *models.Feature) []interface{} {
	var minLon, minLat, maxLon, maxLat interface{}
	if f.BBox != nil {
		minLon, minLat = f.BBox.MinLon, f.BBox.MinLat
		maxLon, maxLat = f.BBox.MaxLon, f.BBox.MaxLat
	}
	return []interface{}{
		f.ID, f.DatasetID, f.GeometryType, minLon, minLat, maxLon, maxLat,
		f.Properties, f.CreatedAt,
	}
}

// Feature returns a feature by id.
func (db *DB) Feature(ctx context.Context, id string) (*models.Feature, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+featureColumns+` FROM features WHERE id = ?`, id)
	f, err := scanFeature(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying feature: %w", err)
	}
	return f, nil
}

// FeaturesByDataset scans a dataset's features in storage order,
// applying the filter in SQL. Bbox predicates skip rows with NULL box
// columns because the comparisons evaluate to NULL.
func (db *DB) FeaturesByDataset(ctx context.Context, datasetID string, filter store.FeatureFilter) ([]models.Feature, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + featureColumns + ` FROM features WHERE dataset_id = ?`)
	args := []interface{}{datasetID}

	if filter.BBox != nil {
		sb.WriteString(` AND max_lon >= ? AND min_lon <= ? AND max_lat >= ? AND min_lat <= ?`)
		args = append(args, filter.BBox.MinLon, filter.BBox.MaxLon, filter.BBox.MinLat, filter.BBox.MaxLat)
	}
	if filter.Within != nil {
		sb.WriteString(` AND min_lon >= ? AND max_lon <= ? AND min_lat >= ? AND max_lat <= ?`)
		args = append(args, filter.Within.MinLon, filter.Within.MaxLon, filter.Within.MinLat, filter.Within.MaxLat)
	}
	if filter.Query != "" {
		sb.WriteString(` AND properties_json LIKE ?`)
		args = append(args, "%"+filter.Query+"%")
	}
	if filter.Category != "" {
		sb.WriteString(` AND properties_json LIKE ?`)
		args = append(args, fmt.Sprintf(`%%"category":"%s"%%`, filter.Category))
	}
	if filter.MinScore != nil {
		sb.WriteString(` AND TRY_CAST(json_extract_string(properties_json, '$.score') AS INTEGER) >= ?`)
		args = append(args, *filter.MinScore)
	}
	if filter.MaxScore != nil {
		sb.WriteString(` AND TRY_CAST(json_extract_string(properties_json, '$.score') AS INTEGER) <= ?`)
		args = append(args, *filter.MaxScore)
	}

	sb.WriteString(` ORDER BY seq`)
	if filter.Limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, filter.Limit)
	}

	rows, err := db.conn.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("scanning features: %w", err)
	}
	defer rows.Close()

	features := []models.Feature{}
	for rows.Next() {
		f, err := scanFeature(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning feature: %w", err)
		}
		features = append(features, *f)
	}
	return features, rows.Err()
}

// UpdateFeature applies a partial update. A geometry update replaces
// type and box together; a nil box clears the stored coordinates.
func (db *DB) UpdateFeature(ctx context.Context, id string, upd store.FeatureUpdate) error {
	set := []string{}
	args := []interface{}{}
	if upd.Geometry != nil {
		set = append(set, "geometry_type = ?", "min_lon = ?", "min_lat = ?", "max_lon = ?", "max_lat = ?")
		var minLon, minLat, maxLon, maxLat interface{}
		if upd.Geometry.BBox != nil {
			minLon, minLat = upd.Geometry.BBox.MinLon, upd.Geometry.BBox.MinLat
			maxLon, maxLat = upd.Geometry.BBox.MaxLon, upd.Geometry.BBox.MaxLat
		}
		args = append(args, upd.Geometry.Type, minLon, minLat, maxLon, maxLat)
	}
	if upd.Properties != nil {
		set = append(set, "properties_json = ?")
		args = append(args, *upd.Properties)
	}
	if len(set) == 0 {
		return nil
	}
	args = append(args, id)

	res, err := db.conn.ExecContext(ctx,
		`UPDATE features SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("updating feature: %w", err)
	}
	return requireRow(res)
}

// DeleteFeature removes the feature and returns its dataset id so the
// caller can adjust the record count.
func (db *DB) DeleteFeature(ctx context.Context, id string) (string, error) {
	var datasetID string
	err := db.conn.QueryRowContext(ctx,
		`SELECT dataset_id FROM features WHERE id = ?`, id).Scan(&datasetID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("querying feature: %w", err)
	}
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM features WHERE id = ?`, id); err != nil {
		return "", fmt.Errorf("deleting feature: %w", err)
	}
	return datasetID, nil
}

// DatasetSummary aggregates geometry-type counts and the union box of
// all indexed features.
func (db *DB) DatasetSummary(ctx context.Context, datasetID string) (*models.DatasetSummary, error) {
	summary := &models.DatasetSummary{GeometryTypes: map[string]int{}}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT geometry_type, COUNT(*) FROM features WHERE dataset_id = ? GROUP BY geometry_type`,
		datasetID)
	if err != nil {
		return nil, fmt.Errorf("aggregating geometry types: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var typ string
		var count int
		if err := rows.Scan(&typ, &count); err != nil {
			return nil, fmt.Errorf("scanning aggregate: %w", err)
		}
		summary.GeometryTypes[typ] = count
		summary.FeatureCount += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var minLon, minLat, maxLon, maxLat sql.NullFloat64
	err = db.conn.QueryRowContext(ctx,
		`SELECT MIN(min_lon), MIN(min_lat), MAX(max_lon), MAX(max_lat)
		 FROM features WHERE dataset_id = ?`, datasetID).
		Scan(&minLon, &minLat, &maxLon, &maxLat)
	if err != nil {
		return nil, fmt.Errorf("aggregating bbox: %w", err)
	}
	if minLon.Valid && minLat.Valid && maxLon.Valid && maxLat.Valid {
		summary.BBox = &models.BBox{
			MinLon: minLon.Float64,
			MinLat: minLat.Float64,
			MaxLon: maxLon.Float64,
			MaxLat: maxLat.Float64,
		}
	}
	return summary, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFeature(row rowScanner) (*models.Feature, error) {
	f := &models.Feature{}
	var minLon, minLat, maxLon, maxLat sql.NullFloat64
	err := row.Scan(&f.ID, &f.DatasetID, &f.GeometryType,
		&minLon, &minLat, &maxLon, &maxLat, &f.Properties, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	if minLon.Valid && minLat.Valid && maxLon.Valid && maxLat.Valid {
		f.BBox = &models.BBox{
			MinLon: minLon.Float64,
			MinLat: minLat.Float64,
			MaxLon: maxLon.Float64,
			MaxLat: maxLat.Float64,
		}
	}
	return f, nil
}
