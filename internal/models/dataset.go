// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

package models

import "time"

// Dataset types. Only geojson payloads are parsed into features; csv and
// shp uploads are stored as opaque blobs.
const (
	DatasetTypeGeoJSON = "geojson"
	DatasetTypeCSV     = "csv"
	DatasetTypeSHP     = "shp"
)

// ValidDatasetType reports whether s names a supported upload type.
func ValidDatasetType(s string) bool {
	switch s {
	case DatasetTypeGeoJSON, DatasetTypeCSV, DatasetTypeSHP:
		return true
	}
	return false
}

// Dataset statuses.
const (
	DatasetStatusActive     = "active"
	DatasetStatusInactive   = "inactive"
	DatasetStatusProcessing = "processing"
)

// Dataset is an uploaded collection of geographic data.
//
// RecordCount reflects the feature count of the uploaded payload, which
// can exceed the number of stored features when ingestion truncates.
type Dataset struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	RecordCount int       `json:"record_count"`
	StorageKey  string    `json:"storage_key,omitempty"`
	SchemaJSON  string    `json:"schema_json,omitempty"`
	Status      string    `json:"status"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DatasetSummary aggregates a dataset's stored features for the export
// summary endpoint.
type DatasetSummary struct {
	FeatureCount  int            `json:"featureCount"`
	GeometryTypes map[string]int `json:"geometryTypes"`
	BBox          *BBox          `json:"bbox"`
}
