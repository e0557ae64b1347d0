// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

package models

import "time"

// Geometry type names as they appear in GeoJSON.
const (
	GeometryPoint           = "Point"
	GeometryLineString      = "LineString"
	GeometryPolygon         = "Polygon"
	GeometryMultiPoint      = "MultiPoint"
	GeometryMultiLineString = "MultiLineString"
	GeometryMultiPolygon    = "MultiPolygon"
)

// Feature is a stored geographic feature. Only the bounding box of the
// original geometry is kept; BBox is nil for geometry types the reducer
// does not index, and such features never match a spatial predicate.
type Feature struct {
	ID           string    `json:"id"`
	DatasetID    string    `json:"dataset_id"`
	GeometryType string    `json:"geometry_type"`
	BBox         *BBox     `json:"bbox"`
	Properties   string    `json:"properties_json"`
	CreatedAt    time.Time `json:"created_at"`
}
