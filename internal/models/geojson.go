// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

package models

// GeoJSON output types for query and export responses. Coordinates is
// deliberately loose: reconstructed geometries are always points, but a
// feature without a stored bbox serializes with null coordinate parts.
type GeoJSONGeometry struct {
	Type        string      `json:"type"`
	Coordinates interface{} `json:"coordinates"`
}

// GeoJSONFeature is a single feature in a response collection.
type GeoJSONFeature struct {
	Type       string                 `json:"type"`
	ID         string                 `json:"id,omitempty"`
	Geometry   GeoJSONGeometry       `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// FeatureCollection is the standard GeoJSON container.
type FeatureCollection struct {
	Type     string           `json:"type"`
	Features []GeoJSONFeature `json:"features"`
}

// NewFeatureCollection wraps features in a collection, normalizing a nil
// slice to an empty one so the JSON is always an array.
func NewFeatureCollection(features []GeoJSONFeature) FeatureCollection {
	if features == nil {
		features = []GeoJSONFeature{}
	}
	return FeatureCollection{Type: "FeatureCollection", Features: features}
}
