// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

package models

// BBox is an axis-aligned bounding box in WGS84 degrees.
// The four coordinates are stored and dropped as a unit: a feature either
// has a complete box or none at all.
type BBox struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// Intersects reports whether the two boxes overlap. Edge contact counts:
// all comparisons are inclusive.
func (b BBox) Intersects(q BBox) bool {
	return b.MaxLon >= q.MinLon && b.MinLon <= q.MaxLon &&
		b.MaxLat >= q.MinLat && b.MinLat <= q.MaxLat
}

// Within reports whether b lies entirely inside q (inclusive).
func (b BBox) Within(q BBox) bool {
	return b.MinLon >= q.MinLon && b.MaxLon <= q.MaxLon &&
		b.MinLat >= q.MinLat && b.MaxLat <= q.MaxLat
}

// Center returns the midpoint of the box.
func (b BBox) Center() (lon, lat float64) {
	return (b.MinLon + b.MaxLon) / 2, (b.MinLat + b.MaxLat) / 2
}

// Extend grows the box to cover o.
func (b BBox) Extend(o BBox) BBox {
	if o.MinLon < b.MinLon {
		b.MinLon = o.MinLon
	}
	if o.MinLat < b.MinLat {
		b.MinLat = o.MinLat
	}
	if o.MaxLon > b.MaxLon {
		b.MaxLon = o.MaxLon
	}
	if o.MaxLat > b.MaxLat {
		b.MaxLat = o.MaxLat
	}
	return b
}
