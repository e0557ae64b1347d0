// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

// Package geometry reduces GeoJSON geometries to the bounding boxes the
// feature store indexes. Points and LineStrings are the only indexed
// types; everything else is stored with a nil box and is invisible to
// spatial predicates.
package geometry

import (
	"github.com/paulmach/orb"
	geojson "github.com/paulmach/orb/geojson"

	"github.com/choiwjun/gis/internal/models"
)

// ComputeBBox reduces a geometry to its bounding box.
//
// Point collapses to a zero-area box (min == max). LineString spans the
// min/max of its vertices. Any other type, including the Multi* variants
// and GeometryCollection, returns nil. A nil result is not an error.
func ComputeBBox(g orb.Geometry) *models.BBox {
	switch geom := g.(type) {
	case orb.Point:
		return &models.BBox{
			MinLon: geom.Lon(),
			MinLat: geom.Lat(),
			MaxLon: geom.Lon(),
			MaxLat: geom.Lat(),
		}
	case orb.LineString:
		if len(geom) == 0 {
			return nil
		}
		box := models.BBox{
			MinLon: geom[0].Lon(),
			MinLat: geom[0].Lat(),
			MaxLon: geom[0].Lon(),
			MaxLat: geom[0].Lat(),
		}
		for _, p := range geom[1:] {
			if p.Lon() < box.MinLon {
				box.MinLon = p.Lon()
			}
			if p.Lon() > box.MaxLon {
				box.MaxLon = p.Lon()
			}
			if p.Lat() < box.MinLat {
				box.MinLat = p.Lat()
			}
			if p.Lat() > box.MaxLat {
				box.MaxLat = p.Lat()
			}
		}
		return &box
	default:
		return nil
	}
}

// ParseGeometry decodes a raw GeoJSON geometry object.
func ParseGeometry(data []byte) (orb.Geometry, error) {
	g := &geojson.Geometry{}
	if err := g.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return g.Geometry(), nil
}

// TypeName returns the GeoJSON type name of a geometry.
func TypeName(g orb.Geometry) string {
	if g == nil {
		return ""
	}
	return g.GeoJSONType()
}
