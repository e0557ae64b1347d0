// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

// Package spatial answers bounding-box and radius queries over stored
// feature boxes. Responses keep the stored geometry type but carry
// degraded point coordinates: the stored min corner for Points, the box
// center for everything else. The original shapes are not recoverable
// from boxes; that loss is part of the data model.
package spatial

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/choiwjun/gis/internal/models"
	"github.com/choiwjun/gis/internal/store"
)

const (
	// metersPerDegree approximates one degree of latitude.
	metersPerDegree = 111000.0

	// earthRadiusMeters is the Haversine sphere radius.
	earthRadiusMeters = 6371000.0
)

// Engine runs spatial queries against a feature store.
type Engine struct {
	store          store.FeatureStore
	mapLimit       int
	candidateLimit int
}

// New creates an engine. mapLimit caps bbox query results,
// candidateLimit caps the nearby prefilter.
func New(st store.FeatureStore, mapLimit, candidateLimit int) *Engine {
	return &Engine{store: st, mapLimit: mapLimit, candidateLimit: candidateLimit}
}

// ParseBBox parses "minLon,minLat,maxLon,maxLat". A malformed string
// returns nil, which callers treat as no filter.
func ParseBBox(s string) *models.BBox {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil
		}
		vals[i] = v
	}
	return &models.BBox{MinLon: vals[0], MinLat: vals[1], MaxLon: vals[2], MaxLat: vals[3]}
}

// BBoxFromParts builds a box from four separate string params; any
// missing or malformed part yields nil.
func BBoxFromParts(minLon, minLat, maxLon, maxLat string) *models.BBox {
	parts := []string{minLon, minLat, maxLon, maxLat}
	vals := make([]float64, 4)
	for i, p := range parts {
		if p == "" {
			return nil
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil
		}
		vals[i] = v
	}
	return &models.BBox{MinLon: vals[0], MinLat: vals[1], MaxLon: vals[2], MaxLat: vals[3]}
}

// MapData returns the dataset's features, optionally filtered by an
// overlapping box. Features without a stored box only appear in
// unfiltered scans.
func (e *Engine) MapData(ctx context.Context, datasetID string, box *models.BBox, limit int) (models.FeatureCollection, error) {
	if limit <= 0 || limit > e.mapLimit {
		limit = e.mapLimit
	}
	features, err := e.store.FeaturesByDataset(ctx, datasetID, store.FeatureFilter{
		BBox:  box,
		Limit: limit,
	})
	if err != nil {
		return models.FeatureCollection{}, err
	}

	out := make([]models.GeoJSONFeature, 0, len(features))
	for i := range features {
		out = append(out, FeatureToGeoJSON(&features[i], true))
	}
	return models.NewFeatureCollection(out), nil
}

// Nearby returns features within radius meters of (lat, lon), closest
// first, with a rounded _distance property in meters.
//
// Candidates come from a flat-earth degree box that must fully contain
// the feature box, capped at the candidate limit, then re-filtered by
// Haversine distance to the stored min corner.
func (e *Engine) Nearby(ctx context.Context, datasetID string, lat, lon, radius float64) (models.FeatureCollection, error) {
	latDelta := radius / metersPerDegree
	lonDelta := radius / (metersPerDegree * math.Cos(lat*math.Pi/180))

	candidates, err := e.store.FeaturesByDataset(ctx, datasetID, store.FeatureFilter{
		Within: &models.BBox{
			MinLon: lon - lonDelta,
			MinLat: lat - latDelta,
			MaxLon: lon + lonDelta,
			MaxLat: lat + latDelta,
		},
		Limit: e.candidateLimit,
	})
	if err != nil {
		return models.FeatureCollection{}, err
	}

	type hit struct {
		feature  models.GeoJSONFeature
		distance float64
	}
	hits := []hit{}
	for i := range candidates {
		f := &candidates[i]
		if f.BBox == nil {
			continue
		}
		d := Haversine(lat, lon, f.BBox.MinLat, f.BBox.MinLon)
		if d > radius {
			continue
		}
		gf := FeatureToGeoJSON(f, false)
		rounded := math.Round(d)
		gf.Properties["_distance"] = rounded
		hits = append(hits, hit{feature: gf, distance: rounded})
	}

	// Ordering follows the reported _distance, so features within the
	// same rounded meter keep storage order.
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].distance < hits[j].distance })

	out := make([]models.GeoJSONFeature, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.feature)
	}
	return models.NewFeatureCollection(out), nil
}

// Haversine returns the great-circle distance in meters between two
// WGS84 coordinates.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// FeatureToGeoJSON reconstructs a stored feature as GeoJSON. The
// geometry keeps its stored type, but the coordinates are a degraded
// point: with centerNonPoint, non-Point geometries map to the box
// center, otherwise every geometry maps to the stored min corner.
//
// A feature without a box serializes null coordinate parts on the
// corner paths and for Points; a non-Point feature on the center path
// collapses to [0,0].
func FeatureToGeoJSON(f *models.Feature, centerNonPoint bool) models.GeoJSONFeature {
	props := map[string]interface{}{}
	if f.Properties != "" {
		_ = json.Unmarshal([]byte(f.Properties), &props)
	}

	corner := f.GeometryType == models.GeometryPoint || !centerNonPoint

	var coords interface{}
	switch {
	case f.BBox == nil && corner:
		coords = []interface{}{nil, nil}
	case f.BBox == nil:
		coords = []float64{0, 0}
	case corner:
		coords = []float64{f.BBox.MinLon, f.BBox.MinLat}
	default:
		lon, lat := f.BBox.Center()
		coords = []float64{lon, lat}
	}

	return models.GeoJSONFeature{
		Type:       "Feature",
		ID:         f.ID,
		Geometry:   models.GeoJSONGeometry{Type: f.GeometryType, Coordinates: coords},
		Properties: props,
	}
}
