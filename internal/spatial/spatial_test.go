// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

package spatial

import (
	"context"
	"testing"
	"time"

	"github.com/choiwjun/gis/internal/models"
	"github.com/choiwjun/gis/internal/store/memory"
)

func newEngine(t *testing.T) (*Engine, *memory.Store) {
	t.Helper()
	st := memory.New()
	now := time.Now().UTC()
	err := st.CreateDataset(context.Background(), &models.Dataset{
		ID: "ds1", Name: "test", Type: models.DatasetTypeGeoJSON,
		Status: models.DatasetStatusActive, CreatedBy: "u1",
		CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateDataset() error = %v", err)
	}
	return New(st, 2000, 100), st
}

func insert(t *testing.T, st *memory.Store, f models.Feature) {
	t.Helper()
	f.CreatedAt = time.Now().UTC()
	if f.Properties == "" {
		f.Properties = "{}"
	}
	f.DatasetID = "ds1"
	if err := st.InsertFeature(context.Background(), &f); err != nil {
		t.Fatalf("InsertFeature() error = %v", err)
	}
}

func TestParseBBox(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  *models.BBox
	}{
		{"valid", "139,35,140,36", &models.BBox{MinLon: 139, MinLat: 35, MaxLon: 140, MaxLat: 36}},
		{"spaces", " 139 ,35, 140 ,36", &models.BBox{MinLon: 139, MinLat: 35, MaxLon: 140, MaxLat: 36}},
		{"too few parts", "139,35,140", nil},
		{"not numeric", "139,35,abc,36", nil},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseBBox(tt.input)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("ParseBBox(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("ParseBBox(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestMapData_TokyoStation(t *testing.T) {
	t.Parallel()

	engine, st := newEngine(t)
	insert(t, st, models.Feature{
		ID:           "tokyo",
		GeometryType: models.GeometryPoint,
		BBox:         &models.BBox{MinLon: 139.7671, MinLat: 35.6812, MaxLon: 139.7671, MaxLat: 35.6812},
		Properties:   `{"name":"東京駅"}`,
	})

	ctx := context.Background()

	hit, err := engine.MapData(ctx, "ds1", ParseBBox("139,35,140,36"), 0)
	if err != nil {
		t.Fatalf("MapData() error = %v", err)
	}
	if len(hit.Features) != 1 {
		t.Fatalf("box 139,35,140,36 returned %d features, want 1", len(hit.Features))
	}
	coords, ok := hit.Features[0].Geometry.Coordinates.([]float64)
	if !ok || coords[0] != 139.7671 || coords[1] != 35.6812 {
		t.Errorf("coordinates = %v, want [139.7671 35.6812]", hit.Features[0].Geometry.Coordinates)
	}

	miss, err := engine.MapData(ctx, "ds1", ParseBBox("0,0,1,1"), 0)
	if err != nil {
		t.Fatalf("MapData() error = %v", err)
	}
	if len(miss.Features) != 0 {
		t.Errorf("box 0,0,1,1 returned %d features, want 0", len(miss.Features))
	}
}

func TestMapData_CenterReconstruction(t *testing.T) {
	t.Parallel()

	engine, st := newEngine(t)
	insert(t, st, models.Feature{
		ID:           "line",
		GeometryType: models.GeometryLineString,
		BBox:         &models.BBox{MinLon: 139.70, MinLat: 35.64, MaxLon: 139.76, MaxLat: 35.70},
	})

	got, err := engine.MapData(context.Background(), "ds1", nil, 0)
	if err != nil {
		t.Fatalf("MapData() error = %v", err)
	}
	if len(got.Features) != 1 {
		t.Fatalf("got %d features, want 1", len(got.Features))
	}

	g := got.Features[0].Geometry
	if g.Type != models.GeometryLineString {
		t.Errorf("geometry type = %s, want the stored LineString", g.Type)
	}
	coords := g.Coordinates.([]float64)
	if coords[0] != 139.73 || coords[1] != 35.67 {
		t.Errorf("coordinates = %v, want the box center [139.73 35.67]", coords)
	}
}

func TestMapData_MalformedBBoxStringMeansNoFilter(t *testing.T) {
	t.Parallel()

	engine, st := newEngine(t)
	insert(t, st, models.Feature{
		ID:           "far",
		GeometryType: models.GeometryPoint,
		BBox:         &models.BBox{MinLon: 10, MinLat: 10, MaxLon: 10, MaxLat: 10},
	})

	// The handler passes nil for a malformed bbox string; the scan is
	// then unfiltered.
	got, err := engine.MapData(context.Background(), "ds1", ParseBBox("garbage"), 0)
	if err != nil {
		t.Fatalf("MapData() error = %v", err)
	}
	if len(got.Features) != 1 {
		t.Errorf("unfiltered scan returned %d features, want 1", len(got.Features))
	}
}

func TestNearby_CenterHitAndOrdering(t *testing.T) {
	t.Parallel()

	engine, st := newEngine(t)
	insert(t, st, models.Feature{
		ID:           "center",
		GeometryType: models.GeometryPoint,
		BBox:         &models.BBox{MinLon: 139.7671, MinLat: 35.6812, MaxLon: 139.7671, MaxLat: 35.6812},
	})
	insert(t, st, models.Feature{
		ID:           "near",
		GeometryType: models.GeometryPoint,
		BBox:         &models.BBox{MinLon: 139.7700, MinLat: 35.6812, MaxLon: 139.7700, MaxLat: 35.6812},
	})
	insert(t, st, models.Feature{
		ID:           "faraway",
		GeometryType: models.GeometryPoint,
		BBox:         &models.BBox{MinLon: 139.9, MinLat: 35.9, MaxLon: 139.9, MaxLat: 35.9},
	})

	got, err := engine.Nearby(context.Background(), "ds1", 35.6812, 139.7671, 1000)
	if err != nil {
		t.Fatalf("Nearby() error = %v", err)
	}
	if len(got.Features) != 2 {
		t.Fatalf("got %d features, want 2", len(got.Features))
	}

	if got.Features[0].ID != "center" {
		t.Errorf("closest feature = %s, want center", got.Features[0].ID)
	}
	d, ok := got.Features[0].Properties["_distance"].(float64)
	if !ok {
		t.Fatalf("_distance missing: %v", got.Features[0].Properties)
	}
	if d != 0 {
		t.Errorf("_distance at query point = %v, want 0", d)
	}

	d1 := got.Features[1].Properties["_distance"].(float64)
	if d1 <= 0 || d1 > 1000 {
		t.Errorf("second _distance = %v, want within (0, 1000]", d1)
	}
}

func TestHaversine_KnownDistance(t *testing.T) {
	t.Parallel()

	// Tokyo Station to Shibuya Station is roughly 6.5 km.
	d := Haversine(35.6812, 139.7671, 35.6580, 139.7016)
	if d < 6000 || d > 7000 {
		t.Errorf("Haversine() = %v m, want about 6500 m", d)
	}
}

func TestFeatureToGeoJSON_NilBox(t *testing.T) {
	t.Parallel()

	// A boxless non-Point on the center path collapses to [0,0]; the
	// corner paths serialize null coordinate parts.
	area := &models.Feature{
		ID: "f1", GeometryType: models.GeometryPolygon, Properties: `{"name":"area"}`,
	}
	gf := FeatureToGeoJSON(area, true)
	if gf.Geometry.Type != models.GeometryPolygon {
		t.Errorf("geometry type = %s, want Polygon", gf.Geometry.Type)
	}
	zeroes, ok := gf.Geometry.Coordinates.([]float64)
	if !ok || len(zeroes) != 2 || zeroes[0] != 0 || zeroes[1] != 0 {
		t.Errorf("center-mode coordinates = %v, want [0 0]", gf.Geometry.Coordinates)
	}
	if gf.Properties["name"] != "area" {
		t.Errorf("properties = %v", gf.Properties)
	}

	gf = FeatureToGeoJSON(area, false)
	nulls, ok := gf.Geometry.Coordinates.([]interface{})
	if !ok || len(nulls) != 2 || nulls[0] != nil || nulls[1] != nil {
		t.Errorf("corner-mode coordinates = %v, want [null null]", gf.Geometry.Coordinates)
	}

	point := &models.Feature{ID: "f2", GeometryType: models.GeometryPoint}
	gf = FeatureToGeoJSON(point, true)
	nulls, ok = gf.Geometry.Coordinates.([]interface{})
	if !ok || len(nulls) != 2 || nulls[0] != nil || nulls[1] != nil {
		t.Errorf("boxless Point coordinates = %v, want [null null]", gf.Geometry.Coordinates)
	}
}

func TestNearby_SameRoundedMeterKeepsStorageOrder(t *testing.T) {
	t.Parallel()

	engine, st := newEngine(t)
	// Both points sit about five meters east of the query point on the
	// equator. "first" is fractionally farther but rounds to the same
	// meter, so storage order decides.
	insert(t, st, models.Feature{
		ID:           "first",
		GeometryType: models.GeometryPoint,
		BBox:         &models.BBox{MinLon: 0.0000450, MinLat: 0, MaxLon: 0.0000450, MaxLat: 0},
	})
	insert(t, st, models.Feature{
		ID:           "second",
		GeometryType: models.GeometryPoint,
		BBox:         &models.BBox{MinLon: 0.0000448, MinLat: 0, MaxLon: 0.0000448, MaxLat: 0},
	})

	got, err := engine.Nearby(context.Background(), "ds1", 0, 0, 100)
	if err != nil {
		t.Fatalf("Nearby() error = %v", err)
	}
	if len(got.Features) != 2 {
		t.Fatalf("got %d features, want 2", len(got.Features))
	}
	d0 := got.Features[0].Properties["_distance"].(float64)
	d1 := got.Features[1].Properties["_distance"].(float64)
	if d0 != d1 {
		t.Fatalf("_distance = %v and %v, want equal rounded meters", d0, d1)
	}
	if got.Features[0].ID != "first" || got.Features[1].ID != "second" {
		t.Errorf("order = [%s %s], want storage order [first second]",
			got.Features[0].ID, got.Features[1].ID)
	}
}

func TestNearby_UsesContainmentPrefilter(t *testing.T) {
	t.Parallel()

	engine, st := newEngine(t)
	// A long line whose box overlaps the prefilter window but is not
	// contained in it never becomes a candidate.
	insert(t, st, models.Feature{
		ID:           "longline",
		GeometryType: models.GeometryLineString,
		BBox:         &models.BBox{MinLon: 139.0, MinLat: 35.0, MaxLon: 140.0, MaxLat: 36.0},
	})

	got, err := engine.Nearby(context.Background(), "ds1", 35.6812, 139.7671, 1000)
	if err != nil {
		t.Fatalf("Nearby() error = %v", err)
	}
	if len(got.Features) != 0 {
		t.Errorf("got %d features, want 0: prefilter requires containment", len(got.Features))
	}
}
