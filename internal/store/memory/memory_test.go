// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/choiwjun/gis/internal/models"
	"github.com/choiwjun/gis/internal/store"
)

func seedDataset(t *testing.T, s *Store, id string) {
	t.Helper()
	now := time.Now().UTC()
	err := s.CreateDataset(context.Background(), &models.Dataset{
		ID: id, Name: id, Type: models.DatasetTypeGeoJSON,
		Status: models.DatasetStatusActive, CreatedBy: "u1",
		CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateDataset() error = %v", err)
	}
}

func pointFeature(id, datasetID string, lon, lat float64, props string) models.Feature {
	return models.Feature{
		ID: id, DatasetID: datasetID,
		GeometryType: models.GeometryPoint,
		BBox:         &models.BBox{MinLon: lon, MinLat: lat, MaxLon: lon, MaxLat: lat},
		Properties:   props,
		CreatedAt:    time.Now().UTC(),
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	u := &models.UserWithPassword{
		User:         models.User{ID: "u1", Email: "a@example.com", Name: "A", Role: models.RoleViewer},
		PasswordHash: "x",
	}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	dup := &models.UserWithPassword{
		User:         models.User{ID: "u2", Email: "a@example.com", Name: "B", Role: models.RoleViewer},
		PasswordHash: "y",
	}
	if err := s.CreateUser(ctx, dup); !errors.Is(err, store.ErrConflict) {
		t.Errorf("duplicate email error = %v, want ErrConflict", err)
	}
}

func TestAdjustRecordCount_Concurrent(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	seedDataset(t, s, "ds1")

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.AdjustRecordCount(ctx, "ds1", 1); err != nil {
				t.Errorf("AdjustRecordCount() error = %v", err)
			}
		}()
	}
	wg.Wait()

	d, err := s.Dataset(ctx, "ds1")
	if err != nil {
		t.Fatalf("Dataset() error = %v", err)
	}
	if d.RecordCount != 100 {
		t.Errorf("record_count = %d, want 100 (lost updates)", d.RecordCount)
	}
}

func TestFeaturesByDataset_BBoxFilter(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	seedDataset(t, s, "ds1")

	features := []models.Feature{
		pointFeature("in", "ds1", 139.7671, 35.6812, `{"name":"tokyo"}`),
		pointFeature("edge", "ds1", 140, 36, `{"name":"edge"}`),
		pointFeature("out", "ds1", 10, 10, `{"name":"far"}`),
		{
			ID: "noindex", DatasetID: "ds1",
			GeometryType: models.GeometryPolygon,
			Properties:   `{"name":"polygon"}`,
			CreatedAt:    time.Now().UTC(),
		},
	}
	if err := s.InsertFeatures(ctx, features); err != nil {
		t.Fatalf("InsertFeatures() error = %v", err)
	}

	box := &models.BBox{MinLon: 139, MinLat: 35, MaxLon: 140, MaxLat: 36}
	got, err := s.FeaturesByDataset(ctx, "ds1", store.FeatureFilter{BBox: box})
	if err != nil {
		t.Fatalf("FeaturesByDataset() error = %v", err)
	}

	ids := map[string]bool{}
	for _, f := range got {
		ids[f.ID] = true
	}
	if !ids["in"] {
		t.Error("point inside the box missing")
	}
	if !ids["edge"] {
		t.Error("edge-touching point missing: overlap must be inclusive")
	}
	if ids["out"] {
		t.Error("point outside the box returned")
	}
	if ids["noindex"] {
		t.Error("feature without a box matched a bbox filter")
	}

	// Unfiltered scan includes the unindexed feature, in storage order.
	all, err := s.FeaturesByDataset(ctx, "ds1", store.FeatureFilter{})
	if err != nil {
		t.Fatalf("FeaturesByDataset() error = %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("unfiltered scan returned %d features, want 4", len(all))
	}
	if all[3].ID != "noindex" {
		t.Errorf("storage order broken: last = %s, want noindex", all[3].ID)
	}
}

func TestFeaturesByDataset_AttributeFilters(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	seedDataset(t, s, "ds1")

	features := []models.Feature{
		pointFeature("f1", "ds1", 1, 1, `{"name":"cafe one","category":"cafe","score":80}`),
		pointFeature("f2", "ds1", 2, 2, `{"name":"museum","category":"culture","score":95}`),
		pointFeature("f3", "ds1", 3, 3, `{"name":"cafe two","category":"cafe"}`),
	}
	if err := s.InsertFeatures(ctx, features); err != nil {
		t.Fatalf("InsertFeatures() error = %v", err)
	}

	min90 := 90
	tests := []struct {
		name   string
		filter store.FeatureFilter
		want   []string
	}{
		{"query substring", store.FeatureFilter{Query: "cafe"}, []string{"f1", "f3"}},
		{"category", store.FeatureFilter{Category: "culture"}, []string{"f2"}},
		{"min score drops missing score", store.FeatureFilter{MinScore: &min90}, []string{"f2"}},
		{"limit", store.FeatureFilter{Limit: 2}, []string{"f1", "f2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.FeaturesByDataset(ctx, "ds1", tt.filter)
			if err != nil {
				t.Fatalf("FeaturesByDataset() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d features, want %d", len(got), len(tt.want))
			}
			for i, f := range got {
				if f.ID != tt.want[i] {
					t.Errorf("feature[%d] = %s, want %s", i, f.ID, tt.want[i])
				}
			}
		})
	}
}

func TestDeleteDataset_Cascades(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	seedDataset(t, s, "ds1")

	if err := s.InsertFeature(ctx, &models.Feature{
		ID: "f1", DatasetID: "ds1", GeometryType: models.GeometryPoint,
		BBox:       &models.BBox{MinLon: 1, MinLat: 1, MaxLon: 1, MaxLat: 1},
		Properties: "{}", CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("InsertFeature() error = %v", err)
	}
	if err := s.CreateStyle(ctx, &models.Style{
		ID: "st1", DatasetID: "ds1", Name: "s", Style: []byte(`{}`), CreatedBy: "u1",
	}); err != nil {
		t.Fatalf("CreateStyle() error = %v", err)
	}

	if err := s.DeleteDataset(ctx, "ds1"); err != nil {
		t.Fatalf("DeleteDataset() error = %v", err)
	}

	if _, err := s.Feature(ctx, "f1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("feature survived dataset delete: %v", err)
	}
	if _, err := s.Style(ctx, "st1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("style survived dataset delete: %v", err)
	}
}

func TestStylesByDataset_DefaultFirst(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	seedDataset(t, s, "ds1")

	for i, isDefault := range []bool{false, false, true} {
		err := s.CreateStyle(ctx, &models.Style{
			ID:        fmt.Sprintf("st%d", i),
			DatasetID: "ds1", Name: fmt.Sprintf("style %d", i),
			Style: []byte(`{}`), IsDefault: isDefault, CreatedBy: "u1",
		})
		if err != nil {
			t.Fatalf("CreateStyle() error = %v", err)
		}
	}

	styles, err := s.StylesByDataset(ctx, "ds1")
	if err != nil {
		t.Fatalf("StylesByDataset() error = %v", err)
	}
	if len(styles) != 3 {
		t.Fatalf("got %d styles, want 3", len(styles))
	}
	if !styles[0].IsDefault {
		t.Errorf("first style = %s, want the default one", styles[0].ID)
	}
}

func TestDatasetSummary(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	seedDataset(t, s, "ds1")

	features := []models.Feature{
		pointFeature("f1", "ds1", 139.70, 35.65, "{}"),
		pointFeature("f2", "ds1", 139.77, 35.68, "{}"),
		{
			ID: "f3", DatasetID: "ds1", GeometryType: models.GeometryPolygon,
			Properties: "{}", CreatedAt: time.Now().UTC(),
		},
	}
	if err := s.InsertFeatures(ctx, features); err != nil {
		t.Fatalf("InsertFeatures() error = %v", err)
	}

	summary, err := s.DatasetSummary(ctx, "ds1")
	if err != nil {
		t.Fatalf("DatasetSummary() error = %v", err)
	}
	if summary.FeatureCount != 3 {
		t.Errorf("featureCount = %d, want 3", summary.FeatureCount)
	}
	if summary.GeometryTypes[models.GeometryPoint] != 2 ||
		summary.GeometryTypes[models.GeometryPolygon] != 1 {
		t.Errorf("geometryTypes = %v", summary.GeometryTypes)
	}
	if summary.BBox == nil {
		t.Fatal("expected an aggregate bbox")
	}
	if summary.BBox.MinLon != 139.70 || summary.BBox.MaxLon != 139.77 {
		t.Errorf("aggregate lon = [%v, %v]", summary.BBox.MinLon, summary.BBox.MaxLon)
	}
}

func TestListDatasets_TypeFilterAndPagination(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		typ := models.DatasetTypeGeoJSON
		if i%2 == 1 {
			typ = models.DatasetTypeCSV
		}
		err := s.CreateDataset(ctx, &models.Dataset{
			ID: fmt.Sprintf("ds%d", i), Name: fmt.Sprintf("d%d", i), Type: typ,
			Status: models.DatasetStatusActive, CreatedBy: "u1",
			CreatedAt: now, UpdatedAt: now,
		})
		if err != nil {
			t.Fatalf("CreateDataset() error = %v", err)
		}
	}

	geo, total, err := s.ListDatasets(ctx, 1, 10, models.DatasetTypeGeoJSON)
	if err != nil {
		t.Fatalf("ListDatasets() error = %v", err)
	}
	if total != 3 || len(geo) != 3 {
		t.Errorf("geojson datasets = %d (total %d), want 3", len(geo), total)
	}

	page2, total, err := s.ListDatasets(ctx, 2, 2, "")
	if err != nil {
		t.Fatalf("ListDatasets() error = %v", err)
	}
	if total != 5 || len(page2) != 2 {
		t.Errorf("page 2 = %d items (total %d), want 2 of 5", len(page2), total)
	}
}
