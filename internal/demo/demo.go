// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

// Package demo seeds a fresh store with two accounts and a small Tokyo
// landmark dataset so the API is explorable immediately after startup.
package demo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/choiwjun/gis/internal/auth"
	"github.com/choiwjun/gis/internal/logging"
	"github.com/choiwjun/gis/internal/models"
	"github.com/choiwjun/gis/internal/store"
)

const (
	adminEmail = "admin@example.com"
	userEmail  = "user@example.com"

	datasetID = "demo-dataset-001"
)

// Seed populates demo accounts and data. It is idempotent: when the
// admin account already exists the seed is skipped entirely.
func Seed(ctx context.Context, st store.Store, bcryptCost int) error {
	if _, err := st.UserByEmail(ctx, adminEmail); err == nil {
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("checking demo admin: %w", err)
	}

	now := time.Now().UTC()

	adminHash, err := auth.HashPassword("admin123", bcryptCost)
	if err != nil {
		return fmt.Errorf("hashing demo password: %w", err)
	}
	userHash, err := auth.HashPassword("user123", bcryptCost)
	if err != nil {
		return fmt.Errorf("hashing demo password: %w", err)
	}

	users := []*models.UserWithPassword{
		{
			User: models.User{
				ID: "admin-001", Email: adminEmail, Name: "Demo Admin",
				Role: models.RoleAdmin, CreatedAt: now, UpdatedAt: now,
			},
			PasswordHash: adminHash,
		},
		{
			User: models.User{
				ID: "user-001", Email: userEmail, Name: "Demo Editor",
				Role: models.RoleEditor, CreatedAt: now, UpdatedAt: now,
			},
			PasswordHash: userHash,
		},
	}
	for _, u := range users {
		if err := st.CreateUser(ctx, u); err != nil {
			return fmt.Errorf("seeding user %s: %w", u.Email, err)
		}
	}

	dataset := &models.Dataset{
		ID:          datasetID,
		Name:        "Tokyo Landmarks",
		Type:        models.DatasetTypeGeoJSON,
		RecordCount: 3,
		SchemaJSON:  `{"name":"string","category":"string","score":"number"}`,
		Status:      models.DatasetStatusActive,
		CreatedBy:   "admin-001",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := st.CreateDataset(ctx, dataset); err != nil {
		return fmt.Errorf("seeding dataset: %w", err)
	}

	point := func(lon, lat float64) *models.BBox {
		return &models.BBox{MinLon: lon, MinLat: lat, MaxLon: lon, MaxLat: lat}
	}
	features := []models.Feature{
		{
			ID: "demo-feature-001", DatasetID: datasetID,
			GeometryType: models.GeometryPoint,
			BBox:         point(139.7671, 35.6812),
			Properties:   `{"name":"東京駅","category":"station","score":95}`,
			CreatedAt:    now,
		},
		{
			ID: "demo-feature-002", DatasetID: datasetID,
			GeometryType: models.GeometryPoint,
			BBox:         point(139.7016, 35.6580),
			Properties:   `{"name":"渋谷駅","category":"station","score":88}`,
			CreatedAt:    now,
		},
		{
			ID: "demo-feature-003", DatasetID: datasetID,
			GeometryType: models.GeometryLineString,
			BBox:         &models.BBox{MinLon: 139.7016, MinLat: 35.6580, MaxLon: 139.7671, MaxLat: 35.6812},
			Properties:   `{"name":"山手線 (部分)","category":"railway","score":90}`,
			CreatedAt:    now,
		},
	}
	if err := st.InsertFeatures(ctx, features); err != nil {
		return fmt.Errorf("seeding features: %w", err)
	}

	style := &models.Style{
		ID:        "demo-style-001",
		DatasetID: datasetID,
		Name:      "Default",
		Style:     []byte(`{"circle-color":"#e63946","circle-radius":6}`),
		IsDefault: true,
		CreatedBy: "admin-001",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := st.CreateStyle(ctx, style); err != nil {
		return fmt.Errorf("seeding style: %w", err)
	}

	logging.Info().Msg("demo data seeded")
	return nil
}
