// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

// Package store defines the persistence interface the API is written
// against. Two implementations exist: the DuckDB-backed store in
// internal/database and the map-backed store in internal/store/memory.
// The backend is chosen by configuration at startup.
package store

import (
	"context"
	"errors"

	"github.com/choiwjun/gis/internal/models"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrConflict is returned on unique constraint violations, such as a
	// duplicate user email.
	ErrConflict = errors.New("store: conflict")
)

// FeatureFilter narrows a dataset feature scan. All set filters are
// ANDed. Features without a stored bbox never match BBox or Within.
type FeatureFilter struct {
	// BBox keeps features whose box overlaps (inclusive).
	BBox *models.BBox

	// Within keeps features whose box lies entirely inside (inclusive).
	Within *models.BBox

	// Query keeps features whose raw properties JSON contains the
	// substring.
	Query string

	// Category keeps features whose raw properties JSON contains the
	// serialized pair "category":"<value>".
	Category string

	// MinScore/MaxScore compare against the integer value of the score
	// property.
	MinScore *int
	MaxScore *int

	// Limit caps the number of returned rows; zero means no cap.
	Limit int
}

// UserUpdate is a partial update; nil fields are left unchanged.
type UserUpdate struct {
	Name         *string
	PasswordHash *string
	Role         *string
}

// GeometryUpdate replaces a feature's geometry type and box together.
type GeometryUpdate struct {
	Type string
	BBox *models.BBox
}

// FeatureUpdate is a partial update; nil fields are left unchanged.
type FeatureUpdate struct {
	Geometry   *GeometryUpdate
	Properties *string
}

// StyleUpdate is a partial update; nil fields are left unchanged.
type StyleUpdate struct {
	Name      *string
	StyleJSON *string
	IsDefault *bool
}

// UserStore manages accounts and their preferences.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.UserWithPassword) error
	UserByID(ctx context.Context, id string) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.UserWithPassword, error)
	ListUsers(ctx context.Context, page, pageSize int) ([]models.User, int, error)
	UpdateUser(ctx context.Context, id string, upd UserUpdate) error
	DeleteUser(ctx context.Context, id string) error

	UserPreferences(ctx context.Context, userID string) (string, error)
	SetUserPreferences(ctx context.Context, userID, preferencesJSON string) error
}

// DatasetStore manages dataset metadata.
type DatasetStore interface {
	CreateDataset(ctx context.Context, d *models.Dataset) error
	Dataset(ctx context.Context, id string) (*models.Dataset, error)
	ListDatasets(ctx context.Context, page, pageSize int, typ string) ([]models.Dataset, int, error)

	// DeleteDataset removes the dataset and, cascading, its features and
	// styles.
	DeleteDataset(ctx context.Context, id string) error

	// AdjustRecordCount applies delta to record_count as one atomic
	// statement.
	AdjustRecordCount(ctx context.Context, id string, delta int) error
}

// FeatureStore manages stored features.
type FeatureStore interface {
	InsertFeature(ctx context.Context, f *models.Feature) error
	InsertFeatures(ctx context.Context, fs []models.Feature) error
	Feature(ctx context.Context, id string) (*models.Feature, error)

	// FeaturesByDataset returns matching features in storage order.
	FeaturesByDataset(ctx context.Context, datasetID string, filter FeatureFilter) ([]models.Feature, error)

	UpdateFeature(ctx context.Context, id string, upd FeatureUpdate) error

	// DeleteFeature removes the feature and returns its dataset id.
	DeleteFeature(ctx context.Context, id string) (string, error)

	DatasetSummary(ctx context.Context, datasetID string) (*models.DatasetSummary, error)
}

// StyleStore manages map styles.
type StyleStore interface {
	CreateStyle(ctx context.Context, s *models.Style) error
	Style(ctx context.Context, id string) (*models.Style, error)

	// StylesByDataset lists styles with the default first.
	StylesByDataset(ctx context.Context, datasetID string) ([]models.Style, error)

	UpdateStyle(ctx context.Context, id string, upd StyleUpdate) error
	DeleteStyle(ctx context.Context, id string) error

	// ClearDefaultStyle unsets is_default on every style of the dataset.
	ClearDefaultStyle(ctx context.Context, datasetID string) error
}

// ActivityStore records resource mutations.
type ActivityStore interface {
	LogActivity(ctx context.Context, entry *models.ActivityLog) error
}

// Store is the full persistence surface.
type Store interface {
	UserStore
	DatasetStore
	FeatureStore
	StyleStore
	ActivityStore

	Ping(ctx context.Context) error
	Close() error
}
