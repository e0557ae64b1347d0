// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

package api

import (
	json "github.com/goccy/go-json"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
}

type updateUserRequest struct {
	Name     *string `json:"name"`
	Password *string `json:"password" validate:"omitempty,min=8"`
	Role     *string `json:"role" validate:"omitempty,role"`
}

type updatePreferencesRequest struct {
	Preferences json.RawMessage `json:"preferences" validate:"required"`
}

type createFeatureRequest struct {
	DatasetID  string                 `json:"datasetId" validate:"required"`
	Geometry   json.RawMessage        `json:"geometry" validate:"required"`
	Properties map[string]interface{} `json:"properties"`
}

type updateFeatureRequest struct {
	Geometry   json.RawMessage        `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

type createStyleRequest struct {
	DatasetID string          `json:"datasetId" validate:"required"`
	Name      string          `json:"name" validate:"required"`
	Style     json.RawMessage `json:"style" validate:"required"`
	IsDefault bool            `json:"isDefault"`
}

type updateStyleRequest struct {
	Name      *string         `json:"name"`
	Style     json.RawMessage `json:"style"`
	IsDefault *bool           `json:"isDefault"`
}
