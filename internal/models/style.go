// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

package models

import (
	"time"

	json "github.com/goccy/go-json"
)

// Style is a named map style bound to a dataset. At most one style per
// dataset carries IsDefault.
type Style struct {
	ID        string          `json:"id"`
	DatasetID string          `json:"dataset_id"`
	Name      string          `json:"name"`
	Style     json.RawMessage `json:"style"`
	IsDefault bool            `json:"is_default"`
	CreatedBy string          `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
