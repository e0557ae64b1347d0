// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

package memory

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/choiwjun/gis/internal/models"
	"github.com/choiwjun/gis/internal/store"
)

// matchFeature applies a FeatureFilter the way the SQL store does: bbox
// predicates never match a nil box, text filters run against the raw
// properties JSON, and score bounds fail when score is absent or not
// numeric (the SQL NULL comparison).
func matchFeature(f *models.Feature, filter store.FeatureFilter) bool {
	if filter.BBox != nil {
		if f.BBox == nil || !f.BBox.Intersects(*filter.BBox) {
			return false
		}
	}
	if filter.Within != nil {
		if f.BBox == nil || !f.BBox.Within(*filter.Within) {
			return false
		}
	}
	if filter.Query != "" && !strings.Contains(f.Properties, filter.Query) {
		return false
	}
	if filter.Category != "" {
		needle := fmt.Sprintf("%q:%q", "category", filter.Category)
		if !strings.Contains(f.Properties, needle) {
			return false
		}
	}
	if filter.MinScore != nil || filter.MaxScore != nil {
		score, ok := extractScore(f.Properties)
		if !ok {
			return false
		}
		if filter.MinScore != nil && score < *filter.MinScore {
			return false
		}
		if filter.MaxScore != nil && score > *filter.MaxScore {
			return false
		}
	}
	return true
}

func extractScore(properties string) (int, bool) {
	var props map[string]interface{}
	if err := json.Unmarshal([]byte(properties), &props); err != nil {
		return 0, false
	}
	v, ok := props["score"].(float64)
	if !ok {
		return 0, false
	}
	return int(v), true
}
