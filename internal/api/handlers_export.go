// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/choiwjun/gis/internal/logging"
	"github.com/choiwjun/gis/internal/models"
	"github.com/choiwjun/gis/internal/spatial"
	"github.com/choiwjun/gis/internal/store"
)

// exportDataset resolves the dataset and its full feature list for the
// export endpoints. Returns nil when it already wrote the response.
func (h *Handler) exportDataset(w http.ResponseWriter, r *http.Request) (*models.Dataset, []models.Feature) {
	datasetID := r.URL.Query().Get("datasetId")
	if datasetID == "" {
		respondError(w, http.StatusBadRequest, models.CodeValidationError, "datasetId is required")
		return nil, nil
	}

	dataset, err := h.store.Dataset(r.Context(), datasetID)
	if err != nil {
		respondStoreError(w, err, "Dataset not found")
		return nil, nil
	}

	features, err := h.store.FeaturesByDataset(r.Context(), datasetID, store.FeatureFilter{})
	if err != nil {
		respondStoreError(w, err, "Dataset not found")
		return nil, nil
	}
	return dataset, features
}

// ExportGeoJSON streams the dataset as a GeoJSON attachment. Every
// geometry is the reconstructed min-corner point; the original shapes
// are not recoverable from stored boxes.
func (h *Handler) ExportGeoJSON(w http.ResponseWriter, r *http.Request) {
	dataset, features := h.exportDataset(w, r)
	if dataset == nil {
		return
	}

	out := make([]models.GeoJSONFeature, 0, len(features))
	for i := range features {
		out = append(out, spatial.FeatureToGeoJSON(&features[i], false))
	}
	collection := models.NewFeatureCollection(out)

	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s.geojson"`, sanitizeFilename(dataset.Name)))
	if err := json.NewEncoder(w).Encode(collection); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("geojson export failed")
	}
}

// ExportCSV streams the dataset as CSV. Columns are id, longitude,
// latitude, geometry_type, then the union of property keys in first
// appearance order. Features without a stored box leave the coordinate
// cells empty.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	dataset, features := h.exportDataset(w, r)
	if dataset == nil {
		return
	}

	props := make([]map[string]interface{}, len(features))
	keys := []string{}
	seen := map[string]bool{}
	for i := range features {
		m := map[string]interface{}{}
		if features[i].Properties != "" {
			_ = json.Unmarshal([]byte(features[i].Properties), &m)
		}
		props[i] = m
		for _, k := range sortedAppearance(features[i].Properties, m) {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}

	var sb strings.Builder
	sb.WriteString("id,longitude,latitude,geometry_type")
	for _, k := range keys {
		sb.WriteByte(',')
		sb.WriteString(escapeCSV(k))
	}
	sb.WriteByte('\n')

	for i := range features {
		f := &features[i]
		lon, lat := "", ""
		if f.BBox != nil {
			lon = strconv.FormatFloat(f.BBox.MinLon, 'f', -1, 64)
			lat = strconv.FormatFloat(f.BBox.MinLat, 'f', -1, 64)
		}
		sb.WriteString(escapeCSV(f.ID))
		sb.WriteByte(',')
		sb.WriteString(lon)
		sb.WriteByte(',')
		sb.WriteString(lat)
		sb.WriteByte(',')
		sb.WriteString(escapeCSV(f.GeometryType))
		for _, k := range keys {
			sb.WriteByte(',')
			sb.WriteString(escapeCSV(csvValue(props[i][k])))
		}
		sb.WriteByte('\n')
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s.csv"`, sanitizeFilename(dataset.Name)))
	if _, err := w.Write([]byte(sb.String())); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("csv export failed")
	}
}

// ExportSummary returns dataset metadata with the geometry-type
// distribution and the aggregate bounding box of all indexed features.
func (h *Handler) ExportSummary(w http.ResponseWriter, r *http.Request) {
	datasetID := r.URL.Query().Get("datasetId")
	if datasetID == "" {
		respondError(w, http.StatusBadRequest, models.CodeValidationError, "datasetId is required")
		return
	}

	dataset, err := h.store.Dataset(r.Context(), datasetID)
	if err != nil {
		respondStoreError(w, err, "Dataset not found")
		return
	}
	summary, err := h.store.DatasetSummary(r.Context(), datasetID)
	if err != nil {
		respondStoreError(w, err, "Dataset not found")
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"dataset":       dataset,
		"featureCount":  summary.FeatureCount,
		"geometryTypes": summary.GeometryTypes,
		"bbox":          summary.BBox,
	})
}

// sortedAppearance yields the property keys in the order they appear in
// the serialized JSON, so CSV columns are stable across runs.
func sortedAppearance(raw string, m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	type pos struct {
		key string
		at  int
	}
	positions := make([]pos, 0, len(m))
	for k := range m {
		at := strings.Index(raw, `"`+k+`"`)
		positions = append(positions, pos{key: k, at: at})
	}
	for len(positions) > 0 {
		best := 0
		for i := 1; i < len(positions); i++ {
			if positions[i].at < positions[best].at {
				best = i
			}
		}
		keys = append(keys, positions[best].key)
		positions = append(positions[:best], positions[best+1:]...)
	}
	return keys
}

func csvValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}

func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', '\n', '\r':
			return '_'
		}
		return r
	}, name)
}
