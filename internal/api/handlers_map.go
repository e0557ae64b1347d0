// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/choiwjun/gis/internal/metrics"
	"github.com/choiwjun/gis/internal/models"
	"github.com/choiwjun/gis/internal/spatial"
)

// MapData returns a dataset's features as a FeatureCollection,
// optionally filtered by a bounding box. The box comes either from the
// delimited bbox param or from four separate minLon/minLat/maxLon/maxLat
// params; the delimited form wins, and a malformed delimited string
// silently disables the filter.
func (h *Handler) MapData(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	datasetID := q.Get("datasetId")
	if datasetID == "" {
		respondError(w, http.StatusBadRequest, models.CodeValidationError, "datasetId is required")
		return
	}

	var box *models.BBox
	if raw := q.Get("bbox"); raw != "" {
		box = spatial.ParseBBox(raw)
	} else {
		box = spatial.BBoxFromParts(q.Get("minLon"), q.Get("minLat"), q.Get("maxLon"), q.Get("maxLat"))
	}

	limit := getIntParam(r, "limit", 0)

	metrics.SpatialQueries.WithLabelValues("bbox").Inc()
	collection, err := h.spatial.MapData(r.Context(), datasetID, box, limit)
	if err != nil {
		respondStoreError(w, err, "Dataset not found")
		return
	}
	respondSuccess(w, http.StatusOK, collection)
}

// Nearby returns features within a radius of a point, closest first,
// each carrying a rounded _distance property in meters.
func (h *Handler) Nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	datasetID := q.Get("datasetId")
	if datasetID == "" {
		respondError(w, http.StatusBadRequest, models.CodeValidationError, "datasetId is required")
		return
	}

	lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(q.Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		respondError(w, http.StatusBadRequest, models.CodeValidationError, "lat and lon are required")
		return
	}

	radius := 1000.0
	if raw := q.Get("radius"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
			radius = v
		}
	}

	metrics.SpatialQueries.WithLabelValues("nearby").Inc()
	collection, err := h.spatial.Nearby(r.Context(), datasetID, lat, lon, radius)
	if err != nil {
		respondStoreError(w, err, "Dataset not found")
		return
	}
	respondSuccess(w, http.StatusOK, collection)
}

// GetFeature returns one stored feature with its dataset id and a
// min-corner geometry. The payload is a plain object, not a GeoJSON
// Feature.
func (h *Handler) GetFeature(w http.ResponseWriter, r *http.Request) {
	feature, err := h.store.Feature(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err, "Feature not found")
		return
	}
	gf := spatial.FeatureToGeoJSON(feature, false)
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"id":         feature.ID,
		"datasetId":  feature.DatasetID,
		"geometry":   gf.Geometry,
		"properties": gf.Properties,
	})
}
