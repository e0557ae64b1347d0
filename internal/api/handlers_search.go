// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

package api

import (
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/choiwjun/gis/internal/models"
	"github.com/choiwjun/gis/internal/search"
)

// Search filters a dataset's features by free-text, category and score
// bounds, returning matches in storage order as min-corner points.
// With fts=true and a query, matching switches to whole tokens and the
// other filters are ignored.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	datasetID := q.Get("datasetId")
	if datasetID == "" {
		respondError(w, http.StatusBadRequest, models.CodeValidationError, "datasetId is required")
		return
	}

	collection, err := h.search.Search(r.Context(), datasetID, search.Params{
		Query:    q.Get("q"),
		Category: q.Get("category"),
		MinScore: getOptionalInt(r, "minScore"),
		MaxScore: getOptionalInt(r, "maxScore"),
		FTS:      q.Get("fts") == "true",
	})
	if err != nil {
		respondStoreError(w, err, "Dataset not found")
		return
	}
	respondSuccess(w, http.StatusOK, collection)
}

// SearchAdvanced evaluates a JSON array of filter clauses
// ({field, op, value} with op in eq/gt/lt/like/in) against each
// feature's properties.
func (h *Handler) SearchAdvanced(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	datasetID := q.Get("datasetId")
	if datasetID == "" {
		respondError(w, http.StatusBadRequest, models.CodeValidationError, "datasetId is required")
		return
	}

	raw := q.Get("filters")
	if raw == "" {
		respondError(w, http.StatusBadRequest, models.CodeValidationError, "filters is required")
		return
	}
	var conds []search.Condition
	if err := json.Unmarshal([]byte(raw), &conds); err != nil {
		respondError(w, http.StatusBadRequest, models.CodeValidationError, "filters must be a JSON array of conditions")
		return
	}

	collection, err := h.search.Advanced(r.Context(), datasetID, conds)
	if err != nil {
		respondStoreError(w, err, "Dataset not found")
		return
	}
	respondSuccess(w, http.StatusOK, collection)
}
