// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

package api

import (
	"net/http"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/choiwjun/gis/internal/models"
	"github.com/choiwjun/gis/internal/validation"
)

// decodeJSON decodes the request body into dst, rejecting unparsable
// bodies with a VALIDATION_ERROR. Returns false when it has already
// written the response.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, models.CodeValidationError, "Invalid JSON body")
		return false
	}
	return true
}

// validateRequest runs struct validation, writing a VALIDATION_ERROR
// with per-field details on failure. Returns false when it has already
// written the response.
func validateRequest(w http.ResponseWriter, req interface{}) bool {
	if fields := validation.ValidateStruct(req); fields != nil {
		respondErrorDetails(w, http.StatusBadRequest, models.CodeValidationError,
			"Request validation failed", fields)
		return false
	}
	return true
}

// getIntParam reads an integer query parameter, falling back to def
// when absent or unparsable.
func getIntParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// getOptionalInt reads an integer query parameter, nil when absent or
// unparsable.
func getOptionalInt(r *http.Request, name string) *int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &v
}

// pageParams resolves page and pageSize within the configured bounds.
func (h *Handler) pageParams(r *http.Request) (page, pageSize int) {
	page = getIntParam(r, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize = getIntParam(r, "pageSize", h.config.API.DefaultPageSize)
	if pageSize < 1 {
		pageSize = h.config.API.DefaultPageSize
	}
	if pageSize > h.config.API.MaxPageSize {
		pageSize = h.config.API.MaxPageSize
	}
	return page, pageSize
}

// escapeCSV quotes a CSV field when it contains a delimiter, quote or
// newline.
func escapeCSV(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
