// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/choiwjun/gis/internal/auth"
	"github.com/choiwjun/gis/internal/models"
	"github.com/choiwjun/gis/internal/store"
)

// ListStyles lists a dataset's styles with the default first.
func (h *Handler) ListStyles(w http.ResponseWriter, r *http.Request) {
	datasetID := r.URL.Query().Get("datasetId")
	if datasetID == "" {
		respondError(w, http.StatusBadRequest, models.CodeValidationError, "datasetId is required")
		return
	}

	styles, err := h.store.StylesByDataset(r.Context(), datasetID)
	if err != nil {
		respondStoreError(w, err, "Dataset not found")
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"styles": styles})
}

// CreateStyle adds a style. Creating a default style demotes any
// existing default of the same dataset first, keeping at most one.
func (h *Handler) CreateStyle(w http.ResponseWriter, r *http.Request) {
	var req createStyleRequest
	if !decodeJSON(w, r, &req) || !validateRequest(w, &req) {
		return
	}

	if _, err := h.store.Dataset(r.Context(), req.DatasetID); err != nil {
		respondStoreError(w, err, "Dataset not found")
		return
	}

	if req.IsDefault {
		if err := h.store.ClearDefaultStyle(r.Context(), req.DatasetID); err != nil {
			respondStoreError(w, err, "Dataset not found")
			return
		}
	}

	claims, _ := auth.ClaimsFromContext(r.Context())
	createdBy := ""
	if claims != nil {
		createdBy = claims.UserID
	}

	now := time.Now().UTC()
	style := &models.Style{
		ID:        uuid.New().String(),
		DatasetID: req.DatasetID,
		Name:      req.Name,
		Style:     req.Style,
		IsDefault: req.IsDefault,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.store.CreateStyle(r.Context(), style); err != nil {
		respondStoreError(w, err, "Dataset not found")
		return
	}
	respondSuccess(w, http.StatusCreated, map[string]interface{}{"style": style})
}

// UpdateStyle applies a partial update; promoting a style to default
// demotes the dataset's current default first.
func (h *Handler) UpdateStyle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateStyleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	existing, err := h.store.Style(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "Style not found")
		return
	}

	if req.IsDefault != nil && *req.IsDefault {
		if err := h.store.ClearDefaultStyle(r.Context(), existing.DatasetID); err != nil {
			respondStoreError(w, err, "Style not found")
			return
		}
	}

	upd := store.StyleUpdate{Name: req.Name, IsDefault: req.IsDefault}
	if len(req.Style) > 0 {
		s := string(req.Style)
		upd.StyleJSON = &s
	}
	if err := h.store.UpdateStyle(r.Context(), id, upd); err != nil {
		respondStoreError(w, err, "Style not found")
		return
	}

	style, err := h.store.Style(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "Style not found")
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"style": style})
}

// DeleteStyle removes a style.
func (h *Handler) DeleteStyle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteStyle(r.Context(), id); err != nil {
		respondStoreError(w, err, "Style not found")
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"id": id})
}
