// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

package api

import (
	"context"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/choiwjun/gis/internal/auth"
	"github.com/choiwjun/gis/internal/geometry"
	"github.com/choiwjun/gis/internal/logging"
	"github.com/choiwjun/gis/internal/models"
	"github.com/choiwjun/gis/internal/store"
)

// logFeatureActivity records a feature mutation in the audit log. A
// failed write is logged and otherwise ignored; the mutation itself has
// already succeeded.
func (h *Handler) logFeatureActivity(ctx context.Context, action, featureID string, details map[string]interface{}) {
	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		return
	}
	raw, _ := json.Marshal(details)
	entry := &models.ActivityLog{
		ID:           uuid.New().String(),
		UserID:       claims.UserID,
		Action:       action,
		ResourceType: "feature",
		ResourceID:   featureID,
		Details:      string(raw),
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.store.LogActivity(ctx, entry); err != nil {
		logging.Ctx(ctx).Error().Err(err).
			Str("action", action).
			Str("feature_id", featureID).
			Msg("activity log write failed")
	}
}

// CreateFeature adds a feature to a dataset. The geometry is reduced to
// its bounding box on write; the dataset record count goes up by one.
func (h *Handler) CreateFeature(w http.ResponseWriter, r *http.Request) {
	var req createFeatureRequest
	if !decodeJSON(w, r, &req) || !validateRequest(w, &req) {
		return
	}

	if _, err := h.store.Dataset(r.Context(), req.DatasetID); err != nil {
		respondStoreError(w, err, "Dataset not found")
		return
	}

	geom, err := geometry.ParseGeometry(req.Geometry)
	if err != nil {
		respondError(w, http.StatusBadRequest, models.CodeValidationError, "Invalid geometry")
		return
	}

	props := "{}"
	if req.Properties != nil {
		raw, err := json.Marshal(req.Properties)
		if err != nil {
			respondError(w, http.StatusBadRequest, models.CodeValidationError, "Invalid properties")
			return
		}
		props = string(raw)
	}

	feature := &models.Feature{
		ID:           uuid.New().String(),
		DatasetID:    req.DatasetID,
		GeometryType: geometry.TypeName(geom),
		BBox:         geometry.ComputeBBox(geom),
		Properties:   props,
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.store.InsertFeature(r.Context(), feature); err != nil {
		respondStoreError(w, err, "Dataset not found")
		return
	}
	if err := h.store.AdjustRecordCount(r.Context(), req.DatasetID, 1); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).
			Str("dataset_id", req.DatasetID).
			Msg("record count increment failed")
	}
	h.logFeatureActivity(r.Context(), models.ActionCreate, feature.ID, map[string]interface{}{
		"datasetId": feature.DatasetID,
		"geometry":  feature.GeometryType,
	})

	respondSuccess(w, http.StatusCreated, map[string]interface{}{"feature": feature})
}

// UpdateFeature changes a feature's geometry and/or properties. A new
// geometry has its bounding box recomputed; switching to an unindexed
// type clears the stored box.
func (h *Handler) UpdateFeature(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateFeatureRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	upd := store.FeatureUpdate{}
	if len(req.Geometry) > 0 {
		geom, err := geometry.ParseGeometry(req.Geometry)
		if err != nil {
			respondError(w, http.StatusBadRequest, models.CodeValidationError, "Invalid geometry")
			return
		}
		upd.Geometry = &store.GeometryUpdate{
			Type: geometry.TypeName(geom),
			BBox: geometry.ComputeBBox(geom),
		}
	}
	if req.Properties != nil {
		raw, err := json.Marshal(req.Properties)
		if err != nil {
			respondError(w, http.StatusBadRequest, models.CodeValidationError, "Invalid properties")
			return
		}
		props := string(raw)
		upd.Properties = &props
	}

	if err := h.store.UpdateFeature(r.Context(), id, upd); err != nil {
		respondStoreError(w, err, "Feature not found")
		return
	}

	// The logged count is the number of written columns: a geometry
	// update touches the type and four box columns.
	updated := 0
	if upd.Geometry != nil {
		updated += 5
	}
	if upd.Properties != nil {
		updated++
	}
	h.logFeatureActivity(r.Context(), models.ActionUpdate, id, map[string]interface{}{
		"updated": updated,
	})

	feature, err := h.store.Feature(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "Feature not found")
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"feature": feature})
}

// DeleteFeature removes a feature and decrements the dataset record
// count.
func (h *Handler) DeleteFeature(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	datasetID, err := h.store.DeleteFeature(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "Feature not found")
		return
	}
	if err := h.store.AdjustRecordCount(r.Context(), datasetID, -1); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).
			Str("dataset_id", datasetID).
			Msg("record count decrement failed")
	}
	h.logFeatureActivity(r.Context(), models.ActionDelete, id, map[string]interface{}{
		"datasetId": datasetID,
	})

	respondSuccess(w, http.StatusOK, map[string]interface{}{"id": id})
}
