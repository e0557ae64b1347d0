// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

package api

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/choiwjun/gis/internal/auth"
	"github.com/choiwjun/gis/internal/ingest"
	"github.com/choiwjun/gis/internal/logging"
	"github.com/choiwjun/gis/internal/metrics"
	"github.com/choiwjun/gis/internal/models"
)

// ListDatasets returns a page of datasets, optionally filtered by type.
func (h *Handler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	page, pageSize := h.pageParams(r)
	typ := r.URL.Query().Get("type")

	datasets, total, err := h.store.ListDatasets(r.Context(), page, pageSize, typ)
	if err != nil {
		respondStoreError(w, err, "Dataset not found")
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"datasets":   datasets,
		"pagination": models.NewPagination(page, pageSize, total),
	})
}

// GetDataset returns one dataset.
func (h *Handler) GetDataset(w http.ResponseWriter, r *http.Request) {
	dataset, err := h.store.Dataset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err, "Dataset not found")
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"dataset": dataset})
}

// UploadDataset ingests a multipart upload (file, name, type). The raw
// file always lands in blob storage; a geojson payload that does not
// parse still creates the dataset, with the failure surfaced in the
// ingest report rather than the status code.
func (h *Handler) UploadDataset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.API.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.config.API.MaxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, models.CodeValidationError, "Invalid multipart form")
		return
	}

	name := r.FormValue("name")
	typ := r.FormValue("type")
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, models.CodeValidationError, "File is required")
		return
	}
	defer file.Close()

	if name == "" || typ == "" {
		respondError(w, http.StatusBadRequest, models.CodeValidationError, "Name and type are required")
		return
	}
	if !models.ValidDatasetType(typ) {
		respondError(w, http.StatusBadRequest, models.CodeValidationError, "Type must be geojson, csv or shp")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, models.CodeValidationError, "Could not read uploaded file")
		return
	}

	claims, _ := auth.ClaimsFromContext(r.Context())
	createdBy := ""
	if claims != nil {
		createdBy = claims.UserID
	}

	result, err := h.ingestor.Ingest(r.Context(), ingest.Input{
		Name:        name,
		Type:        typ,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
		CreatedBy:   createdBy,
	})
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("ingest failed")
		respondError(w, http.StatusInternalServerError, models.CodeServerError, "Internal server error")
		return
	}

	metrics.IngestedFeatures.Add(float64(result.Report.FeaturesStored))
	if result.Report.ParseError != "" {
		metrics.IngestParseFailures.Inc()
	}

	respondSuccess(w, http.StatusCreated, map[string]interface{}{
		"dataset": result.Dataset,
		"ingest":  result.Report,
	})
}

// DeleteDataset removes a dataset with its features, styles and stored
// blob. Admin only, enforced by the router.
func (h *Handler) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	dataset, err := h.store.Dataset(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "Dataset not found")
		return
	}

	if err := h.store.DeleteDataset(r.Context(), id); err != nil {
		respondStoreError(w, err, "Dataset not found")
		return
	}

	if dataset.StorageKey != "" {
		if err := h.blobs.Delete(r.Context(), dataset.StorageKey); err != nil {
			// The rows are already gone; losing the blob delete only leaks
			// storage, so log and report success.
			logging.Ctx(r.Context()).Warn().Err(err).
				Str("storage_key", dataset.StorageKey).
				Msg("blob delete failed")
		}
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{"id": id})
}
