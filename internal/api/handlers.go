// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

// Package api exposes the HTTP surface: auth, dataset upload and
// management, spatial and attribute queries, feature editing, styles,
// users and exports. Every response is wrapped in the
// {success, data, error} envelope except the export downloads.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/choiwjun/gis/internal/auth"
	"github.com/choiwjun/gis/internal/blob"
	"github.com/choiwjun/gis/internal/config"
	"github.com/choiwjun/gis/internal/ingest"
	"github.com/choiwjun/gis/internal/logging"
	"github.com/choiwjun/gis/internal/models"
	"github.com/choiwjun/gis/internal/search"
	"github.com/choiwjun/gis/internal/spatial"
	"github.com/choiwjun/gis/internal/store"
)

// Handler carries the dependencies of every endpoint.
type Handler struct {
	store     store.Store
	blobs     blob.Store
	config    *config.Config
	tokens    *auth.Manager
	ingestor  *ingest.Pipeline
	spatial   *spatial.Engine
	search    *search.Engine
	startTime time.Time
}

// NewHandler wires the handler and its query engines.
func NewHandler(st store.Store, blobs blob.Store, cfg *config.Config, tokens *auth.Manager) *Handler {
	return &Handler{
		store:     st,
		blobs:     blobs,
		config:    cfg,
		tokens:    tokens,
		ingestor:  ingest.New(st, blobs, cfg.API.IngestFeatureCap),
		spatial:   spatial.New(st, cfg.API.MapFeatureLimit, cfg.API.NearbyCandidateLimit),
		search:    search.New(st, cfg.API.SearchLimit),
		startTime: time.Now(),
	}
}

// respondStoreError maps store errors onto the API taxonomy. notFound
// is the message used for ErrNotFound; everything unexpected logs and
// becomes a generic SERVER_ERROR.
func respondStoreError(w http.ResponseWriter, err error, notFound string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, models.CodeNotFound, notFound)
	case errors.Is(err, store.ErrConflict):
		respondError(w, http.StatusConflict, models.CodeConflict, "Resource already exists")
	default:
		logging.Error().Err(err).Msg("store operation failed")
		respondError(w, http.StatusInternalServerError, models.CodeServerError, "Internal server error")
	}
}
