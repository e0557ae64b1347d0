// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/choiwjun/gis/internal/auth"
	mw "github.com/choiwjun/gis/internal/middleware"
	"github.com/choiwjun/gis/internal/models"
)

// Routes assembles the full router: public auth endpoints behind a
// per-IP rate limit, everything else behind Bearer authentication, with
// role gates on the mutating groups.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.PrometheusMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.config.Security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/api/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		// Public endpoints, rate limited per client IP.
		r.Group(func(r chi.Router) {
			if h.config.RateLimit.Enabled {
				r.Use(httprate.LimitByIP(h.config.RateLimit.RequestsPerMinute, time.Minute))
			}
			r.Post("/auth/login", h.Login)
			r.Post("/users/register", h.RegisterUser)
		})

		// Authenticated endpoints.
		r.Group(func(r chi.Router) {
			r.Use(h.tokens.Authenticate)

			r.Get("/auth/me", h.Me)

			r.Get("/datasets", h.ListDatasets)
			r.Get("/datasets/{id}", h.GetDataset)

			r.Get("/map/data", h.MapData)
			r.Get("/map/nearby", h.Nearby)
			r.Get("/map/features/{id}", h.GetFeature)

			r.Get("/search", h.Search)
			r.Get("/search/advanced", h.SearchAdvanced)

			r.Get("/styles", h.ListStyles)

			r.Get("/export/geojson", h.ExportGeoJSON)
			r.Get("/export/csv", h.ExportCSV)
			r.Get("/export/summary", h.ExportSummary)

			r.Get("/users/{id}", h.GetUser)
			r.Put("/users/{id}", h.UpdateUser)
			r.Put("/users/{id}/preferences", h.UpdatePreferences)

			// Editors and admins.
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(models.RoleEditor, models.RoleAdmin))

				r.Post("/datasets/upload", h.UploadDataset)

				r.Post("/features", h.CreateFeature)
				r.Put("/features/{id}", h.UpdateFeature)
				r.Delete("/features/{id}", h.DeleteFeature)

				r.Post("/styles", h.CreateStyle)
				r.Put("/styles/{id}", h.UpdateStyle)
				r.Delete("/styles/{id}", h.DeleteStyle)
			})

			// Admins only.
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(models.RoleAdmin))

				r.Delete("/datasets/{id}", h.DeleteDataset)
				r.Get("/users", h.ListUsers)
				r.Delete("/users/{id}", h.DeleteUser)
			})
		})
	})

	return r
}
