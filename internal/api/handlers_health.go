// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

package api

import (
	"net/http"
	"time"
)

// Health reports liveness and store reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	overall, database := "ok", "ok"
	status := http.StatusOK
	if err := h.store.Ping(r.Context()); err != nil {
		overall, database = "degraded", "unreachable"
		status = http.StatusServiceUnavailable
	}

	respondSuccess(w, status, map[string]interface{}{
		"status":        overall,
		"database":      database,
		"uptimeSeconds": int(time.Since(h.startTime).Seconds()),
	})
}
