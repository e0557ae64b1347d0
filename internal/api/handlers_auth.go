// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

package api

import (
	"errors"
	"net/http"

	"github.com/choiwjun/gis/internal/auth"
	"github.com/choiwjun/gis/internal/logging"
	"github.com/choiwjun/gis/internal/models"
	"github.com/choiwjun/gis/internal/store"
)

// Login exchanges email and password for an access token. A missing
// account and a wrong password are indistinguishable in the response.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) || !validateRequest(w, &req) {
		return
	}

	user, err := h.store.UserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusUnauthorized, models.CodeInvalidCredentials, "Invalid email or password")
			return
		}
		respondStoreError(w, err, "User not found")
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		respondError(w, http.StatusUnauthorized, models.CodeInvalidCredentials, "Invalid email or password")
		return
	}

	token, err := h.tokens.GenerateToken(&user.User)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("token generation failed")
		respondError(w, http.StatusInternalServerError, models.CodeServerError, "Internal server error")
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"accessToken": token,
		"user":        user.User,
	})
}

// Me returns the fresh account row behind the presented token.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, models.CodeUnauthorized, "Authentication required")
		return
	}

	user, err := h.store.UserByID(r.Context(), claims.UserID)
	if err != nil {
		respondStoreError(w, err, "User not found")
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"user": user})
}
