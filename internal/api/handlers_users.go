// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

package api

import (
	"errors"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/choiwjun/gis/internal/auth"
	"github.com/choiwjun/gis/internal/logging"
	"github.com/choiwjun/gis/internal/models"
	"github.com/choiwjun/gis/internal/store"
)

// RegisterUser creates a viewer account. The endpoint is public; roles
// are only escalated afterwards by an admin.
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) || !validateRequest(w, &req) {
		return
	}

	hash, err := auth.HashPassword(req.Password, h.config.Security.BcryptCost)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("password hashing failed")
		respondError(w, http.StatusInternalServerError, models.CodeServerError, "Internal server error")
		return
	}

	now := time.Now().UTC()
	user := &models.UserWithPassword{
		User: models.User{
			ID:        uuid.New().String(),
			Email:     req.Email,
			Name:      req.Name,
			Role:      models.RoleViewer,
			CreatedAt: now,
			UpdatedAt: now,
		},
		PasswordHash: hash,
	}

	if err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			respondError(w, http.StatusConflict, models.CodeConflict, "Email already registered")
			return
		}
		respondStoreError(w, err, "User not found")
		return
	}

	respondSuccess(w, http.StatusCreated, map[string]interface{}{"user": user.User})
}

// ListUsers returns a page of accounts. Admin only, enforced by the
// router.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, pageSize := h.pageParams(r)
	users, total, err := h.store.ListUsers(r.Context(), page, pageSize)
	if err != nil {
		respondStoreError(w, err, "User not found")
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"users":      users,
		"pagination": models.NewPagination(page, pageSize, total),
	})
}

// canAccessUser allows the account owner and admins.
func canAccessUser(r *http.Request, id string) (*auth.Claims, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return nil, false
	}
	return claims, claims.UserID == id || claims.Role == models.RoleAdmin
}

// GetUser returns a profile with its stored preferences. Accessible to
// the account owner and admins.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	claims, allowed := canAccessUser(r, id)
	if claims == nil {
		respondError(w, http.StatusUnauthorized, models.CodeUnauthorized, "Authentication required")
		return
	}
	if !allowed {
		respondError(w, http.StatusForbidden, models.CodeForbidden, "Insufficient permissions")
		return
	}

	user, err := h.store.UserByID(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "User not found")
		return
	}

	var preferences json.RawMessage
	prefs, err := h.store.UserPreferences(r.Context(), id)
	if err == nil {
		preferences = json.RawMessage(prefs)
	} else if !errors.Is(err, store.ErrNotFound) {
		respondStoreError(w, err, "User not found")
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"user":        user,
		"preferences": preferences,
	})
}

// UpdateUser changes name and password for the owner or an admin; role
// changes are admin only.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	claims, allowed := canAccessUser(r, id)
	if claims == nil {
		respondError(w, http.StatusUnauthorized, models.CodeUnauthorized, "Authentication required")
		return
	}
	if !allowed {
		respondError(w, http.StatusForbidden, models.CodeForbidden, "Insufficient permissions")
		return
	}

	var req updateUserRequest
	if !decodeJSON(w, r, &req) || !validateRequest(w, &req) {
		return
	}
	if req.Role != nil && claims.Role != models.RoleAdmin {
		respondError(w, http.StatusForbidden, models.CodeForbidden, "Only admins can change roles")
		return
	}

	upd := store.UserUpdate{Name: req.Name, Role: req.Role}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password, h.config.Security.BcryptCost)
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Msg("password hashing failed")
			respondError(w, http.StatusInternalServerError, models.CodeServerError, "Internal server error")
			return
		}
		upd.PasswordHash = &hash
	}

	if err := h.store.UpdateUser(r.Context(), id, upd); err != nil {
		respondStoreError(w, err, "User not found")
		return
	}

	user, err := h.store.UserByID(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "User not found")
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"user": user})
}

// UpdatePreferences upserts the caller's opaque preferences document.
// Owner only.
func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, models.CodeUnauthorized, "Authentication required")
		return
	}
	if claims.UserID != id {
		respondError(w, http.StatusForbidden, models.CodeForbidden, "Insufficient permissions")
		return
	}

	var req updatePreferencesRequest
	if !decodeJSON(w, r, &req) || !validateRequest(w, &req) {
		return
	}

	if err := h.store.SetUserPreferences(r.Context(), id, string(req.Preferences)); err != nil {
		respondStoreError(w, err, "User not found")
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"preferences": req.Preferences})
}

// DeleteUser removes an account. Admin only, enforced by the router.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteUser(r.Context(), id); err != nil {
		respondStoreError(w, err, "User not found")
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"id": id})
}
