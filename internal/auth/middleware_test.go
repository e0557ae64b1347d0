// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/choiwjun/gis/internal/models"
)

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var resp models.APIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("response not valid JSON: %v", err)
	}
	if resp.Success || resp.Error == nil {
		t.Fatalf("expected an error envelope, got %+v", resp)
	}
	return resp.Error.Code
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	m := NewManager(testSecret, time.Hour)
	token, err := m.GenerateToken(testUser())
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	var gotClaims *Claims
	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCode   string
	}{
		{"valid token", "Bearer " + token, http.StatusOK, ""},
		{"missing header", "", http.StatusUnauthorized, models.CodeUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized, models.CodeUnauthorized},
		{"bad token", "Bearer garbage", http.StatusUnauthorized, models.CodeInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotClaims = nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantCode != "" {
				if code := errorCode(t, rec.Body.Bytes()); code != tt.wantCode {
					t.Errorf("error code = %s, want %s", code, tt.wantCode)
				}
				return
			}
			if gotClaims == nil || gotClaims.UserID != "u1" {
				t.Errorf("claims not propagated: %+v", gotClaims)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireRole(models.RoleEditor, models.RoleAdmin)(next)

	tests := []struct {
		name       string
		role       string
		wantStatus int
	}{
		{"editor allowed", models.RoleEditor, http.StatusOK},
		{"admin allowed", models.RoleAdmin, http.StatusOK},
		{"viewer forbidden", models.RoleViewer, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(ContextWithClaims(req.Context(), &Claims{UserID: "u1", Role: tt.role}))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusForbidden {
				if code := errorCode(t, rec.Body.Bytes()); code != models.CodeForbidden {
					t.Errorf("error code = %s, want %s", code, models.CodeForbidden)
				}
			}
		})
	}
}

func TestRequireRole_WithoutClaims(t *testing.T) {
	t.Parallel()

	handler := RequireRole(models.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached without claims")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
