// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

package api

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/choiwjun/gis/internal/auth"
	"github.com/choiwjun/gis/internal/blob"
	"github.com/choiwjun/gis/internal/config"
	"github.com/choiwjun/gis/internal/models"
	"github.com/choiwjun/gis/internal/store/memory"
)

const testPassword = "password123"

func testConfig() *config.Config {
	return &config.Config{
		Security: config.SecurityConfig{
			JWTSecret:  "0123456789abcdef0123456789abcdef",
			TokenTTL:   time.Hour,
			BcryptCost: 4,
		},
		RateLimit: config.RateLimitConfig{Enabled: false},
		API: config.APIConfig{
			MapFeatureLimit:      2000,
			SearchLimit:          100,
			IngestFeatureCap:     1000,
			NearbyCandidateLimit: 100,
			DefaultPageSize:      20,
			MaxPageSize:          100,
			MaxUploadBytes:       50 << 20,
		},
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()
	st := memory.New()
	cfg := testConfig()
	tokens := auth.NewManager(cfg.Security.JWTSecret, cfg.Security.TokenTTL)
	handler := NewHandler(st, blob.NewMemoryStore(), cfg, tokens)
	srv := httptest.NewServer(handler.Routes())
	t.Cleanup(srv.Close)
	return srv, st
}

func seedUser(t *testing.T, st *memory.Store, id, email, role string) {
	t.Helper()
	hash, err := auth.HashPassword(testPassword, 4)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	now := time.Now().UTC()
	err = st.CreateUser(context.Background(), &models.UserWithPassword{
		User: models.User{
			ID: id, Email: email, Name: id, Role: role,
			CreatedAt: now, UpdatedAt: now,
		},
		PasswordHash: hash,
	})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
}

type envelope struct {
	Success bool             `json:"success"`
	Data    json.RawMessage  `json:"data"`
	Error   *models.APIError `json:"error"`
}

func doJSON(t *testing.T, method, url, token string, body interface{}) (*http.Response, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading response: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("response not an envelope: %v\n%s", err, raw)
	}
	return resp, env
}

func login(t *testing.T, srv *httptest.Server, email string) string {
	t.Helper()
	resp, env := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "",
		map[string]string{"email": email, "password": testPassword})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, error = %+v", resp.StatusCode, env.Error)
	}
	var data struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.AccessToken == "" {
		t.Fatalf("login response missing accessToken: %s", env.Data)
	}
	return data.AccessToken
}

func uploadGeoJSON(t *testing.T, srv *httptest.Server, token, name string, payload []byte) (string, envelope) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name+".geojson")
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("writing file part: %v", err)
	}
	_ = mw.WriteField("name", name)
	_ = mw.WriteField("type", models.DatasetTypeGeoJSON)
	if err := mw.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/datasets/upload", &buf)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("upload response not an envelope: %v\n%s", err, raw)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload status = %d, error = %+v", resp.StatusCode, env.Error)
	}
	var data struct {
		Dataset models.Dataset `json:"dataset"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("upload data: %v", err)
	}
	return data.Dataset.ID, env
}

const tokyoPayload = `{"type":"FeatureCollection","features":[
	{"type":"Feature","geometry":{"type":"Point","coordinates":[139.7671,35.6812]},
	 "properties":{"name":"Tokyo Station","category":"station","score":95}},
	{"type":"Feature","geometry":{"type":"LineString","coordinates":[[139.70,35.64],[139.77,35.70]]},
	 "properties":{"name":"Yamanote Line","category":"rail"}}
]}`

func TestAuthFlow(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	// Register is public and creates a viewer account.
	resp, env := doJSON(t, http.MethodPost, srv.URL+"/api/users/register", "",
		map[string]string{"email": "new@example.com", "password": testPassword, "name": "New"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d, error = %+v", resp.StatusCode, env.Error)
	}
	var created struct {
		User models.User `json:"user"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("register data: %v", err)
	}
	if created.User.Role != models.RoleViewer {
		t.Errorf("registered role = %s, want viewer", created.User.Role)
	}

	// The same email again conflicts.
	resp, env = doJSON(t, http.MethodPost, srv.URL+"/api/users/register", "",
		map[string]string{"email": "new@example.com", "password": testPassword, "name": "Again"})
	if resp.StatusCode != http.StatusConflict || env.Error == nil || env.Error.Code != models.CodeConflict {
		t.Errorf("duplicate register: status = %d, error = %+v", resp.StatusCode, env.Error)
	}

	token := login(t, srv, "new@example.com")

	resp, env = doJSON(t, http.MethodGet, srv.URL+"/api/auth/me", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me status = %d", resp.StatusCode)
	}
	var me struct {
		User models.User `json:"user"`
	}
	if err := json.Unmarshal(env.Data, &me); err != nil || me.User.Email != "new@example.com" {
		t.Errorf("me = %s", env.Data)
	}

	// Wrong password and unknown account both say invalid credentials.
	for _, email := range []string{"new@example.com", "nobody@example.com"} {
		resp, env = doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "",
			map[string]string{"email": email, "password": "wrong-password"})
		if resp.StatusCode != http.StatusUnauthorized || env.Error == nil ||
			env.Error.Code != models.CodeInvalidCredentials {
			t.Errorf("login %s: status = %d, error = %+v", email, resp.StatusCode, env.Error)
		}
	}

	// No token at all.
	resp, env = doJSON(t, http.MethodGet, srv.URL+"/api/auth/me", "", nil)
	if resp.StatusCode != http.StatusUnauthorized || env.Error == nil ||
		env.Error.Code != models.CodeUnauthorized {
		t.Errorf("unauthenticated me: status = %d, error = %+v", resp.StatusCode, env.Error)
	}
}

func TestUploadAndMapData(t *testing.T) {
	t.Parallel()

	srv, st := newTestServer(t)
	seedUser(t, st, "editor-1", "editor@example.com", models.RoleEditor)
	token := login(t, srv, "editor@example.com")

	datasetID, env := uploadGeoJSON(t, srv, token, "tokyo", []byte(tokyoPayload))

	var uploaded struct {
		Dataset models.Dataset `json:"dataset"`
		Ingest  struct {
			FeaturesParsed int    `json:"featuresParsed"`
			FeaturesStored int    `json:"featuresStored"`
			Truncated      bool   `json:"truncated"`
			ParseError     string `json:"parseError"`
		} `json:"ingest"`
	}
	if err := json.Unmarshal(env.Data, &uploaded); err != nil {
		t.Fatalf("upload data: %v", err)
	}
	if uploaded.Dataset.RecordCount != 2 || uploaded.Ingest.FeaturesStored != 2 {
		t.Errorf("upload = %+v, want 2 records stored", uploaded)
	}

	// The bbox filter hits the point and the line.
	resp, env := doJSON(t, http.MethodGet,
		srv.URL+"/api/map/data?datasetId="+datasetID+"&bbox=139,35,140,36", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("map/data status = %d, error = %+v", resp.StatusCode, env.Error)
	}
	var fc models.FeatureCollection
	if err := json.Unmarshal(env.Data, &fc); err != nil {
		t.Fatalf("map/data payload: %v", err)
	}
	if len(fc.Features) != 2 {
		t.Errorf("bbox hit returned %d features, want 2", len(fc.Features))
	}

	// A disjoint box returns nothing.
	_, env = doJSON(t, http.MethodGet,
		srv.URL+"/api/map/data?datasetId="+datasetID+"&bbox=0,0,1,1", token, nil)
	if err := json.Unmarshal(env.Data, &fc); err != nil {
		t.Fatalf("map/data payload: %v", err)
	}
	if len(fc.Features) != 0 {
		t.Errorf("disjoint box returned %d features, want 0", len(fc.Features))
	}

	// Basic search over properties.
	_, env = doJSON(t, http.MethodGet,
		srv.URL+"/api/search?datasetId="+datasetID+"&q=Yamanote", token, nil)
	if err := json.Unmarshal(env.Data, &fc); err != nil {
		t.Fatalf("search payload: %v", err)
	}
	if len(fc.Features) != 1 || fc.Features[0].Properties["name"] != "Yamanote Line" {
		t.Errorf("search returned %d features: %+v", len(fc.Features), fc.Features)
	}

	// Nearby from the station itself.
	_, env = doJSON(t, http.MethodGet,
		srv.URL+"/api/map/nearby?datasetId="+datasetID+"&lat=35.6812&lon=139.7671&radius=500", token, nil)
	if err := json.Unmarshal(env.Data, &fc); err != nil {
		t.Fatalf("nearby payload: %v", err)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("nearby returned %d features, want only the station", len(fc.Features))
	}
	if d, ok := fc.Features[0].Properties["_distance"].(float64); !ok || d != 0 {
		t.Errorf("_distance = %v, want 0", fc.Features[0].Properties["_distance"])
	}
}

func TestExports(t *testing.T) {
	t.Parallel()

	srv, st := newTestServer(t)
	seedUser(t, st, "editor-1", "editor@example.com", models.RoleEditor)
	token := login(t, srv, "editor@example.com")

	datasetID, _ := uploadGeoJSON(t, srv, token, "tokyo", []byte(tokyoPayload))

	get := func(path string) (*http.Response, []byte) {
		req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
		if err != nil {
			t.Fatalf("building request: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		defer resp.Body.Close()
		raw, _ := io.ReadAll(resp.Body)
		return resp, raw
	}

	// GeoJSON export is a bare FeatureCollection attachment, no envelope.
	resp, raw := get("/api/export/geojson?datasetId=" + datasetID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("geojson export status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/geo+json" {
		t.Errorf("content type = %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, `tokyo.geojson`) {
		t.Errorf("content disposition = %q", cd)
	}
	var fc models.FeatureCollection
	if err := json.Unmarshal(raw, &fc); err != nil {
		t.Fatalf("geojson export body: %v\n%s", err, raw)
	}
	if fc.Type != "FeatureCollection" || len(fc.Features) != 2 {
		t.Errorf("export = type %s with %d features", fc.Type, len(fc.Features))
	}

	// CSV export: fixed columns, then property keys in first-appearance order.
	resp, raw = get("/api/export/csv?datasetId=" + datasetID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("csv export status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/csv" {
		t.Errorf("content type = %q", ct)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 3 {
		t.Fatalf("csv has %d lines, want header plus 2 rows:\n%s", len(lines), raw)
	}
	if !strings.HasPrefix(lines[0], "id,longitude,latitude,geometry_type,") {
		t.Errorf("csv header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "139.7671") || !strings.Contains(lines[1], "Tokyo Station") {
		t.Errorf("first csv row = %q", lines[1])
	}

	// Summary keeps the envelope.
	_, env := doJSON(t, http.MethodGet, srv.URL+"/api/export/summary?datasetId="+datasetID, token, nil)
	var summary struct {
		FeatureCount  int            `json:"featureCount"`
		GeometryTypes map[string]int `json:"geometryTypes"`
		BBox          *models.BBox   `json:"bbox"`
	}
	if err := json.Unmarshal(env.Data, &summary); err != nil {
		t.Fatalf("summary payload: %v", err)
	}
	if summary.FeatureCount != 2 || summary.GeometryTypes["Point"] != 1 || summary.GeometryTypes["LineString"] != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.BBox == nil || summary.BBox.MinLon != 139.70 {
		t.Errorf("summary bbox = %+v", summary.BBox)
	}
}

func TestStyleDefaultSwap(t *testing.T) {
	t.Parallel()

	srv, st := newTestServer(t)
	seedUser(t, st, "editor-1", "editor@example.com", models.RoleEditor)
	token := login(t, srv, "editor@example.com")

	datasetID, _ := uploadGeoJSON(t, srv, token, "tokyo", []byte(tokyoPayload))

	makeStyle := func(name string) string {
		resp, env := doJSON(t, http.MethodPost, srv.URL+"/api/styles", token, map[string]interface{}{
			"datasetId": datasetID,
			"name":      name,
			"style":     map[string]interface{}{"circle-color": "#ff0000"},
			"isDefault": true,
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create style status = %d, error = %+v", resp.StatusCode, env.Error)
		}
		var data struct {
			Style models.Style `json:"style"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil {
			t.Fatalf("style data: %v", err)
		}
		return data.Style.ID
	}

	first := makeStyle("day")
	second := makeStyle("night")

	resp, env := doJSON(t, http.MethodGet, srv.URL+"/api/styles?datasetId="+datasetID, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list styles status = %d", resp.StatusCode)
	}
	var list struct {
		Styles []models.Style `json:"styles"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("styles data: %v", err)
	}
	if len(list.Styles) != 2 {
		t.Fatalf("got %d styles, want 2", len(list.Styles))
	}
	defaults := 0
	for _, s := range list.Styles {
		if s.IsDefault {
			defaults++
		}
	}
	if defaults != 1 {
		t.Errorf("dataset has %d default styles, want exactly 1", defaults)
	}
	if !list.Styles[0].IsDefault || list.Styles[0].ID != second {
		t.Errorf("first listed style = %s (default=%v), want the newest default %s",
			list.Styles[0].ID, list.Styles[0].IsDefault, second)
	}
	for _, s := range list.Styles {
		if s.ID == first && s.IsDefault {
			t.Error("the demoted style is still marked default")
		}
	}
}

func TestRBAC(t *testing.T) {
	t.Parallel()

	srv, st := newTestServer(t)
	seedUser(t, st, "viewer-1", "viewer@example.com", models.RoleViewer)
	seedUser(t, st, "editor-1", "editor@example.com", models.RoleEditor)
	seedUser(t, st, "admin-1", "admin@example.com", models.RoleAdmin)

	viewer := login(t, srv, "viewer@example.com")
	editor := login(t, srv, "editor@example.com")
	admin := login(t, srv, "admin@example.com")

	datasetID, _ := uploadGeoJSON(t, srv, editor, "tokyo", []byte(tokyoPayload))

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		wantStatus int
	}{
		{"viewer cannot upload", http.MethodPost, "/api/datasets/upload", viewer, http.StatusForbidden},
		{"viewer cannot create features", http.MethodPost, "/api/features", viewer, http.StatusForbidden},
		{"viewer cannot delete styles", http.MethodDelete, "/api/styles/x", viewer, http.StatusForbidden},
		{"editor cannot delete datasets", http.MethodDelete, "/api/datasets/" + datasetID, editor, http.StatusForbidden},
		{"editor cannot list users", http.MethodGet, "/api/users", editor, http.StatusForbidden},
		{"admin lists users", http.MethodGet, "/api/users", admin, http.StatusOK},
		{"admin deletes dataset", http.MethodDelete, "/api/datasets/" + datasetID, admin, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, env := doJSON(t, tt.method, srv.URL+tt.path, tt.token, nil)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d (error = %+v)", resp.StatusCode, tt.wantStatus, env.Error)
			}
			if tt.wantStatus == http.StatusForbidden &&
				(env.Error == nil || env.Error.Code != models.CodeForbidden) {
				t.Errorf("error = %+v, want FORBIDDEN", env.Error)
			}
		})
	}
}

func TestFeatureLifecycle(t *testing.T) {
	t.Parallel()

	srv, st := newTestServer(t)
	seedUser(t, st, "editor-1", "editor@example.com", models.RoleEditor)
	token := login(t, srv, "editor@example.com")

	datasetID, _ := uploadGeoJSON(t, srv, token, "tokyo", []byte(tokyoPayload))

	recordCount := func() int {
		_, env := doJSON(t, http.MethodGet, srv.URL+"/api/datasets/"+datasetID, token, nil)
		var data struct {
			Dataset models.Dataset `json:"dataset"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil {
			t.Fatalf("dataset payload: %v", err)
		}
		return data.Dataset.RecordCount
	}
	if got := recordCount(); got != 2 {
		t.Fatalf("record count after upload = %d, want 2", got)
	}

	// Create bumps the count.
	resp, env := doJSON(t, http.MethodPost, srv.URL+"/api/features", token, map[string]interface{}{
		"datasetId":  datasetID,
		"geometry":   map[string]interface{}{"type": "Point", "coordinates": []float64{139.7016, 35.6580}},
		"properties": map[string]interface{}{"name": "Shibuya Station"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create feature status = %d, error = %+v", resp.StatusCode, env.Error)
	}
	var created struct {
		Feature models.Feature `json:"feature"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("feature payload: %v", err)
	}
	if created.Feature.GeometryType != models.GeometryPoint || created.Feature.BBox == nil {
		t.Errorf("created feature = %+v, want an indexed point", created.Feature)
	}
	if got := recordCount(); got != 3 {
		t.Errorf("record count after create = %d, want 3", got)
	}

	// Update replaces the geometry; a polygon clears the stored box.
	resp, env = doJSON(t, http.MethodPut, srv.URL+"/api/features/"+created.Feature.ID, token,
		map[string]interface{}{
			"geometry": map[string]interface{}{
				"type":        "Polygon",
				"coordinates": [][][]float64{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}},
			},
		})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update feature status = %d, error = %+v", resp.StatusCode, env.Error)
	}
	var updated struct {
		Feature models.Feature `json:"feature"`
	}
	if err := json.Unmarshal(env.Data, &updated); err != nil {
		t.Fatalf("feature payload: %v", err)
	}
	if updated.Feature.GeometryType != models.GeometryPolygon || updated.Feature.BBox != nil {
		t.Errorf("updated feature = %+v, want an unindexed polygon", updated.Feature)
	}

	// A bad geometry is rejected before anything is written.
	resp, env = doJSON(t, http.MethodPost, srv.URL+"/api/features", token, map[string]interface{}{
		"datasetId": datasetID,
		"geometry":  map[string]interface{}{"type": "Point", "coordinates": "nope"},
	})
	if resp.StatusCode != http.StatusBadRequest || env.Error == nil ||
		env.Error.Code != models.CodeValidationError {
		t.Errorf("invalid geometry: status = %d, error = %+v", resp.StatusCode, env.Error)
	}

	// Delete restores the count.
	resp, env = doJSON(t, http.MethodDelete, srv.URL+"/api/features/"+created.Feature.ID, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete feature status = %d, error = %+v", resp.StatusCode, env.Error)
	}
	if got := recordCount(); got != 2 {
		t.Errorf("record count after delete = %d, want 2", got)
	}

	// Deleting again is a 404.
	resp, env = doJSON(t, http.MethodDelete, srv.URL+"/api/features/"+created.Feature.ID, token, nil)
	if resp.StatusCode != http.StatusNotFound || env.Error == nil ||
		env.Error.Code != models.CodeNotFound {
		t.Errorf("double delete: status = %d, error = %+v", resp.StatusCode, env.Error)
	}

	// Each successful mutation left an audit row; the rejected geometry
	// and the failed second delete did not.
	logs := st.Activities()
	if len(logs) != 3 {
		t.Fatalf("activity log has %d entries, want 3: %+v", len(logs), logs)
	}
	wantActions := []string{models.ActionCreate, models.ActionUpdate, models.ActionDelete}
	for i, entry := range logs {
		if entry.Action != wantActions[i] {
			t.Errorf("log[%d].Action = %s, want %s", i, entry.Action, wantActions[i])
		}
		if entry.UserID != "editor-1" || entry.ResourceType != "feature" ||
			entry.ResourceID != created.Feature.ID {
			t.Errorf("log[%d] = %+v, want editor-1 acting on the feature", i, entry)
		}
	}
	var createDetails struct {
		DatasetID string `json:"datasetId"`
		Geometry  string `json:"geometry"`
	}
	if err := json.Unmarshal([]byte(logs[0].Details), &createDetails); err != nil {
		t.Fatalf("create details: %v", err)
	}
	if createDetails.DatasetID != datasetID || createDetails.Geometry != models.GeometryPoint {
		t.Errorf("create details = %+v", createDetails)
	}
	var deleteDetails struct {
		DatasetID string `json:"datasetId"`
	}
	if err := json.Unmarshal([]byte(logs[2].Details), &deleteDetails); err != nil {
		t.Fatalf("delete details: %v", err)
	}
	if deleteDetails.DatasetID != datasetID {
		t.Errorf("delete details = %+v", deleteDetails)
	}
}

func TestFeatureDetail(t *testing.T) {
	t.Parallel()

	srv, st := newTestServer(t)
	seedUser(t, st, "editor-1", "editor@example.com", models.RoleEditor)
	token := login(t, srv, "editor@example.com")

	datasetID, _ := uploadGeoJSON(t, srv, token, "tokyo", []byte(tokyoPayload))

	_, env := doJSON(t, http.MethodGet,
		srv.URL+"/api/map/data?datasetId="+datasetID, token, nil)
	var fc models.FeatureCollection
	if err := json.Unmarshal(env.Data, &fc); err != nil {
		t.Fatalf("map/data payload: %v", err)
	}
	var lineID string
	for _, f := range fc.Features {
		if f.Properties["name"] == "Yamanote Line" {
			lineID = f.ID
		}
	}
	if lineID == "" {
		t.Fatalf("Yamanote Line missing from %+v", fc.Features)
	}

	// The detail payload is a plain object carrying the dataset id, not
	// a GeoJSON Feature, and its geometry keeps the stored type with
	// min-corner coordinates.
	resp, env := doJSON(t, http.MethodGet, srv.URL+"/api/map/features/"+lineID, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("feature detail status = %d, error = %+v", resp.StatusCode, env.Error)
	}
	var detail map[string]json.RawMessage
	if err := json.Unmarshal(env.Data, &detail); err != nil {
		t.Fatalf("detail payload: %v", err)
	}
	if _, ok := detail["type"]; ok {
		t.Errorf("detail payload has a type field: %s", env.Data)
	}
	var got struct {
		ID        string                 `json:"id"`
		DatasetID string                 `json:"datasetId"`
		Geometry  models.GeoJSONGeometry `json:"geometry"`
	}
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("detail payload: %v", err)
	}
	if got.ID != lineID || got.DatasetID != datasetID {
		t.Errorf("detail = %+v, want id %s in dataset %s", got, lineID, datasetID)
	}
	if got.Geometry.Type != models.GeometryLineString {
		t.Errorf("geometry type = %s, want the stored LineString", got.Geometry.Type)
	}
	coords, ok := got.Geometry.Coordinates.([]interface{})
	if !ok || len(coords) != 2 {
		t.Fatalf("coordinates = %v", got.Geometry.Coordinates)
	}
	if lon, _ := coords[0].(float64); lon != 139.70 {
		t.Errorf("min corner lon = %v, want 139.70", coords[0])
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/api/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	raw, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(raw), `"status"`) {
		t.Errorf("body = %s", raw)
	}
}
