// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

// Package memory implements store.Store with in-process maps. It backs
// the demo mode and the test suites; semantics mirror the DuckDB store,
// including storage-order scans and atomic record-count adjustment.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/choiwjun/gis/internal/models"
	"github.com/choiwjun/gis/internal/store"
)

// Store is a map-backed store.Store. All methods are safe for
// concurrent use; a single RWMutex guards every table.
type Store struct {
	mu sync.RWMutex

	users     map[string]*models.UserWithPassword
	userOrder []string
	prefs     map[string]string

	datasets     map[string]*models.Dataset
	datasetOrder []string

	features     map[string]*models.Feature
	featureOrder map[string][]string // dataset id -> feature ids, insertion order

	styles     map[string]*models.Style
	styleOrder map[string][]string

	activities []models.ActivityLog
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:        make(map[string]*models.UserWithPassword),
		prefs:        make(map[string]string),
		datasets:     make(map[string]*models.Dataset),
		features:     make(map[string]*models.Feature),
		featureOrder: make(map[string][]string),
		styles:       make(map[string]*models.Style),
		styleOrder:   make(map[string][]string),
	}
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// --- users ---

func (s *Store) CreateUser(_ context.Context, u *models.UserWithPassword) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == u.Email {
			return store.ErrConflict
		}
	}
	if _, ok := s.users[u.ID]; ok {
		return store.ErrConflict
	}

	cp := *u
	s.users[u.ID] = &cp
	s.userOrder = append(s.userOrder, u.ID)
	return nil
}

func (s *Store) UserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	pub := u.User
	return &pub, nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (*models.UserWithPassword, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListUsers(_ context.Context, page, pageSize int) ([]models.User, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Newest first, matching the SQL ORDER BY created_at DESC.
	out := make([]models.User, 0, len(s.userOrder))
	for i := len(s.userOrder) - 1; i >= 0; i-- {
		out = append(out, s.users[s.userOrder[i]].User)
	}
	total := len(out)
	return paginate(out, page, pageSize), total, nil
}

func (s *Store) UpdateUser(_ context.Context, id string, upd store.UserUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.users, id)
	delete(s.prefs, id)
	s.userOrder = removeID(s.userOrder, id)
	return nil
}

func (s *Store) UserPreferences(_ context.Context, userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.prefs[userID]
	if !ok {
		return "", store.ErrNotFound
	}
	return p, nil
}

func (s *Store) SetUserPreferences(_ context.Context, userID, preferencesJSON string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prefs[userID] = preferencesJSON
	return nil
}

// --- datasets ---

func (s *Store) CreateDataset(_ context.Context, d *models.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.datasets[d.ID]; ok {
		return store.ErrConflict
	}
	cp := *d
	s.datasets[d.ID] = &cp
	s.datasetOrder = append(s.datasetOrder, d.ID)
	return nil
}

func (s *Store) Dataset(_ context.Context, id string) (*models.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.datasets[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *Store) ListDatasets(_ context.Context, page, pageSize int, typ string) ([]models.Dataset, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Dataset, 0, len(s.datasetOrder))
	for i := len(s.datasetOrder) - 1; i >= 0; i-- {
		d := s.datasets[s.datasetOrder[i]]
		if typ != "" && d.Type != typ {
			continue
		}
		out = append(out, *d)
	}
	total := len(out)
	return paginate(out, page, pageSize), total, nil
}

func (s *Store) DeleteDataset(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.datasets[id]; !ok {
		return store.ErrNotFound
	}
	for _, fid := range s.featureOrder[id] {
		delete(s.features, fid)
	}
	delete(s.featureOrder, id)
	for _, sid := range s.styleOrder[id] {
		delete(s.styles, sid)
	}
	delete(s.styleOrder, id)
	delete(s.datasets, id)
	s.datasetOrder = removeID(s.datasetOrder, id)
	return nil
}

func (s *Store) AdjustRecordCount(_ context.Context, id string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.datasets[id]
	if !ok {
		return store.ErrNotFound
	}
	d.RecordCount += delta
	d.UpdatedAt = time.Now().UTC()
	return nil
}

// --- features ---

func (s *Store) InsertFeature(_ context.Context, f *models.Feature) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertFeatureLocked(f)
}

func (s *Store) InsertFeatures(_ context.Context, fs []models.Feature) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range fs {
		if err := s.insertFeatureLocked(&fs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) insertFeatureLocked(f *models.Feature) error {
	if _, ok := s.features[f.ID]; ok {
		return store.ErrConflict
	}
	cp := *f
	if f.BBox != nil {
		box := *f.BBox
		cp.BBox = &box
	}
	s.features[f.ID] = &cp
	s.featureOrder[f.DatasetID] = append(s.featureOrder[f.DatasetID], f.ID)
	return nil
}

func (s *Store) Feature(_ context.Context, id string) (*models.Feature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.features[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := copyFeature(f)
	return &cp, nil
}

func (s *Store) FeaturesByDataset(_ context.Context, datasetID string, filter store.FeatureFilter) ([]models.Feature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Feature{}
	for _, fid := range s.featureOrder[datasetID] {
		f := s.features[fid]
		if !matchFeature(f, filter) {
			continue
		}
		out = append(out, copyFeature(f))
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func (s *Store) UpdateFeature(_ context.Context, id string, upd store.FeatureUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.features[id]
	if !ok {
		return store.ErrNotFound
	}
	if upd.Geometry != nil {
		f.GeometryType = upd.Geometry.Type
		if upd.Geometry.BBox != nil {
			box := *upd.Geometry.BBox
			f.BBox = &box
		} else {
			f.BBox = nil
		}
	}
	if upd.Properties != nil {
		f.Properties = *upd.Properties
	}
	return nil
}

func (s *Store) DeleteFeature(_ context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.features[id]
	if !ok {
		return "", store.ErrNotFound
	}
	datasetID := f.DatasetID
	delete(s.features, id)
	s.featureOrder[datasetID] = removeID(s.featureOrder[datasetID], id)
	return datasetID, nil
}

func (s *Store) DatasetSummary(_ context.Context, datasetID string) (*models.DatasetSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := &models.DatasetSummary{GeometryTypes: map[string]int{}}
	for _, fid := range s.featureOrder[datasetID] {
		f := s.features[fid]
		summary.FeatureCount++
		summary.GeometryTypes[f.GeometryType]++
		if f.BBox == nil {
			continue
		}
		if summary.BBox == nil {
			box := *f.BBox
			summary.BBox = &box
		} else {
			box := summary.BBox.Extend(*f.BBox)
			summary.BBox = &box
		}
	}
	return summary, nil
}

// --- styles ---

func (s *Store) CreateStyle(_ context.Context, st *models.Style) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.styles[st.ID]; ok {
		return store.ErrConflict
	}
	cp := *st
	s.styles[st.ID] = &cp
	s.styleOrder[st.DatasetID] = append(s.styleOrder[st.DatasetID], st.ID)
	return nil
}

func (s *Store) Style(_ context.Context, id string) (*models.Style, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.styles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (s *Store) StylesByDataset(_ context.Context, datasetID string) ([]models.Style, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.styleOrder[datasetID]
	out := make([]models.Style, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		out = append(out, *s.styles[ids[i]])
	}
	// Default first, then newest first.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].IsDefault && !out[j].IsDefault
	})
	return out, nil
}

func (s *Store) UpdateStyle(_ context.Context, id string, upd store.StyleUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.styles[id]
	if !ok {
		return store.ErrNotFound
	}
	if upd.Name != nil {
		st.Name = *upd.Name
	}
	if upd.StyleJSON != nil {
		st.Style = []byte(*upd.StyleJSON)
	}
	if upd.IsDefault != nil {
		st.IsDefault = *upd.IsDefault
	}
	st.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) DeleteStyle(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.styles[id]
	if !ok {
		return store.ErrNotFound
	}
	s.styleOrder[st.DatasetID] = removeID(s.styleOrder[st.DatasetID], id)
	delete(s.styles, id)
	return nil
}

func (s *Store) ClearDefaultStyle(_ context.Context, datasetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sid := range s.styleOrder[datasetID] {
		s.styles[sid].IsDefault = false
	}
	return nil
}

// --- activity ---

func (s *Store) LogActivity(_ context.Context, entry *models.ActivityLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activities = append(s.activities, *entry)
	return nil
}

// Activities returns a copy of the log in write order.
func (s *Store) Activities() []models.ActivityLog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ActivityLog, len(s.activities))
	copy(out, s.activities)
	return out
}

// --- helpers ---

func copyFeature(f *models.Feature) models.Feature {
	cp := *f
	if f.BBox != nil {
		box := *f.BBox
		cp.BBox = &box
	}
	return cp
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func paginate[T any](items []T, page, pageSize int) []T {
	if pageSize <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
