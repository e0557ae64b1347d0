// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

// Package search filters features by their properties. The basic search
// runs substring and score predicates against the raw properties JSON;
// the category match in particular compares against the serialized
// `"category":"value"` pair and misses values containing escapes.
package search

import (
	"context"
	"strings"
	"unicode"

	json "github.com/goccy/go-json"

	"github.com/choiwjun/gis/internal/models"
	"github.com/choiwjun/gis/internal/spatial"
	"github.com/choiwjun/gis/internal/store"
)

// ftsLimit caps full-text results regardless of the engine limit.
const ftsLimit = 100

// Engine runs attribute searches against a feature store.
type Engine struct {
	store store.FeatureStore
	limit int
}

// New creates an engine with the given result cap.
func New(st store.FeatureStore, limit int) *Engine {
	return &Engine{store: st, limit: limit}
}

// Params are the basic search filters; all set filters are ANDed.
// With FTS set, Query switches from substring to whole-token matching
// and the remaining filters are ignored.
type Params struct {
	Query    string
	Category string
	MinScore *int
	MaxScore *int
	FTS      bool
}

// Search scans the dataset in storage order and returns matches as
// min-corner points, capped at the engine limit.
func (e *Engine) Search(ctx context.Context, datasetID string, p Params) (models.FeatureCollection, error) {
	if p.FTS && p.Query != "" {
		return e.fullText(ctx, datasetID, p.Query)
	}
	features, err := e.store.FeaturesByDataset(ctx, datasetID, store.FeatureFilter{
		Query:    p.Query,
		Category: p.Category,
		MinScore: p.MinScore,
		MaxScore: p.MaxScore,
		Limit:    e.limit,
	})
	if err != nil {
		return models.FeatureCollection{}, err
	}
	return collect(features), nil
}

// fullText matches features whose indexed text contains every query
// token. The index text is the raw properties JSON, lowercased and
// split on anything that is not a letter or digit, so matches are
// whole tokens rather than substrings. Results are capped at 100.
func (e *Engine) fullText(ctx context.Context, datasetID, query string) (models.FeatureCollection, error) {
	want := tokenize(query)
	if len(want) == 0 {
		return collect(nil), nil
	}

	features, err := e.store.FeaturesByDataset(ctx, datasetID, store.FeatureFilter{})
	if err != nil {
		return models.FeatureCollection{}, err
	}

	matched := []models.Feature{}
	for i := range features {
		if containsAll(tokenSet(features[i].Properties), want) {
			matched = append(matched, features[i])
			if len(matched) >= ftsLimit {
				break
			}
		}
	}
	return collect(matched), nil
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func tokenSet(s string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, tok := range tokenize(s) {
		set[tok] = struct{}{}
	}
	return set
}

func containsAll(set map[string]struct{}, tokens []string) bool {
	for _, tok := range tokens {
		if _, ok := set[tok]; !ok {
			return false
		}
	}
	return true
}

// Condition is one advanced filter clause.
type Condition struct {
	Field string      `json:"field"`
	Op    string      `json:"op"`
	Value interface{} `json:"value"`
}

// Advanced evaluates conditions against each feature's decoded
// properties, ANDing all clauses. Supported ops: eq, gt, lt, like, in.
// Unknown ops never match.
func (e *Engine) Advanced(ctx context.Context, datasetID string, conds []Condition) (models.FeatureCollection, error) {
	features, err := e.store.FeaturesByDataset(ctx, datasetID, store.FeatureFilter{})
	if err != nil {
		return models.FeatureCollection{}, err
	}

	matched := []models.Feature{}
	for i := range features {
		if matchesAll(&features[i], conds) {
			matched = append(matched, features[i])
			if len(matched) >= e.limit {
				break
			}
		}
	}
	return collect(matched), nil
}

func collect(features []models.Feature) models.FeatureCollection {
	out := make([]models.GeoJSONFeature, 0, len(features))
	for i := range features {
		out = append(out, spatial.FeatureToGeoJSON(&features[i], false))
	}
	return models.NewFeatureCollection(out)
}

func matchesAll(f *models.Feature, conds []Condition) bool {
	props := map[string]interface{}{}
	if f.Properties != "" {
		if err := json.Unmarshal([]byte(f.Properties), &props); err != nil {
			return false
		}
	}
	for _, c := range conds {
		if !matches(props[c.Field], c) {
			return false
		}
	}
	return true
}

func matches(actual interface{}, c Condition) bool {
	switch c.Op {
	case "eq":
		return equal(actual, c.Value)
	case "gt":
		a, b, ok := numbers(actual, c.Value)
		return ok && a > b
	case "lt":
		a, b, ok := numbers(actual, c.Value)
		return ok && a < b
	case "like":
		as, ok1 := actual.(string)
		bs, ok2 := c.Value.(string)
		return ok1 && ok2 && strings.Contains(strings.ToLower(as), strings.ToLower(bs))
	case "in":
		list, ok := c.Value.([]interface{})
		if !ok {
			return false
		}
		for _, v := range list {
			if equal(actual, v) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func equal(a, b interface{}) bool {
	if an, bn, ok := numbers(a, b); ok {
		return an == bn
	}
	return a == b
}

func numbers(a, b interface{}) (float64, float64, bool) {
	an, ok1 := a.(float64)
	bn, ok2 := b.(float64)
	return an, bn, ok1 && ok2
}
