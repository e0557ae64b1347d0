// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

// Package ingest turns uploaded files into datasets. The raw bytes are
// always written to blob storage first; only geojson payloads are
// parsed into stored features, and a payload that fails to parse still
// produces a dataset with zero stored features.
package ingest

import (
	"context"
	"fmt"
	"path"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	geojson "github.com/paulmach/orb/geojson"

	"github.com/choiwjun/gis/internal/blob"
	"github.com/choiwjun/gis/internal/geometry"
	"github.com/choiwjun/gis/internal/logging"
	"github.com/choiwjun/gis/internal/models"
	"github.com/choiwjun/gis/internal/store"
)

// Pipeline ingests uploads into the store and blob storage.
type Pipeline struct {
	store      store.Store
	blobs      blob.Store
	featureCap int
}

// New creates a pipeline. featureCap bounds how many features of one
// payload are stored; the dataset record count still reflects the full
// payload.
func New(st store.Store, blobs blob.Store, featureCap int) *Pipeline {
	return &Pipeline{store: st, blobs: blobs, featureCap: featureCap}
}

// Input is one upload.
type Input struct {
	Name        string
	Type        string
	Filename    string
	ContentType string
	Data        []byte
	CreatedBy   string
}

// Report describes what ingestion did with the payload.
type Report struct {
	FeaturesParsed int    `json:"featuresParsed"`
	FeaturesStored int    `json:"featuresStored"`
	Truncated      bool   `json:"truncated"`
	ParseError     string `json:"parseError,omitempty"`
}

// Result is the created dataset plus the ingest report.
type Result struct {
	Dataset *models.Dataset
	Report  Report
}

// Ingest stores the upload. A blob storage failure aborts with an
// error and nothing persisted; a geojson parse failure is logged,
// reported, and otherwise swallowed.
func (p *Pipeline) Ingest(ctx context.Context, in Input) (*Result, error) {
	datasetID := uuid.New().String()

	filename := path.Base(in.Filename)
	if filename == "" || filename == "." || filename == "/" {
		filename = "upload." + in.Type
	}
	storageKey := fmt.Sprintf("datasets/%s/%s", datasetID, filename)

	if err := p.blobs.Put(ctx, storageKey, in.Data, in.ContentType); err != nil {
		return nil, fmt.Errorf("storing upload: %w", err)
	}

	var (
		report      Report
		recordCount int
		schemaJSON  string
		features    []models.Feature
	)

	if in.Type == models.DatasetTypeGeoJSON {
		fc, err := geojson.UnmarshalFeatureCollection(in.Data)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).
				Str("dataset_id", datasetID).
				Msg("geojson parse failed, storing dataset without features")
			report.ParseError = err.Error()
		} else {
			recordCount = len(fc.Features)
			report.FeaturesParsed = recordCount
			schemaJSON = inferSchema(fc)

			stored := fc.Features
			if len(stored) > p.featureCap {
				stored = stored[:p.featureCap]
				report.Truncated = true
			}

			now := time.Now().UTC()
			features = make([]models.Feature, 0, len(stored))
			for _, f := range stored {
				props := "{}"
				if len(f.Properties) > 0 {
					raw, err := json.Marshal(f.Properties)
					if err == nil {
						props = string(raw)
					}
				}
				features = append(features, models.Feature{
					ID:           uuid.New().String(),
					DatasetID:    datasetID,
					GeometryType: geometry.TypeName(f.Geometry),
					BBox:         geometry.ComputeBBox(f.Geometry),
					Properties:   props,
					CreatedAt:    now,
				})
			}
			report.FeaturesStored = len(features)
		}
	}

	now := time.Now().UTC()
	dataset := &models.Dataset{
		ID:          datasetID,
		Name:        in.Name,
		Type:        in.Type,
		RecordCount: recordCount,
		StorageKey:  storageKey,
		SchemaJSON:  schemaJSON,
		Status:      models.DatasetStatusActive,
		CreatedBy:   in.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := p.store.CreateDataset(ctx, dataset); err != nil {
		return nil, fmt.Errorf("creating dataset: %w", err)
	}
	if err := p.store.InsertFeatures(ctx, features); err != nil {
		return nil, fmt.Errorf("inserting features: %w", err)
	}

	logging.Ctx(ctx).Info().
		Str("dataset_id", datasetID).
		Str("type", in.Type).
		Int("record_count", recordCount).
		Int("features_stored", report.FeaturesStored).
		Bool("truncated", report.Truncated).
		Msg("dataset ingested")

	return &Result{Dataset: dataset, Report: report}, nil
}

// inferSchema derives column types from the first feature's properties
// only, using the runtime type of each value.
func inferSchema(fc *geojson.FeatureCollection) string {
	if len(fc.Features) == 0 || len(fc.Features[0].Properties) == 0 {
		return ""
	}
	schema := make(map[string]string, len(fc.Features[0].Properties))
	for key, value := range fc.Features[0].Properties {
		schema[key] = typeName(value)
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return ""
	}
	return string(raw)
}

func typeName(v interface{}) string {
	switch v.(type) {
	case string:
		return "string"
	case float64, float32, int, int64:
		return "number"
	case bool:
		return "boolean"
	default:
		return "object"
	}
}
