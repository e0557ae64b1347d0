// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

// Package blob stores raw uploaded files under opaque keys. Uploads are
// written here before any parsing happens, so the original bytes survive
// even when ingestion cannot make sense of them.
package blob

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no object exists under the key.
var ErrNotFound = errors.New("blob: not found")

// Object is a stored blob with its content type.
type Object struct {
	Data        []byte
	ContentType string
}

// Store is the raw upload storage interface.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
}
