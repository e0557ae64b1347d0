// GeoDesk - Web GIS Dataset Viewer and Editor
// Copyright 2026 choiwjun
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/choiwjun/gis

// Package validation wraps a shared go-playground validator instance
// and translates its failures into VALIDATION_ERROR payload details.
package validation

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/choiwjun/gis/internal/models"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// Get returns the shared validator, registering custom rules on first
// use.
func Get() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// bboxstring: "minLon,minLat,maxLon,maxLat", four numeric parts.
		_ = validate.RegisterValidation("bboxstring", func(fl validator.FieldLevel) bool {
			parts := strings.Split(fl.Field().String(), ",")
			if len(parts) != 4 {
				return false
			}
			for _, p := range parts {
				if _, err := strconv.ParseFloat(strings.TrimSpace(p), 64); err != nil {
					return false
				}
			}
			return true
		})

		// role: one of the known roles.
		_ = validate.RegisterValidation("role", func(fl validator.FieldLevel) bool {
			return models.ValidRole(fl.Field().String())
		})

		// datasettype: one of the supported upload types.
		_ = validate.RegisterValidation("datasettype", func(fl validator.FieldLevel) bool {
			return models.ValidDatasetType(fl.Field().String())
		})
	})
	return validate
}

// FieldError is one failed validation rule, shaped for the error
// details payload.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidateStruct runs the registered rules and returns per-field
// errors, or nil when the struct is valid.
func ValidateStruct(s interface{}) []FieldError {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Field: "", Message: err.Error()}}
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field:   strings.ToLower(fe.Field()[:1]) + fe.Field()[1:],
			Message: messageFor(fe),
		})
	}
	return fields
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "bboxstring":
		return "must be four comma-separated numbers"
	case "role":
		return "must be a valid role"
	case "datasettype":
		return "must be geojson, csv or shp"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
