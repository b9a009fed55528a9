// Package schema validates records arriving from outside the process
// (bulk imports, replaced documents) before they enter the stores.
// Validation failures are reported as rejections, never as errors, so the
// stores keep their never-throw contract.
package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/qri-io/jsonschema"

	"github.com/jobdeck/jobdeck/pkg/models"
)

const applicationSchemaJSON = `{
	"type": "object",
	"required": ["jobTitle", "company"],
	"properties": {
		"id": {"type": "string"},
		"jobTitle": {"type": "string", "minLength": 1},
		"company": {"type": "string", "minLength": 1},
		"status": {"enum": ["IN-REVIEW", "REVIEWED", "SELECTED", "REJECTED"]},
		"dateApplied": {"type": "string"},
		"userEmail": {"type": "string"}
	}
}`

const profileSchemaJSON = `{
	"type": "object",
	"required": ["username"],
	"properties": {
		"username": {"type": "string", "minLength": 1},
		"fullName": {"type": "string"},
		"email": {"type": "string"},
		"skills": {"type": "array", "items": {"type": "string"}}
	}
}`

// Validator holds the compiled schemas.
type Validator struct {
	mu     sync.RWMutex
	cache  map[string]*jsonschema.Schema
	logger *slog.Logger
}

func New(logger *slog.Logger) (*Validator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	v := &Validator{cache: make(map[string]*jsonschema.Schema), logger: logger}
	for name, src := range map[string]string{
		"application": applicationSchemaJSON,
		"profile":     profileSchemaJSON,
	} {
		rs := &jsonschema.Schema{}
		if err := json.Unmarshal([]byte(src), rs); err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		v.cache[name] = rs
	}

	return v, nil
}

// ValidApplication reports whether the record satisfies the application
// schema.
func (v *Validator) ValidApplication(ctx context.Context, app models.Application) bool {
	return v.valid(ctx, "application", app)
}

// ValidProfile reports whether the document satisfies the profile schema.
func (v *Validator) ValidProfile(ctx context.Context, p models.Profile) bool {
	return v.valid(ctx, "profile", p)
}

func (v *Validator) valid(ctx context.Context, name string, record any) bool {
	v.mu.RLock()
	rs, ok := v.cache[name]
	v.mu.RUnlock()
	if !ok {
		return true
	}

	b, err := json.Marshal(record)
	if err != nil {
		return false
	}

	keyErrs, err := rs.ValidateBytes(ctx, b)
	if err != nil {
		v.logger.Warn("schema validation failed", slog.String("schema", name), slog.Any("err", err))
		return false
	}
	if len(keyErrs) > 0 {
		v.logger.Warn("record rejected by schema",
			slog.String("schema", name), slog.String("first_error", keyErrs[0].Message))
		return false
	}

	return true
}
