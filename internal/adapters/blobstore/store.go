// Package blobstore persists whole model blobs under fixed names. Every save
// overwrites the previous blob.
package blobstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/okian/edurate/pkg/metrics"
)

// Blob names used by the service.
const (
	RatingModel      = "student_rating_model"
	ImprovementModel = "student_improvement_model"
	PredictionModel  = "student_prediction_model"
)

// Store saves and loads raw blobs.
type Store interface {
	Save(ctx context.Context, name string, data []byte) error
	// Load returns ErrNotFound when nothing is stored under name.
	Load(ctx context.Context, name string) ([]byte, error)
	Close() error
}

// SaveJSON encodes v and saves it under name.
func SaveJSON(ctx context.Context, s Store, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		metrics.RecordBlobError(name, "save")
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	if err := s.Save(ctx, name, data); err != nil {
		metrics.RecordBlobError(name, "save")
		return err
	}
	metrics.RecordBlobSave(name)
	return nil
}

// LoadJSON loads the blob under name and decodes it into v.
func LoadJSON(ctx context.Context, s Store, name string, v any) error {
	data, err := s.Load(ctx, name)
	if err != nil {
		metrics.RecordBlobError(name, "load")
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		metrics.RecordBlobError(name, "load")
		return fmt.Errorf("%w: %s: %v", ErrSerialization, name, err)
	}
	metrics.RecordBlobLoad(name)
	return nil
}
