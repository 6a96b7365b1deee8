package storage

import (
	"context"

	"coinSage/internal/model"
)

// Store is a sink for delivered prediction records.
type Store interface {
	PutPrediction(ctx context.Context, record model.PredictionRecord) error
}
