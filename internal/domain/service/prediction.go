package service

import (
	"context"

	"FareCast/internal/domain/models"
)

// PredictionClient prices one fully specified query. Any error (transport, status,
// malformed body) means no price for that query; implementations do not retry.
type PredictionClient interface {
	Predict(ctx context.Context, q models.QueryDescriptor) (int64, error)
}
