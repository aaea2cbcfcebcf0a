package repository

import (
	"context"

	"FareCast/internal/domain/models"
	"FareCast/pkg/kvstore"
)

// ErrNotFound is returned by HistoryStorage.Load when nothing was saved yet.
var ErrNotFound = kvstore.ErrNotFound

// HistoryStorage persists the serialized history log as one blob under one key.
type HistoryStorage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	// Delete succeeds when key is already absent.
	Delete(ctx context.Context, key string) error
}

// EventPublisher ships prediction events to downstream consumers.
type EventPublisher interface {
	PublishPredictions(ctx context.Context, events []models.PredictionEvent) error
}

// ArchiveStore keeps every published prediction for later analysis.
type ArchiveStore interface {
	Insert(ctx context.Context, events []models.PredictionEvent) error
	Recent(ctx context.Context, route models.RouteKey, limit int) ([]models.PredictionEvent, error)
}

// Metrics interface for recording application metrics.
type Metrics interface {
	RecordPrediction(kind, result string)
	RecordFallback(tier string, n int)
	RecordStaleRun()
	RecordError(kind string)
	SetHistoryEntries(n int)
	RecordLatency(op string, seconds float64)
}
