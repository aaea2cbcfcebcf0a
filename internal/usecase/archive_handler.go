package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"FareCast/internal/domain/models"
	domrepo "FareCast/internal/domain/repository"
	pkgkafka "FareCast/pkg/kafka"
)

// ArchiveHandler consumes prediction event batches and writes them to the archive.
type ArchiveHandler struct {
	topic   string
	store   domrepo.ArchiveStore
	metrics domrepo.Metrics
}

func NewArchiveHandler(topic string, store domrepo.ArchiveStore, metrics domrepo.Metrics) *ArchiveHandler {
	return &ArchiveHandler{topic: topic, store: store, metrics: metrics}
}

func (h *ArchiveHandler) Topic() string { return h.topic }

// Handle expects a JSON array of PredictionEvent. Undecodable payloads are not retried.
func (h *ArchiveHandler) Handle(ctx context.Context, b []byte) error {
	var events []models.PredictionEvent
	if err := json.Unmarshal(b, &events); err != nil {
		h.metrics.RecordError("archive_unmarshal")
		return pkgkafka.Permanent(fmt.Errorf("decode prediction events: %w", err))
	}
	if len(events) == 0 {
		return nil
	}

	start := time.Now()
	err := h.store.Insert(ctx, events)
	h.metrics.RecordLatency("archive_insert", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("archive_insert")
		return fmt.Errorf("archive %d events: %w", len(events), err)
	}
	return nil
}
