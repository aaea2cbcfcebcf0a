package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"FareCast/internal/domain/models"
	domrepo "FareCast/internal/domain/repository"
	applogger "FareCast/pkg/logger"

	"github.com/google/uuid"
)

const historySaveTimeout = 5 * time.Second

// HistoryStore is the bounded, most-recent-first log of explicit single
// predictions. Every mutation is persisted as one blob. The first storage failure
// switches the store to memory-only for the rest of the process; callers never
// see persistence errors.
type HistoryStore struct {
	storage domrepo.HistoryStorage
	key     string
	metrics domrepo.Metrics
	logger  *applogger.Logger
	now     func() time.Time
	newID   func() (uuid.UUID, error)
	timeout time.Duration

	mu       sync.Mutex
	entries  []models.HistoryEntry
	degraded bool
}

func NewHistoryStore(storage domrepo.HistoryStorage, key string, metrics domrepo.Metrics, logger *applogger.Logger) *HistoryStore {
	return &HistoryStore{
		storage: storage,
		key:     key,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewV7,
		timeout: historySaveTimeout,
		entries: []models.HistoryEntry{},
	}
}

// Load replaces the in-memory log with the stored one. Nothing stored yields an
// empty log.
func (h *HistoryStore) Load(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	data, err := h.storage.Load(ctx, h.key)
	switch {
	case errors.Is(err, domrepo.ErrNotFound):
		h.entries = []models.HistoryEntry{}
	case err != nil:
		h.degradeLocked("load", err)
	default:
		var entries []models.HistoryEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			h.degradeLocked("decode", err)
			break
		}
		if len(entries) > models.HistoryCap {
			entries = entries[:models.HistoryCap]
		}
		if entries == nil {
			entries = []models.HistoryEntry{}
		}
		h.entries = entries
	}
	h.metrics.SetHistoryEntries(len(h.entries))
}

// Append records a real prediction at the head of the log.
func (h *HistoryStore) Append(ctx context.Context, q models.QueryDescriptor, outcome models.PredictionOutcome) (models.HistoryEntry, error) {
	if !outcome.IsReal() {
		return models.HistoryEntry{}, models.ErrSyntheticOutcome
	}
	id, err := h.newID()
	if err != nil {
		return models.HistoryEntry{}, fmt.Errorf("history id: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	entry := models.HistoryEntry{
		ID:        id.String(),
		Query:     q,
		Result:    outcome,
		CreatedAt: h.now().UTC(),
	}

	next := make([]models.HistoryEntry, 0, models.HistoryCap)
	next = append(next, entry)
	next = append(next, h.entries...)
	if len(next) > models.HistoryCap {
		next = next[:models.HistoryCap]
	}
	h.entries = next

	h.persistLocked(ctx)
	return entry, nil
}

// Clear empties the log and removes the stored blob, so the next Load starts
// from an empty log.
func (h *HistoryStore) Clear(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = []models.HistoryEntry{}
	h.metrics.SetHistoryEntries(0)
	if h.degraded {
		return
	}

	ctx, cancel := h.storageContext(ctx)
	defer cancel()
	if err := h.storage.Delete(ctx, h.key); err != nil {
		h.degradeLocked("delete", err)
	}
}

// Entries returns a snapshot, most recent first.
func (h *HistoryStore) Entries() []models.HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]models.HistoryEntry{}, h.entries...)
}

// Degraded reports whether the store stopped talking to durable storage.
func (h *HistoryStore) Degraded() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.degraded
}

func (h *HistoryStore) persistLocked(ctx context.Context) {
	h.metrics.SetHistoryEntries(len(h.entries))
	if h.degraded {
		return
	}

	data, err := json.Marshal(h.entries)
	if err == nil {
		ctx, cancel := h.storageContext(ctx)
		defer cancel()
		err = h.storage.Save(ctx, h.key, data)
	}
	if err != nil {
		h.degradeLocked("save", err)
	}
}

// storageContext detaches writes from the caller's cancellation: a mutation that
// already happened in memory is persisted even if the request went away.
func (h *HistoryStore) storageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), h.timeout)
}

func (h *HistoryStore) degradeLocked(op string, err error) {
	h.degraded = true
	h.metrics.RecordError("history_" + op)
	h.logger.Warn("history storage unavailable, keeping history in memory only",
		applogger.String("op", op),
		applogger.String("key", h.key),
		applogger.Error(err),
	)
}
