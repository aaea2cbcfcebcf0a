package usecase

import (
	"context"
	"sync"
	"time"

	"FareCast/internal/domain/models"
)

func baseQuery() models.QueryDescriptor {
	return models.QueryDescriptor{
		Airline:         "Vistara",
		SourceCity:      "Delhi",
		DestinationCity: "Mumbai",
		DepartureTime:   "Morning",
		ArrivalTime:     "Afternoon",
		Stops:           "zero",
		Class:           "Economy",
		DepartureDate:   "2025-06-01",
	}
}

// funcClient answers Predict with fn.
type funcClient struct {
	fn func(ctx context.Context, q models.QueryDescriptor) (int64, error)
}

func (c funcClient) Predict(ctx context.Context, q models.QueryDescriptor) (int64, error) {
	return c.fn(ctx, q)
}

type fakeMetrics struct {
	mu          sync.Mutex
	predictions map[string]int
	fallbacks   map[string]int
	stale       int
	errors      map[string]int
	history     int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{predictions: map[string]int{}, fallbacks: map[string]int{}, errors: map[string]int{}}
}

func (m *fakeMetrics) RecordPrediction(kind, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions[kind+"/"+result]++
}

func (m *fakeMetrics) RecordFallback(tier string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbacks[tier] += n
}

func (m *fakeMetrics) RecordStaleRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stale++
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *fakeMetrics) SetHistoryEntries(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = n
}

func (m *fakeMetrics) RecordLatency(string, float64) {}

func (m *fakeMetrics) fallback(tier string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fallbacks[tier]
}

func (m *fakeMetrics) staleRuns() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stale
}

func day(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}
