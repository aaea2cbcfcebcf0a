package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"FareCast/internal/domain/models"
	applogger "FareCast/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedForecaster blocks run n until gate(n) is released.
type gatedForecaster struct {
	mu    sync.Mutex
	calls []models.QueryDescriptor
	gates map[uint64]chan struct{}
}

func newGatedForecaster() *gatedForecaster {
	return &gatedForecaster{gates: map[uint64]chan struct{}{}}
}

func (f *gatedForecaster) gate(id uint64) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.gates[id]
	if !ok {
		g = make(chan struct{})
		f.gates[id] = g
	}
	return g
}

func (f *gatedForecaster) open(id uint64) { close(f.gate(id)) }

func (f *gatedForecaster) Forecast(_ context.Context, runID uint64, q models.QueryDescriptor) (models.ForecastSeries, error) {
	f.mu.Lock()
	f.calls = append(f.calls, q)
	f.mu.Unlock()

	<-f.gate(runID)
	return models.ForecastSeries{RunID: runID, Query: q}, nil
}

func (f *gatedForecaster) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// instantForecaster completes every run immediately.
type instantForecaster struct{ *gatedForecaster }

func (f *instantForecaster) Forecast(ctx context.Context, runID uint64, q models.QueryDescriptor) (models.ForecastSeries, error) {
	f.open(runID)
	return f.gatedForecaster.Forecast(ctx, runID, q)
}

type collector struct {
	mu  sync.Mutex
	got []models.ForecastSeries
}

func (c *collector) deliver(s models.ForecastSeries) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, s)
}

func (c *collector) runIDs() []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]uint64, 0, len(c.got))
	for _, s := range c.got {
		ids = append(ids, s.RunID)
	}
	return ids
}

func TestCabinClassChangeDoesNotTrigger(t *testing.T) {
	f := &instantForecaster{gatedForecaster: newGatedForecaster()}
	p := NewTriggerPolicy(f, nil, newFakeMetrics(), applogger.Nop())

	q := baseQuery()
	_, ok := p.Observe(context.Background(), q)
	require.True(t, ok)

	for _, edit := range []func(*models.QueryDescriptor){
		func(q *models.QueryDescriptor) { q.Class = "Business" },
		func(q *models.QueryDescriptor) { q.Stops = "one" },
		func(q *models.QueryDescriptor) { q.DepartureTime = "Night" },
		func(q *models.QueryDescriptor) { q.ArrivalTime = "Early_Morning" },
	} {
		edit(&q)
		_, ok := p.Observe(context.Background(), q)
		assert.False(t, ok)
	}
	p.Wait()
	assert.Equal(t, 1, f.count())
}

func TestRouteKeyChangesTrigger(t *testing.T) {
	f := &instantForecaster{gatedForecaster: newGatedForecaster()}
	p := NewTriggerPolicy(f, nil, newFakeMetrics(), applogger.Nop())

	q := baseQuery()
	id, ok := p.Observe(context.Background(), q)
	require.True(t, ok)
	assert.Equal(t, uint64(1), id)

	q.DepartureDate = "2025-06-02"
	id, ok = p.Observe(context.Background(), q)
	assert.True(t, ok)
	assert.Equal(t, uint64(2), id)

	q.Airline = "Indigo"
	_, ok = p.Observe(context.Background(), q)
	assert.True(t, ok)

	q = q.Swapped()
	_, ok = p.Observe(context.Background(), q)
	assert.True(t, ok)

	p.Wait()
	assert.Equal(t, 4, f.count())
}

func TestIncompleteKeyNeverTriggers(t *testing.T) {
	f := &instantForecaster{gatedForecaster: newGatedForecaster()}
	p := NewTriggerPolicy(f, nil, newFakeMetrics(), applogger.Nop())

	q := baseQuery()
	q.DestinationCity = ""
	_, ok := p.Observe(context.Background(), q)
	assert.False(t, ok)

	q.DestinationCity = "Mumbai"
	_, ok = p.Observe(context.Background(), q)
	assert.True(t, ok)

	// blanking a field and restoring it leaves the key equal to the last run's
	q.Airline = ""
	_, ok = p.Observe(context.Background(), q)
	assert.False(t, ok)
	q.Airline = "Vistara"
	_, ok = p.Observe(context.Background(), q)
	assert.False(t, ok)

	p.Wait()
	assert.Equal(t, 1, f.count())
}

func TestStaleRunIsDropped(t *testing.T) {
	f := newGatedForecaster()
	sink := &collector{}
	m := newFakeMetrics()
	p := NewTriggerPolicy(f, sink.deliver, m, applogger.Nop())

	q := baseQuery()
	first, _ := p.Observe(context.Background(), q)
	q.DepartureDate = "2025-06-08"
	second, _ := p.Observe(context.Background(), q)

	// the newer run finishes first, the older one afterwards
	f.open(second)
	require.Eventually(t, func() bool { return len(sink.runIDs()) == 1 }, time.Second, time.Millisecond)
	f.open(first)
	p.Wait()

	assert.Equal(t, []uint64{second}, sink.runIDs())
	assert.Equal(t, 1, m.staleRuns())

	latest, ok := p.Latest()
	require.True(t, ok)
	assert.Equal(t, second, latest.RunID)
	assert.Equal(t, "2025-06-08", latest.Query.DepartureDate)
}

func TestOlderRunFinishingFirstIsStillStale(t *testing.T) {
	f := newGatedForecaster()
	sink := &collector{}
	m := newFakeMetrics()
	p := NewTriggerPolicy(f, sink.deliver, m, applogger.Nop())

	q := baseQuery()
	first, _ := p.Observe(context.Background(), q)
	q.Airline = "SpiceJet"
	second, _ := p.Observe(context.Background(), q)

	f.open(first)
	f.open(second)
	p.Wait()

	assert.Equal(t, []uint64{second}, sink.runIDs())
	assert.Equal(t, 1, m.staleRuns())
	assert.Equal(t, second, p.Issued())
}

func TestLatestEmptyBeforeFirstDelivery(t *testing.T) {
	p := NewTriggerPolicy(newGatedForecaster(), nil, newFakeMetrics(), applogger.Nop())
	_, ok := p.Latest()
	assert.False(t, ok)
}

func TestAcceptPrecedesDelivery(t *testing.T) {
	f := &instantForecaster{gatedForecaster: newGatedForecaster()}

	var (
		mu     sync.Mutex
		events []string
	)
	record := func(e string) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	}
	p := NewTriggerPolicy(f, func(s models.ForecastSeries) {
		record(fmt.Sprintf("series %d", s.RunID))
	}, newFakeMetrics(), applogger.Nop())
	p.OnAccept(func(id uint64) { record(fmt.Sprintf("accepted %d", id)) })

	q := baseQuery()
	_, ok := p.Observe(context.Background(), q)
	require.True(t, ok)
	p.Wait()

	q.Class = "Business"
	_, ok = p.Observe(context.Background(), q)
	require.False(t, ok)

	q.DepartureDate = "2025-06-02"
	_, ok = p.Observe(context.Background(), q)
	require.True(t, ok)
	p.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"accepted 1", "series 1", "accepted 2", "series 2"}, events)
}
