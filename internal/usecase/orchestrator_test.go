package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"FareCast/internal/domain/models"
	applogger "FareCast/pkg/logger"
	"FareCast/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrchestrator(client funcClient, m *fakeMetrics, callTimeout time.Duration) *ForecastOrchestrator {
	return NewForecastOrchestrator(client, NewFallbackSynthesizer(99), m, applogger.Nop(), callTimeout)
}

// priceFor gives each date a distinct, recognisable price.
func priceFor(q models.QueryDescriptor) int64 {
	d, _ := q.Date()
	return 7000 + int64(d.YearDay())
}

func assertHorizon(t *testing.T, s models.ForecastSeries, start string) {
	t.Helper()
	require.Len(t, s.Outcomes, models.HorizonDays)
	for i, o := range s.Outcomes {
		assert.Equal(t, util.AddDays(day(start), i), o.Date, "outcome %d", i)
	}
}

func TestRunAllSucceed(t *testing.T) {
	m := newFakeMetrics()
	o := newOrchestrator(funcClient{fn: func(_ context.Context, q models.QueryDescriptor) (int64, error) {
		return priceFor(q), nil
	}}, m, time.Second)

	s, err := o.Run(context.Background(), baseQuery())
	require.NoError(t, err)

	assertHorizon(t, s, "2025-06-01")
	for _, out := range s.Outcomes {
		assert.Equal(t, models.OriginReal, out.Origin)
		assert.Equal(t, 7000+int64(out.Date.YearDay()), out.Price)
	}
	assert.False(t, s.Degraded)
	assert.Equal(t, baseQuery(), s.Query)
	assert.Equal(t, 0, m.fallback("item"))
}

func TestRunAllFail(t *testing.T) {
	m := newFakeMetrics()
	o := newOrchestrator(funcClient{fn: func(context.Context, models.QueryDescriptor) (int64, error) {
		return 0, errors.New("connection refused")
	}}, m, time.Second)

	s, err := o.Run(context.Background(), baseQuery())
	require.NoError(t, err)

	assertHorizon(t, s, "2025-06-01")
	for _, out := range s.Outcomes {
		assert.Equal(t, models.OriginSynthetic, out.Origin)
		assert.GreaterOrEqual(t, out.Price, int64(4000))
		assert.LessOrEqual(t, out.Price, int64(6000))
	}
	assert.False(t, s.Degraded)
	assert.Equal(t, 7, m.fallback("item"))
	assert.Equal(t, 0, m.fallback("batch"))
}

func TestRunMixedKeepsFailuresInPlace(t *testing.T) {
	failing := map[string]bool{"2025-06-02": true, "2025-06-05": true, "2025-06-06": true}
	o := newOrchestrator(funcClient{fn: func(_ context.Context, q models.QueryDescriptor) (int64, error) {
		if failing[q.DepartureDate] {
			return 0, errors.New("503")
		}
		return priceFor(q), nil
	}}, newFakeMetrics(), time.Second)

	s, err := o.Run(context.Background(), baseQuery())
	require.NoError(t, err)
	assertHorizon(t, s, "2025-06-01")

	assert.Equal(t, 3, s.Count(models.OriginSynthetic))
	assert.Equal(t, 4, s.Count(models.OriginReal))
	for _, out := range s.Outcomes {
		if failing[util.FormatDate(out.Date)] {
			assert.Equal(t, models.OriginSynthetic, out.Origin)
		} else {
			assert.Equal(t, models.OriginReal, out.Origin)
			assert.Equal(t, 7000+int64(out.Date.YearDay()), out.Price)
		}
	}
}

func TestRunIssuesCallsConcurrently(t *testing.T) {
	var arrived sync.WaitGroup
	arrived.Add(models.HorizonDays)
	all := make(chan struct{})
	go func() {
		arrived.Wait()
		close(all)
	}()

	o := newOrchestrator(funcClient{fn: func(ctx context.Context, q models.QueryDescriptor) (int64, error) {
		arrived.Done()
		select {
		case <-all:
			return priceFor(q), nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}}, newFakeMetrics(), 2*time.Second)

	s, err := o.Run(context.Background(), baseQuery())
	require.NoError(t, err)
	assert.Equal(t, models.HorizonDays, s.Count(models.OriginReal), "every call must be in flight at once")
}

func TestRunSlowDayTimesOutAlone(t *testing.T) {
	o := newOrchestrator(funcClient{fn: func(ctx context.Context, q models.QueryDescriptor) (int64, error) {
		if q.DepartureDate == "2025-06-04" {
			<-ctx.Done()
			return 0, ctx.Err()
		}
		return priceFor(q), nil
	}}, newFakeMetrics(), 50*time.Millisecond)

	s, err := o.Run(context.Background(), baseQuery())
	require.NoError(t, err)
	assert.Equal(t, 6, s.Count(models.OriginReal))
	assert.Equal(t, models.OriginSynthetic, s.Outcomes[3].Origin)
}

func TestRunSendsPerDayDescriptors(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]models.QueryDescriptor{}
	o := newOrchestrator(funcClient{fn: func(_ context.Context, q models.QueryDescriptor) (int64, error) {
		mu.Lock()
		seen[q.DepartureDate] = q
		mu.Unlock()
		return 5000, nil
	}}, newFakeMetrics(), time.Second)

	q := baseQuery()
	q.DepartureDate = "2024-12-29"
	_, err := o.Run(context.Background(), q)
	require.NoError(t, err)

	require.Len(t, seen, models.HorizonDays)
	for date, got := range seen {
		want := q
		want.DepartureDate = date
		assert.Equal(t, want, got)
	}
	assert.Contains(t, seen, "2025-01-04")
}

func TestRunTreatsNonPositivePriceAsFailure(t *testing.T) {
	o := newOrchestrator(funcClient{fn: func(_ context.Context, q models.QueryDescriptor) (int64, error) {
		if q.DepartureDate == "2025-06-01" {
			return 0, nil
		}
		return 4200, nil
	}}, newFakeMetrics(), time.Second)

	s, err := o.Run(context.Background(), baseQuery())
	require.NoError(t, err)
	assert.Equal(t, models.OriginSynthetic, s.Outcomes[0].Origin)
	assert.Equal(t, 6, s.Count(models.OriginReal))
}

func TestRunRejectsInvalidDate(t *testing.T) {
	o := newOrchestrator(funcClient{fn: func(context.Context, models.QueryDescriptor) (int64, error) {
		t.Error("client must not be called")
		return 0, nil
	}}, newFakeMetrics(), time.Second)

	q := baseQuery()
	q.DepartureDate = "next tuesday"
	_, err := o.Run(context.Background(), q)
	assert.ErrorIs(t, err, models.ErrInvalidQuery)
}

func TestRunPanicFailsOnlyThatDay(t *testing.T) {
	m := newFakeMetrics()
	o := newOrchestrator(funcClient{fn: func(_ context.Context, q models.QueryDescriptor) (int64, error) {
		if q.DepartureDate == "2025-06-03" {
			panic("nil pointer in client")
		}
		return priceFor(q), nil
	}}, m, time.Second)

	s, err := o.Run(context.Background(), baseQuery())
	require.NoError(t, err)

	assert.False(t, s.Degraded)
	assertHorizon(t, s, "2025-06-01")
	assert.Equal(t, 6, s.Count(models.OriginReal))
	assert.Equal(t, 1, s.Count(models.OriginSynthetic))
	assert.Equal(t, models.OriginSynthetic, s.Outcomes[2].Origin)
	assert.Equal(t, 1, m.fallback("item"))
	assert.Equal(t, 0, m.fallback("batch"))
}

func TestRunParentCancelledBeforeJoin(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	// a client that ignores its context keeps the join from completing
	o := newOrchestrator(funcClient{fn: func(context.Context, models.QueryDescriptor) (int64, error) {
		<-release
		return 5000, nil
	}}, newFakeMetrics(), time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	s, err := o.Run(ctx, baseQuery())
	require.NoError(t, err)
	assert.True(t, s.Degraded)
	assertHorizon(t, s, "2025-06-01")
	assert.Equal(t, models.HorizonDays, s.Count(models.OriginSynthetic))
}

func TestRunIsIdempotentForRealPrices(t *testing.T) {
	o := newOrchestrator(funcClient{fn: func(_ context.Context, q models.QueryDescriptor) (int64, error) {
		return priceFor(q), nil
	}}, newFakeMetrics(), time.Second)

	a, err := o.Run(context.Background(), baseQuery())
	require.NoError(t, err)
	b, err := o.Run(context.Background(), baseQuery())
	require.NoError(t, err)

	assert.Equal(t, a.Outcomes, b.Outcomes)
	assert.Equal(t, a.Query, b.Query)
}

func TestCoversHorizon(t *testing.T) {
	start := day("2025-06-01")
	outcomes := make([]models.PredictionOutcome, models.HorizonDays)
	for i := range outcomes {
		outcomes[i].Date = util.AddDays(start, i)
	}
	assert.True(t, coversHorizon(outcomes, start))

	outcomes[3].Date = outcomes[2].Date
	assert.False(t, coversHorizon(outcomes, start))
	assert.False(t, coversHorizon(outcomes[:6], start))
}
