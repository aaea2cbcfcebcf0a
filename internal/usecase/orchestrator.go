package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"FareCast/internal/domain/models"
	domrepo "FareCast/internal/domain/repository"
	"FareCast/internal/domain/service"
	applogger "FareCast/pkg/logger"
	"FareCast/pkg/util"
)

var errBadAssembly = errors.New("assembled outcomes do not cover the horizon")

// ForecastOrchestrator turns single-day predictions into a HorizonDays series.
type ForecastOrchestrator struct {
	client      service.PredictionClient
	synth       *FallbackSynthesizer
	metrics     domrepo.Metrics
	logger      *applogger.Logger
	callTimeout time.Duration
	now         func() time.Time
}

func NewForecastOrchestrator(client service.PredictionClient, synth *FallbackSynthesizer, metrics domrepo.Metrics, logger *applogger.Logger, callTimeout time.Duration) *ForecastOrchestrator {
	if callTimeout <= 0 {
		callTimeout = 5 * time.Second
	}
	return &ForecastOrchestrator{
		client:      client,
		synth:       synth,
		metrics:     metrics,
		logger:      logger,
		callTimeout: callTimeout,
		now:         time.Now,
	}
}

type daySlot struct {
	price int64
	err   error
}

// Run prices HorizonDays consecutive days starting at q's departure date. Days the
// client cannot price are filled by the synthesizer; if the run as a whole cannot
// be joined the entire series is synthesized and marked Degraded. The only error
// is ErrInvalidQuery for an unparsable departure date.
func (o *ForecastOrchestrator) Run(ctx context.Context, q models.QueryDescriptor) (models.ForecastSeries, error) {
	start, err := q.Date()
	if err != nil {
		return models.ForecastSeries{}, fmt.Errorf("%w: %v", models.ErrInvalidQuery, err)
	}
	began := time.Now()
	defer func() { o.metrics.RecordLatency("forecast_run", time.Since(began).Seconds()) }()

	dates := util.DateRange(start, models.HorizonDays)
	slots := make([]daySlot, len(dates))

	var wg sync.WaitGroup
	for i, d := range dates {
		wg.Add(1)
		go func(i int, d time.Time) {
			defer wg.Done()
			defer func() {
				// a panicking client fails only its own day
				if r := recover(); r != nil {
					slots[i] = daySlot{err: fmt.Errorf("prediction panicked: %v", r)}
				}
			}()

			callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
			defer cancel()
			price, err := o.client.Predict(callCtx, q.WithDepartureDate(d))
			slots[i] = daySlot{price: price, err: err}
		}(i, d)
	}

	joined := make(chan struct{})
	go func() {
		wg.Wait()
		close(joined)
	}()

	select {
	case <-joined:
	case <-ctx.Done():
		return o.degraded(q, dates, ctx.Err()), nil
	}

	outcomes := make([]models.PredictionOutcome, len(dates))
	synthetic := 0
	for i, d := range dates {
		s := slots[i]
		if s.err == nil && s.price <= 0 {
			s.err = fmt.Errorf("non-positive price %d", s.price)
		}
		if s.err != nil {
			o.metrics.RecordPrediction(string(models.EventForecast), "error")
			o.logger.Warn("forecast day fell back to synthetic price",
				applogger.String("route", q.Route()),
				applogger.String("date", util.FormatDate(d)),
				applogger.Error(s.err),
			)
			outcomes[i] = o.synth.Synthesize(d)
			synthetic++
			continue
		}
		o.metrics.RecordPrediction(string(models.EventForecast), "ok")
		outcomes[i] = models.PredictionOutcome{Date: d, Price: s.price, Origin: models.OriginReal}
	}
	if synthetic > 0 {
		o.metrics.RecordFallback("item", synthetic)
	}

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Date.Before(outcomes[j].Date) })
	if !coversHorizon(outcomes, start) {
		return o.degraded(q, dates, errBadAssembly), nil
	}

	return models.ForecastSeries{
		Query:       q,
		Outcomes:    outcomes,
		GeneratedAt: o.now(),
	}, nil
}

func (o *ForecastOrchestrator) degraded(q models.QueryDescriptor, dates []time.Time, cause error) models.ForecastSeries {
	o.metrics.RecordFallback("batch", 1)
	o.logger.Warn("forecast run degraded to a fully synthetic series",
		applogger.String("route", q.Route()),
		applogger.String("departure_date", q.DepartureDate),
		applogger.Error(cause),
	)
	return models.ForecastSeries{
		Query:       q,
		Outcomes:    o.synth.Series(dates),
		GeneratedAt: o.now(),
		Degraded:    true,
	}
}

// coversHorizon checks for exactly HorizonDays consecutive dates from start.
func coversHorizon(outcomes []models.PredictionOutcome, start time.Time) bool {
	if len(outcomes) != models.HorizonDays {
		return false
	}
	for i, o := range outcomes {
		if !o.Date.Equal(util.AddDays(start, i)) {
			return false
		}
	}
	return true
}
