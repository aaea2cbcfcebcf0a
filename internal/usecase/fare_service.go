package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"FareCast/internal/domain/models"
	domrepo "FareCast/internal/domain/repository"
	"FareCast/internal/domain/service"
	applogger "FareCast/pkg/logger"

	"github.com/google/uuid"
)

// DefaultPredictionMessage is shown when the prediction service gave no reason.
const DefaultPredictionMessage = "Failed to get prediction. Please try again."

// PredictionError is the user-visible failure of a single prediction.
type PredictionError struct {
	Message string
	Err     error
}

func (e *PredictionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *PredictionError) Unwrap() error { return e.Err }

// userMessager is implemented by client errors that carry a message fit for users.
type userMessager interface {
	UserMessage() string
}

// FareService is the entry point used by the HTTP handlers, the WebSocket session
// and the CLI: predict once, run a forecast, read or clear the history.
type FareService struct {
	client       service.PredictionClient
	orchestrator *ForecastOrchestrator
	history      *HistoryStore
	events       domrepo.EventPublisher
	metrics      domrepo.Metrics
	logger       *applogger.Logger
	callTimeout  time.Duration
	runTimeout   time.Duration

	runSeq  atomic.Uint64
	pending sync.WaitGroup
}

type FareServiceConfig struct {
	CallTimeout time.Duration
	RunTimeout  time.Duration
}

func NewFareService(
	client service.PredictionClient,
	orchestrator *ForecastOrchestrator,
	history *HistoryStore,
	events domrepo.EventPublisher,
	metrics domrepo.Metrics,
	logger *applogger.Logger,
	cfg FareServiceConfig,
) *FareService {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 5 * time.Second
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 15 * time.Second
	}
	return &FareService{
		client:       client,
		orchestrator: orchestrator,
		history:      history,
		events:       events,
		metrics:      metrics,
		logger:       logger,
		callTimeout:  cfg.CallTimeout,
		runTimeout:   cfg.RunTimeout,
	}
}

// PredictOnce prices q and records the result in the history. A failure is
// returned as *PredictionError and leaves the history untouched.
func (s *FareService) PredictOnce(ctx context.Context, q models.QueryDescriptor) (models.HistoryEntry, error) {
	date, err := q.Date()
	if err != nil {
		return models.HistoryEntry{}, fmt.Errorf("%w: %v", models.ErrInvalidQuery, err)
	}

	start := time.Now()
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	price, err := s.client.Predict(callCtx, q)
	cancel()
	s.metrics.RecordLatency("predict_once", time.Since(start).Seconds())

	if err == nil && price <= 0 {
		err = fmt.Errorf("non-positive price %d", price)
	}
	if err != nil {
		s.metrics.RecordPrediction(string(models.EventSingle), "error")
		s.logger.Warn("single prediction failed", applogger.String("route", q.Route()), applogger.Error(err))

		msg := DefaultPredictionMessage
		var um userMessager
		if errors.As(err, &um) && um.UserMessage() != "" {
			msg = um.UserMessage()
		}
		return models.HistoryEntry{}, &PredictionError{Message: msg, Err: err}
	}
	s.metrics.RecordPrediction(string(models.EventSingle), "ok")

	outcome := models.PredictionOutcome{Date: date, Price: price, Origin: models.OriginReal}
	entry, err := s.history.Append(ctx, q, outcome)
	if err != nil {
		return models.HistoryEntry{}, err
	}

	s.publish([]models.PredictionEvent{{
		ID:        entry.ID,
		Kind:      models.EventSingle,
		Query:     q,
		Outcome:   outcome,
		CreatedAt: entry.CreatedAt,
	}})
	return entry, nil
}

// RunForecast runs a forecast stamped with the service-wide run counter.
func (s *FareService) RunForecast(ctx context.Context, q models.QueryDescriptor) (models.ForecastSeries, error) {
	return s.Forecast(ctx, s.runSeq.Add(1), q)
}

// Forecast runs the orchestrator under the run timeout and stamps the result.
func (s *FareService) Forecast(ctx context.Context, runID uint64, q models.QueryDescriptor) (models.ForecastSeries, error) {
	ctx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	series, err := s.orchestrator.Run(ctx, q)
	if err != nil {
		return models.ForecastSeries{}, err
	}
	series.RunID = runID

	events := make([]models.PredictionEvent, 0, len(series.Outcomes))
	for _, o := range series.Outcomes {
		events = append(events, models.PredictionEvent{
			ID:        newEventID(),
			Kind:      models.EventForecast,
			RunID:     runID,
			Query:     q.WithDepartureDate(o.Date),
			Outcome:   o,
			Degraded:  series.Degraded,
			CreatedAt: series.GeneratedAt,
		})
	}
	s.publish(events)
	return series, nil
}

// History returns the current log, most recent first.
func (s *FareService) History() []models.HistoryEntry {
	return s.history.Entries()
}

func (s *FareService) ClearHistory(ctx context.Context) {
	s.history.Clear(ctx)
}

// HistoryDegraded reports whether history is being kept in memory only.
func (s *FareService) HistoryDegraded() bool {
	return s.history.Degraded()
}

// publish ships events in the background; failures are logged and counted only.
func (s *FareService) publish(events []models.PredictionEvent) {
	if s.events == nil || len(events) == 0 {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.events.PublishPredictions(ctx, events); err != nil {
			s.metrics.RecordError("event_publish")
			s.logger.Error("publish prediction events", applogger.Int("count", len(events)), applogger.Error(err))
		}
	}()
}

// Close waits for in-flight event publishes.
func (s *FareService) Close() {
	s.pending.Wait()
}

func newEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
