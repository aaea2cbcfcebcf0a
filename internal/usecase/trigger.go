package usecase

import (
	"context"
	"sync"

	"FareCast/internal/domain/models"
	domrepo "FareCast/internal/domain/repository"
	applogger "FareCast/pkg/logger"
)

// Forecaster runs one stamped forecast. FareService implements it.
type Forecaster interface {
	Forecast(ctx context.Context, runID uint64, q models.QueryDescriptor) (models.ForecastSeries, error)
}

// TriggerPolicy watches descriptor edits and starts a forecast run whenever the
// route key (departure date, airline, source, destination) changes and is
// complete. Runs are not cancelled; each one carries a sequence number and a
// result is delivered only if no newer run was issued meanwhile.
type TriggerPolicy struct {
	forecaster Forecaster
	deliver    func(models.ForecastSeries)
	accept     func(runID uint64)
	metrics    domrepo.Metrics
	logger     *applogger.Logger

	mu      sync.Mutex
	last    models.RouteKey
	hasLast bool
	seq     uint64
	latest  *models.ForecastSeries
	wg      sync.WaitGroup
}

// NewTriggerPolicy calls deliver, serialized and in run order, with every result
// that is still current. deliver must not call back into the policy.
func NewTriggerPolicy(f Forecaster, deliver func(models.ForecastSeries), metrics domrepo.Metrics, logger *applogger.Logger) *TriggerPolicy {
	if deliver == nil {
		deliver = func(models.ForecastSeries) {}
	}
	return &TriggerPolicy{forecaster: f, deliver: deliver, metrics: metrics, logger: logger}
}

// OnAccept registers fn to be called with the id of every started run before the
// run begins, so it always precedes that run's delivery. Set it before the first
// Observe.
func (p *TriggerPolicy) OnAccept(fn func(runID uint64)) {
	p.accept = fn
}

// Observe feeds one descriptor snapshot. It returns the run id and true when a run
// was started.
func (p *TriggerPolicy) Observe(ctx context.Context, q models.QueryDescriptor) (uint64, bool) {
	key := q.RouteKey()

	p.mu.Lock()
	if !key.Complete() || (p.hasLast && key == p.last) {
		p.mu.Unlock()
		return 0, false
	}
	p.last, p.hasLast = key, true
	p.seq++
	id := p.seq
	p.wg.Add(1)
	p.mu.Unlock()

	if p.accept != nil {
		p.accept(id)
	}
	go p.execute(ctx, id, q)
	return id, true
}

func (p *TriggerPolicy) execute(ctx context.Context, id uint64, q models.QueryDescriptor) {
	defer p.wg.Done()

	series, err := p.forecaster.Forecast(ctx, id, q)
	if err != nil {
		p.logger.Warn("triggered forecast failed", applogger.Uint64("run_id", id), applogger.Error(err))
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if id != p.seq {
		p.metrics.RecordStaleRun()
		p.logger.Debug("dropping stale forecast run",
			applogger.Uint64("run_id", id),
			applogger.Uint64("latest", p.seq),
		)
		return
	}
	p.latest = &series
	p.deliver(series)
}

// Latest returns the most recent delivered series.
func (p *TriggerPolicy) Latest() (models.ForecastSeries, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.latest == nil {
		return models.ForecastSeries{}, false
	}
	return p.latest.Clone(), true
}

// Issued returns the id of the newest run started so far.
func (p *TriggerPolicy) Issued() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seq
}

// Wait blocks until every started run has finished.
func (p *TriggerPolicy) Wait() {
	p.wg.Wait()
}
