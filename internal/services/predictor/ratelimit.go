package predictor

import (
	"context"
	"fmt"

	"FareCast/internal/domain/models"
	"FareCast/internal/domain/service"

	"golang.org/x/time/rate"
)

// RateLimitedClient spaces calls to the wrapped client. A caller whose context
// ends while waiting for a token gets an error, which the orchestrator treats
// like any other per-day failure.
type RateLimitedClient struct {
	next    service.PredictionClient
	limiter *rate.Limiter
}

func NewRateLimitedClient(next service.PredictionClient, rps float64, burst int) *RateLimitedClient {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimitedClient{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (c *RateLimitedClient) Predict(ctx context.Context, q models.QueryDescriptor) (int64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limit: %w", err)
	}
	return c.next.Predict(ctx, q)
}

// New builds the configured client stack.
func New(base *HTTPClient, rps float64, burst int) service.PredictionClient {
	if rps > 0 {
		return NewRateLimitedClient(base, rps, burst)
	}
	return base
}
