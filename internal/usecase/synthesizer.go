package usecase

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"FareCast/internal/domain/models"
)

const (
	// BasePrice is the reference fare behind every synthetic outcome, for single
	// days and for whole-batch fallbacks alike.
	BasePrice int64 = 5000
	// SyntheticSpread is the half-width of the uniform factor around BasePrice.
	SyntheticSpread = 0.2
)

// FallbackSynthesizer produces placeholder prices when the prediction service
// cannot price a day. It never fails.
type FallbackSynthesizer struct {
	mu   sync.Mutex
	rng  *rand.Rand
	base int64
}

// NewFallbackSynthesizer seeds the generator from the clock when seed is zero.
func NewFallbackSynthesizer(seed uint64) *FallbackSynthesizer {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &FallbackSynthesizer{
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		base: BasePrice,
	}
}

// Synthesize returns round(BasePrice*U) with U uniform in [0.8, 1.2].
func (s *FallbackSynthesizer) Synthesize(date time.Time) models.PredictionOutcome {
	s.mu.Lock()
	u := 1 - SyntheticSpread + 2*SyntheticSpread*s.rng.Float64()
	s.mu.Unlock()

	return models.PredictionOutcome{
		Date:   date,
		Price:  int64(math.Round(float64(s.base) * u)),
		Origin: models.OriginSynthetic,
	}
}

// Series synthesizes one outcome per date, keeping the order of dates.
func (s *FallbackSynthesizer) Series(dates []time.Time) []models.PredictionOutcome {
	out := make([]models.PredictionOutcome, len(dates))
	for i, d := range dates {
		out[i] = s.Synthesize(d)
	}
	return out
}

// Bounds returns the inclusive price range Synthesize can produce.
func (s *FallbackSynthesizer) Bounds() (lo, hi int64) {
	b := float64(s.base)
	return int64(math.Round(b * (1 - SyntheticSpread))), int64(math.Round(b * (1 + SyntheticSpread)))
}
