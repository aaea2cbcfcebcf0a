package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"FareCast/pkg/util"
)

const (
	// HorizonDays is the length of every forecast series.
	HorizonDays = 7
	// HistoryCap bounds the persisted prediction history.
	HistoryCap = 10
)

var (
	ErrInvalidQuery     = errors.New("invalid query")
	ErrSyntheticOutcome = errors.New("synthetic outcome cannot be recorded")
)

// Origin tells a price returned by the prediction service apart from a locally
// synthesized placeholder.
type Origin string

const (
	OriginReal      Origin = "real"
	OriginSynthetic Origin = "synthetic"
)

type PredictionOutcome struct {
	Date   time.Time
	Price  int64
	Origin Origin
}

type outcomeJSON struct {
	Date   string `json:"date"`
	Price  int64  `json:"price"`
	Origin Origin `json:"origin"`
}

func (o PredictionOutcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(outcomeJSON{Date: util.FormatDate(o.Date), Price: o.Price, Origin: o.Origin})
}

func (o *PredictionOutcome) UnmarshalJSON(b []byte) error {
	var raw outcomeJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	d, err := util.ParseDate(raw.Date)
	if err != nil {
		return fmt.Errorf("outcome date: %w", err)
	}
	switch raw.Origin {
	case OriginReal, OriginSynthetic:
	default:
		return fmt.Errorf("outcome origin %q unknown", raw.Origin)
	}
	*o = PredictionOutcome{Date: d, Price: raw.Price, Origin: raw.Origin}
	return nil
}

func (o PredictionOutcome) IsReal() bool { return o.Origin == OriginReal }

// ForecastSeries holds exactly HorizonDays outcomes ordered by date.
type ForecastSeries struct {
	RunID       uint64              `json:"run_id"`
	Query       QueryDescriptor     `json:"query"`
	Outcomes    []PredictionOutcome `json:"outcomes"`
	GeneratedAt time.Time           `json:"generated_at"`
	// Degraded is set when the whole series came from the synthesizer because the
	// run itself could not be joined.
	Degraded bool `json:"degraded"`
}

// Count returns how many outcomes carry the given origin.
func (s ForecastSeries) Count(origin Origin) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Origin == origin {
			n++
		}
	}
	return n
}

// Clone returns a copy whose outcome slice is not shared with s.
func (s ForecastSeries) Clone() ForecastSeries {
	out := s
	out.Outcomes = append([]PredictionOutcome(nil), s.Outcomes...)
	return out
}

// HistoryEntry records one explicit single-day prediction.
type HistoryEntry struct {
	ID        string            `json:"id"`
	Query     QueryDescriptor   `json:"query"`
	Result    PredictionOutcome `json:"result"`
	CreatedAt time.Time         `json:"created_at"`
}
