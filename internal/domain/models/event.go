package models

import "time"

// EventKind tells which entry point produced a prediction event.
type EventKind string

const (
	EventSingle   EventKind = "single"
	EventForecast EventKind = "forecast"
)

// PredictionEvent is one priced day, published after a prediction or a forecast
// run completes and archived downstream.
type PredictionEvent struct {
	ID        string            `json:"id"`
	Kind      EventKind         `json:"kind"`
	RunID     uint64            `json:"run_id,omitempty"`
	Query     QueryDescriptor   `json:"query"`
	Outcome   PredictionOutcome `json:"outcome"`
	Degraded  bool              `json:"degraded,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Key partitions events by route so one route's events stay ordered.
func (e PredictionEvent) Key() []byte {
	return []byte(e.Query.SourceCity + "-" + e.Query.DestinationCity + "-" + e.Query.Airline)
}
