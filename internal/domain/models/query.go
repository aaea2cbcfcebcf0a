package models

import (
	"strings"
	"time"

	"FareCast/pkg/util"
)

// QueryDescriptor describes one fare request. It is a value: edits produce a new
// descriptor and the original is never mutated.
type QueryDescriptor struct {
	Airline         string `json:"airline"`
	SourceCity      string `json:"source_city"`
	DestinationCity string `json:"destination_city"`
	DepartureTime   string `json:"departure_time"`
	ArrivalTime     string `json:"arrival_time"`
	Stops           string `json:"stops"`
	Class           string `json:"class"`
	DepartureDate   string `json:"departure_date"` // YYYY-MM-DD
}

// Date parses DepartureDate.
func (q QueryDescriptor) Date() (time.Time, error) {
	return util.ParseDate(q.DepartureDate)
}

// WithDepartureDate returns a copy of q flying on d.
func (q QueryDescriptor) WithDepartureDate(d time.Time) QueryDescriptor {
	q.DepartureDate = util.FormatDate(d)
	return q
}

// Swapped returns a copy of q with source and destination exchanged.
func (q QueryDescriptor) Swapped() QueryDescriptor {
	q.SourceCity, q.DestinationCity = q.DestinationCity, q.SourceCity
	return q
}

// Route renders "Source → Destination".
func (q QueryDescriptor) Route() string {
	return q.SourceCity + " → " + q.DestinationCity
}

// RouteKey is the part of a descriptor that drives the 7-day forecast.
type RouteKey struct {
	DepartureDate   string
	Airline         string
	SourceCity      string
	DestinationCity string
}

func (q QueryDescriptor) RouteKey() RouteKey {
	return RouteKey{
		DepartureDate:   strings.TrimSpace(q.DepartureDate),
		Airline:         strings.TrimSpace(q.Airline),
		SourceCity:      strings.TrimSpace(q.SourceCity),
		DestinationCity: strings.TrimSpace(q.DestinationCity),
	}
}

// Complete reports whether every field of the key is filled in.
func (k RouteKey) Complete() bool {
	return k.DepartureDate != "" && k.Airline != "" && k.SourceCity != "" && k.DestinationCity != ""
}
