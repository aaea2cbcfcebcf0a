package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleQuery() QueryDescriptor {
	return QueryDescriptor{
		Airline:         "Vistara",
		SourceCity:      "Delhi",
		DestinationCity: "Mumbai",
		DepartureTime:   "Morning",
		ArrivalTime:     "Afternoon",
		Stops:           "zero",
		Class:           "Economy",
		DepartureDate:   "2025-06-01",
	}
}

func TestWithDepartureDateLeavesOriginalUntouched(t *testing.T) {
	q := sampleQuery()
	next := q.WithDepartureDate(time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, "2025-06-01", q.DepartureDate)
	assert.Equal(t, "2025-06-03", next.DepartureDate)
	next.DepartureDate = q.DepartureDate
	assert.Equal(t, q, next)
}

func TestSwapped(t *testing.T) {
	s := sampleQuery().Swapped()
	assert.Equal(t, "Mumbai", s.SourceCity)
	assert.Equal(t, "Delhi", s.DestinationCity)
	assert.Equal(t, "Mumbai → Delhi", s.Route())
}

func TestRouteKeyComplete(t *testing.T) {
	q := sampleQuery()
	assert.True(t, q.RouteKey().Complete())

	q.Airline = "  "
	assert.False(t, q.RouteKey().Complete())

	q = sampleQuery()
	q.Class = ""
	q.Stops = ""
	assert.True(t, q.RouteKey().Complete())
}

func TestOutcomeJSONUsesCalendarDate(t *testing.T) {
	o := PredictionOutcome{Date: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), Price: 5123, Origin: OriginReal}
	b, err := json.Marshal(o)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2025-06-01","price":5123,"origin":"real"}`, string(b))

	var back PredictionOutcome
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, o, back)
}

func TestOutcomeJSONRejectsUnknownOrigin(t *testing.T) {
	var o PredictionOutcome
	assert.Error(t, json.Unmarshal([]byte(`{"date":"2025-06-01","price":1,"origin":"guess"}`), &o))
	assert.Error(t, json.Unmarshal([]byte(`{"date":"June 1","price":1,"origin":"real"}`), &o))
}

func TestFormatINR(t *testing.T) {
	cases := map[int64]string{
		0:          "₹0",
		999:        "₹999",
		1000:       "₹1,000",
		4500:       "₹4,500",
		12345:      "₹12,345",
		123456:     "₹1,23,456",
		1234567:    "₹12,34,567",
		1234567890: "₹1,23,45,67,890",
		-5000:      "-₹5,000",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatINR(in), in)
	}
}

func TestSeriesViewLabels(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) // Sunday
	s := ForecastSeries{RunID: 4, Query: sampleQuery()}
	for i := 0; i < HorizonDays; i++ {
		origin := OriginReal
		if i == 2 {
			origin = OriginSynthetic
		}
		s.Outcomes = append(s.Outcomes, PredictionOutcome{Date: start.AddDate(0, 0, i), Price: int64(5000 + i), Origin: origin})
	}

	v := NewSeriesView(s)
	require.Len(t, v.Points, HorizonDays)
	assert.Equal(t, ChartTitle, v.Title)
	assert.Equal(t, "Delhi → Mumbai", v.Route)
	assert.Equal(t, 6, v.RealCount)
	assert.Equal(t, 1, v.SyntheticCount)

	assert.Equal(t, SeriesPoint{Date: "2025-06-01", Day: "Sun", FullDate: "Sun, Jun 1", Price: 5000, PriceLabel: "₹5,000", Origin: OriginReal}, v.Points[0])
	assert.Equal(t, "Tue", v.Points[2].Day)
	assert.Equal(t, OriginSynthetic, v.Points[2].Origin)
	assert.Equal(t, "Sat, Jun 7", v.Points[6].FullDate)
}

func TestCloneDoesNotShareOutcomes(t *testing.T) {
	s := ForecastSeries{Outcomes: []PredictionOutcome{{Price: 1}}}
	c := s.Clone()
	c.Outcomes[0].Price = 2
	assert.Equal(t, int64(1), s.Outcomes[0].Price)
}

func TestHistoryItem(t *testing.T) {
	e := HistoryEntry{
		ID:        "abc",
		Query:     sampleQuery(),
		Result:    PredictionOutcome{Date: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), Price: 123456, Origin: OriginReal},
		CreatedAt: time.Date(2025, 5, 20, 9, 30, 0, 0, time.UTC),
	}
	item := NewHistoryItem(e)
	assert.Equal(t, "₹1,23,456", item.PriceLabel)
	assert.Equal(t, "5/20/2025", item.CreatedOn)
	assert.Len(t, NewHistoryItems([]HistoryEntry{e, e}), 2)
}

func TestPredictRequestDescriptor(t *testing.T) {
	r := PredictRequest(sampleQuery())
	assert.Equal(t, sampleQuery(), r.Descriptor())
	assert.Len(t, AllOptions().Airlines, 6)
}
