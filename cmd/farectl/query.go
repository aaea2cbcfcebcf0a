package main

import (
	"context"
	"fmt"
	"strings"

	"FareCast/internal/domain/models"
	xhttp "FareCast/pkg/http"

	"github.com/spf13/cobra"
)

type queryFlags struct {
	airline       string
	from          string
	to            string
	departureTime string
	arrivalTime   string
	stops         string
	class         string
	date          string
	swap          bool
}

func (q *queryFlags) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&q.airline, "airline", "", "airline, e.g. Vistara or Air_India")
	f.StringVar(&q.from, "from", "", "source city")
	f.StringVar(&q.to, "to", "", "destination city")
	f.StringVar(&q.departureTime, "departure-time", "Morning", "departure time bucket")
	f.StringVar(&q.arrivalTime, "arrival-time", "Afternoon", "arrival time bucket")
	f.StringVar(&q.stops, "stops", "zero", "zero, one or two_or_more")
	f.StringVar(&q.class, "class", "Economy", "Economy or Business")
	f.StringVar(&q.date, "date", "", "departure date, YYYY-MM-DD")
	f.BoolVar(&q.swap, "swap", false, "swap source and destination")
}

func (q *queryFlags) descriptor() models.QueryDescriptor {
	d := models.QueryDescriptor{
		Airline:         q.airline,
		SourceCity:      q.from,
		DestinationCity: q.to,
		DepartureTime:   q.departureTime,
		ArrivalTime:     q.arrivalTime,
		Stops:           q.stops,
		Class:           q.class,
		DepartureDate:   q.date,
	}
	if q.swap {
		d = d.Swapped()
	}
	return d
}

// validate runs the same rules as the HTTP API.
func validate(ctx context.Context, req interface{}) error {
	verrs := xhttp.ValidateRequest(ctx, req)
	if len(verrs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(verrs))
	for _, v := range verrs {
		msgs = append(msgs, v.Message)
	}
	return fmt.Errorf("invalid query: %s", strings.Join(msgs, "; "))
}
