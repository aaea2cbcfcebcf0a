package models

// Requests for the HTTP endpoints. Validation tags follow the enumerations in options.go.

// PredictRequest needs every field: the prediction service scores the full itinerary.
type PredictRequest struct {
	Airline         string `json:"airline" validate:"required,oneof=AirAsia Indigo GO_FIRST SpiceJet Air_India Vistara"`
	SourceCity      string `json:"source_city" validate:"required,oneof=Delhi Mumbai Bangalore Kolkata Hyderabad Chennai"`
	DestinationCity string `json:"destination_city" validate:"required,oneof=Delhi Mumbai Bangalore Kolkata Hyderabad Chennai,nefield=SourceCity"`
	DepartureTime   string `json:"departure_time" validate:"required,oneof=Early_Morning Morning Afternoon Evening Night Late_Night"`
	ArrivalTime     string `json:"arrival_time" validate:"required,oneof=Early_Morning Morning Afternoon Evening Night Late_Night"`
	Stops           string `json:"stops" validate:"required,oneof=zero one two_or_more"`
	Class           string `json:"class" default:"Economy" validate:"required,oneof=Economy Business"`
	DepartureDate   string `json:"departure_date" validate:"required,datetime=2006-01-02"`
}

func (r PredictRequest) Descriptor() QueryDescriptor {
	return QueryDescriptor(r)
}

// ForecastRequest only insists on the route fields that drive the 7-day series;
// the itinerary attributes are forwarded as given.
type ForecastRequest struct {
	Airline         string `json:"airline" validate:"required,oneof=AirAsia Indigo GO_FIRST SpiceJet Air_India Vistara"`
	SourceCity      string `json:"source_city" validate:"required,oneof=Delhi Mumbai Bangalore Kolkata Hyderabad Chennai"`
	DestinationCity string `json:"destination_city" validate:"required,oneof=Delhi Mumbai Bangalore Kolkata Hyderabad Chennai"`
	DepartureTime   string `json:"departure_time" validate:"omitempty,oneof=Early_Morning Morning Afternoon Evening Night Late_Night"`
	ArrivalTime     string `json:"arrival_time" validate:"omitempty,oneof=Early_Morning Morning Afternoon Evening Night Late_Night"`
	Stops           string `json:"stops" validate:"omitempty,oneof=zero one two_or_more"`
	Class           string `json:"class" validate:"omitempty,oneof=Economy Business"`
	DepartureDate   string `json:"departure_date" validate:"required,datetime=2006-01-02"`
}

func (r ForecastRequest) Descriptor() QueryDescriptor {
	return QueryDescriptor(r)
}

// HistoryRequest pages through the history log.
type HistoryRequest struct {
	Limit int `query:"limit" json:"limit" default:"10" validate:"gte=1,lte=10"`
}

// ArchiveRequest queries archived prediction events for one route.
type ArchiveRequest struct {
	Airline         string `query:"airline" json:"airline" validate:"required,oneof=AirAsia Indigo GO_FIRST SpiceJet Air_India Vistara"`
	SourceCity      string `query:"source_city" json:"source_city" validate:"required,oneof=Delhi Mumbai Bangalore Kolkata Hyderabad Chennai"`
	DestinationCity string `query:"destination_city" json:"destination_city" validate:"required,oneof=Delhi Mumbai Bangalore Kolkata Hyderabad Chennai"`
	DepartureDate   string `query:"departure_date" json:"departure_date" validate:"omitempty,datetime=2006-01-02"`
	Limit           int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}

func (r ArchiveRequest) RouteKey() RouteKey {
	return RouteKey{
		DepartureDate:   r.DepartureDate,
		Airline:         r.Airline,
		SourceCity:      r.SourceCity,
		DestinationCity: r.DestinationCity,
	}
}
