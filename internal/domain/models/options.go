package models

// Option is one selectable value of a categorical descriptor field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var (
	Airlines = []Option{
		{"AirAsia", "AirAsia"},
		{"Indigo", "Indigo"},
		{"GO_FIRST", "GO FIRST"},
		{"SpiceJet", "SpiceJet"},
		{"Air_India", "Air India"},
		{"Vistara", "Vistara"},
	}

	Cities = []Option{
		{"Delhi", "Delhi"},
		{"Mumbai", "Mumbai"},
		{"Bangalore", "Bangalore"},
		{"Kolkata", "Kolkata"},
		{"Hyderabad", "Hyderabad"},
		{"Chennai", "Chennai"},
	}

	TimeBuckets = []Option{
		{"Early_Morning", "Early Morning (12AM-6AM)"},
		{"Morning", "Morning (6AM-12PM)"},
		{"Afternoon", "Afternoon (12PM-6PM)"},
		{"Evening", "Evening (6PM-12AM)"},
		{"Night", "Night (10PM-12AM)"},
		{"Late_Night", "Late Night (10PM-12AM)"},
	}

	StopCounts = []Option{
		{"zero", "Non-stop"},
		{"one", "1 Stop"},
		{"two_or_more", "2+ Stops"},
	}

	CabinClasses = []Option{
		{"Economy", "Economy"},
		{"Business", "Business"},
	}
)

// FormOptions groups every enumeration the display layer needs to build its form.
type FormOptions struct {
	Airlines      []Option `json:"airlines"`
	Cities        []Option `json:"cities"`
	DepartureTime []Option `json:"departure_time"`
	ArrivalTime   []Option `json:"arrival_time"`
	Stops         []Option `json:"stops"`
	Classes       []Option `json:"classes"`
}

func AllOptions() FormOptions {
	return FormOptions{
		Airlines:      Airlines,
		Cities:        Cities,
		DepartureTime: TimeBuckets,
		ArrivalTime:   TimeBuckets,
		Stops:         StopCounts,
		Classes:       CabinClasses,
	}
}
