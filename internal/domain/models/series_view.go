package models

import (
	"strconv"
	"time"

	"FareCast/pkg/util"
)

const (
	ChartTitle = "7-Day Price Forecast"
	ChartAxis  = "Price (₹)"
)

// SeriesPoint is one labelled day of a forecast, ready for a chart.
type SeriesPoint struct {
	Date       string `json:"date"`
	Day        string `json:"day"`
	FullDate   string `json:"full_date"`
	Price      int64  `json:"price"`
	PriceLabel string `json:"price_label"`
	Origin     Origin `json:"origin"`
}

type SeriesView struct {
	RunID          uint64          `json:"run_id"`
	Title          string          `json:"title"`
	Axis           string          `json:"axis"`
	Route          string          `json:"route"`
	Query          QueryDescriptor `json:"query"`
	Points         []SeriesPoint   `json:"points"`
	RealCount      int             `json:"real_count"`
	SyntheticCount int             `json:"synthetic_count"`
	Degraded       bool            `json:"degraded"`
	GeneratedAt    time.Time       `json:"generated_at"`
}

func NewSeriesView(s ForecastSeries) SeriesView {
	points := make([]SeriesPoint, 0, len(s.Outcomes))
	for _, o := range s.Outcomes {
		points = append(points, SeriesPoint{
			Date:       util.FormatDate(o.Date),
			Day:        DayName(o.Date),
			FullDate:   FullDateLabel(o.Date),
			Price:      o.Price,
			PriceLabel: FormatINR(o.Price),
			Origin:     o.Origin,
		})
	}
	return SeriesView{
		RunID:          s.RunID,
		Title:          ChartTitle,
		Axis:           ChartAxis,
		Route:          s.Query.Route(),
		Query:          s.Query,
		Points:         points,
		RealCount:      s.Count(OriginReal),
		SyntheticCount: s.Count(OriginSynthetic),
		Degraded:       s.Degraded,
		GeneratedAt:    s.GeneratedAt,
	}
}

// HistoryItem is a HistoryEntry with display labels.
type HistoryItem struct {
	ID         string          `json:"id"`
	Query      QueryDescriptor `json:"query"`
	Route      string          `json:"route"`
	Price      int64           `json:"price"`
	PriceLabel string          `json:"price_label"`
	Origin     Origin          `json:"origin"`
	CreatedAt  time.Time       `json:"created_at"`
	CreatedOn  string          `json:"created_on"`
}

func NewHistoryItem(e HistoryEntry) HistoryItem {
	return HistoryItem{
		ID:         e.ID,
		Query:      e.Query,
		Route:      e.Query.Route(),
		Price:      e.Result.Price,
		PriceLabel: FormatINR(e.Result.Price),
		Origin:     e.Result.Origin,
		CreatedAt:  e.CreatedAt,
		CreatedOn:  e.CreatedAt.Format("1/2/2006"),
	}
}

func NewHistoryItems(entries []HistoryEntry) []HistoryItem {
	items := make([]HistoryItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, NewHistoryItem(e))
	}
	return items
}

// DayName returns the short weekday, e.g. "Mon".
func DayName(t time.Time) string {
	return t.Weekday().String()[:3]
}

// FullDateLabel renders e.g. "Mon, Jan 2".
func FullDateLabel(t time.Time) string {
	return t.Format("Mon, Jan 2")
}

// FormatINR renders an amount in rupees with Indian digit grouping: the last
// three digits form one group, every group above that has two (₹12,34,567).
func FormatINR(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	if len(digits) <= 3 {
		return sign + "₹" + digits
	}

	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	out := make([]byte, 0, len(digits)+len(digits)/2)
	lead := len(head) % 2
	if lead > 0 {
		out = append(out, head[:lead]...)
	}
	for i := lead; i < len(head); i += 2 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, head[i:i+2]...)
	}
	out = append(out, ',')
	out = append(out, tail...)
	return sign + "₹" + string(out)
}
