package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"FareCast/internal/domain/models"
	applogger "FareCast/pkg/logger"
	"FareCast/pkg/util"
)

// ArchiveSchema returns the DDL for the prediction archive table.
func ArchiveSchema(table string) []string {
	return []string{fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            id               String,
            kind             LowCardinality(String),
            run_id           UInt64,
            created_at       DateTime64(3, 'UTC'),
            departure_date   Date,
            airline          LowCardinality(String),
            source_city      LowCardinality(String),
            destination_city LowCardinality(String),
            departure_time   LowCardinality(String),
            arrival_time     LowCardinality(String),
            stops            LowCardinality(String),
            class            LowCardinality(String),
            price            Int64,
            origin           LowCardinality(String),
            degraded         Bool
        )
        ENGINE = ReplacingMergeTree
        ORDER BY (source_city, destination_city, airline, created_at, id)
    `, table)}
}

const archiveColumns = "id, kind, run_id, created_at, departure_date, airline, source_city, destination_city, departure_time, arrival_time, stops, class, price, origin, degraded"

// CHArchiveStore keeps every published prediction event in ClickHouse.
type CHArchiveStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHArchiveStore(db *sql.DB, table string, l *applogger.Logger) *CHArchiveStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHArchiveStore{db: db, table: table, l: l}
}

// Insert writes events with multi-row VALUES statements, 1000 rows at a time.
func (s *CHArchiveStore) Insert(ctx context.Context, events []models.PredictionEvent) error {
	const chunkSize = 1000
	for start := 0; start < len(events); start += chunkSize {
		end := start + chunkSize
		if end > len(events) {
			end = len(events)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*15)
		for _, e := range events[start:end] {
			if e.ID == "" {
				continue
			}
			q := e.Query
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				e.ID,
				string(e.Kind),
				e.RunID,
				e.CreatedAt.UTC(),
				util.TruncateDay(e.Outcome.Date),
				q.Airline,
				q.SourceCity,
				q.DestinationCity,
				q.DepartureTime,
				q.ArrivalTime,
				q.Stops,
				q.Class,
				e.Outcome.Price,
				string(e.Outcome.Origin),
				e.Degraded,
			)
		}
		if len(values) == 0 {
			continue
		}

		stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", s.table, archiveColumns, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
			s.l.Error("archive insert failed",
				applogger.String("table", s.table),
				applogger.Int("rows", len(values)),
				applogger.Error(err),
			)
			return fmt.Errorf("insert archive rows: %w", err)
		}
	}
	return nil
}

// Recent returns up to limit archived events for a route, newest first. An empty
// departure date in route matches every date.
func (s *CHArchiveStore) Recent(ctx context.Context, route models.RouteKey, limit int) ([]models.PredictionEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	where := []string{"source_city = ?", "destination_city = ?", "airline = ?"}
	args := []interface{}{route.SourceCity, route.DestinationCity, route.Airline}
	if route.DepartureDate != "" {
		d, err := util.ParseDate(route.DepartureDate)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrInvalidQuery, err)
		}
		where = append(where, "departure_date = ?")
		args = append(args, d)
	}
	args = append(args, limit)

	q := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY created_at DESC, id DESC LIMIT ?",
		archiveColumns, s.table, strings.Join(where, " AND "))
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query archive: %w", err)
	}
	defer rows.Close()

	out := make([]models.PredictionEvent, 0, limit)
	for rows.Next() {
		var (
			e             models.PredictionEvent
			kind, origin  string
			created, date time.Time
		)
		if err := rows.Scan(
			&e.ID, &kind, &e.RunID, &created, &date,
			&e.Query.Airline, &e.Query.SourceCity, &e.Query.DestinationCity,
			&e.Query.DepartureTime, &e.Query.ArrivalTime, &e.Query.Stops, &e.Query.Class,
			&e.Outcome.Price, &origin, &e.Degraded,
		); err != nil {
			return nil, fmt.Errorf("scan archive row: %w", err)
		}
		e.Kind = models.EventKind(kind)
		e.CreatedAt = created.UTC()
		e.Outcome.Date = util.TruncateDay(date)
		e.Outcome.Origin = models.Origin(origin)
		e.Query.DepartureDate = util.FormatDate(e.Outcome.Date)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
