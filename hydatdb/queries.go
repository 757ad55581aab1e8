package hydatdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"gaugelink.hydrology.org/internal/logging"

	"github.com/paulmach/orb"
)

// Queries runs the read statements the pipeline needs against a HYDAT archive.
type Queries struct {
	db *sql.DB
}

func New(db *sql.DB) *Queries {
	return &Queries{db: db}
}

// Station is a row of the STATIONS table.
type Station struct {
	StationNumber     string
	StationName       sql.NullString
	Province          sql.NullString
	HydStatus         sql.NullString
	Latitude          float64
	Longitude         float64
	DrainageAreaGross sql.NullFloat64
}

// FlowRange summarises a station's DLY_FLOWS rows.
type FlowRange struct {
	StationNumber string
	FirstYear     int
	FirstMonth    int
	LastYear      int
	LastMonth     int
	Days          int
}

// StationFilter narrows ListStations. Zero values match everything.
type StationFilter struct {
	Province   string
	ActiveOnly bool
	// Bound is a longitude/latitude window.
	Bound *orb.Bound
}

const listStations = `
SELECT STATION_NUMBER, STATION_NAME, PROV_TERR_STATE_LOC, HYD_STATUS,
       LATITUDE, LONGITUDE, DRAINAGE_AREA_GROSS
FROM STATIONS
WHERE LATITUDE IS NOT NULL AND LONGITUDE IS NOT NULL`

// ListStations returns the stations matching filter ordered by station number.
func (q *Queries) ListStations(ctx context.Context, filter StationFilter) ([]Station, error) {
	var sb strings.Builder
	sb.WriteString(listStations)
	var args []any

	if filter.Province != "" {
		sb.WriteString(" AND PROV_TERR_STATE_LOC = ?")
		args = append(args, filter.Province)
	}
	if filter.ActiveOnly {
		sb.WriteString(" AND HYD_STATUS = 'A'")
	}
	if filter.Bound != nil {
		sb.WriteString(" AND LONGITUDE BETWEEN ? AND ? AND LATITUDE BETWEEN ? AND ?")
		args = append(args, filter.Bound.Min.Lon(), filter.Bound.Max.Lon(), filter.Bound.Min.Lat(), filter.Bound.Max.Lat())
	}
	sb.WriteString(" ORDER BY STATION_NUMBER")

	rows, err := q.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stations: %w", err)
	}
	defer logging.SafeCloseWithLogging(rows,
		slog.Default().With(slog.String("component", "hydatdb")),
		"station_rows")

	var out []Station
	for rows.Next() {
		var s Station
		if err := rows.Scan(&s.StationNumber, &s.StationName, &s.Province, &s.HydStatus,
			&s.Latitude, &s.Longitude, &s.DrainageAreaGross); err != nil {
			return nil, fmt.Errorf("failed to scan station: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stations: %w", err)
	}
	return out, nil
}

const getStation = `
SELECT STATION_NUMBER, STATION_NAME, PROV_TERR_STATE_LOC, HYD_STATUS,
       LATITUDE, LONGITUDE, DRAINAGE_AREA_GROSS
FROM STATIONS
WHERE STATION_NUMBER = ?`

// GetStation returns a single station. sql.ErrNoRows is wrapped when absent.
func (q *Queries) GetStation(ctx context.Context, stationNumber string) (Station, error) {
	var s Station
	err := q.db.QueryRowContext(ctx, getStation, stationNumber).Scan(
		&s.StationNumber, &s.StationName, &s.Province, &s.HydStatus,
		&s.Latitude, &s.Longitude, &s.DrainageAreaGross)
	if err != nil {
		return Station{}, fmt.Errorf("failed to get station %s: %w", stationNumber, err)
	}
	return s, nil
}

const listFlowRanges = `
SELECT STATION_NUMBER,
       MIN(YEAR * 100 + MONTH) AS FIRST_PERIOD,
       MAX(YEAR * 100 + MONTH) AS LAST_PERIOD,
       COALESCE(SUM(NO_DAYS), 0) AS DAYS
FROM DLY_FLOWS
GROUP BY STATION_NUMBER
ORDER BY STATION_NUMBER`

// ListFlowRanges returns the first and last month of daily flow records per
// station together with the number of days those records cover.
func (q *Queries) ListFlowRanges(ctx context.Context) ([]FlowRange, error) {
	rows, err := q.db.QueryContext(ctx, listFlowRanges)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily flow ranges: %w", err)
	}
	defer logging.SafeCloseWithLogging(rows,
		slog.Default().With(slog.String("component", "hydatdb")),
		"flow_rows")

	var out []FlowRange
	for rows.Next() {
		var r FlowRange
		var first, last int
		if err := rows.Scan(&r.StationNumber, &first, &last, &r.Days); err != nil {
			return nil, fmt.Errorf("failed to scan daily flow range: %w", err)
		}
		r.FirstYear, r.FirstMonth = first/100, first%100
		r.LastYear, r.LastMonth = last/100, last%100
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate daily flow ranges: %w", err)
	}
	return out, nil
}
