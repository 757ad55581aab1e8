package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gaugelink.hydrology.org/internal/logging"
	"gaugelink.hydrology.org/internal/models"

	"github.com/paulmach/orb"
)

// PWQMN column names.
const (
	ColStation   = "STATION"
	ColName      = "NAME"
	ColLatitude  = "LATITUDE"
	ColLongitude = "LONGITUDE"
	ColDate      = "DATE"
)

// Period restricts sample dates. A zero bound is open.
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls on or between the bounds.
func (p Period) Contains(t time.Time) bool {
	if !p.Start.IsZero() && t.Before(p.Start) {
		return false
	}
	if !p.End.IsZero() && t.After(p.End) {
		return false
	}
	return true
}

// ParsePeriod parses optional YYYY-MM-DD bounds.
func ParsePeriod(start, end string) (Period, error) {
	var p Period
	var err error
	if start != "" {
		if p.Start, err = time.Parse(time.DateOnly, start); err != nil {
			return Period{}, fmt.Errorf("invalid period start: %w", err)
		}
	}
	if end != "" {
		if p.End, err = time.Parse(time.DateOnly, end); err != nil {
			return Period{}, fmt.Errorf("invalid period end: %w", err)
		}
	}
	return p, nil
}

// LoadStations reads a PWQMN station table from path.
func LoadStations(path string, logger *slog.Logger) ([]models.Station, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open stations: %w", err)
	}
	defer f.Close()
	return ReadStations(f, logger)
}

// ReadStations decodes a CSV with STATION, LATITUDE and LONGITUDE columns
// (any order, header required). Station points hold (longitude, latitude).
// Every other column is kept as metadata. Rows with blank coordinates are
// skipped with a warning; rows repeating a station keep the first occurrence.
func ReadStations(r io.Reader, logger *slog.Logger) ([]models.Station, error) {
	const op = "ingest.stations"
	logger = logging.ForComponent(logger, "ingest")

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, models.NewInputError(op, "missing header: %v", err)
	}
	cols := columnIndex(header)
	for _, required := range []string{ColStation, ColLatitude, ColLongitude} {
		if _, ok := cols[required]; !ok {
			return nil, models.NewInputError(op, "missing %s column", required)
		}
	}

	var out []models.Station
	seen := map[string]bool{}
	skipped := 0
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, models.NewInputError(op, "line %d: %v", line, err)
		}

		id := strings.TrimSpace(record[cols[ColStation]])
		latText := strings.TrimSpace(record[cols[ColLatitude]])
		lonText := strings.TrimSpace(record[cols[ColLongitude]])
		if id == "" || latText == "" || lonText == "" {
			skipped++
			continue
		}
		if seen[id] {
			continue
		}

		lat, err := strconv.ParseFloat(latText, 64)
		if err != nil || lat < -90 || lat > 90 {
			return nil, models.NewInputError(op, "line %d: invalid latitude %q", line, latText)
		}
		lon, err := strconv.ParseFloat(lonText, 64)
		if err != nil || lon < -180 || lon > 180 {
			return nil, models.NewInputError(op, "line %d: invalid longitude %q", line, lonText)
		}

		meta := make(map[string]string, len(header))
		for name, idx := range cols {
			switch name {
			case ColLatitude, ColLongitude:
				continue
			}
			meta[name] = strings.TrimSpace(record[idx])
		}

		seen[id] = true
		out = append(out, models.Station{ID: id, Point: orb.Point{lon, lat}, Metadata: meta})
	}

	if skipped > 0 {
		logger.Warn("skipped stations without coordinates", slog.Int("count", skipped))
	}
	return out, nil
}

// LoadSamples reads a PWQMN sample table from path.
func LoadSamples(path string, period Period) ([]models.DateRange, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open samples: %w", err)
	}
	defer f.Close()
	return ReadSamples(f, period)
}

var sampleDateLayouts = []string{time.DateOnly, time.DateTime, "2006/01/02", time.RFC3339}

// ReadSamples summarises a CSV of STATION, DATE rows into one DateRange per
// station. ObservationDays counts distinct sample days within period.
// Results are ordered by station id.
func ReadSamples(r io.Reader, period Period) ([]models.DateRange, error) {
	const op = "ingest.samples"

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, models.NewInputError(op, "missing header: %v", err)
	}
	cols := columnIndex(header)
	for _, required := range []string{ColStation, ColDate} {
		if _, ok := cols[required]; !ok {
			return nil, models.NewInputError(op, "missing %s column", required)
		}
	}

	days := map[string]map[time.Time]struct{}{}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, models.NewInputError(op, "line %d: %v", line, err)
		}

		id := strings.TrimSpace(record[cols[ColStation]])
		if id == "" {
			continue
		}
		day, err := parseSampleDate(strings.TrimSpace(record[cols[ColDate]]))
		if err != nil {
			return nil, models.NewInputError(op, "line %d: %v", line, err)
		}
		if !period.Contains(day) {
			continue
		}
		if days[id] == nil {
			days[id] = map[time.Time]struct{}{}
		}
		days[id][day] = struct{}{}
	}

	out := make([]models.DateRange, 0, len(days))
	for id, set := range days {
		r := models.DateRange{StationID: id, ObservationDays: len(set)}
		for d := range set {
			if r.First.IsZero() || d.Before(r.First) {
				r.First = d
			}
			if d.After(r.Last) {
				r.Last = d
			}
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StationID < out[j].StationID
	})
	return out, nil
}

func parseSampleDate(s string) (time.Time, error) {
	for _, layout := range sampleDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	return cols
}
