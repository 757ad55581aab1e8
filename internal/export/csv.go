package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"gaugelink.hydrology.org/internal/models"

	"github.com/paulmach/orb"
	"github.com/twpayne/go-polyline"
)

// Header is the column order of the match CSV.
var Header = []string{
	"origin_id",
	"candidate_id",
	"distance",
	"pos",
	"segments_apart",
	"origin_total_records",
	"candidate_total_records",
	"data_overlap_days",
	"path",
}

// pathCodec encodes projected coordinates at centimetre precision.
var pathCodec = polyline.Codec{Dim: 2, Scale: 100}

// EncodePath returns the polyline encoding of a projected path.
func EncodePath(path orb.LineString) string {
	if len(path) == 0 {
		return ""
	}
	coords := make([][]float64, len(path))
	for i, p := range path {
		coords[i] = []float64{p[0], p[1]}
	}
	return string(pathCodec.EncodeCoords(nil, coords))
}

// DecodePath reverses EncodePath.
func DecodePath(s string) (orb.LineString, error) {
	if s == "" {
		return nil, nil
	}
	coords, rest, err := pathCodec.DecodeCoords([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("failed to decode path: %w", err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("failed to decode path: %d trailing bytes", len(rest))
	}
	out := make(orb.LineString, len(coords))
	for i, c := range coords {
		out[i] = orb.Point{c[0], c[1]}
	}
	return out, nil
}

// WriteCSV writes matches with a header row. Absent optional values are empty
// cells.
func WriteCSV(w io.Writer, matches []models.Match) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, m := range matches {
		record := []string{
			m.OriginID,
			m.CandidateID,
			strconv.FormatFloat(m.Distance, 'f', 3, 64),
			m.Pos.String(),
			strconv.Itoa(m.SegmentsApart),
			optionalInt(m.OriginTotalRecords),
			optionalInt(m.CandidateTotalRecords),
			optionalInt(m.DataOverlapDays),
			EncodePath(m.Path),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a file produced by WriteCSV.
func ReadCSV(r io.Reader) ([]models.Match, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("failed to read CSV: missing header")
	}

	out := make([]models.Match, 0, len(records)-1)
	for i, rec := range records[1:] {
		line := i + 2
		if len(rec) != len(Header) {
			return nil, fmt.Errorf("line %d: want %d fields, got %d", line, len(Header), len(rec))
		}
		m := models.Match{OriginID: rec[0], CandidateID: rec[1]}
		if m.Distance, err = strconv.ParseFloat(rec[2], 64); err != nil {
			return nil, fmt.Errorf("line %d: distance: %w", line, err)
		}
		if m.Pos, err = models.ParsePosition(rec[3]); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if m.SegmentsApart, err = strconv.Atoi(rec[4]); err != nil {
			return nil, fmt.Errorf("line %d: segments_apart: %w", line, err)
		}
		if m.OriginTotalRecords, err = parseOptionalInt(rec[5]); err != nil {
			return nil, fmt.Errorf("line %d: origin_total_records: %w", line, err)
		}
		if m.CandidateTotalRecords, err = parseOptionalInt(rec[6]); err != nil {
			return nil, fmt.Errorf("line %d: candidate_total_records: %w", line, err)
		}
		if m.DataOverlapDays, err = parseOptionalInt(rec[7]); err != nil {
			return nil, fmt.Errorf("line %d: data_overlap_days: %w", line, err)
		}
		if m.Path, err = DecodePath(rec[8]); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, m)
	}
	return out, nil
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func parseOptionalInt(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
