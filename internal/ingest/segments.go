package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"gaugelink.hydrology.org/internal/models"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// SegmentOptions names the feature properties holding the segment keys.
type SegmentOptions struct {
	IDProperty       string // default "id"
	NextDownProperty string // default "next_down"
}

func (o SegmentOptions) withDefaults() SegmentOptions {
	if o.IDProperty == "" {
		o.IDProperty = "id"
	}
	if o.NextDownProperty == "" {
		o.NextDownProperty = "next_down"
	}
	return o
}

// LoadSegments reads a GeoJSON FeatureCollection of river segments from path.
func LoadSegments(path string, opts SegmentOptions) ([]models.Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open segments: %w", err)
	}
	defer f.Close()
	return ReadSegments(f, opts)
}

// ReadSegments decodes LineString (or single-part MultiLineString) features.
// Coordinates must already be in the run's projected CRS. A missing or null
// next_down property is the no-downstream sentinel. Properties other than the
// two keys are carried in Segment.Properties.
func ReadSegments(r io.Reader, opts SegmentOptions) ([]models.Segment, error) {
	const op = "ingest.segments"
	opts = opts.withDefaults()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read segments: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, models.NewInputError(op, "malformed GeoJSON: %v", err)
	}
	if len(fc.Features) == 0 {
		return nil, models.NewInputError(op, "feature collection is empty")
	}

	out := make([]models.Segment, 0, len(fc.Features))
	for i, f := range fc.Features {
		line, err := lineOf(f.Geometry)
		if err != nil {
			return nil, models.NewInputError(op, "feature %d: %v", i, err)
		}

		rawID, ok := f.Properties[opts.IDProperty]
		if !ok && opts.IDProperty == "id" {
			rawID, ok = f.ID, f.ID != nil
		}
		if !ok {
			return nil, models.NewInputError(op, "feature %d has no %q property", i, opts.IDProperty)
		}
		id, err := toSegmentID(rawID)
		if err != nil || id == models.NoDownstream {
			return nil, models.NewInputError(op, "feature %d has invalid id %v", i, rawID)
		}

		next := models.NoDownstream
		if raw, ok := f.Properties[opts.NextDownProperty]; ok && raw != nil {
			next, err = toSegmentID(raw)
			if err != nil {
				return nil, models.NewInputError(op, "feature %d has invalid %s %v", i, opts.NextDownProperty, raw)
			}
		}

		seg := models.NewSegment(id, next, line)
		seg.Properties = passthrough(f.Properties, opts)
		out = append(out, seg)
	}
	return out, nil
}

func lineOf(g orb.Geometry) (orb.LineString, error) {
	switch geom := g.(type) {
	case orb.LineString:
		return geom, nil
	case orb.MultiLineString:
		if len(geom) != 1 {
			return nil, fmt.Errorf("multi-line geometry has %d parts, want 1", len(geom))
		}
		return geom[0], nil
	case nil:
		return nil, fmt.Errorf("missing geometry")
	default:
		return nil, fmt.Errorf("unsupported geometry %s", g.GeoJSONType())
	}
}

func passthrough(props geojson.Properties, opts SegmentOptions) map[string]any {
	if len(props) == 0 {
		return nil
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		if k == opts.IDProperty || k == opts.NextDownProperty {
			continue
		}
		out[k] = v
	}
	return out
}

func toSegmentID(v any) (models.SegmentID, error) {
	switch t := v.(type) {
	case float64:
		if t != math.Trunc(t) {
			return 0, fmt.Errorf("non-integral id %v", t)
		}
		return models.SegmentID(t), nil
	case int:
		return models.SegmentID(t), nil
	case int64:
		return models.SegmentID(t), nil
	case string:
		i, err := strconv.ParseInt(t, 10, 64)
		return models.SegmentID(i), err
	case json.Number:
		i, err := t.Int64()
		return models.SegmentID(i), err
	default:
		return 0, fmt.Errorf("unsupported id type %T", v)
	}
}
