package export

import (
	"fmt"
	"io"

	"gaugelink.hydrology.org/internal/geo"
	"gaugelink.hydrology.org/internal/models"

	"github.com/paulmach/orb/geojson"
)

// FeatureCollection converts matches into LineString features carrying the
// match record as properties. When proj is non-nil, paths are converted back
// to longitude/latitude. Matches without a path are skipped.
func FeatureCollection(matches []models.Match, proj *geo.UTMProjector) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	for _, m := range matches {
		if len(m.Path) == 0 {
			continue
		}
		path := m.Path
		if proj != nil {
			var err error
			if path, err = proj.InverseLineString(m.Path); err != nil {
				return nil, fmt.Errorf("failed to convert path %s -> %s: %w", m.OriginID, m.CandidateID, err)
			}
		}

		f := geojson.NewFeature(path)
		f.Properties["origin_id"] = m.OriginID
		f.Properties["candidate_id"] = m.CandidateID
		f.Properties["distance"] = m.Distance
		f.Properties["pos"] = m.Pos.String()
		f.Properties["segments_apart"] = m.SegmentsApart
		f.Properties["edges"] = m.Edges
		setOptional(f.Properties, "origin_total_records", m.OriginTotalRecords)
		setOptional(f.Properties, "candidate_total_records", m.CandidateTotalRecords)
		setOptional(f.Properties, "data_overlap_days", m.DataOverlapDays)
		fc.Append(f)
	}
	return fc, nil
}

// WriteGeoJSON writes the feature collection of matches to w.
func WriteGeoJSON(w io.Writer, matches []models.Match, proj *geo.UTMProjector) error {
	fc, err := FeatureCollection(matches, proj)
	if err != nil {
		return err
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode GeoJSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write GeoJSON: %w", err)
	}
	return nil
}

func setOptional(props geojson.Properties, key string, v *int) {
	if v == nil {
		props[key] = nil
		return
	}
	props[key] = *v
}
