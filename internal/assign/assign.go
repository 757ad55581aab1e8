package assign

import (
	"log/slog"

	"gaugelink.hydrology.org/internal/logging"
	"gaugelink.hydrology.org/internal/metrics"
	"gaugelink.hydrology.org/internal/models"
	"gaugelink.hydrology.org/internal/snap"
)

// DefaultIDField selects Station.ID as the station key.
const DefaultIDField = "id"

// Options controls one assignment pass.
type Options struct {
	// IDField names the station key: "" or "id" uses Station.ID, anything else
	// reads Station.Metadata[IDField].
	IDField string
	// Prefix namespaces the attachments so origin and candidate sets can share
	// a network.
	Prefix string
	// MaxDistance drops stations farther than this from every segment.
	// Zero, negative or +Inf means unbounded.
	MaxDistance float64
	// Snapper, when set, must have been built over the same segment slice.
	Snapper *snap.Snapper
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Report summarises an assignment pass.
type Report struct {
	Prefix     string   `json:"prefix"`
	Assigned   int      `json:"assigned"`
	Unassigned []string `json:"unassigned"`
}

// Assign snaps stations onto segments and returns a new segment collection in
// which each host segment's Attached[Prefix] holds (station id, position)
// pairs sorted by position, then id. Attachments under other prefixes are
// carried over untouched. Stations already attached under Prefix are moved,
// so repeated calls with the same input are idempotent.
func Assign(segments []models.Segment, stations []models.Station, opts Options) ([]models.Segment, Report, error) {
	const op = "assign"

	if opts.Prefix == "" {
		return nil, Report{}, models.NewInputError(op, "prefix must not be empty")
	}
	if len(segments) == 0 {
		return nil, Report{}, models.NewInputError(op, "segment set is empty")
	}

	logger := logging.ForComponent(opts.Logger, "assign")

	points, err := stationPoints(stations, opts.IDField)
	if err != nil {
		return nil, Report{}, err
	}

	snapper := opts.Snapper
	if snapper == nil {
		snapper = snap.NewSnapper(segments, opts.Logger)
	}
	snaps, unsnapped := snapper.Snap(points, opts.MaxDistance)

	incoming := make(map[string]bool, len(points))
	for _, p := range points {
		incoming[p.ID] = true
	}

	out := make([]models.Segment, len(segments))
	for i := range segments {
		out[i] = segments[i].CloneAttached()
		out[i].Attached[opts.Prefix] = removeStations(out[i].Attached[opts.Prefix], incoming)
	}

	for _, s := range snaps {
		seg := &out[s.SegmentIndex]
		seg.Attached[opts.Prefix] = append(seg.Attached[opts.Prefix], models.Attachment{
			StationID: s.StationID,
			Position:  s.Position,
		})
	}

	for i := range out {
		list := out[i].Attached[opts.Prefix]
		if len(list) == 0 {
			delete(out[i].Attached, opts.Prefix)
			continue
		}
		models.SortAttachments(list)
	}

	if len(unsnapped) > 0 {
		logger.Warn("stations left unassigned",
			slog.String("prefix", opts.Prefix),
			slog.Int("count", len(unsnapped)),
			slog.Float64("max_distance", opts.MaxDistance))
	}
	logging.LogOperation(logger, "stations_assigned",
		slog.String("prefix", opts.Prefix),
		slog.Int("assigned", len(snaps)))

	opts.Metrics.Snapped(opts.Prefix, len(snaps))
	opts.Metrics.Unsnapped(opts.Prefix, len(unsnapped))

	return out, Report{Prefix: opts.Prefix, Assigned: len(snaps), Unassigned: unsnapped}, nil
}

func stationPoints(stations []models.Station, idField string) ([]snap.Point, error) {
	const op = "assign"

	points := make([]snap.Point, 0, len(stations))
	seen := make(map[string]bool, len(stations))
	for i, st := range stations {
		id := st.ID
		if idField != "" && idField != DefaultIDField {
			var ok bool
			id, ok = st.Metadata[idField]
			if !ok {
				return nil, models.NewInputError(op, "station %d has no %q field", i, idField)
			}
		}
		if id == "" {
			return nil, models.NewInputError(op, "station %d has an empty id", i)
		}
		if seen[id] {
			return nil, models.NewInputError(op, "duplicate station id %q", id)
		}
		seen[id] = true
		points = append(points, snap.Point{ID: id, Location: st.Point})
	}
	return points, nil
}

func removeStations(list []models.Attachment, ids map[string]bool) []models.Attachment {
	kept := list[:0]
	for _, a := range list {
		if !ids[a.StationID] {
			kept = append(kept, a)
		}
	}
	return kept
}

// Locate returns, for each station attached under prefix, the index of its host
// segment and its position.
func Locate(segments []models.Segment, prefix string) map[string]Location {
	out := make(map[string]Location)
	for i := range segments {
		for _, a := range segments[i].Attached[prefix] {
			out[a.StationID] = Location{SegmentIndex: i, SegmentID: segments[i].ID, Position: a.Position}
		}
	}
	return out
}

// Location is a station's host segment and linear position.
type Location struct {
	SegmentIndex int
	SegmentID    models.SegmentID
	Position     float64
}
