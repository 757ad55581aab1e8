package models

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// SegmentID is the stable key of a river segment within a dataset.
type SegmentID int64

// NoDownstream is the next_down sentinel for a segment without a connected successor.
const NoDownstream SegmentID = 0

// Attachment places a station on a segment at a linear distance from the
// segment's upstream end.
type Attachment struct {
	StationID string  `json:"stationId"`
	Position  float64 `json:"position"`
}

// Segment is a directed river polyline. The first vertex is upstream, the last
// vertex is downstream.
type Segment struct {
	ID         SegmentID
	NextDown   SegmentID
	Geometry   orb.LineString
	Length     float64
	Attached   map[string][]Attachment
	Properties map[string]any
}

// NewSegment creates a segment and precomputes its planar length.
func NewSegment(id, nextDown SegmentID, geometry orb.LineString) Segment {
	return Segment{
		ID:       id,
		NextDown: nextDown,
		Geometry: geometry,
		Length:   planar.Length(geometry),
	}
}

// Start returns the upstream vertex.
func (s Segment) Start() orb.Point {
	return s.Geometry[0]
}

// End returns the downstream vertex.
func (s Segment) End() orb.Point {
	return s.Geometry[len(s.Geometry)-1]
}

// StationsFor returns the attachments recorded under prefix, sorted by position.
func (s Segment) StationsFor(prefix string) []Attachment {
	return s.Attached[prefix]
}

// CloneAttached returns a copy of the segment whose Attached map and per-prefix
// slices can be modified without affecting the receiver. Geometry and
// Properties are shared.
func (s Segment) CloneAttached() Segment {
	out := s
	out.Attached = make(map[string][]Attachment, len(s.Attached))
	for prefix, list := range s.Attached {
		out.Attached[prefix] = append([]Attachment(nil), list...)
	}
	return out
}

// SortAttachments orders attachments by position, breaking ties by station id.
func SortAttachments(list []Attachment) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Position != list[j].Position {
			return list[i].Position < list[j].Position
		}
		return list[i].StationID < list[j].StationID
	})
}
