package models

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Position classifies a match by its topological relation on the network.
type Position int

const (
	On Position = iota
	Down
	Up
)

func (p Position) String() string {
	switch p {
	case On:
		return "On"
	case Down:
		return "Down"
	case Up:
		return "Up"
	default:
		return fmt.Sprintf("Position(%d)", int(p))
	}
}

func (p Position) MarshalText() ([]byte, error) {
	switch p {
	case On, Down, Up:
		return []byte(p.String()), nil
	}
	return nil, fmt.Errorf("unknown position %d", int(p))
}

func (p *Position) UnmarshalText(text []byte) error {
	pos, err := ParsePosition(string(text))
	if err != nil {
		return err
	}
	*p = pos
	return nil
}

// ParsePosition parses "On", "Down" or "Up".
func ParsePosition(s string) (Position, error) {
	switch s {
	case "On":
		return On, nil
	case "Down":
		return Down, nil
	case "Up":
		return Up, nil
	}
	return 0, fmt.Errorf("unknown position %q", s)
}

// Match pairs an origin station with a candidate reachable along the network.
type Match struct {
	OriginID      string         `json:"originId"`
	CandidateID   string         `json:"candidateId"`
	Distance      float64        `json:"distance"`
	Pos           Position       `json:"pos"`
	SegmentsApart int            `json:"segmentsApart"`
	Edges         []SegmentID    `json:"edges"`
	Path          orb.LineString `json:"-"`

	OriginTotalRecords    *int `json:"originTotalRecords"`
	CandidateTotalRecords *int `json:"candidateTotalRecords"`
	DataOverlapDays       *int `json:"dataOverlapDays"`
}
