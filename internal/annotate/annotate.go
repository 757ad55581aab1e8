package annotate

import (
	"time"

	"gaugelink.hydrology.org/internal/models"
)

const day = 24 * time.Hour

// Ranges indexes observation date ranges by station id.
type Ranges map[string]models.DateRange

// IndexRanges builds a lookup from a list of date ranges. A later entry for
// the same station replaces an earlier one.
func IndexRanges(ranges []models.DateRange) Ranges {
	out := make(Ranges, len(ranges))
	for _, r := range ranges {
		out[r.StationID] = r
	}
	return out
}

// Annotate returns a copy of matches carrying observation totals for both
// endpoints and the number of days their observation windows overlap. Origin
// ranges are looked up in originRanges, candidate ranges in candidateRanges.
// Fields that depend on an absent range are left nil.
func Annotate(matches []models.Match, originRanges, candidateRanges Ranges) []models.Match {
	out := make([]models.Match, len(matches))
	for i, m := range matches {
		m.OriginTotalRecords = nil
		m.CandidateTotalRecords = nil
		m.DataOverlapDays = nil

		a, okA := originRanges[m.OriginID]
		b, okB := candidateRanges[m.CandidateID]
		if okA {
			m.OriginTotalRecords = intPtr(a.ObservationDays)
		}
		if okB {
			m.CandidateTotalRecords = intPtr(b.ObservationDays)
		}
		if okA && okB {
			m.DataOverlapDays = intPtr(OverlapDays(a, b))
		}
		out[i] = m
	}
	return out
}

// OverlapDays counts the calendar days, inclusive, shared by the [First, Last]
// windows of a and b. Disjoint or inverted windows overlap by zero days.
func OverlapDays(a, b models.DateRange) int {
	start := latest(truncate(a.First), truncate(b.First))
	end := earliest(truncate(a.Last), truncate(b.Last))
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start)/day) + 1
}

func truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func latest(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earliest(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func intPtr(v int) *int {
	return &v
}
