package models

import (
	"time"

	"github.com/paulmach/orb"
)

// Station is a point monitoring station in the run's projected CRS.
type Station struct {
	ID       string
	Point    orb.Point
	Metadata map[string]string
}

// DateRange is the observation period of a station.
type DateRange struct {
	StationID       string    `json:"stationId"`
	First           time.Time `json:"first"`
	Last            time.Time `json:"last"`
	ObservationDays int       `json:"observationDays"`
}
