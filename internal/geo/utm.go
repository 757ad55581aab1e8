package geo

import (
	"errors"
	"fmt"

	"github.com/im7mortal/UTM"
	"github.com/paulmach/orb"
)

// ErrOutsideZone is returned when a geographic point does not fall within the
// projector's UTM zone.
var ErrOutsideZone = errors.New("point outside configured UTM zone")

// UTMProjector converts between WGS84 longitude/latitude and a single UTM zone.
// Every station of a run is projected into the same zone so planar distances
// are comparable.
type UTMProjector struct {
	Zone     int
	Northern bool
}

// NewUTMProjector validates the zone number.
func NewUTMProjector(zone int, northern bool) (UTMProjector, error) {
	if zone < 1 || zone > 60 {
		return UTMProjector{}, fmt.Errorf("utm zone %d out of range 1..60", zone)
	}
	return UTMProjector{Zone: zone, Northern: northern}, nil
}

// Forward projects a longitude/latitude pair to easting/northing.
func (p UTMProjector) Forward(lon, lat float64) (orb.Point, error) {
	easting, northing, zone, _, err := UTM.FromLatLon(lat, lon, p.Northern)
	if err != nil {
		return orb.Point{}, err
	}
	if zone != p.Zone {
		return orb.Point{}, fmt.Errorf("%w: lon %.5f lat %.5f is in zone %d, want %d", ErrOutsideZone, lon, lat, zone, p.Zone)
	}
	return orb.Point{easting, northing}, nil
}

// Inverse converts an easting/northing pair back to longitude/latitude.
func (p UTMProjector) Inverse(pt orb.Point) (orb.Point, error) {
	lat, lon, err := UTM.ToLatLon(pt[0], pt[1], p.Zone, "", p.Northern)
	if err != nil {
		return orb.Point{}, err
	}
	return orb.Point{lon, lat}, nil
}

// InverseLineString converts every vertex of ls back to longitude/latitude.
func (p UTMProjector) InverseLineString(ls orb.LineString) (orb.LineString, error) {
	out := make(orb.LineString, len(ls))
	for i, pt := range ls {
		ll, err := p.Inverse(pt)
		if err != nil {
			return nil, err
		}
		out[i] = ll
	}
	return out, nil
}
