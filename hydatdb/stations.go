package hydatdb

import (
	"context"
	"log/slog"
	"time"

	"gaugelink.hydrology.org/internal/logging"
	"gaugelink.hydrology.org/internal/models"

	"github.com/paulmach/orb"
)

// Metadata keys carried on stations read from HYDAT.
const (
	MetaName         = "STATION_NAME"
	MetaProvince     = "PROV_TERR_STATE_LOC"
	MetaStatus       = "HYD_STATUS"
	MetaDrainageArea = "DRAINAGE_AREA_GROSS"
)

// Stations returns the HYDAT stations matching filter with Point holding
// (longitude, latitude).
func (c *Client) Stations(ctx context.Context, filter StationFilter) ([]models.Station, error) {
	rows, err := c.Queries.ListStations(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := make([]models.Station, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.Station{
			ID:    r.StationNumber,
			Point: orb.Point{r.Longitude, r.Latitude},
			Metadata: map[string]string{
				MetaName:         NullStringOrEmpty(r.StationName),
				MetaProvince:     NullStringOrEmpty(r.Province),
				MetaStatus:       NullStringOrEmpty(r.HydStatus),
				MetaDrainageArea: nullFloat64String(r.DrainageAreaGross),
			},
		})
	}

	logging.LogOperation(c.logger, "hydat_stations_loaded",
		slog.Int("count", len(out)),
		slog.String("province", filter.Province))
	return out, nil
}

// FlowDateRanges returns each station's daily flow observation window, from
// the first day of its first recorded month to the last day of its last.
func (c *Client) FlowDateRanges(ctx context.Context) ([]models.DateRange, error) {
	rows, err := c.Queries.ListFlowRanges(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.DateRange, 0, len(rows))
	for _, r := range rows {
		out = append(out, ToDateRange(r))
	}
	return out, nil
}

// ToDateRange converts a monthly flow summary to a day-resolution range.
func ToDateRange(r FlowRange) models.DateRange {
	first := time.Date(r.FirstYear, time.Month(r.FirstMonth), 1, 0, 0, 0, 0, time.UTC)
	// Day zero of the following month is the last day of LastMonth.
	last := time.Date(r.LastYear, time.Month(r.LastMonth)+1, 0, 0, 0, 0, 0, time.UTC)
	return models.DateRange{
		StationID:       r.StationNumber,
		First:           first,
		Last:            last,
		ObservationDays: r.Days,
	}
}
