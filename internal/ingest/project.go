package ingest

import (
	"errors"
	"log/slog"

	"gaugelink.hydrology.org/internal/geo"
	"gaugelink.hydrology.org/internal/logging"
	"gaugelink.hydrology.org/internal/models"
)

// ProjectStations converts longitude/latitude station points into the
// projector's UTM zone. Stations that fall in another zone are dropped with a
// warning and their ids returned; any other conversion failure is invalid
// input. The input slice is not modified.
func ProjectStations(stations []models.Station, proj geo.UTMProjector, logger *slog.Logger) ([]models.Station, []string, error) {
	const op = "ingest.project"
	logger = logging.ForComponent(logger, "ingest")

	out := make([]models.Station, 0, len(stations))
	var dropped []string
	for _, st := range stations {
		lon, lat := st.Point[0], st.Point[1]
		if !geo.IsFinite(lon) || !geo.IsFinite(lat) {
			return nil, nil, models.NewInputError(op, "station %s has non-finite coordinates", st.ID)
		}
		pt, err := proj.Forward(lon, lat)
		if errors.Is(err, geo.ErrOutsideZone) {
			logger.Warn("dropping station outside UTM zone",
				slog.String("station_id", st.ID),
				slog.Int("zone", proj.Zone),
				slog.String("error", err.Error()))
			dropped = append(dropped, st.ID)
			continue
		}
		if err != nil {
			return nil, nil, models.NewInputError(op, "station %s: %v", st.ID, err)
		}
		st.Point = pt
		out = append(out, st)
	}
	return out, dropped, nil
}
