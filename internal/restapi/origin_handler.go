package restapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"gaugelink.hydrology.org/internal/export"
	"gaugelink.hydrology.org/internal/geo"
	"gaugelink.hydrology.org/internal/logging"
	"gaugelink.hydrology.org/internal/pipeline"
	"gaugelink.hydrology.org/internal/utils"
)

// originHandler serves the match paths of one origin as a GeoJSON
// FeatureCollection. Rendered documents are cached per run and origin.
func (api *RestAPI) originHandler(w http.ResponseWriter, r *http.Request) {
	if !strings.HasSuffix(r.PathValue("id"), ".geojson") {
		api.sendNotFound(w, r)
		return
	}
	id := utils.ExtractIDFromParams(r)
	if err := utils.ValidateID(id); err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"id": {err.Error()}})
		return
	}

	res := api.Result()
	if res == nil {
		api.sendNotReady(w, r)
		return
	}
	if !res.HasOrigin(id) {
		api.sendNotFound(w, r)
		return
	}

	key := res.RunID + "/" + id
	if api.originCache != nil {
		if cached, err := api.originCache.Get(key); err == nil {
			writeGeoJSON(w, cached.([]byte))
			return
		}
	}

	body, err := api.renderOrigin(res, id)
	if err != nil {
		logging.LogError(api.Logger, "failed to render origin", err, slog.String("origin_id", id))
		api.sendError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	if api.originCache != nil {
		_ = api.originCache.Set(key, body)
	}
	writeGeoJSON(w, body)
}

func (api *RestAPI) renderOrigin(res *pipeline.Result, id string) ([]byte, error) {
	var proj *geo.UTMProjector
	if rc := api.RunConfig; rc != nil && rc.Output.WGS84 {
		p, err := geo.NewUTMProjector(rc.UTM.Zone, rc.UTM.Northern)
		if err != nil {
			return nil, err
		}
		proj = &p
	}
	fc, err := export.FeatureCollection(res.MatchesFor(id), proj)
	if err != nil {
		return nil, err
	}
	return json.Marshal(fc)
}

func writeGeoJSON(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
