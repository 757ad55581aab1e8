package restapi

import (
	"net/http"

	"gaugelink.hydrology.org/internal/export"
	"gaugelink.hydrology.org/internal/models"
	"gaugelink.hydrology.org/internal/utils"
)

// matchView is a match record with its path encoded as a polyline.
type matchView struct {
	models.Match
	Path string `json:"path"`
}

func newMatchView(m models.Match) matchView {
	return matchView{Match: m, Path: export.EncodePath(m.Path)}
}

type matchFilter struct {
	origin      string
	candidate   string
	pos         *models.Position
	maxDistance float64
}

func (f matchFilter) keep(m models.Match) bool {
	if f.origin != "" && m.OriginID != f.origin {
		return false
	}
	if f.candidate != "" && m.CandidateID != f.candidate {
		return false
	}
	if f.pos != nil && m.Pos != *f.pos {
		return false
	}
	if f.maxDistance > 0 && m.Distance > f.maxDistance {
		return false
	}
	return true
}

func parseMatchFilter(r *http.Request) (matchFilter, map[string][]string) {
	params := r.URL.Query()
	fieldErrors := make(map[string][]string)

	f := matchFilter{
		origin:    params.Get("origin"),
		candidate: params.Get("candidate"),
	}
	for key, id := range map[string]string{"origin": f.origin, "candidate": f.candidate} {
		if id == "" {
			continue
		}
		if err := utils.ValidateID(id); err != nil {
			fieldErrors[key] = append(fieldErrors[key], err.Error())
		}
	}
	if raw := params.Get("pos"); raw != "" {
		pos, err := models.ParsePosition(raw)
		if err != nil {
			fieldErrors["pos"] = append(fieldErrors["pos"], err.Error())
		} else {
			f.pos = &pos
		}
	}
	f.maxDistance, fieldErrors = utils.ParseFloatParam(params, "max_distance", fieldErrors)
	if f.maxDistance < 0 {
		fieldErrors["max_distance"] = append(fieldErrors["max_distance"], "max_distance must not be negative")
	}
	return f, fieldErrors
}

func (api *RestAPI) matchesHandler(w http.ResponseWriter, r *http.Request) {
	filter, fieldErrors := parseMatchFilter(r)
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	res := api.Result()
	if res == nil {
		api.sendNotReady(w, r)
		return
	}

	list := make([]matchView, 0)
	for _, m := range res.Matches {
		if filter.keep(m) {
			list = append(list, newMatchView(m))
		}
	}
	api.sendResponse(w, r, models.NewListResponse(list, false))
}
