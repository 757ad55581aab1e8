package restapi

import (
	"net/http"

	"gaugelink.hydrology.org/internal/models"
)

func (api *RestAPI) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status": "ok",
		"ready":  false,
	}
	if res := api.Result(); res != nil {
		status["ready"] = true
		status["runId"] = res.RunID
		status["finished"] = res.Finished
	}
	api.sendResponse(w, r, models.NewOKResponse(status))
}
