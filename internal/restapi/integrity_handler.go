package restapi

import (
	"net/http"

	"gaugelink.hydrology.org/internal/models"
)

func (api *RestAPI) integrityHandler(w http.ResponseWriter, r *http.Request) {
	res := api.Result()
	if res == nil {
		api.sendNotReady(w, r)
		return
	}

	entry := map[string]interface{}{
		"runId":       res.RunID,
		"report":      res.Integrity,
		"passed":      res.Integrity.Passed(),
		"network":     res.Network.Summarize(),
		"assignments": res.Assignments,
		"dropped":     res.Dropped,
	}
	api.sendResponse(w, r, models.NewEntryResponse(entry))
}
