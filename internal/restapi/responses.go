package restapi

import (
	"encoding/json"
	"net/http"

	"gaugelink.hydrology.org/internal/models"
)

func (api *RestAPI) sendResponse(w http.ResponseWriter, r *http.Request, response models.ResponseModel) {
	sendResponseWithStatus(w, http.StatusOK, response)
}

func sendResponseWithStatus(w http.ResponseWriter, status int, response models.ResponseModel) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}

func (api *RestAPI) sendError(w http.ResponseWriter, r *http.Request, status int, text string) {
	sendResponseWithStatus(w, status, models.NewResponse(status, nil, text))
}

func (api *RestAPI) sendNotFound(w http.ResponseWriter, r *http.Request) {
	api.sendError(w, r, http.StatusNotFound, "resource not found")
}

// sendNotReady answers requests that arrive before the first run completes.
func (api *RestAPI) sendNotReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "30")
	api.sendError(w, r, http.StatusServiceUnavailable, "no completed matching run")
}

func (api *RestAPI) validationErrorResponse(w http.ResponseWriter, r *http.Request, fieldErrors map[string][]string) {
	data := map[string]interface{}{
		"fieldErrors": fieldErrors,
	}
	sendResponseWithStatus(w, http.StatusBadRequest,
		models.NewResponse(http.StatusBadRequest, data, "validation error"))
}
