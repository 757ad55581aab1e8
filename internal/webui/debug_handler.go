package webui

import "net/http"

// debugNetworkHandler writes the network summary, with node adjacency when
// the verbose query parameter is set.
func (webUI *WebUI) debugNetworkHandler(w http.ResponseWriter, r *http.Request) {
	res := webUI.Result()
	if res == nil || res.Network == nil {
		http.Error(w, "no completed matching run", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	res.Network.Dump(w, r.URL.Query().Has("verbose"))
}
