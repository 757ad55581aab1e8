package restapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"gaugelink.hydrology.org/internal/app"
	"gaugelink.hydrology.org/internal/appconf"
	"gaugelink.hydrology.org/internal/models"
	"gaugelink.hydrology.org/internal/pipeline"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
)

// testResult runs the pipeline over a three segment chain:
//
//	02AB001 sits on segment 1 at 500 m with P2 at 200 m.
//	02AB002 sits on segment 3 at 900 m with P1 at 500 m.
func testResult(t *testing.T) *pipeline.Result {
	t.Helper()
	in := &pipeline.Inputs{
		Segments: []models.Segment{
			models.NewSegment(1, 2, orb.LineString{{0, 0}, {1000, 0}}),
			models.NewSegment(2, 3, orb.LineString{{1000, 0}, {2000, 0}}),
			models.NewSegment(3, 0, orb.LineString{{2000, 0}, {3000, 0}}),
		},
		Origins: []models.Station{
			{ID: "02AB001", Point: orb.Point{500, 10}},
			{ID: "02AB002", Point: orb.Point{2900, 5}},
		},
		Candidates: []models.Station{
			{ID: "P1", Point: orb.Point{2500, -5}},
			{ID: "P2", Point: orb.Point{200, 3}},
		},
	}
	res, err := pipeline.Run(context.Background(), in, pipeline.Options{
		Matching: appconf.MatchingConfig{
			OriginPrefix:       "hydat",
			CandidatePrefix:    "pwqmn",
			OnSegmentThreshold: -1,
			Workers:            1,
			IntegrityThreshold: 0.95,
		},
	})
	require.NoError(t, err)
	return res
}

// createTestApi returns an API over a completed run.
func createTestApi(t *testing.T) *RestAPI {
	t.Helper()
	api := createEmptyTestApi(t)
	api.SetResult(testResult(t))
	return api
}

// createEmptyTestApi returns an API that has not seen a run yet.
func createEmptyTestApi(t *testing.T) *RestAPI {
	t.Helper()
	application := app.New(appconf.Config{
		Env:       appconf.Test,
		RateLimit: 100,
		CacheSize: 16,
	}, nil, nil)
	return NewRestAPI(application)
}

func serveApi(t *testing.T, api *RestAPI, endpoint string) *http.Response {
	t.Helper()
	server := httptest.NewServer(api.SetupAPIRoutes())
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + endpoint)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func serveApiAndRetrieveEndpoint(t *testing.T, api *RestAPI, endpoint string) (*http.Response, models.ResponseModel) {
	t.Helper()
	resp := serveApi(t, api, endpoint)

	var model models.ResponseModel
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&model))
	return resp, model
}

func listFrom(t *testing.T, model models.ResponseModel) []interface{} {
	t.Helper()
	data, ok := model.Data.(map[string]interface{})
	require.True(t, ok)
	list, ok := data["list"].([]interface{})
	require.True(t, ok)
	return list
}

func collectAllIdsFromObjects(t *testing.T, list []interface{}, key string) (ids []string) {
	t.Helper()
	for _, object := range list {
		object, ok := object.(map[string]interface{})
		require.True(t, ok)
		ids = append(ids, object[key].(string))
	}
	return ids
}
