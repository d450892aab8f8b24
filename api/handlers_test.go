package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/depreciation-engine/api"
	"github.com/warp/depreciation-engine/store/memory"
	"github.com/warp/depreciation-engine/taxyear"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	handler := api.NewHandler(taxyear.NewRegistry(), store)
	server := httptest.NewServer(api.NewRouter(handler, nil))
	t.Cleanup(server.Close)
	return server, store
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func computeRequest() api.ComputeRequest {
	return api.ComputeRequest{
		TaxYear: 2023,
		Assets: []api.AssetInput{
			{
				ID:                  "a-1",
				Description:         "Office laptop",
				TransactionType:     "addition",
				Cost:                50000,
				InServiceDate:       "2023-07-01",
				RecoveryPeriodYears: 5,
				Method:              "200DB",
				BonusEligible:       true,
				ElectedExpensing:    25000,
			},
		},
	}
}

// =============================================================================
// COMPUTE ENDPOINT
// =============================================================================

func TestComputeBatch_HappyPath_PersistsRun(t *testing.T) {
	server, store := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/batches/compute", computeRequest())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var batch api.BatchDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&batch))

	assert.NotEmpty(t, batch.RunID)
	assert.Equal(t, 2023, batch.TaxYear)
	require.Len(t, batch.Results, 1)

	r := batch.Results[0]
	assert.Equal(t, "a-1", r.AssetID)
	assert.InDelta(t, 25000, r.ExpensingAmount, 0.001)
	assert.InDelta(t, 20000, r.BonusAmount, 0.001, "80%% bonus on post-expensing basis")
	assert.InDelta(t, 1000, r.OrdinaryDepreciation, 0.001)
	assert.True(t, batch.Summary.ExportReady)

	// The run is persisted under the returned ID
	run, err := store.GetRun(context.Background(), batch.RunID)
	require.NoError(t, err)
	assert.Equal(t, 2023, run.TaxYear)
}

func TestComputeBatch_ValidationFailureStaysInBody(t *testing.T) {
	// Per-asset validation failures are results, not HTTP errors
	server, _ := newTestServer(t)

	req := computeRequest()
	req.Assets[0].ElectedExpensing = 99999999

	resp := postJSON(t, server.URL+"/api/batches/compute", req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var batch api.BatchDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&batch))

	require.Len(t, batch.Excluded, 1)
	assert.Equal(t, "a-1", batch.Excluded[0].AssetID)
	assert.Equal(t, "election_exceeds_cost", batch.Excluded[0].Code)
	assert.False(t, batch.Summary.ExportReady)
}

func TestComputeBatch_BadDate_BadRequest(t *testing.T) {
	server, _ := newTestServer(t)

	req := computeRequest()
	req.Assets[0].InServiceDate = "07/01/2023"

	resp := postJSON(t, server.URL+"/api/batches/compute", req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestComputeBatch_UnknownTaxYear_FailsClosed(t *testing.T) {
	server, _ := newTestServer(t)

	req := computeRequest()
	req.TaxYear = 1999

	resp := postJSON(t, server.URL+"/api/batches/compute", req)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestComputeBatch_BadOptions_BadRequest(t *testing.T) {
	server, _ := newTestServer(t)

	req := computeRequest()
	req.VehicleTrimOrder = "ordinary_first"

	resp := postJSON(t, server.URL+"/api/batches/compute", req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestComputeBatch_EmptyAssets_BadRequest(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/batches/compute", api.ComputeRequest{TaxYear: 2023})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// RUN HISTORY ENDPOINTS
// =============================================================================

func TestRuns_ListAndGet(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/batches/compute", computeRequest())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var batch api.BatchDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&batch))

	var headers []api.RunHeaderDTO
	listResp := getJSON(t, server.URL+"/api/runs", &headers)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	require.Len(t, headers, 1)
	assert.Equal(t, batch.RunID, headers[0].ID)
	assert.Equal(t, 1, headers[0].AssetCount)

	var run api.RunDTO
	getResp := getJSON(t, server.URL+"/api/runs/"+batch.RunID, &run)
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	assert.Equal(t, batch.RunID, run.ID)
	require.Len(t, run.Batch.Results, 1)
	assert.InDelta(t, 25000, run.Batch.Results[0].ExpensingAmount, 0.001)
}

func TestRuns_UnknownID_NotFound(t *testing.T) {
	server, _ := newTestServer(t)

	resp := getJSON(t, server.URL+"/api/runs/no-such-run", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// TAX YEAR ENDPOINTS
// =============================================================================

func TestTaxYears_ListAndGet(t *testing.T) {
	server, _ := newTestServer(t)

	var years []int
	resp := getJSON(t, server.URL+"/api/taxyears", &years)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, years, 2023)

	var entry api.TaxYearDTO
	resp = getJSON(t, server.URL+"/api/taxyears/2023", &entry)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2023, entry.TaxYear)
	assert.InDelta(t, 1160000, entry.ExpensingDollarLimit, 0.001)
	assert.NotEmpty(t, entry.BonusSchedule)

	resp = getJSON(t, server.URL+"/api/taxyears/1999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	server, _ := newTestServer(t)

	var body map[string]string
	resp := getJSON(t, server.URL+"/api/health", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}
