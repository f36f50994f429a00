package app

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/LeonardoBeccarini/farmfuture/internal/catalog"
	"github.com/LeonardoBeccarini/farmfuture/pkg/export"
)

func newTestGateway(t *testing.T) (*Gateway, *httptest.Server) {
	t.Helper()
	snap, err := catalog.DefaultSeed()
	require.NoError(t, err)
	g := NewGateway(Config{Registry: prometheus.NewRegistry()}, catalog.NewStore(snap, nil))
	srv := httptest.NewServer(g.Routes())
	t.Cleanup(srv.Close)
	return g, srv
}

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

type listBody struct {
	Entity string           `json:"entity"`
	Total  int              `json:"total"`
	Count  int              `json:"count"`
	Items  []map[string]any `json:"items"`
}

func TestHandleList(t *testing.T) {
	_, srv := newTestGateway(t)

	resp, body := get(t, srv, "/api/v1/devices?q=npk-045")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	var got listBody
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "devices", got.Entity)
	assert.Equal(t, 6, got.Total)
	require.Equal(t, 1, got.Count)
	assert.Equal(t, "NPK-045", got.Items[0]["id"])
}

func TestHandleListFacets(t *testing.T) {
	_, srv := newTestGateway(t)

	_, body := get(t, srv, "/api/v1/tickets?status=all&priority=critical")
	var got listBody
	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, 1, got.Count)
	assert.Equal(t, "TKT-003", got.Items[0]["id"])

	_, body = get(t, srv, "/api/v1/reports?q=zzz")
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, 0, got.Count)
	assert.NotNil(t, got.Items)
	assert.True(t, bytes.Contains(body, []byte(`"items":[]`)))
}

func TestHandleListUnknownEntity(t *testing.T) {
	_, srv := newTestGateway(t)

	resp, body := get(t, srv, "/api/v1/tractors")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var e errorBody
	require.NoError(t, json.Unmarshal(body, &e))
	assert.Contains(t, e.Error, "unknown entity")
	assert.Equal(t, resp.Header.Get(RequestIDHeader), e.RequestID)
}

func TestHandleSummary(t *testing.T) {
	_, srv := newTestGateway(t)

	resp, body := get(t, srv, "/api/v1/estates/summary")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var estates map[string]any
	require.NoError(t, json.Unmarshal(body, &estates))
	assert.EqualValues(t, 3, estates["total_estates"])
	assert.EqualValues(t, 50, estates["device_health_pct"])
	assert.Len(t, estates["estates"], 3)

	_, body = get(t, srv, "/api/v1/users/summary?scope=filtered&status=active")
	var users map[string]any
	require.NoError(t, json.Unmarshal(body, &users))
	assert.EqualValues(t, 2, users["total"])

	_, body = get(t, srv, "/api/v1/users/summary?status=active")
	require.NoError(t, json.Unmarshal(body, &users))
	assert.EqualValues(t, 4, users["total"])

	_, body = get(t, srv, "/api/v1/dashboard/summary")
	var dash map[string]any
	require.NoError(t, json.Unmarshal(body, &dash))
	assert.EqualValues(t, 4, dash["total_users"])
}

func TestHandleSummaryErrors(t *testing.T) {
	_, srv := newTestGateway(t)

	resp, _ := get(t, srv, "/api/v1/users/summary?scope=sideways")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = get(t, srv, "/api/v1/reports/summary")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleExport(t *testing.T) {
	_, srv := newTestGateway(t)

	resp, body := get(t, srv, "/api/v1/devices/export?status=online")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, export.ContentType, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `devices.xlsx`)

	f, err := excelize.OpenReader(bytes.NewReader(body))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("devices")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "NPK-001", rows[1][0])
}

func TestHandleDevicePerformance(t *testing.T) {
	_, srv := newTestGateway(t)

	resp, _ := get(t, srv, "/api/v1/analytics/device-performance?months=abc")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := get(t, srv, "/api/v1/analytics/device-performance")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(body), "not configured")
}

func TestHealthAndReady(t *testing.T) {
	_, srv := newTestGateway(t)

	resp, body := get(t, srv, "/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var h map[string]any
	require.NoError(t, json.Unmarshal(body, &h))
	assert.Equal(t, "ok", h["status"])
	assert.Equal(t, "disabled", h["telemetry"].(map[string]any)["status"])

	resp, _ = get(t, srv, "/readyz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequestIDIsReused(t *testing.T) {
	_, srv := newTestGateway(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "req-42")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "req-42", resp.Header.Get(RequestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	_, srv := newTestGateway(t)

	get(t, srv, "/api/v1/devices")
	get(t, srv, "/nowhere")
	_, body := get(t, srv, "/metrics")
	text := string(body)
	assert.True(t, strings.Contains(text, `farmfuture_gateway_http_requests_total{code="200",method="GET",route="GET /api/v1/{entity}"} 1`), text)
	assert.Contains(t, text, `route="unmatched"`)
}
