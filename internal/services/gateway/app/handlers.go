package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/LeonardoBeccarini/farmfuture/internal/catalog"
	"github.com/LeonardoBeccarini/farmfuture/internal/services/telemetry"
	"github.com/LeonardoBeccarini/farmfuture/pkg/export"
	"github.com/LeonardoBeccarini/farmfuture/pkg/query"
)

const (
	scopeParam    = "scope"
	scopeAll      = "all"
	scopeFiltered = "filtered"
	monthsParam   = "months"
)

var errBadRequest = errors.New("bad request")

// HandleList: GET /api/v1/{entity}?q=...&<facet>=...
func (g *Gateway) HandleList(w http.ResponseWriter, r *http.Request) {
	c := query.ParseCriteria(r.URL.Query())
	sel, err := catalog.Select(g.store.Snapshot(), r.PathValue("entity"), c)
	if err != nil {
		g.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

// HandleSummary: GET /api/v1/{entity}/summary[?scope=filtered&q=...]
func (g *Gateway) HandleSummary(w http.ResponseWriter, r *http.Request) {
	filtered, err := parseScope(r.URL.Query().Get(scopeParam))
	if err != nil {
		g.writeError(w, r, err)
		return
	}
	c := query.ParseCriteria(r.URL.Query(), scopeParam)
	sum, err := catalog.Summarize(g.store.Snapshot(), r.PathValue("entity"), c, filtered)
	if err != nil {
		g.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// HandleExport: GET /api/v1/{entity}/export?q=...
func (g *Gateway) HandleExport(w http.ResponseWriter, r *http.Request) {
	entity := r.PathValue("entity")
	sel, err := catalog.Select(g.store.Snapshot(), entity, query.ParseCriteria(r.URL.Query()))
	if err != nil {
		g.writeError(w, r, err)
		return
	}
	header, rows, err := catalog.Table(sel)
	if err != nil {
		g.writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, sel.Entity, header, rows); err != nil {
		g.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, sel.Entity))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// HandleDevicePerformance: GET /api/v1/analytics/device-performance?months=6
func (g *Gateway) HandleDevicePerformance(w http.ResponseWriter, r *http.Request) {
	months := telemetry.DefaultMonths
	if v := strings.TrimSpace(r.URL.Query().Get(monthsParam)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			g.writeError(w, r, fmt.Errorf("%w: months must be a positive integer", errBadRequest))
			return
		}
		months = n
	}
	ctx, cancel := context.WithTimeout(r.Context(), g.cfg.HTTPTimeout)
	defer cancel()

	points, err := g.cfg.History.DevicePerformance(ctx, months)
	if err != nil {
		g.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (g *Gateway) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	type status struct {
		Status    string           `json:"status"`
		Version   uint64           `json:"snapshot_version"`
		Telemetry telemetry.Status `json:"telemetry"`
		Upstream  string           `json:"upstream,omitempty"`
	}
	st := status{
		Status:    "ok",
		Version:   g.store.Version(),
		Telemetry: g.cfg.Health.Check(),
	}
	if g.cfg.Upstream != nil {
		st.Upstream = g.cfg.Upstream.State().String()
	}
	if st.Telemetry.Status == "down" || st.Telemetry.Status == "degraded" {
		st.Status = "degraded"
	}
	writeJSON(w, http.StatusOK, st)
}

func (g *Gateway) HandleReady(w http.ResponseWriter, _ *http.Request) {
	ready := g.store != nil && g.store.Snapshot() != nil && g.cfg.Health.Ready()
	code := http.StatusOK
	if !ready {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]bool{"ready": ready})
}

func parseScope(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", scopeAll:
		return false, nil
	case scopeFiltered:
		return true, nil
	}
	return false, fmt.Errorf("%w: scope must be %q or %q", errBadRequest, scopeAll, scopeFiltered)
}

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrUnknownEntity), errors.Is(err, catalog.ErrNoSummary):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, telemetry.ErrNoHistory):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (g *Gateway) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= 500 {
		g.log.Error("request failed", zap.String("path", r.URL.Path), zap.String("request_id", RequestID(r.Context())), zap.Error(err))
	}
	writeJSON(w, code, errorBody{Error: err.Error(), RequestID: RequestID(r.Context())})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
