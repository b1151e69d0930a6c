package obs_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pos-checkout/internal/obs"
)

func TestHTTPMetricsLabels(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("pos", []float64{1, 10}, registry)
	handler := obs.HTTPObs{Metrics: metrics}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/checkouts/abc", nil)
	req = req.WithContext(obs.WithRoutePattern(req.Context(), "/api/v1/checkouts/{id}"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodDelete, "/api/v1/checkouts/{id}", "204")))
	require.NotZero(t, testutil.CollectAndCount(metrics.ReqDur))
	require.Equal(t, float64(0), testutil.ToFloat64(metrics.InFlight))
}

func TestHTTPMetricsReuseRegistered(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := obs.NewHTTPMetrics("pos", nil, registry)
	second := obs.NewHTTPMetrics("pos", nil, registry)
	require.Same(t, first.ReqTotal, second.ReqTotal)
}

func TestCheckoutMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := obs.NewCheckoutMetrics("pos", registry)
	m.ObserveScan("A", false)
	m.ObserveScan("A", true)
	m.ObserveScan("A", true)
	m.ObserveUnscan("not_found")
	m.SetSessionsOpen(3)

	require.Equal(t, float64(2), testutil.ToFloat64(m.Scans.WithLabelValues("A", "discounted")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.Scans.WithLabelValues("A", "base")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.Unscans.WithLabelValues("not_found")))
	require.Equal(t, float64(3), testutil.ToFloat64(m.SessionsOpen))

	var nilMetrics *obs.CheckoutMetrics
	require.NotPanics(t, func() { nilMetrics.ObserveScan("A", true) })
}

func TestParseBucketsCSV(t *testing.T) {
	require.Equal(t, []float64{5, 10}, obs.ParseBucketsCSV("5, x, -1, 10"))
	require.Nil(t, obs.ParseBucketsCSV(""))
}

func TestRequestLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := obs.NewLoggerTo(&buf, "json", "info")
	handler := obs.RequestLogger{Logger: logger}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "http_request", entry["message"])
	require.Equal(t, "/health/live", entry["route"])
	require.Equal(t, float64(200), entry["status"])
	require.Equal(t, float64(2), entry["bytes"])
}
