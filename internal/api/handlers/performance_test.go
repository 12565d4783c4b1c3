package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/quantperf/internal/contracts"
	"github.com/wonny/quantperf/internal/ledger"
	"github.com/wonny/quantperf/pkg/config"
	"github.com/wonny/quantperf/pkg/logger"
	"github.com/wonny/quantperf/pkg/redis"
)

const sampleDocument = `{
	"run_id": "ma5",
	"history": [
		{"date": "2024-01-02", "total_assets": 100},
		{"date": "2024-01-03", "total_assets": 110},
		{"date": "2024-01-04", "total_assets": 121}
	],
	"trades": [
		{"date": "2024-01-03", "code": "600000", "action": "buy"},
		{"date": "2024-01-04", "code": "600000", "action": "sell", "profit": 10, "return_rate": 0.05},
		{"date": "2024-01-04", "code": "600001", "action": "sell", "profit": -5, "return_rate": -0.02}
	]
}`

func newTestHandler(t *testing.T, source ledger.Source) *PerformanceHandler {
	t.Helper()

	client, err := redis.New(context.Background(), &config.Config{})
	require.NoError(t, err)

	return NewPerformanceHandler(source, redis.NewCache(client, "test"), PerformanceOptions{
		RiskFreeRate: 0.02,
		LabelLocale:  "en",
	}, logger.Nop())
}

type summaryBody struct {
	RunID   string             `json:"run_id"`
	Period  *Period            `json:"period"`
	Summary map[string]float64 `json:"summary"`
	Trades  map[string]float64 `json:"trades"`
	Issues  []string           `json:"issues"`
}

func decodeSummary(t *testing.T, rec *httptest.ResponseRecorder) summaryBody {
	t.Helper()
	var body summaryBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestSummary(t *testing.T) {
	h := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/performance/summary", strings.NewReader(sampleDocument))
	rec := httptest.NewRecorder()
	h.Summary(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeSummary(t, rec)
	assert.Equal(t, "ma5", body.RunID)
	require.NotNil(t, body.Period)
	assert.Equal(t, "2024-01-02", body.Period.Start)
	assert.Equal(t, "2024-01-04", body.Period.End)

	assert.Equal(t, 21.0, body.Summary["Total Return (%)"])
	assert.Equal(t, 0.0, body.Summary["Max Drawdown (%)"])
	assert.Equal(t, 3.0, body.Summary["Total Trades"])
	assert.Equal(t, 50.0, body.Summary["Win Rate (%)"])
	assert.Equal(t, 1.5, body.Summary["Avg Trade Return (%)"])
	assert.Equal(t, 2.0, body.Trades["profit_factor"])
	assert.Empty(t, body.Issues)
	assert.NotNil(t, body.Issues)
}

func TestSummary_KeepsMetricOrder(t *testing.T) {
	h := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/performance/summary", strings.NewReader(sampleDocument))
	rec := httptest.NewRecorder()
	h.Summary(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	raw := rec.Body.String()
	total := strings.Index(raw, "Total Return (%)")
	sharpe := strings.Index(raw, "Sharpe Ratio")
	avg := strings.Index(raw, "Avg Trade Return (%)")
	assert.True(t, total < sharpe && sharpe < avg, "summary keys out of order: %s", raw)
}

func TestSummary_Locale(t *testing.T) {
	h := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/performance/summary?locale=zh&risk_free=0.03", strings.NewReader(sampleDocument))
	rec := httptest.NewRecorder()
	h.Summary(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeSummary(t, rec)
	assert.Equal(t, 21.0, body.Summary["总收益率 (%)"])
}

func TestSummary_BadRequests(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		body   string
		status int
	}{
		{"malformed body", "", `{"history": [`, http.StatusBadRequest},
		{"unknown field", "", `{"histroy": []}`, http.StatusBadRequest},
		{"bad date", "", `{"history": [{"date": "02/01/2024", "total_assets": 1}]}`, http.StatusBadRequest},
		{"bad risk free", "?risk_free=abc", sampleDocument, http.StatusBadRequest},
		{"risk free out of range", "?risk_free=1.5", sampleDocument, http.StatusBadRequest},
		{"bad locale", "?locale=fr", sampleDocument, http.StatusBadRequest},
		{"no asset data", "", `{"history": []}`, http.StatusUnprocessableEntity},
	}

	h := newTestHandler(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/performance/summary"+tt.query, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.Summary(rec, req)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestSummary_ReportsIssues(t *testing.T) {
	h := newTestHandler(t, nil)

	doc := `{"history": [
		{"date": "2024-01-02", "total_assets": 100},
		{"date": "2024-01-03", "total_assets": 0},
		{"date": "2024-01-04", "total_assets": 105}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/api/performance/summary", strings.NewReader(doc))
	rec := httptest.NewRecorder()
	h.Summary(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeSummary(t, rec)
	assert.Contains(t, body.Issues, "non-positive asset values present")
}

func TestSeries(t *testing.T) {
	h := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/performance/series", strings.NewReader(sampleDocument))
	rec := httptest.NewRecorder()
	h.Series(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body SeriesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Returns, 3)
	require.Len(t, body.CumulativeReturns, 3)
	require.Len(t, body.NetValue, 3)

	assert.Equal(t, 0.0, body.Returns[0].Value)
	assert.InDelta(t, 0.1, body.Returns[1].Value, 1e-12)
	assert.InDelta(t, 0.21, body.CumulativeReturns[2].Value, 1e-12)
	assert.InDelta(t, 1.21, body.NetValue[2].Value, 1e-12)
}

func TestRunSummary(t *testing.T) {
	doc, err := ledger.Decode(strings.NewReader(sampleDocument))
	require.NoError(t, err)
	stored, err := doc.Ledger()
	require.NoError(t, err)

	boom := errors.New("connection refused")
	source := ledger.SourceFunc(func(ctx context.Context, runID string) (*contracts.Ledger, error) {
		switch runID {
		case "ma5":
			return stored, nil
		case "broken":
			return nil, boom
		default:
			return nil, ledger.ErrNotFound
		}
	})

	h := newTestHandler(t, source)
	r := mux.NewRouter()
	r.HandleFunc("/api/performance/runs/{id}/summary", h.RunSummary)

	tests := []struct {
		runID  string
		status int
	}{
		{"ma5", http.StatusOK},
		{"missing", http.StatusNotFound},
		{"broken", http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.runID, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/performance/runs/"+tt.runID+"/summary", nil)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status == http.StatusOK {
				body := decodeSummary(t, rec)
				assert.Equal(t, "ma5", body.RunID)
				assert.Equal(t, 21.0, body.Summary["Total Return (%)"])
			}
		})
	}
}

func TestRunSummary_NoSource(t *testing.T) {
	h := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/performance/runs/ma5/summary", nil)
	rec := httptest.NewRecorder()
	h.RunSummary(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
