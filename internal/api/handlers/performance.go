package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/quantperf/internal/audit"
	"github.com/wonny/quantperf/internal/contracts"
	"github.com/wonny/quantperf/internal/ledger"
	"github.com/wonny/quantperf/pkg/logger"
	"github.com/wonny/quantperf/pkg/redis"
)

// maxRequestBytes bounds an uploaded ledger document
const maxRequestBytes = 64 << 20

// PerformanceOptions are the analysis defaults applied when a request does not override them
type PerformanceOptions struct {
	RiskFreeRate float64
	LabelLocale  string
	CacheTTL     time.Duration
}

// PerformanceHandler serves backtest performance analytics
// ⭐ SSOT: 성과 분석 API 핸들러는 이 구조체에서만
type PerformanceHandler struct {
	source  ledger.Source
	cache   *redis.Cache
	options PerformanceOptions
	logger  *logger.Logger
}

// NewPerformanceHandler creates a new performance handler.
// source may be nil, in which case the run endpoints answer 503.
func NewPerformanceHandler(source ledger.Source, cache *redis.Cache, opts PerformanceOptions, log *logger.Logger) *PerformanceHandler {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = redis.DefaultTTL
	}
	return &PerformanceHandler{
		source:  source,
		cache:   cache,
		options: opts,
		logger:  log,
	}
}

// SummaryResponse is the body of the summary endpoints
type SummaryResponse struct {
	RunID   string           `json:"run_id,omitempty"`
	Period  *Period          `json:"period,omitempty"`
	Summary audit.Summary    `json:"summary"`
	Trades  audit.TradeStats `json:"trades"`
	Issues  []string         `json:"issues"`
}

// Period is the date range covered by a ledger
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// SeriesResponse is the body of the series endpoint
type SeriesResponse struct {
	Returns           []contracts.SeriesPoint `json:"returns"`
	CumulativeReturns []contracts.SeriesPoint `json:"cumulative_returns"`
	NetValue          []contracts.SeriesPoint `json:"net_value"`
	Issues            []string                `json:"issues"`
}

// analysisParams are the per-request analysis settings
type analysisParams struct {
	riskFreeRate float64
	locale       string
}

func (h *PerformanceHandler) params(r *http.Request) (analysisParams, error) {
	p := analysisParams{
		riskFreeRate: h.options.RiskFreeRate,
		locale:       h.options.LabelLocale,
	}

	q := r.URL.Query()
	if v := q.Get("risk_free"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil || rate < 0 || rate >= 1 {
			return p, errors.New("invalid 'risk_free' (expected a fraction in [0, 1))")
		}
		p.riskFreeRate = rate
	}
	if v := q.Get("locale"); v != "" {
		if v != "en" && v != "zh" {
			return p, errors.New("invalid 'locale' (expected en or zh)")
		}
		p.locale = v
	}

	return p, nil
}

// Summary analyses an uploaded ledger document
// POST /api/performance/summary?risk_free=0.02&locale=en
func (h *PerformanceHandler) Summary(w http.ResponseWriter, r *http.Request) {
	p, err := h.params(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	l, runID, ok := h.decodeLedger(w, r)
	if !ok {
		return
	}

	h.respondSummary(r.Context(), w, runID, l, p)
}

// RunSummary analyses a stored backtest run
// GET /api/performance/runs/{id}/summary
func (h *PerformanceHandler) RunSummary(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		respondError(w, http.StatusServiceUnavailable, "No ledger source configured")
		return
	}

	p, err := h.params(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	runID := mux.Vars(r)["id"]
	l, err := h.source.Load(r.Context(), runID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Backtest run not found")
			return
		}
		h.logger.WithError(err).WithField("run_id", runID).Error("Failed to load ledger")
		respondError(w, http.StatusBadGateway, "Failed to load ledger")
		return
	}

	h.respondSummary(r.Context(), w, runID, l, p)
}

// Series returns the dated return series of an uploaded ledger document
// POST /api/performance/series
func (h *PerformanceHandler) Series(w http.ResponseWriter, r *http.Request) {
	l, _, ok := h.decodeLedger(w, r)
	if !ok {
		return
	}

	body, err := h.cached(r.Context(), l, redis.SeriesKey, func() (interface{}, error) {
		analyzer, err := audit.NewAnalyzer(l, h.logger)
		if err != nil {
			return nil, err
		}
		return SeriesResponse{
			Returns:           analyzer.ReturnSeries(),
			CumulativeReturns: analyzer.CumulativeSeries(),
			NetValue:          analyzer.NetValueSeries(),
			Issues:            audit.Validate(l),
		}, nil
	})
	if err != nil {
		h.respondAnalysisError(w, err)
		return
	}

	respondRaw(w, http.StatusOK, body)
}

func (h *PerformanceHandler) respondSummary(ctx context.Context, w http.ResponseWriter, runID string, l *contracts.Ledger, p analysisParams) {
	keyFn := func(hash string) string {
		return redis.SummaryKey(runID, hash, p.riskFreeRate, p.locale)
	}

	body, err := h.cached(ctx, l, keyFn, func() (interface{}, error) {
		analyzer, err := audit.NewAnalyzer(l, h.logger,
			audit.WithRiskFreeRate(p.riskFreeRate),
			audit.WithLabels(audit.LabelsFor(p.locale)),
		)
		if err != nil {
			return nil, err
		}

		resp := SummaryResponse{
			RunID:   runID,
			Summary: analyzer.Summarize(),
			Trades:  analyzer.TradeStats().Rounded(),
			Issues:  audit.Validate(l),
		}
		if start, end, err := l.Period(); err == nil {
			resp.Period = &Period{
				Start: start.Format(ledger.DateLayout),
				End:   end.Format(ledger.DateLayout),
			}
		}
		return resp, nil
	})
	if err != nil {
		h.respondAnalysisError(w, err)
		return
	}

	respondRaw(w, http.StatusOK, body)
}

// cached computes fn once per ledger content hash, storing the encoded response in Redis
func (h *PerformanceHandler) cached(ctx context.Context, l *contracts.Ledger, key func(string) string, fn func() (interface{}, error)) ([]byte, error) {
	hash, err := ledger.Hash(l)
	if err != nil || h.cache == nil {
		value, err := fn()
		if err != nil {
			return nil, err
		}
		return json.Marshal(value)
	}

	var body json.RawMessage
	if err := h.cache.GetOrSet(ctx, key(hash), &body, h.options.CacheTTL, fn); err != nil {
		return nil, err
	}
	return body, nil
}

func (h *PerformanceHandler) decodeLedger(w http.ResponseWriter, r *http.Request) (*contracts.Ledger, string, bool) {
	doc, err := ledger.Decode(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid ledger document: "+err.Error())
		return nil, "", false
	}

	l, err := doc.Ledger()
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid ledger document: "+err.Error())
		return nil, "", false
	}

	return l, doc.RunID, true
}

func (h *PerformanceHandler) respondAnalysisError(w http.ResponseWriter, err error) {
	if errors.Is(err, audit.ErrNoAssetData) {
		respondError(w, http.StatusUnprocessableEntity, "Ledger has no asset data")
		return
	}

	h.logger.WithError(err).Error("Performance analysis failed")
	respondError(w, http.StatusInternalServerError, "Performance analysis failed")
}
