package audit

import (
	"errors"
	"fmt"
	"slices"

	"github.com/wonny/quantperf/internal/contracts"
	"github.com/wonny/quantperf/pkg/logger"
)

const (
	// TradingDaysPerYear 연간 거래일 수
	TradingDaysPerYear = 252

	// DefaultRiskFreeRate 무위험 수익률 (연, 소수)
	DefaultRiskFreeRate = 0.02
)

// ErrNoAssetData is returned when a ledger has no asset values at all
var ErrNoAssetData = errors.New("no asset data")

// Analyzer computes performance analytics for one finished backtest ledger.
// Derived series are computed once in NewAnalyzer and never change afterwards.
// An Analyzer is owned by a single caller; analyse independent ledgers with
// independent Analyzers.
// ⭐ SSOT: 성과 분석 로직은 여기서만
type Analyzer struct {
	ledger *contracts.Ledger
	logger *logger.Logger

	riskFreeRate float64
	labels       Labels

	returns    []float64
	netValue   []float64
	cumReturns []float64
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithRiskFreeRate sets the annual risk-free rate used by SharpeRatio defaults
func WithRiskFreeRate(rate float64) Option {
	return func(a *Analyzer) {
		a.riskFreeRate = rate
	}
}

// WithLabels sets the presentation labels used by Summarize
func WithLabels(labels Labels) Option {
	return func(a *Analyzer) {
		a.labels = labels
	}
}

// NewAnalyzer derives the return and cumulative series of ledger.
// It fails only when the ledger has no asset data.
func NewAnalyzer(ledger *contracts.Ledger, log *logger.Logger, opts ...Option) (*Analyzer, error) {
	if ledger == nil {
		return nil, fmt.Errorf("new analyzer: %w", ErrNoAssetData)
	}
	if log == nil {
		log = logger.Nop()
	}

	a := &Analyzer{
		ledger:       ledger,
		logger:       log,
		riskFreeRate: DefaultRiskFreeRate,
		labels:       LabelsEN,
	}
	for _, opt := range opts {
		opt(a)
	}

	returns, err := DeriveReturns(ledger.TotalAssets, log)
	if err != nil {
		return nil, fmt.Errorf("new analyzer: %w", err)
	}
	a.returns = returns
	a.netValue, a.cumReturns = DeriveCumulative(returns, log)

	return a, nil
}

// Ledger returns the analysed ledger
func (a *Analyzer) Ledger() *contracts.Ledger {
	return a.ledger
}

// RiskFreeRate returns the configured annual risk-free rate
func (a *Analyzer) RiskFreeRate() float64 {
	return a.riskFreeRate
}

// Returns returns a copy of the daily return series (Returns()[0] == 0)
func (a *Analyzer) Returns() []float64 {
	return slices.Clone(a.returns)
}

// CumulativeNetValue returns a copy of the compounded net value series
func (a *Analyzer) CumulativeNetValue() []float64 {
	return slices.Clone(a.netValue)
}

// CumulativeReturns returns a copy of the cumulative return series
func (a *Analyzer) CumulativeReturns() []float64 {
	return slices.Clone(a.cumReturns)
}

// ReturnSeries returns the daily returns paired with ledger dates
func (a *Analyzer) ReturnSeries() []contracts.SeriesPoint {
	return a.dated(a.returns)
}

// CumulativeSeries returns the cumulative returns paired with ledger dates
func (a *Analyzer) CumulativeSeries() []contracts.SeriesPoint {
	return a.dated(a.cumReturns)
}

// NetValueSeries returns the cumulative net value paired with ledger dates
func (a *Analyzer) NetValueSeries() []contracts.SeriesPoint {
	return a.dated(a.netValue)
}

// DrawdownSeries returns the running drawdown of the net value (fraction, <= 0) paired with ledger dates
func (a *Analyzer) DrawdownSeries() []contracts.SeriesPoint {
	return a.dated(drawdowns(a.netValue))
}

// dated pairs values with dates over the date-aligned prefix
func (a *Analyzer) dated(values []float64) []contracts.SeriesPoint {
	n := a.ledger.AlignedLen()
	points := make([]contracts.SeriesPoint, n)
	for i := 0; i < n; i++ {
		points[i] = contracts.SeriesPoint{Date: a.ledger.Dates[i], Value: values[i]}
	}
	return points
}
