package audit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalReturn(t *testing.T) {
	tests := []struct {
		name   string
		assets []float64
		want   float64
	}{
		{"single observation", []float64{100}, 0},
		{"growth", []float64{100, 110, 121}, 21},
		{"loss", []float64{200, 150}, -25},
		{"non-positive initial", []float64{0, 100}, 0},
		{"zero in the middle", []float64{100, 110, 0, 121}, 21},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAnalyzer(t, newLedger(tt.assets...))
			assert.InDelta(t, tt.want, a.TotalReturn(), 1e-9)
		})
	}
}

func TestAnnualizedReturn(t *testing.T) {
	a := newAnalyzer(t, newLedger(100, 110, 121))
	want := (math.Pow(1.21, 252.0/3.0) - 1) * 100
	assert.InEpsilon(t, want, a.AnnualizedReturn(), 1e-9)

	// 252 observations annualize to the total return itself
	assets := make([]float64, 252)
	for i := range assets {
		assets[i] = 100
	}
	assets[251] = 110
	a = newAnalyzer(t, newLedger(assets...))
	assert.InDelta(t, 10.0, a.AnnualizedReturn(), 1e-9)
}

func TestAnnualizedReturn_Degenerate(t *testing.T) {
	a := newAnalyzer(t, newLedger(100))
	assert.Equal(t, 0.0, a.AnnualizedReturn())

	// final value below zero: total loss
	a = newAnalyzer(t, newLedger(100, 50, -10))
	assert.Equal(t, -100.0, a.AnnualizedReturn())
}

func TestVolatility(t *testing.T) {
	a := newAnalyzer(t, newLedger(100, 110, 121))

	// sample stdev of [0, 0.1, 0.1]
	std := math.Sqrt((math.Pow(0.2/3, 2) + 2*math.Pow(0.1/3, 2)) / 2)
	assert.InDelta(t, std*math.Sqrt(252)*100, a.Volatility(), 1e-9)

	a = newAnalyzer(t, newLedger(100))
	assert.Equal(t, 0.0, a.Volatility())

	a = newAnalyzer(t, newLedger(100, 100, 100))
	assert.Equal(t, 0.0, a.Volatility())
}

func TestSharpeRatio(t *testing.T) {
	a := newAnalyzer(t, newLedger(100, 110, 121))

	want := (a.AnnualizedReturn()/100 - DefaultRiskFreeRate) / (a.Volatility() / 100)
	assert.InDelta(t, want, a.SharpeRatio(DefaultRiskFreeRate), 1e-9)

	higher := a.SharpeRatio(0.05)
	assert.Less(t, higher, a.SharpeRatio(DefaultRiskFreeRate))
}

func TestSharpeRatio_Degenerate(t *testing.T) {
	// fewer than two returns
	a := newAnalyzer(t, newLedger(100))
	assert.Equal(t, 0.0, a.SharpeRatio(DefaultRiskFreeRate))

	// zero volatility
	a = newAnalyzer(t, newLedger(100, 100, 100, 100))
	assert.Equal(t, 0.0, a.SharpeRatio(DefaultRiskFreeRate))
}

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name   string
		assets []float64
		want   float64
	}{
		{"monotone growth", []float64{100, 105, 110}, 0},
		{"single dip", []float64{100, 110, 99, 105}, -10},
		{"flat", []float64{100, 100}, 0},
		{"two dips keeps deepest", []float64{100, 95, 100, 102, 91.8, 100}, -10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAnalyzer(t, newLedger(tt.assets...))
			assert.InDelta(t, tt.want, a.MaxDrawdown(), 1e-9)
			assert.LessOrEqual(t, a.MaxDrawdown(), 0.0)
		})
	}
}

func TestMaxDrawdown_UsesNetValue(t *testing.T) {
	// raw assets fall 50% but returns are clamped, so the net value falls 11%
	a := newAnalyzer(t, newLedger(100, 50))
	assert.InDelta(t, -11.0, a.MaxDrawdown(), 1e-9)
}

func TestCalmarRatio(t *testing.T) {
	a := newAnalyzer(t, newLedger(100, 110, 99, 105))

	want := math.Abs(a.AnnualizedReturn()) / 10
	assert.InDelta(t, want, a.CalmarRatio(), 1e-6)

	a = newAnalyzer(t, newLedger(100, 110, 121))
	assert.Equal(t, 0.0, a.CalmarRatio())
}

func TestMaxDrawdownHelper_Empty(t *testing.T) {
	assert.Equal(t, 0.0, maxDrawdown(nil))
}

func TestDrawdownSeries(t *testing.T) {
	a := newAnalyzer(t, newLedger(100, 110, 99, 105))

	series := a.DrawdownSeries()
	require.Len(t, series, 4)
	assert.Equal(t, 0.0, series[0].Value)
	assert.Equal(t, 0.0, series[1].Value)
	assert.InDelta(t, -0.10, series[2].Value, 1e-12)
	assert.InDelta(t, 105.0/110-1, series[3].Value, 1e-12)
}
