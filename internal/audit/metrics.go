package audit

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TotalReturn returns (final / initial - 1) in percent on the raw ledger values.
// 0 when there are fewer than two observations or the initial value is not positive.
func (a *Analyzer) TotalReturn() float64 {
	if a.ledger.Len() < 2 {
		return 0
	}

	initial, _ := a.ledger.InitialAsset()
	final, _ := a.ledger.FinalAsset()
	if initial <= 0 {
		return 0
	}

	return (final/initial - 1) * 100
}

// AnnualizedReturn annualizes TotalReturn over the ledger's trading days
// assuming TradingDaysPerYear sessions a year, in percent.
// A total loss (growth factor <= 0) is reported as -100.
func (a *Analyzer) AnnualizedReturn() float64 {
	tradingDays := len(a.ledger.Dates)
	if tradingDays <= 1 {
		return 0
	}

	growth := 1 + a.TotalReturn()/100
	if growth <= 0 {
		return -100
	}

	return (math.Pow(growth, float64(TradingDaysPerYear)/float64(tradingDays)) - 1) * 100
}

// Volatility returns the annualized sample standard deviation of daily returns, in percent
func (a *Analyzer) Volatility() float64 {
	return a.annualVolatility() * 100
}

// annualVolatility 연환산 변동성 (소수)
func (a *Analyzer) annualVolatility() float64 {
	if len(a.returns) < 2 {
		return 0
	}
	return stat.StdDev(a.returns, nil) * math.Sqrt(TradingDaysPerYear)
}

// SharpeRatio returns (annualized return - riskFreeRate) / annualized volatility,
// all as fractions. 0 when volatility is zero or there are fewer than two returns.
func (a *Analyzer) SharpeRatio(riskFreeRate float64) float64 {
	if len(a.returns) < 2 {
		return 0
	}

	vol := a.annualVolatility()
	if vol == 0 {
		return 0
	}

	return (a.AnnualizedReturn()/100 - riskFreeRate) / vol
}

// MaxDrawdown returns the largest peak-to-trough decline of the cumulative
// net value, in percent (<= 0).
func (a *Analyzer) MaxDrawdown() float64 {
	return maxDrawdown(a.netValue) * 100
}

// drawdowns returns value[i] / max(value[0..i]) - 1 for every i
func drawdowns(values []float64) []float64 {
	dd := make([]float64, len(values))
	if len(values) == 0 {
		return dd
	}

	peak := values[0]
	for i, v := range values {
		if v > peak {
			peak = v
		}
		dd[i] = v/peak - 1
	}

	return dd
}

// maxDrawdown returns the deepest drawdown of values, 0 when empty
func maxDrawdown(values []float64) float64 {
	maxDD := 0.0
	for _, dd := range drawdowns(values) {
		if dd < maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// CalmarRatio returns |AnnualizedReturn| / |MaxDrawdown| (both in percent).
// 0 when there is no drawdown.
func (a *Analyzer) CalmarRatio() float64 {
	annual := math.Abs(a.AnnualizedReturn())
	maxDD := math.Abs(a.MaxDrawdown())

	if maxDD == 0 {
		return 0
	}
	return annual / maxDD
}
