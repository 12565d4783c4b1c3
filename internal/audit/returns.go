package audit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/wonny/quantperf/pkg/logger"
)

const (
	// ReturnFloor / ReturnCap bound a single session's return (price-limit circuit breaker)
	ReturnFloor = -0.11
	ReturnCap   = 0.11

	// MinAssetValue replaces a non-positive asset value with no valid predecessor
	MinAssetValue = 1e-6
)

// DeriveReturns computes the daily return series of assets.
// Non-positive values are forward-filled from the last positive value (or
// MinAssetValue when there is none). The first return is 0 and every return
// is clamped to [ReturnFloor, ReturnCap].
func DeriveReturns(assets []float64, log *logger.Logger) ([]float64, error) {
	if len(assets) == 0 {
		return nil, fmt.Errorf("derive returns: %w", ErrNoAssetData)
	}
	if log == nil {
		log = logger.Nop()
	}

	values, replaced := fillNonPositive(assets)
	if replaced > 0 {
		log.WithField("replaced", replaced).
			Warn("Non-positive asset values found, forward-filled before return calculation")
	}

	returns := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		r := (values[i] - values[i-1]) / values[i-1]
		returns[i] = clamp(r, ReturnFloor, ReturnCap)
	}

	log.WithFields(map[string]interface{}{
		"min": floats.Min(returns),
		"max": floats.Max(returns),
	}).Debug("Return series derived")

	return returns, nil
}

// fillNonPositive returns a copy of assets with every non-positive (or
// non-finite) value replaced, and the number of replacements.
func fillNonPositive(assets []float64) ([]float64, int) {
	values := make([]float64, len(assets))
	replaced := 0
	last := MinAssetValue

	for i, v := range assets {
		if v > 0 && !math.IsInf(v, 0) {
			values[i] = v
			last = v
			continue
		}
		values[i] = last
		replaced++
	}

	return values, replaced
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// DeriveCumulative compounds returns into a net value series seeded at 1.0
// and the matching cumulative return series (net value - 1).
// When compounding stops being finite both series fall back to their
// neutral values (1.0 and 0.0) for the whole length.
func DeriveCumulative(returns []float64, log *logger.Logger) ([]float64, []float64) {
	if log == nil {
		log = logger.Nop()
	}

	netValue := make([]float64, len(returns))
	cumReturns := make([]float64, len(returns))

	value := 1.0
	for i, r := range returns {
		value *= 1.0 + r
		if math.IsInf(value, 0) || math.IsNaN(value) {
			log.WithFields(map[string]interface{}{
				"index":  i,
				"length": len(returns),
			}).Warn("Cumulative compounding overflowed, using neutral series")
			return neutralCumulative(len(returns))
		}
		netValue[i] = value
		cumReturns[i] = value - 1.0
	}

	if len(cumReturns) > 0 {
		log.WithFields(map[string]interface{}{
			"min": floats.Min(cumReturns),
			"max": floats.Max(cumReturns),
		}).Debug("Cumulative return series derived")
	}

	return netValue, cumReturns
}

func neutralCumulative(n int) ([]float64, []float64) {
	netValue := make([]float64, n)
	for i := range netValue {
		netValue[i] = 1.0
	}
	return netValue, make([]float64, n)
}
