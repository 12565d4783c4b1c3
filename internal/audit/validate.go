package audit

import (
	"math"

	"github.com/wonny/quantperf/internal/contracts"
)

// Validation issue descriptions
const (
	IssueNoAssetData    = "no asset data"
	IssueNonPositive    = "non-positive asset values present"
	IssueNonFinite      = "non-finite asset values present"
	IssueLengthMismatch = "dates and asset values length mismatch"
	IssueInvalidAction  = "trade records with unknown action"
	IssueUnorderedDates = "dates are not strictly increasing"
)

// Validate scans the ledger for structural problems and returns one
// human-readable description per problem. An empty result means clean.
// Validate never fails.
func Validate(ledger *contracts.Ledger) []string {
	issues := []string{}
	if ledger == nil {
		return append(issues, IssueNoAssetData)
	}

	if len(ledger.TotalAssets) == 0 {
		issues = append(issues, IssueNoAssetData)
	}

	// NaN and ±Inf are reported apart from finite v <= 0; both get forward-filled
	nonPositive, nonFinite := false, false
	for _, v := range ledger.TotalAssets {
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			nonFinite = true
		case v <= 0:
			nonPositive = true
		}
	}
	if nonPositive {
		issues = append(issues, IssueNonPositive)
	}
	if nonFinite {
		issues = append(issues, IssueNonFinite)
	}

	if !ledger.Aligned() {
		issues = append(issues, IssueLengthMismatch)
	}

	for i := 1; i < len(ledger.Dates); i++ {
		if !ledger.Dates[i].After(ledger.Dates[i-1]) {
			issues = append(issues, IssueUnorderedDates)
			break
		}
	}

	for _, t := range ledger.Trades {
		if !t.Action.IsValid() {
			issues = append(issues, IssueInvalidAction)
			break
		}
	}

	return issues
}
