package contracts

import (
	"fmt"
	"time"
)

// TradeAction is the side of a trade record
type TradeAction string

const (
	ActionBuy  TradeAction = "buy"
	ActionSell TradeAction = "sell"
)

// IsValid reports whether the action is buy or sell
func (a TradeAction) IsValid() bool {
	return a == ActionBuy || a == ActionSell
}

// Trade is one entry of a backtest trade history.
// Profit and ReturnRate are optional; nil means the field was not recorded.
type Trade struct {
	Date       time.Time   `json:"date,omitzero"`
	Code       string      `json:"code,omitempty"`
	Action     TradeAction `json:"action"`
	Profit     *float64    `json:"profit,omitempty"`
	ReturnRate *float64    `json:"return_rate,omitempty"` // fractional
}

// HasProfit reports whether the trade carries a profit value
func (t Trade) HasProfit() bool {
	return t.Profit != nil
}

// HasReturnRate reports whether the trade carries a return rate
func (t Trade) HasReturnRate() bool {
	return t.ReturnRate != nil
}

// Ledger is the account ledger of a finished backtest: daily total assets
// index-aligned with Dates, plus the trade history.
// ⭐ SSOT: 성과 분석 입력은 이 구조체로만 전달
type Ledger struct {
	Dates       []time.Time `json:"dates"`
	TotalAssets []float64   `json:"total_assets"`
	Trades      []Trade     `json:"trades"`
}

// Len returns the number of asset observations
func (l *Ledger) Len() int {
	return len(l.TotalAssets)
}

// Aligned reports whether dates and asset values have the same length
func (l *Ledger) Aligned() bool {
	return len(l.Dates) == len(l.TotalAssets)
}

// AlignedLen returns the length of the date-aligned prefix
func (l *Ledger) AlignedLen() int {
	if len(l.Dates) < len(l.TotalAssets) {
		return len(l.Dates)
	}
	return len(l.TotalAssets)
}

// InitialAsset returns the first asset value, or false when empty
func (l *Ledger) InitialAsset() (float64, bool) {
	if len(l.TotalAssets) == 0 {
		return 0, false
	}
	return l.TotalAssets[0], true
}

// FinalAsset returns the last asset value, or false when empty
func (l *Ledger) FinalAsset() (float64, bool) {
	if len(l.TotalAssets) == 0 {
		return 0, false
	}
	return l.TotalAssets[len(l.TotalAssets)-1], true
}

// Period returns the first and last date of the ledger
func (l *Ledger) Period() (time.Time, time.Time, error) {
	if len(l.Dates) == 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("ledger has no dates")
	}
	return l.Dates[0], l.Dates[len(l.Dates)-1], nil
}

// SeriesPoint is one dated value of a derived series
type SeriesPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}
