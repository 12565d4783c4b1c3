package audit

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/quantperf/internal/contracts"
)

// TradeCount returns the number of trade records
func (a *Analyzer) TradeCount() int {
	return len(a.ledger.Trades)
}

// BuySellCount returns the number of buy and sell records
func (a *Analyzer) BuySellCount() (int, int) {
	var buys, sells int
	for _, t := range a.ledger.Trades {
		switch t.Action {
		case contracts.ActionBuy:
			buys++
		case contracts.ActionSell:
			sells++
		}
	}
	return buys, sells
}

// WinRate returns the share of profitable sell trades, in percent, among
// sell trades that carry a profit value. 0 when there are none.
func (a *Analyzer) WinRate() float64 {
	profits := a.sellProfits()
	if len(profits) == 0 {
		return 0
	}

	wins := 0
	for _, p := range profits {
		if p > 0 {
			wins++
		}
	}

	return float64(wins) / float64(len(profits)) * 100
}

// AvgTradeReturn returns the mean return rate of trades carrying one, in percent
func (a *Analyzer) AvgTradeReturn() float64 {
	var rates []float64
	for _, t := range a.ledger.Trades {
		if t.HasReturnRate() {
			rates = append(rates, *t.ReturnRate)
		}
	}

	if len(rates) == 0 {
		return 0
	}
	return stat.Mean(rates, nil) * 100
}

// AvgWinLoss returns the mean profit of winning sells and the mean profit of losing sells
func (a *Analyzer) AvgWinLoss() (float64, float64) {
	var wins, losses []float64
	for _, p := range a.sellProfits() {
		if p > 0 {
			wins = append(wins, p)
		} else if p < 0 {
			losses = append(losses, p)
		}
	}

	avgWin := 0.0
	if len(wins) > 0 {
		avgWin = stat.Mean(wins, nil)
	}

	avgLoss := 0.0
	if len(losses) > 0 {
		avgLoss = stat.Mean(losses, nil)
	}

	return avgWin, avgLoss
}

// ProfitFactor returns gross profit / gross loss over sell trades.
// 0 when there are no losses.
func (a *Analyzer) ProfitFactor() float64 {
	var totalWin, totalLoss float64

	for _, p := range a.sellProfits() {
		if p > 0 {
			totalWin += p
		} else if p < 0 {
			totalLoss += math.Abs(p)
		}
	}

	if totalLoss == 0 {
		return 0
	}
	return totalWin / totalLoss
}

// TradeStats groups the trade-quality metrics
type TradeStats struct {
	TradeCount     int     `json:"trade_count"`
	BuyCount       int     `json:"buy_count"`
	SellCount      int     `json:"sell_count"`
	WinRate        float64 `json:"win_rate_pct"`
	AvgTradeReturn float64 `json:"avg_trade_return_pct"`
	AvgWin         float64 `json:"avg_win"`
	AvgLoss        float64 `json:"avg_loss"`
	ProfitFactor   float64 `json:"profit_factor"`
}

// TradeStats computes all trade-quality metrics at once
func (a *Analyzer) TradeStats() TradeStats {
	buys, sells := a.BuySellCount()
	avgWin, avgLoss := a.AvgWinLoss()

	return TradeStats{
		TradeCount:     a.TradeCount(),
		BuyCount:       buys,
		SellCount:      sells,
		WinRate:        a.WinRate(),
		AvgTradeReturn: a.AvgTradeReturn(),
		AvgWin:         avgWin,
		AvgLoss:        avgLoss,
		ProfitFactor:   a.ProfitFactor(),
	}
}

// sellProfits collects the profit of every sell trade that carries one
func (a *Analyzer) sellProfits() []float64 {
	var profits []float64
	for _, t := range a.ledger.Trades {
		if t.Action == contracts.ActionSell && t.HasProfit() {
			profits = append(profits, *t.Profit)
		}
	}
	return profits
}
