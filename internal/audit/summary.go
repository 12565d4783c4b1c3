package audit

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// MetricKey identifies a summary metric independently of its display label
type MetricKey string

const (
	KeyTotalReturn    MetricKey = "total_return_pct"
	KeyAnnualReturn   MetricKey = "annual_return_pct"
	KeySharpeRatio    MetricKey = "sharpe_ratio"
	KeyVolatility     MetricKey = "volatility_pct"
	KeyMaxDrawdown    MetricKey = "max_drawdown_pct"
	KeyCalmarRatio    MetricKey = "calmar_ratio"
	KeyTradeCount     MetricKey = "trade_count"
	KeyBuyCount       MetricKey = "buy_count"
	KeySellCount      MetricKey = "sell_count"
	KeyWinRate        MetricKey = "win_rate_pct"
	KeyAvgTradeReturn MetricKey = "avg_trade_return_pct"
)

// Labels maps metric keys to display labels
type Labels map[MetricKey]string

// LabelsEN English report labels
var LabelsEN = Labels{
	KeyTotalReturn:    "Total Return (%)",
	KeyAnnualReturn:   "Annualized Return (%)",
	KeySharpeRatio:    "Sharpe Ratio",
	KeyVolatility:     "Annualized Volatility (%)",
	KeyMaxDrawdown:    "Max Drawdown (%)",
	KeyCalmarRatio:    "Calmar Ratio",
	KeyTradeCount:     "Total Trades",
	KeyBuyCount:       "Buy Trades",
	KeySellCount:      "Sell Trades",
	KeyWinRate:        "Win Rate (%)",
	KeyAvgTradeReturn: "Avg Trade Return (%)",
}

// LabelsZH Chinese report labels
var LabelsZH = Labels{
	KeyTotalReturn:    "总收益率 (%)",
	KeyAnnualReturn:   "年化收益率 (%)",
	KeySharpeRatio:    "夏普比率",
	KeyVolatility:     "年化波动率 (%)",
	KeyMaxDrawdown:    "最大回撤 (%)",
	KeyCalmarRatio:    "Calmar比率",
	KeyTradeCount:     "总交易次数",
	KeyBuyCount:       "买入次数",
	KeySellCount:      "卖出次数",
	KeyWinRate:        "胜率 (%)",
	KeyAvgTradeReturn: "平均交易收益率 (%)",
}

// LabelsFor returns the label set of a locale ("en" or "zh"), English otherwise
func LabelsFor(locale string) Labels {
	if strings.EqualFold(locale, "zh") {
		return LabelsZH
	}
	return LabelsEN
}

// label returns the display label of key, falling back to the key itself
func (l Labels) label(key MetricKey) string {
	if s, ok := l[key]; ok {
		return s
	}
	return string(key)
}

// SummaryItem is one labelled, rounded metric
type SummaryItem struct {
	Key   MetricKey
	Label string
	Value float64
}

// Summary is an ordered set of labelled metrics ready for presentation.
// It marshals to a JSON object whose keys are labels, in metric order.
type Summary struct {
	Items []SummaryItem
}

// Get returns the value of key
func (s Summary) Get(key MetricKey) (float64, bool) {
	for _, item := range s.Items {
		if item.Key == key {
			return item.Value, true
		}
	}
	return 0, false
}

// Values returns the summary keyed by metric key
func (s Summary) Values() map[MetricKey]float64 {
	values := make(map[MetricKey]float64, len(s.Items))
	for _, item := range s.Items {
		values[item.Key] = item.Value
	}
	return values
}

// MarshalJSON writes the summary as an ordered JSON object
func (s Summary) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, item := range s.Items {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(item.Label)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(item.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Summarize validates the ledger (issues are logged, never fatal) and
// assembles every metric into an ordered, rounded Summary.
func (a *Analyzer) Summarize() Summary {
	if issues := Validate(a.ledger); len(issues) > 0 {
		a.logger.WithField("issues", issues).Warn("Ledger data issues found")
	}

	buys, sells := a.BuySellCount()

	summary := Summary{}
	add := func(key MetricKey, value float64, places int32) {
		summary.Items = append(summary.Items, SummaryItem{
			Key:   key,
			Label: a.labels.label(key),
			Value: round(value, places),
		})
	}

	add(KeyTotalReturn, a.TotalReturn(), 2)
	add(KeyAnnualReturn, a.AnnualizedReturn(), 2)
	add(KeySharpeRatio, a.SharpeRatio(a.riskFreeRate), 3)
	add(KeyVolatility, a.Volatility(), 2)
	add(KeyMaxDrawdown, a.MaxDrawdown(), 2)
	add(KeyCalmarRatio, a.CalmarRatio(), 3)
	add(KeyTradeCount, float64(a.TradeCount()), 0)
	add(KeyBuyCount, float64(buys), 0)
	add(KeySellCount, float64(sells), 0)
	add(KeyWinRate, a.WinRate(), 2)
	add(KeyAvgTradeReturn, a.AvgTradeReturn(), 2)

	initial, _ := a.ledger.InitialAsset()
	final, _ := a.ledger.FinalAsset()
	a.logger.WithFields(map[string]interface{}{
		"initial_asset":  initial,
		"final_asset":    final,
		"trading_days":   len(a.ledger.Dates),
		"returns_length": len(a.returns),
	}).Debug("Performance summary assembled")

	return summary
}

// Rounded returns the stats with ratios rounded for presentation
func (s TradeStats) Rounded() TradeStats {
	s.WinRate = round(s.WinRate, 2)
	s.AvgTradeReturn = round(s.AvgTradeReturn, 2)
	s.AvgWin = round(s.AvgWin, 2)
	s.AvgLoss = round(s.AvgLoss, 2)
	s.ProfitFactor = round(s.ProfitFactor, 3)
	return s
}

// round rounds half away from zero; non-finite values become 0
func round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
