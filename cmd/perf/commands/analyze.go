package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/quantperf/internal/audit"
	"github.com/wonny/quantperf/internal/report"
	"github.com/wonny/quantperf/pkg/logger"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "백테스트 성과 분석",
	Long: `백테스트 원장으로부터 성과 지표를 계산합니다.

지표:
- 총수익률 / 연환산 수익률
- 샤프 비율 / 연환산 변동성
- 최대낙폭 / Calmar 비율
- 거래 횟수 / 승률 / 평균 거래 수익률

원장 소스:
- --file: YAML 또는 JSON 원장 문서
- --run-id: 설정된 소스(file, db, http)에서 조회

Example:
  go run ./cmd/perf analyze --file ledger.yaml
  go run ./cmd/perf analyze --file ledger.yaml --json
  go run ./cmd/perf analyze --run-id ma5-2018 --source db --chart ma5.png
  go run ./cmd/perf analyze --run-id ma5-2018 --source http --url http://backtest:9000 --locale zh`,
	RunE: runAnalyze,
}

var (
	analyzeSource   sourceFlags
	analyzeRiskFree float64
	analyzeJSON     bool
	analyzeChart    string
	analyzeLocale   string
	analyzeTail     int
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeSource.file, "file", "", "원장 문서 경로 (YAML/JSON)")
	analyzeCmd.Flags().StringVar(&analyzeSource.runID, "run-id", "", "백테스트 실행 ID")
	analyzeCmd.Flags().StringVar(&analyzeSource.source, "source", "", "원장 소스 (file, db, http; 기본: LEDGER_SOURCE)")
	analyzeCmd.Flags().StringVar(&analyzeSource.url, "url", "", "http 소스 base URL")
	analyzeCmd.Flags().StringVar(&analyzeSource.dir, "dir", "", "file 소스 디렉터리")
	analyzeCmd.Flags().Float64Var(&analyzeRiskFree, "risk-free", 0, "연간 무위험 수익률 (기본: RISK_FREE_RATE)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "JSON 출력")
	analyzeCmd.Flags().StringVar(&analyzeChart, "chart", "", "누적 수익률 차트 PNG 경로")
	analyzeCmd.Flags().StringVar(&analyzeLocale, "locale", "", "지표 라벨 언어 (en, zh)")
	analyzeCmd.Flags().IntVar(&analyzeTail, "tail", 5, "출력할 누적 수익률 마지막 N일")
}

// AnalyzeOutput is the --json form of an analysis
type AnalyzeOutput struct {
	RunID   string           `json:"run_id,omitempty"`
	Summary audit.Summary    `json:"summary"`
	Trades  audit.TradeStats `json:"trades"`
	Issues  []string         `json:"issues"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg, log, err := loadDeps()
	if err != nil {
		return err
	}

	riskFree := cfg.Analysis.RiskFreeRate
	if cmd.Flags().Changed("risk-free") {
		if analyzeRiskFree < 0 || analyzeRiskFree >= 1 {
			return fmt.Errorf("--risk-free must be a fraction in [0, 1), got %g", analyzeRiskFree)
		}
		riskFree = analyzeRiskFree
	}

	locale := cfg.Analysis.LabelLocale
	if analyzeLocale != "" {
		if analyzeLocale != "en" && analyzeLocale != "zh" {
			return fmt.Errorf("--locale must be en or zh, got %q", analyzeLocale)
		}
		locale = analyzeLocale
	}

	l, runID, err := loadLedger(ctx, cfg, log, analyzeSource)
	if err != nil {
		return err
	}

	analyzer, err := audit.NewAnalyzer(l, log,
		audit.WithRiskFreeRate(riskFree),
		audit.WithLabels(audit.LabelsFor(locale)),
	)
	if err != nil {
		return err
	}

	summary := analyzer.Summarize()
	stats := analyzer.TradeStats().Rounded()
	issues := audit.Validate(l)

	if analyzeJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(AnalyzeOutput{
			RunID:   runID,
			Summary: summary,
			Trades:  stats,
			Issues:  issues,
		}); err != nil {
			return err
		}
	} else {
		PrintReportHeader(out, ReportMetadata{
			Title:        "Backtest Performance Summary",
			RunID:        runID,
			Period:       periodOf(l),
			Observations: l.Len(),
		})
		PrintSummary(out, summary)
		PrintTradeStats(out, stats)
		PrintSeriesTail(out, "Cumulative Return", analyzer.CumulativeSeries(), analyzeTail)
		PrintIssues(out, issues)
	}

	if analyzeChart != "" {
		return writeAnalyzeChart(analyzer, runID, analyzeChart, log)
	}

	return nil
}

// writeAnalyzeChart renders the equity and drawdown chart after the report.
// Ledgers with fewer than 2 observations have nothing to plot and are skipped.
func writeAnalyzeChart(analyzer *audit.Analyzer, runID, path string, log *logger.Logger) error {
	cumulative := analyzer.CumulativeSeries()
	if len(cumulative) < 2 {
		log.WithFields(map[string]interface{}{
			"path":         path,
			"observations": len(cumulative),
		}).Warn("Chart skipped: need at least 2 observations")
		return nil
	}

	title := "Backtest Performance"
	if runID != "" {
		title = runID
	}
	if err := report.WriteChart(path, title, cumulative, analyzer.DrawdownSeries()); err != nil {
		return err
	}
	log.WithField("path", path).Info("Chart written")
	return nil
}
