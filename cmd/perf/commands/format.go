package commands

import (
	"fmt"
	"io"
	"strconv"

	"github.com/wonny/quantperf/internal/audit"
	"github.com/wonny/quantperf/internal/contracts"
	"github.com/wonny/quantperf/internal/ledger"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// ReportMetadata describes the analysed backtest
type ReportMetadata struct {
	Title        string
	RunID        string
	Period       *Period // Optional
	Observations int
}

// Period represents a date range
type Period struct {
	StartDate string
	EndDate   string
}

// periodOf returns the ledger's date range, nil when it has no dates
func periodOf(l *contracts.Ledger) *Period {
	start, end, err := l.Period()
	if err != nil {
		return nil
	}
	return &Period{
		StartDate: start.Format(ledger.DateLayout),
		EndDate:   end.Format(ledger.DateLayout),
	}
}

// PrintReportHeader prints a formatted report header
func PrintReportHeader(w io.Writer, meta ReportMetadata) {
	fmt.Fprintln(w)
	PrintDoubleSeparator(w)
	fmt.Fprintf(w, "  %s\n", meta.Title)
	PrintSeparator(w)

	if meta.RunID != "" {
		fmt.Fprintf(w, "  Run ID    : %s\n", meta.RunID)
	}
	if meta.Period != nil {
		fmt.Fprintf(w, "  Period    : %s ~ %s\n", meta.Period.StartDate, meta.Period.EndDate)
	}
	fmt.Fprintf(w, "  Days      : %d\n", meta.Observations)

	PrintSeparator(w)
}

// PrintSummary prints the summary as a label/value table in metric order
func PrintSummary(w io.Writer, summary audit.Summary) {
	width := 0
	for _, item := range summary.Items {
		if n := len([]rune(item.Label)); n > width {
			width = n
		}
	}

	for _, item := range summary.Items {
		PrintKeyValue(w, item.Label, strconv.FormatFloat(item.Value, 'f', -1, 64), width)
	}
}

// PrintTradeStats prints the supplementary trade-quality metrics
func PrintTradeStats(w io.Writer, stats audit.TradeStats) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Trade quality")
	PrintKeyValue(w, "Avg Win", fmt.Sprintf("%.2f", stats.AvgWin), 13)
	PrintKeyValue(w, "Avg Loss", fmt.Sprintf("%.2f", stats.AvgLoss), 13)
	PrintKeyValue(w, "Profit Factor", fmt.Sprintf("%.3f", stats.ProfitFactor), 13)
}

// PrintIssues prints validation issues, or a success line when there are none
func PrintIssues(w io.Writer, issues []string) {
	fmt.Fprintln(w)
	if len(issues) == 0 {
		PrintSuccess(w, "No data issues found")
		return
	}

	PrintWarning(w, fmt.Sprintf("%d data issue(s) found", len(issues)))
	PrintList(w, issues)
}

// PrintSeriesTail prints the last n points of a series as a table
func PrintSeriesTail(w io.Writer, title string, series []contracts.SeriesPoint, n int) {
	if n <= 0 || len(series) == 0 {
		return
	}
	if n > len(series) {
		n = len(series)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s (last %d)\n", title, n)

	widths := []int{12, 12}
	PrintTableHeader(w, []string{"Date", "Value (%)"}, widths)
	for _, p := range series[len(series)-n:] {
		PrintTableRow(w, []string{
			p.Date.Format(ledger.DateLayout),
			fmt.Sprintf("%.2f", p.Value*100),
		}, widths)
	}
}

// PrintSeparator prints a visual separator
func PrintSeparator(w io.Writer) {
	fmt.Fprintln(w, "───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator(w io.Writer) {
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, message string) {
	fmt.Fprintf(w, "⚠️  %s\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(w io.Writer, message string) {
	fmt.Fprintf(w, "✅ %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(w io.Writer, columns []string, widths []int) {
	PrintTableRow(w, columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	for i := 0; i < totalWidth; i++ {
		fmt.Fprint(w, "─")
	}
	fmt.Fprintln(w)
}

// PrintTableRow prints a table row
func PrintTableRow(w io.Writer, values []string, widths []int) {
	for i, val := range values {
		fmt.Fprintf(w, "%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Fprint(w, "  ")
		}
	}
	fmt.Fprintln(w)
}

// PrintList prints a bulleted list
func PrintList(w io.Writer, items []string) {
	for _, item := range items {
		fmt.Fprintf(w, "   • %s\n", item)
	}
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(w io.Writer, key string, value string, keyWidth int) {
	fmt.Fprintf(w, "   %-*s : %s\n", keyWidth, key, value)
}
