package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/quantperf/internal/ledger"
	"github.com/wonny/quantperf/pkg/database"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "저장된 백테스트 실행 목록",
	Long: `PostgreSQL에 저장된 백테스트 실행 목록을 출력합니다.

Example:
  go run ./cmd/perf runs`,
	RunE: runListRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)
}

func runListRuns(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg, _, err := loadDeps()
	if err != nil {
		return err
	}

	db, err := database.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	runs, err := ledger.NewRepository(db.Pool).ListRuns(ctx)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		PrintWarning(out, "No stored runs")
		return nil
	}

	widths := []int{24, 12, 12, 6}
	PrintTableHeader(out, []string{"Run ID", "Start", "End", "Days"}, widths)
	for _, r := range runs {
		PrintTableRow(out, []string{
			r.RunID,
			r.StartDate.Format(ledger.DateLayout),
			r.EndDate.Format(ledger.DateLayout),
			strconv.Itoa(r.Observations),
		}, widths)
	}

	return nil
}
