package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/quantperf/internal/ledger"
	"github.com/wonny/quantperf/pkg/database"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "원장 문서를 DB에 저장",
	Long: `YAML/JSON 원장 문서를 PostgreSQL backtest 스키마에 저장합니다.
같은 실행 ID의 기존 데이터는 교체됩니다.

Example:
  go run ./cmd/perf import --file ledger.yaml
  go run ./cmd/perf import --file ledger.yaml --run-id ma5-2018`,
	RunE: runImport,
}

var (
	importFile  string
	importRunID string
)

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importFile, "file", "", "원장 문서 경로 (YAML/JSON)")
	importCmd.Flags().StringVar(&importRunID, "run-id", "", "실행 ID (기본: 문서의 run_id)")
	importCmd.MarkFlagRequired("file")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, log, err := loadDeps()
	if err != nil {
		return err
	}

	doc, err := ledger.LoadDocument(importFile)
	if err != nil {
		return err
	}

	runID := importRunID
	if runID == "" {
		runID = doc.RunID
	}
	if runID == "" {
		return fmt.Errorf("run id required: document has no run_id, pass --run-id")
	}

	l, err := doc.Ledger()
	if err != nil {
		return fmt.Errorf("%s: %w", importFile, err)
	}

	db, err := database.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	repo := ledger.NewRepository(db.Pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := repo.SaveLedger(ctx, runID, l); err != nil {
		return err
	}

	log.WithFields(map[string]interface{}{
		"run_id":       runID,
		"observations": l.AlignedLen(),
		"trades":       len(l.Trades),
	}).Info("Ledger imported")
	PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Imported run %s (%d days, %d trades)", runID, l.AlignedLen(), len(l.Trades)))

	return nil
}
