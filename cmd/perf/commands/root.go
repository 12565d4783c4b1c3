package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/quantperf/pkg/config"
	"github.com/wonny/quantperf/pkg/logger"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "perf",
	Short: "Backtest performance analytics",
	Long: `Backtest performance analytics CLI

백테스트 원장(일별 총자산 + 거래 내역)으로부터
수익률, 샤프, 변동성, 최대낙폭, 승률 등의 성과 지표를 계산합니다.

Usage:
  go run ./cmd/perf [command]

Examples:
  go run ./cmd/perf analyze --file ledger.yaml
  go run ./cmd/perf analyze --run-id ma5-2018 --source db --json
  go run ./cmd/perf validate --file ledger.yaml
  go run ./cmd/perf api --port 8080`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). Ctrl+C cancels the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// loadDeps loads config and builds the logger
func loadDeps() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	if verbose {
		cfg.LogLevel = "debug"
	}

	return cfg, logger.New(cfg), nil
}
