package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/quantperf/internal/api"
	"github.com/wonny/quantperf/internal/api/handlers"
	"github.com/wonny/quantperf/internal/ledger"
	"github.com/wonny/quantperf/pkg/database"
	"github.com/wonny/quantperf/pkg/httputil"
	"github.com/wonny/quantperf/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `성과 분석 REST API 서버를 시작합니다.

Endpoints:
  GET  /health                            - Health check
  POST /api/performance/summary           - 원장 문서 성과 요약
  POST /api/performance/series            - 원장 문서 수익률 시계열
  GET  /api/performance/runs/{id}/summary - 저장된 백테스트 성과 요약

Example:
  go run ./cmd/perf api
  go run ./cmd/perf api --port 8080 --source db`,
	RunE: runAPIServer,
}

var (
	apiPort   string
	apiSource sourceFlags
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
	apiCmd.Flags().StringVar(&apiSource.source, "source", "", "원장 소스 (file, db, http)")
	apiCmd.Flags().StringVar(&apiSource.url, "url", "", "http 소스 base URL")
	apiCmd.Flags().StringVar(&apiSource.dir, "dir", "", "file 소스 디렉터리")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	// 1. Load config
	cfg, log, err := loadDeps()
	if err != nil {
		return err
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}
	apiSource.apply(cfg)

	log.WithFields(map[string]interface{}{
		"port":   cfg.Port,
		"env":    cfg.Env,
		"source": cfg.Ledger.Source,
	}).Info("Initializing API server")

	checks := map[string]api.HealthCheck{}

	// 2. Ledger source
	var source ledger.Source
	switch cfg.Ledger.Source {
	case "db":
		db, err := database.New(ctx, cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		log.Info("Connected to database")
		source = ledger.WithTiming(ledger.NewRepository(db.Pool), log)
		checks["database"] = db.Ping
	case "http":
		if cfg.Ledger.BaseURL == "" {
			return fmt.Errorf("http source requires --url or LEDGER_BASE_URL")
		}
		client := httputil.New(cfg, log)
		source = ledger.WithTiming(ledger.NewHTTPSource(client, cfg.Ledger.BaseURL), log)
	default:
		source = ledger.WithTiming(ledger.NewFileSource(cfg.Ledger.Dir), log)
	}

	// 3. Summary cache
	redisClient, err := redis.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	if redisClient.Enabled() {
		log.Info("Connected to redis")
		checks["redis"] = redisClient.Ping
	}
	cache := redis.NewCache(redisClient, "quantperf")

	// 4. Handler, router, server
	perf := handlers.NewPerformanceHandler(source, cache, handlers.PerformanceOptions{
		RiskFreeRate: cfg.Analysis.RiskFreeRate,
		LabelLocale:  cfg.Analysis.LabelLocale,
		CacheTTL:     cfg.Analysis.CacheTTL,
	}, log)
	router := api.NewRouter(cfg, perf, checks, log)
	server := api.New(cfg, log, router)

	fmt.Fprintf(out, "\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Fprintln(out, "\nAvailable endpoints:")
	fmt.Fprintln(out, "  GET  /health")
	fmt.Fprintln(out, "  POST /api/performance/summary")
	fmt.Fprintln(out, "  POST /api/performance/series")
	fmt.Fprintln(out, "  GET  /api/performance/runs/{id}/summary")
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	// 5. Serve until interrupted
	if err := server.Run(ctx); err != nil {
		return err
	}

	log.Info("Server stopped")
	return nil
}
