package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/quantperf/internal/audit"
)

// errIssuesFound makes validate exit with status 1
var errIssuesFound = errors.New("ledger has data issues")

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "원장 데이터 검증",
	Long: `백테스트 원장의 데이터 문제를 검사합니다.

검사 항목:
- 총자산 데이터 없음
- 0 이하 총자산 값
- 날짜/총자산 길이 불일치
- 날짜 역순/중복
- 알 수 없는 거래 구분

문제가 있으면 종료 코드 1을 반환합니다.

Example:
  go run ./cmd/perf validate --file ledger.yaml
  go run ./cmd/perf validate --run-id ma5-2018 --source db`,
	RunE: runValidate,
}

var validateSource sourceFlags

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateSource.file, "file", "", "원장 문서 경로 (YAML/JSON)")
	validateCmd.Flags().StringVar(&validateSource.runID, "run-id", "", "백테스트 실행 ID")
	validateCmd.Flags().StringVar(&validateSource.source, "source", "", "원장 소스 (file, db, http)")
	validateCmd.Flags().StringVar(&validateSource.url, "url", "", "http 소스 base URL")
	validateCmd.Flags().StringVar(&validateSource.dir, "dir", "", "file 소스 디렉터리")
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, log, err := loadDeps()
	if err != nil {
		return err
	}

	l, runID, err := loadLedger(cmd.Context(), cfg, log, validateSource)
	if err != nil {
		return err
	}

	if runID != "" {
		fmt.Fprintf(out, "Run ID: %s\n", runID)
	}

	issues := audit.Validate(l)
	PrintIssues(out, issues)

	if len(issues) > 0 {
		return errIssuesFound
	}
	return nil
}
