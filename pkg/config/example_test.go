package config_test

import (
	"fmt"

	"github.com/wonny/quantperf/pkg/config"
)

// Example demonstrates how to use the config package
func Example() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	// Access configuration values
	fmt.Printf("Environment: %s\n", cfg.Env)
	fmt.Printf("Ledger source: %s\n", cfg.Ledger.Source)
	fmt.Printf("Risk-free rate: %.2f%%\n", cfg.Analysis.RiskFreeRate*100)
}
