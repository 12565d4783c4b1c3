package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/wonny/quantperf/internal/contracts"
	"github.com/wonny/quantperf/pkg/logger"
)

// ErrNotFound is returned when a source has no ledger for the requested run
var ErrNotFound = errors.New("ledger not found")

// Source supplies finished backtest ledgers by run id
type Source interface {
	Load(ctx context.Context, runID string) (*contracts.Ledger, error)
}

// SourceFunc adapts a function to Source
type SourceFunc func(ctx context.Context, runID string) (*contracts.Ledger, error)

// Load calls f
func (f SourceFunc) Load(ctx context.Context, runID string) (*contracts.Ledger, error) {
	return f(ctx, runID)
}

// WithTiming wraps src so that every Load is logged with its duration
func WithTiming(src Source, log *logger.Logger) Source {
	return SourceFunc(func(ctx context.Context, runID string) (*contracts.Ledger, error) {
		start := time.Now()
		l, err := src.Load(ctx, runID)

		fields := map[string]interface{}{
			"run_id":   runID,
			"duration": time.Since(start),
		}
		if err != nil {
			log.WithFields(fields).WithError(err).Warn("Ledger load failed")
			return nil, err
		}

		fields["observations"] = l.Len()
		fields["trades"] = len(l.Trades)
		log.WithFields(fields).Debug("Ledger loaded")

		return l, nil
	})
}

// Hash returns the sha256 of the ledger's canonical JSON encoding
func Hash(l *contracts.Ledger) (string, error) {
	data, err := json.Marshal(l)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
