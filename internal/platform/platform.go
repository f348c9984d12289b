// Package platform defines the interface market data providers implement.
//
// Each sub-package is a read-only REST client for one prediction-market
// platform that converts the platform's payloads into domain.Market
// snapshots with prices normalized to probability space [0, 1].
package platform

import (
	"context"

	"github.com/quantfold/pmarb/internal/domain"
)

// Provider fetches market snapshots from a single platform.
type Provider interface {
	// Source identifies the platform this provider reads from.
	Source() domain.Source

	// FetchMarkets returns current open-market snapshots. Records the
	// platform reports in an unusable shape are skipped, not surfaced
	// as errors.
	FetchMarkets(ctx context.Context) ([]domain.Market, error)
}
