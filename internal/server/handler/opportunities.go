package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/quantfold/pmarb/internal/domain"
)

// OpportunityDetector is the slice of the arbitrage service this handler
// needs.
type OpportunityDetector interface {
	DetectOpportunities(ctx context.Context, minSimilarity float64) ([]domain.ArbitrageOpportunity, error)
}

// ArbHandler serves on-demand arbitrage detection runs.
type ArbHandler struct {
	arb    OpportunityDetector
	logger *slog.Logger
}

// NewArbHandler creates an ArbHandler.
func NewArbHandler(arb OpportunityDetector, logger *slog.Logger) *ArbHandler {
	return &ArbHandler{
		arb:    arb,
		logger: logger.With(slog.String("handler", "opportunities")),
	}
}

// ListOpportunities runs detection over the stored pairs and returns the
// results sorted by guaranteed profit. Query parameters: min_similarity
// (float, -1 selects the configured default), limit (int).
// GET /api/v1/opportunities
func (h *ArbHandler) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	minSimilarity := queryFloat(r, "min_similarity", -1)

	opps, err := h.arb.DetectOpportunities(r.Context(), minSimilarity)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "detection failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to detect opportunities")
		return
	}

	if limit := queryInt(r, "limit", 0); limit > 0 && limit < len(opps) {
		opps = opps[:limit]
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"opportunities": opps,
		"count":         len(opps),
	})
}
