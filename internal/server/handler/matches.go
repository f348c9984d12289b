package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/quantfold/pmarb/internal/domain"
)

// MatchLister is the slice of the match service this handler needs.
type MatchLister interface {
	ListPairs(ctx context.Context, filter domain.MatchedPairFilter) ([]domain.MatchedPair, error)
}

// MatchHandler serves the stored matched pairs.
type MatchHandler struct {
	matches MatchLister
	logger  *slog.Logger
}

// NewMatchHandler creates a MatchHandler.
func NewMatchHandler(matches MatchLister, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{
		matches: matches,
		logger:  logger.With(slog.String("handler", "matches")),
	}
}

// ListMatches returns matched pairs, newest-scored first. Query parameters:
// min_similarity (float), source (string), confirmed (bool), limit (int,
// default 100, max 500).
// GET /api/v1/matches
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100)
	if limit > 500 {
		limit = 500
	}

	filter := domain.MatchedPairFilter{
		MinSimilarity: queryFloat(r, "min_similarity", 0),
		Source:        domain.Source(r.URL.Query().Get("source")),
		ConfirmedOnly: r.URL.Query().Get("confirmed") == "true",
		Limit:         limit,
	}

	pairs, err := h.matches.ListPairs(r.Context(), filter)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list matches failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list matches")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"matches": pairs,
		"count":   len(pairs),
	})
}
