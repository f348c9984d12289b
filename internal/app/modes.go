package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/quantfold/pmarb/internal/domain"
	"github.com/quantfold/pmarb/internal/notify"
	"github.com/quantfold/pmarb/internal/server"
	"github.com/quantfold/pmarb/internal/server/handler"
)

const shutdownTimeout = 10 * time.Second

// IngestMode fetches current market snapshots from every enabled platform
// and persists them, then exits.
func (a *App) IngestMode(ctx context.Context, deps *Dependencies) error {
	total, err := deps.MatchService.IngestMarkets(ctx)
	if err != nil {
		return fmt.Errorf("app: ingest: %w", err)
	}
	a.logger.InfoContext(ctx, "ingest complete", slog.Int("markets", total))
	return nil
}

// MatchMode ingests fresh snapshots and rebuilds the matched-pair table.
// When a saved classifier model exists it is loaded first so persisted
// pairs carry predicted probabilities.
func (a *App) MatchMode(ctx context.Context, deps *Dependencies) error {
	a.restoreModel(ctx, deps)

	if _, err := deps.MatchService.IngestMarkets(ctx); err != nil {
		return fmt.Errorf("app: ingest: %w", err)
	}

	written, err := deps.MatchService.RunMatching(ctx)
	if err != nil {
		return fmt.Errorf("app: match: %w", err)
	}
	a.logger.InfoContext(ctx, "matching complete", slog.Int("pairs", written))
	return nil
}

// ArbitrageMode runs one detection pass over the stored matched pairs and
// logs the summary.
func (a *App) ArbitrageMode(ctx context.Context, deps *Dependencies) error {
	opps, err := deps.ArbService.DetectOpportunities(ctx, -1)
	if err != nil {
		return fmt.Errorf("app: arbitrage: %w", err)
	}

	a.logger.InfoContext(ctx, "arbitrage scan complete",
		slog.Int("opportunities", len(opps)),
	)
	notify.NewConsole(os.Stdout).PrintOpportunities(opps)
	return nil
}

// TrainMode fits the classifier from confirmed matched pairs and saves
// the snapshot to the model store, then exits. It requires a configured
// model store.
func (a *App) TrainMode(ctx context.Context, deps *Dependencies) error {
	if deps.Trainer == nil {
		return errors.New("app: train mode requires a configured model store")
	}

	metrics, err := deps.Trainer.TrainFromConfirmed(ctx, a.cfg.S3.ModelName)
	if err != nil {
		return fmt.Errorf("app: train: %w", err)
	}
	a.logger.InfoContext(ctx, "training complete",
		slog.String("model", a.cfg.S3.ModelName),
		slog.Int("positives", metrics.Positives),
		slog.Int("negatives", metrics.Negatives),
		slog.Float64("accuracy", metrics.Accuracy),
		slog.Float64("auc_roc", metrics.AUCROC),
	)
	return nil
}

// ServeMode runs the HTTP API until the context is cancelled.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	return a.runServer(ctx, deps)
}

// FullMode performs ingest, matching, and a detection pass, then serves
// the HTTP API.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	if err := a.MatchMode(ctx, deps); err != nil {
		return err
	}
	if err := a.ArbitrageMode(ctx, deps); err != nil {
		return err
	}
	return a.runServer(ctx, deps)
}

func (a *App) runServer(ctx context.Context, deps *Dependencies) error {
	srv := server.NewServer(
		server.Config{Addr: a.cfg.Server.Addr},
		server.Handlers{
			Health:  handler.NewHealthHandler(),
			Matches: handler.NewMatchHandler(deps.MatchService, a.logger),
			Arb:     handler.NewArbHandler(deps.ArbService, a.logger),
		},
		a.logger,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}

// restoreModel loads the saved classifier snapshot when a trainer is
// wired. A missing snapshot is not an error; matching simply runs
// heuristic-only.
func (a *App) restoreModel(ctx context.Context, deps *Dependencies) {
	if deps.Trainer == nil {
		return
	}
	err := deps.Trainer.LoadModel(ctx, a.cfg.S3.ModelName)
	switch {
	case err == nil:
		a.logger.InfoContext(ctx, "classifier model loaded",
			slog.String("model", a.cfg.S3.ModelName),
		)
	case errors.Is(err, domain.ErrNotFound):
		a.logger.InfoContext(ctx, "no saved classifier model, matching heuristic-only")
	default:
		a.logger.WarnContext(ctx, "classifier model load failed",
			slog.String("error", err.Error()),
		)
	}
}
