package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/kakeibo/internal/model"
	"golang.org/x/sync/errgroup"
)

// BatchSummary contains statistics about a batch run.
type BatchSummary struct {
	BySource       map[model.StrategyName]int
	Total          int
	NeedsReview    int
	ProcessingTime time.Duration
}

// ClassifyBatch classifies records in parallel with at most Config.BatchWorkers
// goroutines. Results keep the order of records. progress, if non-nil, is
// called once per finished record and must be safe for concurrent use.
// The only error is context cancellation.
func (e *ClassificationEngine) ClassifyBatch(ctx context.Context, userID string, records []model.TransactionRecord, profile *model.UserProfile, progress func()) ([]model.ClassificationResult, *BatchSummary, error) {
	startTime := time.Now()
	results := make([]model.ClassificationResult, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.BatchWorkers)
	for i := range records {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.Classify(gctx, userID, records[i], profile)
			if progress != nil {
				progress()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("batch classification interrupted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("batch classification interrupted: %w", err)
	}

	summary := &BatchSummary{
		BySource:       make(map[model.StrategyName]int),
		Total:          len(records),
		ProcessingTime: time.Since(startTime),
	}
	for _, r := range results {
		summary.BySource[r.Source]++
		if r.NeedsReview(e.config.ReviewThreshold) {
			summary.NeedsReview++
		}
	}

	slog.Info("Batch classification complete",
		"user_id", userID,
		"total", summary.Total,
		"needs_review", summary.NeedsReview,
		"duration", summary.ProcessingTime)

	return results, summary, nil
}
