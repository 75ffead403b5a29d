// Package enrich runs derived-field passes over the review collection
// in MongoDB. Passes are additive: each one computes new fields for a
// review and applies them with a $set, never touching the extraction
// fields.
package enrich

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/IshaanNene/ReviewGoat/internal/config"
	"github.com/IshaanNene/ReviewGoat/internal/store"
	"github.com/IshaanNene/ReviewGoat/internal/types"
)

// Pass computes derived fields for one review. changed is false when
// the pass has nothing to add (e.g. empty body).
type Pass interface {
	Name() string
	// MarkerField is the document field whose absence means the review
	// has not been through this pass yet.
	MarkerField() string
	Apply(r *types.Review) (fields bson.M, changed bool)
}

// NLPPass tokenizes the review body into sentences and words.
type NLPPass struct{}

func (NLPPass) Name() string        { return "nlp" }
func (NLPPass) MarkerField() string { return "nlp_processed_at" }

func (NLPPass) Apply(r *types.Review) (bson.M, bool) {
	if r.Body == "" {
		return nil, false
	}
	return bson.M{
		"sentences":        Sentences(r.Body),
		"words":            Words(r.Body),
		"nlp_processed_at": time.Now().UTC(),
	}, true
}

// SentimentPass scores each review with the configured analyzer.
type SentimentPass struct {
	Analyzer         *Analyzer
	ConcatenateTitle bool
}

func (SentimentPass) Name() string        { return "sentiment" }
func (SentimentPass) MarkerField() string { return "sentiment_analysis" }

func (p SentimentPass) Apply(r *types.Review) (bson.M, bool) {
	if r.Body == "" && r.Title == "" {
		return nil, false
	}
	return bson.M{
		"sentiment_analysis": p.Analyzer.AnalyzeReview(r, p.ConcatenateTitle),
	}, true
}

// Stats summarizes one enrichment pass run.
type Stats struct {
	Candidates int
	Updated    int
	Skipped    int
	Errors     int
}

// Runner applies passes over the Mongo review collection.
type Runner struct {
	store  *store.MongoStore
	cfg    config.EnrichConfig
	logger *slog.Logger
}

// NewRunner creates a Runner.
func NewRunner(st *store.MongoStore, cfg config.EnrichConfig, logger *slog.Logger) *Runner {
	return &Runner{
		store:  st,
		cfg:    cfg,
		logger: logger.With("component", "enrich"),
	}
}

// Run applies one pass to every candidate review. With SkipProcessed
// set, only reviews missing the pass's marker field are fetched, so
// re-running a pass is idempotent and cheap.
func (r *Runner) Run(ctx context.Context, pass Pass) (*Stats, error) {
	var (
		reviews []types.Review
		err     error
	)
	if r.cfg.SkipProcessed {
		reviews, err = r.store.UnenrichedReviews(ctx, pass.MarkerField())
	} else {
		reviews, err = r.store.AllReviews(ctx)
	}
	if err != nil {
		return nil, &types.EnrichError{Pass: pass.Name(), Err: err}
	}

	stats := &Stats{Candidates: len(reviews)}
	r.logger.Info("pass starting", "pass", pass.Name(), "candidates", len(reviews))

	for i := range reviews {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		review := &reviews[i]
		fields, changed := pass.Apply(review)
		if !changed {
			stats.Skipped++
			continue
		}

		if err := r.store.UpdateReviewFields(ctx, review.ProductURL, review.ReviewID, fields); err != nil {
			r.logger.Error("update failed",
				"pass", pass.Name(), "review_id", review.ReviewID, "error", err)
			stats.Errors++
			continue
		}
		stats.Updated++
	}

	r.logger.Info("pass complete",
		"pass", pass.Name(),
		"candidates", stats.Candidates,
		"updated", stats.Updated,
		"skipped", stats.Skipped,
		"errors", stats.Errors,
	)
	return stats, nil
}
