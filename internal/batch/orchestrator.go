// Package batch applies the pagination controller across a product
// list with crash-resumable persistence: the full accumulator is
// written after every product, and a restart reconstructs progress
// from the persisted output alone.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IshaanNene/ReviewGoat/internal/config"
	"github.com/IshaanNene/ReviewGoat/internal/driver"
	"github.com/IshaanNene/ReviewGoat/internal/paginator"
	"github.com/IshaanNene/ReviewGoat/internal/store"
	"github.com/IshaanNene/ReviewGoat/internal/types"
)

// Report summarizes one batch run.
type Report struct {
	Total      int
	Skipped    int
	Succeeded  int
	Failed     int
	PageErrors int
	Reviews    int
	Ratings    int
	Elapsed    time.Duration
}

// Orchestrator runs the review pipeline over a product list.
type Orchestrator struct {
	factory driver.Factory
	ctrl    *paginator.Controller
	store   store.Store
	cfg     config.BatchConfig
	navWait time.Duration
	logger  *slog.Logger

	// persistMu keeps writes at most-one-in-flight; workers merge
	// into the accumulator under its own lock before persisting.
	persistMu  sync.Mutex
	pageErrors int
	pageErrMu  sync.Mutex
}

// New creates an Orchestrator.
func New(factory driver.Factory, ctrl *paginator.Controller, st store.Store, cfg config.BatchConfig, navWait time.Duration, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		factory: factory,
		ctrl:    ctrl,
		store:   st,
		cfg:     cfg,
		navWait: navWait,
		logger:  logger.With("component", "batch"),
	}
}

// Run processes the product list and returns the final report. Only
// driver-startup failures surface as errors; per-product failures are
// counted and the batch proceeds.
func (o *Orchestrator) Run(ctx context.Context, products []types.Product) (*Report, error) {
	start := time.Now()
	acc := NewAccumulator()

	if o.cfg.Resume {
		if err := o.restore(acc); err != nil {
			return nil, err
		}
	}

	var remaining []types.Product
	for _, p := range products {
		if acc.Processed(p.ProductURL) {
			continue
		}
		remaining = append(remaining, p)
	}
	skipped := len(products) - len(remaining)
	if skipped > 0 {
		o.logger.Info("resuming batch", "skipped", skipped, "remaining", len(remaining))
	}

	var runErr error
	if o.cfg.Workers <= 1 {
		runErr = o.runSequential(ctx, remaining, acc)
	} else {
		runErr = o.runParallel(ctx, remaining, acc)
	}

	// Final persistence write regardless of how the run ended.
	o.persist(acc)

	succeeded, failed := acc.Counts()
	reviews, ratings := acc.Size()
	report := &Report{
		Total:      len(products),
		Skipped:    skipped,
		Succeeded:  succeeded,
		Failed:     failed,
		PageErrors: o.pageErrors,
		Reviews:    reviews,
		Ratings:    ratings,
		Elapsed:    time.Since(start),
	}

	o.logger.Info("batch complete",
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"skipped", report.Skipped,
		"reviews", report.Reviews,
		"ratings", report.Ratings,
		"elapsed", report.Elapsed,
	)
	return report, runErr
}

// runSequential reuses one session across all products.
func (o *Orchestrator) runSequential(ctx context.Context, products []types.Product, acc *Accumulator) error {
	sess, err := o.factory.NewSession(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrDriverUnavailable, err)
	}
	defer sess.Close()

	for i, product := range products {
		select {
		case <-ctx.Done():
			// Interrupt between products: everything persisted so far
			// stays valid; the current product is simply not marked.
			o.logger.Warn("batch interrupted", "completed", i, "remaining", len(products)-i)
			return types.ErrBatchInterrupted
		default:
		}

		o.logger.Info("processing product",
			"index", i+1, "total", len(products), "title", product.Title)

		o.processOne(ctx, sess, product, acc)
		o.persist(acc)
		o.reportProgress(acc)

		if o.cfg.ProductDelay > 0 && i < len(products)-1 {
			select {
			case <-ctx.Done():
			case <-time.After(o.cfg.ProductDelay):
			}
		}
	}
	return nil
}

// runParallel fans products out to workers, each owning an isolated
// session. The page driver resource is not safely shared, so no
// session ever crosses a goroutine boundary.
func (o *Orchestrator) runParallel(ctx context.Context, products []types.Product, acc *Accumulator) error {
	jobs := make(chan types.Product)
	var wg sync.WaitGroup
	startupErr := make(chan error, o.cfg.Workers)

	// poolDead closes when every worker failed session startup, so the
	// feeder below never blocks on a channel nobody will read.
	var deadWorkers int32
	poolDead := make(chan struct{})

	for w := 0; w < o.cfg.Workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()

			sess, err := o.factory.NewSession(ctx)
			if err != nil {
				startupErr <- fmt.Errorf("worker %d: %w", worker, err)
				if atomic.AddInt32(&deadWorkers, 1) == int32(o.cfg.Workers) {
					close(poolDead)
				}
				return
			}
			defer sess.Close()

			logger := o.logger.With("worker", worker)
			for product := range jobs {
				logger.Info("processing product", "title", product.Title)
				o.processOne(ctx, sess, product, acc)
				o.persist(acc)
				o.reportProgress(acc)
			}
		}(w)
	}

	var interrupted bool
feed:
	for _, product := range products {
		select {
		case <-ctx.Done():
			interrupted = true
			break feed
		case <-poolDead:
			break feed
		case jobs <- product:
		}
	}
	close(jobs)
	wg.Wait()

	select {
	case err := <-startupErr:
		// At least one worker never got a session. If all failed the
		// batch made no progress; surface the first cause. Otherwise
		// the run was degraded and must say so.
		if succeeded, failed := acc.Counts(); succeeded == 0 && failed == 0 {
			return fmt.Errorf("%w: %v", types.ErrDriverUnavailable, err)
		}
		o.logger.Error("worker session startup failed, batch ran degraded", "error", err)
	default:
	}

	if interrupted {
		return types.ErrBatchInterrupted
	}
	return nil
}

// processOne navigates to the product and runs pagination. All errors
// are converted to per-product state here; nothing propagates.
func (o *Orchestrator) processOne(ctx context.Context, sess driver.Session, product types.Product, acc *Accumulator) {
	if err := sess.Navigate(ctx, product.ProductURL); err != nil {
		o.logger.Error("navigation failed, product marked failed",
			"product_url", product.ProductURL, "error", err)
		acc.MarkFailed(product.ProductURL)
		return
	}

	// Settle after navigation; the review widget renders asynchronously.
	if o.navWait > 0 {
		select {
		case <-ctx.Done():
			// Counted as failed so the report totals reconcile; nothing
			// was merged for this product, so a later run retries it.
			acc.MarkFailed(product.ProductURL)
			return
		case <-time.After(o.navWait):
		}
	}

	out := o.ctrl.Run(ctx, sess, product.ProductURL)
	if out.PageErr != nil {
		o.pageErrMu.Lock()
		o.pageErrors++
		o.pageErrMu.Unlock()
	}

	acc.MergeProduct(product, out)
}

// restore loads previously persisted output into the accumulator.
func (o *Orchestrator) restore(acc *Accumulator) error {
	reviews, err := o.store.LoadReviews()
	if err != nil {
		return fmt.Errorf("restore reviews: %w", err)
	}
	ratings, err := o.store.LoadRatings()
	if err != nil {
		return fmt.Errorf("restore ratings: %w", err)
	}
	acc.Restore(reviews, ratings)

	if len(reviews) > 0 || len(ratings) > 0 {
		o.logger.Info("previous output loaded", "reviews", len(reviews), "ratings", len(ratings))
	}
	return nil
}

// persist writes the full accumulator. Best-effort: a failed write is
// logged and costs at most one product's worth of work on a crash.
func (o *Orchestrator) persist(acc *Accumulator) {
	o.persistMu.Lock()
	defer o.persistMu.Unlock()

	reviews, ratings := acc.Snapshot()
	if err := o.store.SaveReviews(reviews); err != nil {
		o.logger.Error("persist reviews failed", "error", err)
	}
	if err := o.store.SaveRatings(ratings); err != nil {
		o.logger.Error("persist ratings failed", "error", err)
	}
}

func (o *Orchestrator) reportProgress(acc *Accumulator) {
	succeeded, failed := acc.Counts()
	reviews, ratings := acc.Size()
	o.logger.Info("progress",
		"succeeded", succeeded,
		"failed", failed,
		"reviews", reviews,
		"ratings", ratings,
	)
}
