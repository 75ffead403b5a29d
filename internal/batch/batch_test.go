package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/IshaanNene/ReviewGoat/internal/config"
	"github.com/IshaanNene/ReviewGoat/internal/driver"
	"github.com/IshaanNene/ReviewGoat/internal/extractor"
	"github.com/IshaanNene/ReviewGoat/internal/locator"
	"github.com/IshaanNene/ReviewGoat/internal/paginator"
	"github.com/IshaanNene/ReviewGoat/internal/store"
	"github.com/IshaanNene/ReviewGoat/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func pageHTML(ids ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div id="reviews_container">`)
	for _, id := range ids {
		fmt.Fprintf(&b, `<section id=%q><p class="bv-rnr__sc-16dr7i1-3">body of %s</p><span>3 days ago</span></section>`, "bv-review-"+id, id)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

// siteSession simulates a browser over a fixed site: each product URL
// maps to its own review page sequence.
type siteSession struct {
	driver.Scripted
	site map[string][]string
	cur  []string
	pos  int
}

func newSiteSession(site map[string][]string) *siteSession {
	s := &siteSession{site: site}
	s.NavigateFunc = func(url string) error {
		pages, ok := site[url]
		if !ok {
			return errors.New("navigation refused")
		}
		s.cur = pages
		s.pos = 0
		return nil
	}
	s.EvalFunc = func(js string) (string, error) {
		switch {
		case strings.Contains(js, "locate-review-control"):
			return `{"found": true, "total_reviews": 5, "average_rating": 4.0}`, nil
		case strings.Contains(js, "next-review-page"):
			if s.pos < len(s.cur)-1 {
				s.pos++
				return "true", nil
			}
			return "false", nil
		}
		return "null", nil
	}
	s.CountFunc = func(string) (int, error) { return 1, nil }
	s.SourceFunc = func() (string, error) { return s.cur[s.pos], nil }
	return s
}

func testSite() map[string][]string {
	return map[string][]string{
		"https://shop.example/a-0001p.html": {pageHTML("a1", "a2"), pageHTML("a3")},
		"https://shop.example/b-0002p.html": {pageHTML("b1")},
		"https://shop.example/c-0003p.html": {pageHTML("c1", "c2", "c3")},
	}
}

func testProducts() []types.Product {
	return []types.Product{
		{ProductURL: "https://shop.example/a-0001p.html", Title: "Bike A"},
		{ProductURL: "https://shop.example/b-0002p.html", Title: "Bike B"},
		{ProductURL: "https://shop.example/c-0003p.html", Title: "Bike C"},
	}
}

func newTestOrchestrator(t *testing.T, dir string, workers int, sessions ...driver.Session) (*Orchestrator, *store.FileStore) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Paginate.SettleDelay = 0
	cfg.Paginate.LoadTimeout = 50 * time.Millisecond
	cfg.Paginate.PollInterval = time.Millisecond
	cfg.Batch.Workers = workers
	cfg.Batch.ProductDelay = 0

	fs, err := store.NewFileStore(dir, cfg.Storage.ReviewsFile, cfg.Storage.RatingsFile, testLogger)
	if err != nil {
		t.Fatalf("file store: %v", err)
	}

	loc := locator.New(cfg.Selectors, testLogger)
	ext := extractor.New(cfg.Selectors, testLogger)
	ctrl := paginator.New(loc, ext, cfg.Paginate, cfg.Selectors, testLogger)
	factory := &driver.ScriptedFactory{Sessions: sessions}
	return New(factory, ctrl, fs, cfg.Batch, 0, testLogger), fs
}

func sortedIDs(reviews []types.Review) []string {
	ids := make([]string, len(reviews))
	for i, r := range reviews {
		ids[i] = r.ReviewID
	}
	sort.Strings(ids)
	return ids
}

func TestRunFullBatch(t *testing.T) {
	orch, fs := newTestOrchestrator(t, t.TempDir(), 1, newSiteSession(testSite()))

	report, err := orch.Run(context.Background(), testProducts())
	if err != nil {
		t.Fatalf("run error: %v", err)
	}

	if report.Succeeded != 3 || report.Failed != 0 {
		t.Errorf("report: %+v", report)
	}
	if report.Reviews != 7 {
		t.Errorf("reviews: expected 7, got %d", report.Reviews)
	}

	reviews, err := fs.LoadReviews()
	if err != nil {
		t.Fatalf("load reviews: %v", err)
	}
	if len(reviews) != 7 {
		t.Fatalf("persisted reviews: expected 7, got %d", len(reviews))
	}

	ratings, err := fs.LoadRatings()
	if err != nil {
		t.Fatalf("load ratings: %v", err)
	}
	if len(ratings) != 3 {
		t.Fatalf("ratings: expected 3 entries, got %d", len(ratings))
	}
	for url, rating := range ratings {
		if rating.ProductURL != url {
			t.Errorf("rating keyed by %q but holds %q", url, rating.ProductURL)
		}
		if rating.TotalReviews != 5 || rating.AverageRating != 4.0 {
			t.Errorf("rating summary: %+v", rating)
		}
	}
}

func TestRunResumeMatchesUninterruptedRun(t *testing.T) {
	products := testProducts()

	// Reference: one uninterrupted run.
	fullOrch, fullStore := newTestOrchestrator(t, t.TempDir(), 1, newSiteSession(testSite()))
	if _, err := fullOrch.Run(context.Background(), products); err != nil {
		t.Fatalf("reference run: %v", err)
	}
	wantReviews, _ := fullStore.LoadReviews()

	// Interrupted: first run covers only one product, second resumes.
	dir := t.TempDir()
	firstOrch, _ := newTestOrchestrator(t, dir, 1, newSiteSession(testSite()))
	if _, err := firstOrch.Run(context.Background(), products[:1]); err != nil {
		t.Fatalf("first run: %v", err)
	}

	secondOrch, resumedStore := newTestOrchestrator(t, dir, 1, newSiteSession(testSite()))
	report, err := secondOrch.Run(context.Background(), products)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if report.Skipped != 1 {
		t.Errorf("expected the completed product to be skipped, got %d", report.Skipped)
	}

	gotReviews, _ := resumedStore.LoadReviews()
	want := sortedIDs(wantReviews)
	got := sortedIDs(gotReviews)
	if len(got) != len(want) {
		t.Fatalf("resumed run produced %d reviews, reference %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("review sets differ at %d: %q vs %q", i, got[i], want[i])
		}
	}
}

func TestRunNavigationFailureIsIsolated(t *testing.T) {
	site := testSite()
	delete(site, "https://shop.example/b-0002p.html")

	orch, fs := newTestOrchestrator(t, t.TempDir(), 1, newSiteSession(site))
	report, err := orch.Run(context.Background(), testProducts())
	if err != nil {
		t.Fatalf("run error: %v", err)
	}

	if report.Failed != 1 {
		t.Errorf("failed: expected 1, got %d", report.Failed)
	}
	if report.Succeeded != 2 {
		t.Errorf("succeeded: expected 2, got %d", report.Succeeded)
	}

	ratings, _ := fs.LoadRatings()
	if _, ok := ratings["https://shop.example/b-0002p.html"]; ok {
		t.Error("failed product must not gain a rating entry")
	}

	// Failed products are retried by a later run, not skipped.
	retryOrch, _ := newTestOrchestrator(t, t.TempDir(), 1, newSiteSession(testSite()))
	retryReport, err := retryOrch.Run(context.Background(), testProducts())
	if err != nil {
		t.Fatalf("retry run: %v", err)
	}
	if retryReport.Succeeded != 3 {
		t.Errorf("retry: expected 3 succeeded, got %d", retryReport.Succeeded)
	}
}

func TestRunParallelWorkersMergeCompletely(t *testing.T) {
	orch, fs := newTestOrchestrator(t, t.TempDir(), 2,
		newSiteSession(testSite()), newSiteSession(testSite()))

	report, err := orch.Run(context.Background(), testProducts())
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if report.Succeeded != 3 {
		t.Errorf("succeeded: expected 3, got %d", report.Succeeded)
	}

	reviews, _ := fs.LoadReviews()
	if len(reviews) != 7 {
		t.Fatalf("expected 7 reviews regardless of completion order, got %d", len(reviews))
	}
	ratings, _ := fs.LoadRatings()
	if len(ratings) != 3 {
		t.Fatalf("expected 3 rating entries, got %d", len(ratings))
	}
}

func TestRunCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	orch, _ := newTestOrchestrator(t, t.TempDir(), 1, newSiteSession(testSite()))
	report, err := orch.Run(ctx, testProducts())
	if !errors.Is(err, types.ErrBatchInterrupted) {
		t.Fatalf("expected ErrBatchInterrupted, got %v", err)
	}
	if report == nil {
		t.Fatal("report must be returned even when interrupted")
	}
	if report.Succeeded != 0 {
		t.Errorf("no product should have run, got %d", report.Succeeded)
	}
}

func TestRunDriverStartupFailureIsFatal(t *testing.T) {
	orch, _ := newTestOrchestrator(t, t.TempDir(), 1) // empty factory
	_, err := orch.Run(context.Background(), testProducts())
	if !errors.Is(err, types.ErrDriverUnavailable) {
		t.Fatalf("expected ErrDriverUnavailable, got %v", err)
	}
}

func TestRunParallelAllWorkersFailSurfacesDriverError(t *testing.T) {
	orch, _ := newTestOrchestrator(t, t.TempDir(), 2) // empty factory

	type result struct {
		report *Report
		err    error
	}
	done := make(chan result, 1)
	go func() {
		report, err := orch.Run(context.Background(), testProducts())
		done <- result{report, err}
	}()

	// The feeder must not block on workers that never started.
	select {
	case res := <-done:
		if !errors.Is(res.err, types.ErrDriverUnavailable) {
			t.Fatalf("expected ErrDriverUnavailable, got %v", res.err)
		}
		if res.report.Succeeded != 0 || res.report.Failed != 0 {
			t.Errorf("no product should have been processed: %+v", res.report)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after every worker failed to start")
	}
}

func TestRunParallelDegradedWhenOneWorkerFails(t *testing.T) {
	// Two workers, one session: the second worker's startup failure
	// must not abort a batch the first worker can finish alone.
	orch, fs := newTestOrchestrator(t, t.TempDir(), 2, newSiteSession(testSite()))

	report, err := orch.Run(context.Background(), testProducts())
	if err != nil {
		t.Fatalf("degraded run must still complete: %v", err)
	}
	if report.Succeeded != 3 || report.Failed != 0 {
		t.Errorf("report: %+v", report)
	}

	reviews, _ := fs.LoadReviews()
	if len(reviews) != 7 {
		t.Fatalf("expected 7 reviews, got %d", len(reviews))
	}
}

func TestRunCancelDuringSettleCountsAsFailed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	sess := newSiteSession(testSite())
	navigate := sess.NavigateFunc
	sess.NavigateFunc = func(url string) error {
		// Stop the run while the first product sits in its
		// post-navigation settle wait.
		cancel()
		return navigate(url)
	}

	cfg := config.DefaultConfig()
	cfg.Paginate.SettleDelay = 0
	cfg.Paginate.LoadTimeout = 50 * time.Millisecond
	cfg.Paginate.PollInterval = time.Millisecond
	cfg.Batch.Workers = 1
	cfg.Batch.ProductDelay = 0

	fs, err := store.NewFileStore(t.TempDir(), cfg.Storage.ReviewsFile, cfg.Storage.RatingsFile, testLogger)
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	loc := locator.New(cfg.Selectors, testLogger)
	ext := extractor.New(cfg.Selectors, testLogger)
	ctrl := paginator.New(loc, ext, cfg.Paginate, cfg.Selectors, testLogger)
	factory := &driver.ScriptedFactory{Sessions: []driver.Session{sess}}
	orch := New(factory, ctrl, fs, cfg.Batch, 50*time.Millisecond, testLogger)

	report, err := orch.Run(ctx, testProducts())
	if !errors.Is(err, types.ErrBatchInterrupted) {
		t.Fatalf("expected ErrBatchInterrupted, got %v", err)
	}
	// The interrupted product counts as failed so the report totals
	// reconcile, and nothing was merged so a later run retries it.
	if report.Failed != 1 {
		t.Errorf("failed: expected 1, got %d", report.Failed)
	}
	if report.Succeeded != 0 {
		t.Errorf("succeeded: expected 0, got %d", report.Succeeded)
	}
	if report.Reviews != 0 {
		t.Errorf("no reviews should have been merged, got %d", report.Reviews)
	}
}
