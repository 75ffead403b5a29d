package extractor

import (
	"log/slog"
	"os"
	"testing"

	"github.com/IshaanNene/ReviewGoat/internal/config"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const productURL = "https://www.example-retail.ca/bikes/supercycle-1800-0713814p.html"

const panelHTML = `<!DOCTYPE html>
<html>
<body>
<div id="reviews_container">
  <section id="bv-review-101">
    <div role="img" aria-label="5 out of 5 stars"></div>
    <h3>Great bike for the price</h3>
    <button aria-label="See Sarah's profile">Sarah</button>
    <span class="bv-rnr__g3jej5-1">3 days ago</span>
    <p class="bv-rnr__sc-16dr7i1-3">My kid loves it. Assembly was easy and it rides smooth.</p>
    <span title="A person who has purchased the product">Verified Purchaser</span>
    <button aria-label="8 people found this review helpful">Helpful</button>
  </section>
  <section id="bv-review-102">
    <div role="img" aria-label="2 out of 5 stars"></div>
    <h3>Wobbly wheels</h3>
    <button aria-label="See Mike's profile">Mike</button>
    <span class="bv-rnr__g3jej5-1">2 weeks ago</span>
    <p class="bv-rnr__sc-16dr7i1-3">The front wheel came loose after a week.</p>
  </section>
  <section>
    <p class="bv-rnr__sc-16dr7i1-3">Orphan node without an id.</p>
  </section>
</div>
</body>
</html>`

func newExtractor() *Extractor {
	return New(config.DefaultConfig().Selectors, testLogger)
}

func TestPageExtractsReviews(t *testing.T) {
	result, err := newExtractor().Page(panelHTML, productURL)
	if err != nil {
		t.Fatalf("extract error: %v", err)
	}
	if result.ContainerMissing {
		t.Fatal("container reported missing")
	}
	if len(result.Reviews) != 2 {
		t.Fatalf("expected 2 reviews (id-less node skipped), got %d", len(result.Reviews))
	}

	first := result.Reviews[0]
	if first.ReviewID != "bv-review-101" {
		t.Errorf("review id: got %q", first.ReviewID)
	}
	if first.ProductURL != productURL {
		t.Errorf("product url: got %q", first.ProductURL)
	}
	if first.Rating != 5 {
		t.Errorf("rating: expected 5, got %d", first.Rating)
	}
	if first.Title != "Great bike for the price" {
		t.Errorf("title: got %q", first.Title)
	}
	if first.Reviewer != "Sarah" {
		t.Errorf("reviewer: got %q", first.Reviewer)
	}
	if first.Date != "3 days ago" {
		t.Errorf("date: got %q", first.Date)
	}
	if !first.VerifiedPurchaser {
		t.Error("expected verified purchaser")
	}
	if first.HelpfulCount != 8 {
		t.Errorf("helpful count: expected 8, got %d", first.HelpfulCount)
	}
}

func TestPageOptionalFieldsStayAbsent(t *testing.T) {
	result, err := newExtractor().Page(panelHTML, productURL)
	if err != nil {
		t.Fatalf("extract error: %v", err)
	}

	second := result.Reviews[1]
	if second.Rating != 2 {
		t.Errorf("rating: expected 2, got %d", second.Rating)
	}
	if second.VerifiedPurchaser {
		t.Error("verified purchaser should be false when badge absent")
	}
	if second.HelpfulCount != 0 {
		t.Errorf("helpful count: expected 0, got %d", second.HelpfulCount)
	}
}

func TestPageContainerMissing(t *testing.T) {
	result, err := newExtractor().Page(`<html><body><p>no panel here</p></body></html>`, productURL)
	if err != nil {
		t.Fatalf("extract error: %v", err)
	}
	if !result.ContainerMissing {
		t.Fatal("expected ContainerMissing")
	}
	if len(result.Reviews) != 0 {
		t.Fatalf("expected no reviews, got %d", len(result.Reviews))
	}
}

func TestPageEmptyContainer(t *testing.T) {
	result, err := newExtractor().Page(`<html><body><div id="reviews_container"></div></body></html>`, productURL)
	if err != nil {
		t.Fatalf("extract error: %v", err)
	}
	if result.ContainerMissing {
		t.Fatal("rendered-but-empty container must not count as missing")
	}
	if len(result.Reviews) != 0 {
		t.Fatalf("expected zero reviews, got %d", len(result.Reviews))
	}
}
