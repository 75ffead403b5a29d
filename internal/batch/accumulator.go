package batch

import (
	"sync"
	"time"

	"github.com/IshaanNene/ReviewGoat/internal/paginator"
	"github.com/IshaanNene/ReviewGoat/internal/types"
)

// extractedAtLayout matches the timestamp format of the persisted
// rating summaries.
const extractedAtLayout = "2006-01-02 15:04:05"

// Accumulator is the run state: aggregated reviews, per-product rating
// summaries, and the processed-URL set. All mutation happens under one
// merge lock so parallel workers can hand in immutable per-product
// outcomes in any completion order.
type Accumulator struct {
	mu        sync.Mutex
	reviews   []types.Review
	seen      map[string]struct{}
	ratings   map[string]types.ProductRating
	processed map[string]struct{}
	succeeded int
	failed    int
}

// NewAccumulator creates an empty run state.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		seen:      make(map[string]struct{}),
		ratings:   make(map[string]types.ProductRating),
		processed: make(map[string]struct{}),
	}
}

// Restore seeds the accumulator from previously persisted output.
// Processed URLs are reconstructed purely from the product_url values
// already present; no separate checkpoint artifact exists.
func (a *Accumulator) Restore(reviews []types.Review, ratings map[string]types.ProductRating) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, r := range reviews {
		if _, dup := a.seen[r.Key()]; dup {
			continue
		}
		a.seen[r.Key()] = struct{}{}
		a.reviews = append(a.reviews, r)
		a.processed[r.ProductURL] = struct{}{}
	}
	for url, rating := range ratings {
		a.ratings[url] = rating
		a.processed[url] = struct{}{}
	}
}

// Processed reports whether a product URL was already completed.
func (a *Accumulator) Processed(url string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.processed[url]
	return ok
}

// MergeProduct folds one product's outcome into the run state. The
// merge is an associative union keyed by (product_url, review_id), so
// the final aggregate is independent of worker completion order.
func (a *Accumulator) MergeProduct(product types.Product, out *paginator.Outcome) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, r := range out.Reviews {
		if _, dup := a.seen[r.Key()]; dup {
			continue
		}
		a.seen[r.Key()] = struct{}{}
		a.reviews = append(a.reviews, r)
	}

	if out.Summary.HasReviews {
		a.ratings[product.ProductURL] = types.ProductRating{
			ProductTitle:  product.Title,
			ProductURL:    product.ProductURL,
			AverageRating: out.Summary.AverageRating,
			TotalReviews:  out.Summary.TotalReviews,
			ExtractedAt:   time.Now().Format(extractedAtLayout),
		}
	}

	a.processed[product.ProductURL] = struct{}{}
	a.succeeded++
}

// MarkFailed records a product that could not be processed. Failed
// products are not added to the processed set, so a later run retries
// them.
func (a *Accumulator) MarkFailed(url string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failed++
}

// Snapshot returns copies of the artifacts safe to hand to the store
// while workers keep merging.
func (a *Accumulator) Snapshot() ([]types.Review, map[string]types.ProductRating) {
	a.mu.Lock()
	defer a.mu.Unlock()

	reviews := make([]types.Review, len(a.reviews))
	copy(reviews, a.reviews)

	ratings := make(map[string]types.ProductRating, len(a.ratings))
	for url, rating := range a.ratings {
		ratings[url] = rating
	}
	return reviews, ratings
}

// Counts returns the success/failure counters.
func (a *Accumulator) Counts() (succeeded, failed int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.succeeded, a.failed
}

// Size returns the aggregate sizes for progress reporting.
func (a *Accumulator) Size() (reviews, ratings int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.reviews), len(a.ratings)
}
