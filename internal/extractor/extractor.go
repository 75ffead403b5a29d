// Package extractor reads the reviews currently rendered in the review
// panel and normalizes them into Review records. It operates on the
// rendered page HTML only; pagination and waiting are the caller's
// concern.
package extractor

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/ReviewGoat/internal/config"
	"github.com/IshaanNene/ReviewGoat/internal/types"
)

var (
	ratingRe  = regexp.MustCompile(`(\d+)\s+out of 5`)
	helpfulRe = regexp.MustCompile(`(\d+)\s+people found`)
)

// PageResult is one page's worth of extracted reviews.
// ContainerMissing distinguishes "panel not rendered" from "panel
// rendered with zero reviews"; neither is an error.
type PageResult struct {
	Reviews          []types.Review
	ContainerMissing bool
}

// Extractor pulls review records out of rendered panel HTML.
type Extractor struct {
	cfg    config.SelectorsConfig
	logger *slog.Logger
}

// New creates an Extractor with the configured selector lists.
func New(cfg config.SelectorsConfig, logger *slog.Logger) *Extractor {
	return &Extractor{
		cfg:    cfg,
		logger: logger.With("component", "extractor"),
	}
}

// Page extracts all reviews rendered in the given page HTML, scoped to
// the current page only. Every field is independently optional: a
// missing field stays absent rather than being inferred. Records do
// not depend on sibling ordering; each is built from its own node.
func (e *Extractor) Page(html, productURL string) (*PageResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &types.ExtractError{ProductURL: productURL, Err: err}
	}

	container := e.findContainer(doc)
	if container == nil {
		e.logger.Debug("review container absent", "product_url", productURL)
		return &PageResult{ContainerMissing: true}, nil
	}

	var reviews []types.Review
	container.Find(e.cfg.ReviewNode).Each(func(_ int, node *goquery.Selection) {
		review := e.reviewFromNode(node, productURL)
		if review.ReviewID == "" {
			// A node without an id cannot satisfy the uniqueness
			// contract; skip it rather than invent an identity.
			e.logger.Warn("review node without id skipped", "product_url", productURL)
			return
		}
		reviews = append(reviews, review)
	})

	return &PageResult{Reviews: reviews}, nil
}

// findContainer tries the configured container selectors in order.
func (e *Extractor) findContainer(doc *goquery.Document) *goquery.Selection {
	for _, sel := range e.cfg.Container {
		if found := doc.Find(sel); found.Length() > 0 {
			return found.First()
		}
	}
	return nil
}

// reviewFromNode extracts a single self-contained review record.
func (e *Extractor) reviewFromNode(node *goquery.Selection, productURL string) types.Review {
	review := types.Review{
		ReviewID:   node.AttrOr("id", ""),
		ProductURL: productURL,
	}

	// Rating from the structured "N out of 5" aria-label.
	if rated := node.Find(`[role="img"][aria-label*="out of 5"]`); rated.Length() > 0 {
		if m := ratingRe.FindStringSubmatch(rated.AttrOr("aria-label", "")); m != nil {
			review.Rating, _ = strconv.Atoi(m[1])
		}
	}

	if title := node.Find("h3").First(); title.Length() > 0 {
		review.Title = strings.TrimSpace(title.Text())
	}

	// Reviewer name sits in the profile button.
	if author := node.Find(`button[aria-label*="profile"]`).First(); author.Length() > 0 {
		review.Reviewer = strings.TrimSpace(author.Text())
	}

	review.Date = e.firstText(node, e.cfg.Date)
	review.Body = e.firstText(node, e.cfg.Body)

	review.VerifiedPurchaser = node.Find(`[title*="purchased the product"]`).Length() > 0

	if helpful := node.Find(`button[aria-label*="found this review"]`).First(); helpful.Length() > 0 {
		if m := helpfulRe.FindStringSubmatch(helpful.AttrOr("aria-label", "")); m != nil {
			review.HelpfulCount, _ = strconv.Atoi(m[1])
		}
	}

	return review
}

// firstText returns the trimmed text of the first selector that
// matches, or "" when none do.
func (e *Extractor) firstText(node *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if found := node.Find(sel).First(); found.Length() > 0 {
			return strings.TrimSpace(found.Text())
		}
	}
	return ""
}
