// Package cleaner normalizes raw scraped products into the canonical
// schema: stable product IDs, numeric prices, parsed discount details,
// brand/category classification, and merged rating summaries.
package cleaner

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/ReviewGoat/internal/types"
)

var (
	productIDRe = regexp.MustCompile(`(\d+p)\.html`)
	priceRe     = regexp.MustCompile(`\$(\d+(?:\.\d{2})?)`)
	saveRe      = regexp.MustCompile(`Save\s+(\d+)%\s+\(\$?([\d,]+\.?\d*)\)`)
	wasRe       = regexp.MustCompile(`price was \$?([\d,]+\.?\d*)`)
	endsRe      = regexp.MustCompile(`Ends\s+([^\n]+)`)
)

// knownBrands is checked against the title, longest-match first would
// not matter here since no brand is a prefix of another.
var knownBrands = []string{
	"Supercycle",
	"Raleigh",
	"Stratus",
	"Marvel",
	"Hot Wheels",
}

// categoryKeywords maps title keywords to category slugs, checked in
// order so the more specific wins.
var categoryKeywords = []struct {
	keyword  string
	category string
}{
	{"kids", "kids_bikes"},
	{"youth", "kids_bikes"},
	{"mountain", "mountain_bikes"},
	{"comfort", "comfort_bikes"},
	{"cruiser", "comfort_bikes"},
	{"road", "road_bikes"},
	{"bike", "bikes"},
	{"bicycle", "bikes"},
}

// Stats summarizes one cleaning run.
type Stats struct {
	Input      int
	Cleaned    int
	Errors     int
	Duplicates int
}

// Cleaner transforms raw products into cleaned records.
type Cleaner struct {
	logger *slog.Logger
}

// New creates a Cleaner.
func New(logger *slog.Logger) *Cleaner {
	return &Cleaner{logger: logger.With("component", "cleaner")}
}

// Run cleans the raw products, attaching rating summaries by product
// URL. Records without a derivable product ID are dropped and counted
// as errors; duplicate product IDs keep the first occurrence.
func (c *Cleaner) Run(products []types.Product, ratings map[string]types.ProductRating) ([]types.CleanedProduct, *Stats) {
	stats := &Stats{Input: len(products)}
	seen := make(map[string]struct{})

	var cleaned []types.CleanedProduct
	for _, raw := range products {
		cp, ok := c.Clean(raw, ratings)
		if !ok {
			stats.Errors++
			continue
		}
		if _, dup := seen[cp.ProductID]; dup {
			c.logger.Warn("duplicate product id, keeping first",
				"product_id", cp.ProductID, "product_url", raw.ProductURL)
			stats.Duplicates++
			continue
		}
		seen[cp.ProductID] = struct{}{}
		cleaned = append(cleaned, cp)
		stats.Cleaned++
	}

	c.logger.Info("cleaning complete",
		"input", stats.Input,
		"cleaned", stats.Cleaned,
		"errors", stats.Errors,
		"duplicates", stats.Duplicates,
	)
	return cleaned, stats
}

// Clean normalizes one raw product. ok is false when no product ID can
// be derived from the URL.
func (c *Cleaner) Clean(raw types.Product, ratings map[string]types.ProductRating) (types.CleanedProduct, bool) {
	id := ProductID(raw.ProductURL)
	if id == "" {
		c.logger.Warn("no product id in url", "product_url", raw.ProductURL)
		return types.CleanedProduct{}, false
	}

	rawPrice := raw.Price
	if raw.DetailedPrice != "" {
		rawPrice = raw.DetailedPrice
	}
	title := strings.TrimSpace(raw.Title)
	if raw.DetailedTitle != "" {
		title = strings.TrimSpace(raw.DetailedTitle)
	}

	now := time.Now().UTC()
	cp := types.CleanedProduct{
		ProductID:     id,
		Title:         title,
		Brand:         Brand(title),
		Category:      Category(title),
		ProductURL:    raw.ProductURL,
		Price:         Price(rawPrice),
		RawPrice:      rawPrice,
		Discount:      Discount(rawPrice),
		Description:   Description(raw.Description),
		SKU:           raw.SKU,
		SearchURL:     raw.SearchURL,
		DetailedTitle: raw.DetailedTitle,
		DetailedPrice: raw.DetailedPrice,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if rating, ok := ratings[raw.ProductURL]; ok {
		cp.AverageRating = rating.AverageRating
		cp.TotalReviews = rating.TotalReviews
	}
	return cp, true
}

// ProductID derives the stable ID from a product URL, e.g.
// ".../supercycle-1800-kids-bike-0713814p.html" yields "0713814p".
func ProductID(url string) string {
	m := productIDRe.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}

// Brand matches the title against the known brand list.
func Brand(title string) string {
	lower := strings.ToLower(title)
	for _, b := range knownBrands {
		if strings.Contains(lower, strings.ToLower(b)) {
			return b
		}
	}
	return "Unknown"
}

// Category classifies the title by keyword.
func Category(title string) string {
	lower := strings.ToLower(title)
	for _, kc := range categoryKeywords {
		if strings.Contains(lower, kc.keyword) {
			return kc.category
		}
	}
	return "other"
}

// Price extracts the current price as a float from raw price text.
// The first dollar amount on the first line is the current price;
// later amounts belong to discount annotations.
func Price(raw string) float64 {
	firstLine := raw
	if i := strings.IndexByte(raw, '\n'); i >= 0 {
		firstLine = raw[:i]
	}
	m := priceRe.FindStringSubmatch(firstLine)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return v
}

// Discount parses discount annotations out of raw price text. Returns
// nil when the text carries no discount information.
func Discount(raw string) *types.DiscountInfo {
	var d types.DiscountInfo
	found := false

	if m := saveRe.FindStringSubmatch(raw); m != nil {
		if pct, err := strconv.Atoi(m[1]); err == nil {
			d.DiscountPercentage = pct
			found = true
		}
		if amt, err := parseMoney(m[2]); err == nil {
			d.DiscountAmount = amt
			found = true
		}
	}
	if m := wasRe.FindStringSubmatch(raw); m != nil {
		if orig, err := parseMoney(m[1]); err == nil {
			d.OriginalPrice = orig
			found = true
		}
	}
	if m := endsRe.FindStringSubmatch(raw); m != nil {
		d.EndsDate = strings.TrimSpace(m[1])
		found = true
	}

	if !found {
		return nil
	}
	return &d
}

func parseMoney(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}

// Description strips residual markup from a scraped description and
// collapses whitespace runs.
func Description(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.ContainsAny(raw, "<>") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw)); err == nil {
			raw = doc.Text()
		}
	}
	return strings.Join(strings.Fields(raw), " ")
}
