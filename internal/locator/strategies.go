package locator

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/ReviewGoat/internal/config"
	"github.com/IshaanNene/ReviewGoat/internal/driver"
	"github.com/IshaanNene/ReviewGoat/internal/types"
)

var (
	parenCountRe = regexp.MustCompile(`\((\d+)\)`)
	outOfFiveRe  = regexp.MustCompile(`(\d(?:\.\d+)?)\s*(?:out of|/)\s*5`)
)

// markerStrategy targets the known review-count marker element: a
// text node holding "(N)" inside a clickable control, with the average
// rating rendered in a sibling component.
type markerStrategy struct {
	cfg config.SelectorsConfig
}

func (s *markerStrategy) Name() string { return "count_marker" }

func (s *markerStrategy) Try(ctx context.Context, sess driver.Session) (*Result, error) {
	js := fmt.Sprintf(`/* locate-review-control */ () => {
	const result = { found: false, text: '', total_reviews: 0, average_rating: 0 };
	const countSelectors = %s;
	let control = null;
	for (const sel of countSelectors) {
		const el = document.querySelector(sel);
		if (el && el.textContent.includes('(')) { control = el; break; }
	}
	if (!control) return result;
	const button = control.closest('button');
	if (!button) return result;
	result.text = control.textContent.trim();
	const m = result.text.match(/\((\d+)\)/);
	if (m) result.total_reviews = parseInt(m[1], 10);
	const ratingSelectors = %s;
	for (const sel of ratingSelectors) {
		const el = document.querySelector(sel);
		if (!el) continue;
		const raw = (el.textContent || '').trim() || el.getAttribute('data-rating') || '';
		const v = parseFloat(raw);
		if (!isNaN(v) && v >= 0 && v <= 5) { result.average_rating = v; break; }
	}
	button.click();
	result.found = true;
	return result;
}`, mustJSON(s.cfg.ReviewCount), mustJSON(s.cfg.AverageRating))

	raw, err := sess.Eval(ctx, js)
	if err != nil {
		return nil, &types.LocateError{Strategy: s.Name(), Err: err}
	}
	mr, err := decodeMarkerResult(raw)
	if err != nil {
		return nil, &types.LocateError{Strategy: s.Name(), Err: err}
	}
	if !mr.Found {
		return nil, nil
	}
	return &Result{
		Opened: true,
		Summary: types.RatingSummary{
			AverageRating: mr.AverageRating,
			TotalReviews:  mr.TotalReviews,
		},
	}, nil
}

// scanStrategy is the fallback: scan every clickable element in the
// rendered document for a parenthesized count next to the rating-unit
// word, then activate the matching control. Markup-agnostic and slow,
// which is why it runs last.
type scanStrategy struct {
	cfg config.SelectorsConfig
}

func (s *scanStrategy) Name() string { return "document_scan" }

func (s *scanStrategy) Try(ctx context.Context, sess driver.Session) (*Result, error) {
	source, err := sess.PageSource(ctx)
	if err != nil {
		return nil, &types.LocateError{Strategy: s.Name(), Err: err}
	}

	doc, err := htmlquery.Parse(strings.NewReader(source))
	if err != nil {
		return nil, &types.LocateError{Strategy: s.Name(), Err: fmt.Errorf("parse page: %w", err)}
	}

	unit := s.cfg.RatingUnit
	if unit == "" {
		unit = "star"
	}

	buttons, err := htmlquery.QueryAll(doc, "//button | //a[@role='button']")
	if err != nil {
		return nil, &types.LocateError{Strategy: s.Name(), Err: err}
	}

	for _, node := range buttons {
		summary, marker, ok := s.matchControl(node, unit)
		if !ok {
			continue
		}
		if err := s.clickByText(ctx, sess, marker, unit); err != nil {
			return nil, &types.LocateError{Strategy: s.Name(), Err: err}
		}
		return &Result{Opened: true, Summary: summary}, nil
	}

	return nil, nil
}

// matchControl decides whether a clickable node looks like the review
// control: its text pairs the rating unit with a parenthesized count.
// Returns the parsed summary and the count marker to click by.
func (s *scanStrategy) matchControl(node *html.Node, unit string) (types.RatingSummary, string, bool) {
	text := strings.TrimSpace(htmlquery.InnerText(node))
	if text == "" || !strings.Contains(strings.ToLower(text), unit) {
		return types.RatingSummary{}, "", false
	}
	m := parenCountRe.FindStringSubmatch(text)
	if m == nil {
		return types.RatingSummary{}, "", false
	}
	total, _ := strconv.Atoi(m[1])

	summary := types.RatingSummary{TotalReviews: total}
	if rm := outOfFiveRe.FindStringSubmatch(text); rm != nil {
		if v, err := strconv.ParseFloat(rm[1], 64); err == nil && v >= 0 && v <= 5 {
			summary.AverageRating = v
		}
	}
	return summary, m[0], true
}

// clickByText activates the control whose text carries the matched
// count marker. The click must happen in the live page; the static
// scan above only chose the target.
func (s *scanStrategy) clickByText(ctx context.Context, sess driver.Session, needle, unit string) error {
	js := fmt.Sprintf(`/* activate-scanned-control */ () => {
	const needle = %s;
	const unit = %s;
	const candidates = document.querySelectorAll('button, a[role="button"]');
	for (const el of candidates) {
		const text = el.textContent || '';
		if (text.includes(needle) && text.toLowerCase().includes(unit)) {
			el.click();
			return true;
		}
	}
	return false;
}`, mustJSON(needle), mustJSON(unit))

	raw, err := sess.Eval(ctx, js)
	if err != nil {
		return err
	}
	if strings.TrimSpace(raw) != "true" {
		return fmt.Errorf("scanned control %q no longer clickable", needle)
	}
	return nil
}
