// Package locator finds the control that reveals a product page's
// review panel and reads the aggregate rating summary next to it.
//
// Element lookup is a chain of named strategies tried in order; no
// single selector vocabulary is assumed to be stable across site
// redesigns. Adding a strategy is the supported way to handle a new
// page layout.
package locator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/ReviewGoat/internal/config"
	"github.com/IshaanNene/ReviewGoat/internal/driver"
	"github.com/IshaanNene/ReviewGoat/internal/types"
)

// Result is the outcome of locating and activating the review control.
// Opened=false is not an error: the product may simply have no reviews.
type Result struct {
	Opened   bool
	Strategy string
	Summary  types.RatingSummary
}

// Strategy is one heuristic for finding the review control. Try
// returns nil when the strategy found nothing; an error means the
// page interaction itself failed.
type Strategy interface {
	Name() string
	Try(ctx context.Context, sess driver.Session) (*Result, error)
}

// Locator drives the strategy chain and the post-open accordion step.
type Locator struct {
	strategies []Strategy
	accordion  []string
	logger     *slog.Logger
}

// New builds the default chain: the configured count-marker lookup
// first, then the whole-document scan fallback.
func New(cfg config.SelectorsConfig, logger *slog.Logger) *Locator {
	return &Locator{
		strategies: []Strategy{
			&markerStrategy{cfg: cfg},
			&scanStrategy{cfg: cfg},
		},
		accordion: cfg.Accordion,
		logger:    logger.With("component", "locator"),
	}
}

// NewWithStrategies builds a locator with a custom chain.
func NewWithStrategies(strategies []Strategy, accordion []string, logger *slog.Logger) *Locator {
	return &Locator{
		strategies: strategies,
		accordion:  accordion,
		logger:     logger.With("component", "locator"),
	}
}

// Open tries each strategy in order until one activates the review
// control. The caller must wait for the panel to load afterwards; the
// click only triggers asynchronous rendering.
func (l *Locator) Open(ctx context.Context, sess driver.Session) (*Result, error) {
	for _, s := range l.strategies {
		res, err := s.Try(ctx, sess)
		if err != nil {
			// A failing strategy does not end the chain; the next one
			// may still find the control.
			l.logger.Warn("locator strategy failed", "strategy", s.Name(), "error", err)
			continue
		}
		if res == nil {
			l.logger.Debug("locator strategy found nothing", "strategy", s.Name())
			continue
		}
		res.Strategy = s.Name()
		res.Summary.HasReviews = res.Summary.TotalReviews > 0 || res.Summary.AverageRating > 0
		l.logger.Info("review control activated",
			"strategy", s.Name(),
			"total_reviews", res.Summary.TotalReviews,
			"average_rating", res.Summary.AverageRating,
		)
		l.expandAccordion(ctx, sess)
		return res, nil
	}
	return &Result{Opened: false}, nil
}

// expandAccordion opens the collapsed mobile review accordion when one
// is present. Best-effort: desktop layouts have no accordion.
func (l *Locator) expandAccordion(ctx context.Context, sess driver.Session) {
	if len(l.accordion) == 0 {
		return
	}
	js := fmt.Sprintf(`/* expand-review-accordion */ () => {
	const sels = %s;
	for (const sel of sels) {
		const btn = document.querySelector(sel);
		if (btn) {
			if (btn.getAttribute('aria-expanded') !== 'true') {
				btn.click();
				return 'expanded';
			}
			return 'already-expanded';
		}
	}
	return 'no-accordion';
}`, mustJSON(l.accordion))

	action, err := sess.Eval(ctx, js)
	if err != nil {
		l.logger.Debug("accordion expansion failed", "error", err)
		return
	}
	l.logger.Debug("accordion checked", "action", action)
}

// markerResult mirrors the object returned by the locate scripts.
type markerResult struct {
	Found         bool    `json:"found"`
	Text          string  `json:"text"`
	TotalReviews  int     `json:"total_reviews"`
	AverageRating float64 `json:"average_rating"`
}

func decodeMarkerResult(raw string) (*markerResult, error) {
	var mr markerResult
	if err := json.Unmarshal([]byte(raw), &mr); err != nil {
		return nil, fmt.Errorf("decode locate result: %w", err)
	}
	return &mr, nil
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		// Only reached with non-encodable config values.
		return "[]"
	}
	return string(b)
}
