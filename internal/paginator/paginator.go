// Package paginator drives the locator and extractor across all
// available review pages for one product, bounded by a page ceiling.
//
// It is a small state machine: Init (open panel) -> LoadWait ->
// ExtractPage -> SeekNext -> ... -> Done. Every degraded path (no
// control, load timeout, missing container, page error) terminates in
// Done with partial results; nothing is raised past this package.
package paginator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/IshaanNene/ReviewGoat/internal/config"
	"github.com/IshaanNene/ReviewGoat/internal/driver"
	"github.com/IshaanNene/ReviewGoat/internal/extractor"
	"github.com/IshaanNene/ReviewGoat/internal/locator"
	"github.com/IshaanNene/ReviewGoat/internal/types"
)

// Outcome is the terminal state of one product's pagination run.
type Outcome struct {
	Reviews []types.Review
	Summary types.RatingSummary

	// Opened reports whether the review panel was activated at all.
	Opened bool

	// Pages counts extraction iterations actually performed.
	Pages int

	// Duplicates counts records dropped by the first-occurrence-wins
	// rule when consecutive pages overlap.
	Duplicates int

	// LoadTimedOut marks a LoadWait timeout (degraded success).
	LoadTimedOut bool

	// ContainerMissing marks the opened-but-no-container case, which
	// is zero reviews, not a fault.
	ContainerMissing bool

	// PageErr records a per-page extraction failure. Pagination stops
	// at the failing page; earlier pages' records are kept.
	PageErr error
}

// Controller paginates one product's review panel.
type Controller struct {
	loc       *locator.Locator
	ext       *extractor.Extractor
	cfg       config.PaginateConfig
	selectors config.SelectorsConfig
	logger    *slog.Logger
}

// New creates a Controller.
func New(loc *locator.Locator, ext *extractor.Extractor, cfg config.PaginateConfig, selectors config.SelectorsConfig, logger *slog.Logger) *Controller {
	return &Controller{
		loc:       loc,
		ext:       ext,
		cfg:       cfg,
		selectors: selectors,
		logger:    logger.With("component", "paginator"),
	}
}

// Run executes the pagination state machine on an already-navigated
// product page. It never returns an error: every failure mode is
// folded into the Outcome so a single bad page cannot abort a batch.
func (c *Controller) Run(ctx context.Context, sess driver.Session, productURL string) *Outcome {
	out := &Outcome{}

	// Init: find and activate the review control.
	res, err := c.loc.Open(ctx, sess)
	if err != nil {
		out.PageErr = err
		return out
	}
	out.Summary = res.Summary
	if !res.Opened {
		c.logger.Info("no review control on page", "product_url", productURL)
		return out
	}
	out.Opened = true

	// LoadWait: the click only triggers async rendering.
	if !c.waitLoaded(ctx, sess) {
		// Degraded success: extract whatever rendered before giving up.
		// Logged distinctly from the container-missing case below.
		out.LoadTimedOut = true
		c.logger.Warn("review panel load timeout", "product_url", productURL)
	}

	seen := make(map[string]struct{})

	for {
		// ExtractPage.
		source, err := sess.PageSource(ctx)
		if err != nil {
			out.PageErr = &types.ExtractError{ProductURL: productURL, Page: out.Pages + 1, Err: err}
			c.logger.Error("page read failed, stopping pagination",
				"product_url", productURL, "page", out.Pages+1, "error", err)
			break
		}

		pageResult, err := c.ext.Page(source, productURL)
		if err != nil {
			out.PageErr = &types.ExtractError{ProductURL: productURL, Page: out.Pages + 1, Err: err}
			c.logger.Error("page extraction failed, stopping pagination",
				"product_url", productURL, "page", out.Pages+1, "error", err)
			break
		}

		if pageResult.ContainerMissing {
			if out.Pages == 0 {
				out.ContainerMissing = true
				c.logger.Info("review container absent after open, treating as zero reviews",
					"product_url", productURL)
			}
			break
		}

		for _, review := range pageResult.Reviews {
			if _, dup := seen[review.ReviewID]; dup {
				out.Duplicates++
				continue
			}
			seen[review.ReviewID] = struct{}{}
			out.Reviews = append(out.Reviews, review)
		}
		out.Pages++
		c.logger.Debug("page extracted",
			"product_url", productURL, "page", out.Pages, "reviews", len(pageResult.Reviews))

		if out.LoadTimedOut {
			break
		}
		if out.Pages >= c.cfg.MaxPages {
			c.logger.Debug("page ceiling reached", "product_url", productURL, "max_pages", c.cfg.MaxPages)
			break
		}

		// SeekNext.
		if !c.nextPage(ctx, sess) {
			break
		}
		c.settle(ctx)
	}

	c.logger.Info("pagination complete",
		"product_url", productURL,
		"pages", out.Pages,
		"reviews", len(out.Reviews),
		"duplicates", out.Duplicates,
	)
	return out
}

// waitLoaded polls until the panel shows a stable loaded signal: the
// container plus at least one textual indicator. The container element
// can render ahead of its children, so its presence alone does not
// count. Without a container match, two indicators are required.
func (c *Controller) waitLoaded(ctx context.Context, sess driver.Session) bool {
	return driver.WaitUntil(ctx, c.cfg.LoadTimeout, c.cfg.PollInterval, func() bool {
		containerPresent := false
		for _, sel := range c.selectors.Container {
			if n, err := sess.Count(ctx, sel); err == nil && n > 0 {
				containerPresent = true
				break
			}
		}

		source, err := sess.PageSource(ctx)
		if err != nil {
			return false
		}
		body := strings.ToLower(source)
		found := 0
		for _, indicator := range c.cfg.LoadedIndicators {
			if strings.Contains(body, indicator) {
				found++
			}
		}

		if containerPresent {
			return found >= 1
		}
		return found >= 2
	})
}

// nextPage activates the next-page control. Returns false when there
// is no enabled control, which ends pagination normally.
func (c *Controller) nextPage(ctx context.Context, sess driver.Session) bool {
	js := fmt.Sprintf(`/* next-review-page */ () => {
	const sels = %s;
	for (const sel of sels) {
		const btn = document.querySelector(sel);
		if (btn && !btn.disabled) {
			btn.scrollIntoView({block: 'center'});
			btn.click();
			return true;
		}
	}
	const all = document.querySelectorAll('a, button');
	for (const el of all) {
		const text = (el.textContent || '').toLowerCase();
		if (text.includes('next') && text.includes('review') && !el.disabled && el.style.display !== 'none') {
			el.scrollIntoView({block: 'center'});
			el.click();
			return true;
		}
	}
	return false;
}`, jsonArray(c.selectors.NextPage))

	raw, err := sess.Eval(ctx, js)
	if err != nil {
		c.logger.Warn("next-page lookup failed", "error", err)
		return false
	}
	return strings.TrimSpace(raw) == "true"
}

// settle waits the fixed delay after a UI interaction so async content
// can render before the next read.
func (c *Controller) settle(ctx context.Context) {
	if c.cfg.SettleDelay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(c.cfg.SettleDelay):
	}
}

func jsonArray(values []string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%q", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
