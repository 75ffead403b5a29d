package driver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/IshaanNene/ReviewGoat/internal/config"
	"github.com/IshaanNene/ReviewGoat/internal/types"
)

// Browser is a rod-backed session factory. One Browser hosts any
// number of isolated pages; each worker gets its own Session.
type Browser struct {
	browser *rod.Browser
	cfg     config.DriverConfig
	logger  *slog.Logger
}

// NewBrowser launches a Chromium instance and connects to it.
// A launch failure is fatal for the run: there is nothing to degrade to.
func NewBrowser(cfg config.DriverConfig, logger *slog.Logger) (*Browser, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-setuid-sandbox").
		Set("disable-blink-features", "AutomationControlled")

	if cfg.UserDataDir != "" {
		l = l.UserDataDir(cfg.UserDataDir)
	}
	if cfg.WindowSize != "" {
		l = l.Set("window-size", cfg.WindowSize)
	}

	launchURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: launch: %v", types.ErrDriverUnavailable, err)
	}

	browser := rod.New().ControlURL(launchURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("%w: connect: %v", types.ErrDriverUnavailable, err)
	}

	logger.Info("browser ready", "headless", cfg.Headless, "stealth", cfg.Stealth)

	return &Browser{
		browser: browser,
		cfg:     cfg,
		logger:  logger.With("component", "browser"),
	}, nil
}

// NewSession opens a fresh page.
func (b *Browser) NewSession(ctx context.Context) (Session, error) {
	var page *rod.Page
	var err error

	if b.cfg.Stealth {
		page, err = stealth.Page(b.browser)
	} else {
		page, err = b.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}

	return &rodSession{
		page:    page,
		timeout: b.cfg.RequestTimeout,
		logger:  b.logger,
	}, nil
}

// Close shuts down the browser and all of its pages.
func (b *Browser) Close() error {
	if b.browser != nil {
		return b.browser.Close()
	}
	return nil
}

// rodSession implements Session on a rod page.
type rodSession struct {
	page    *rod.Page
	timeout time.Duration
	logger  *slog.Logger
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	page := s.page.Context(ctx).Timeout(s.timeout)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	// Best-effort settle; dynamic widgets keep mutating the DOM, so a
	// stability timeout is expected on busy pages.
	if err := page.WaitStable(300 * time.Millisecond); err != nil {
		s.logger.Debug("page stability timeout, continuing", "url", url, "error", err)
	}
	return nil
}

func (s *rodSession) Eval(ctx context.Context, js string) (string, error) {
	result, err := s.page.Context(ctx).Eval(js)
	if err != nil {
		return "", err
	}
	return result.Value.JSON("", ""), nil
}

func (s *rodSession) Click(ctx context.Context, selector string) error {
	el, err := s.page.Context(ctx).Timeout(10 * time.Second).Element(selector)
	if err != nil {
		return fmt.Errorf("element not found: %s: %w", selector, err)
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (s *rodSession) Count(ctx context.Context, selector string) (int, error) {
	els, err := s.page.Context(ctx).Elements(selector)
	if err != nil {
		return 0, err
	}
	return len(els), nil
}

func (s *rodSession) CurrentURL(ctx context.Context) (string, error) {
	info, err := s.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func (s *rodSession) PageSource(ctx context.Context) (string, error) {
	return s.page.Context(ctx).HTML()
}

func (s *rodSession) Close() error {
	return s.page.Close()
}
