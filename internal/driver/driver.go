package driver

import (
	"context"
	"time"
)

// Session is one controllable browser page. The review pipeline only
// consumes this interface; the production implementation is rod-backed,
// tests use a Scripted session.
type Session interface {
	// Navigate loads the given URL.
	Navigate(ctx context.Context, url string) error

	// Eval executes a script in the page context and returns the
	// JSON-encoded result value.
	Eval(ctx context.Context, js string) (string, error)

	// Click clicks the first element matching the CSS selector.
	Click(ctx context.Context, selector string) error

	// Count returns the number of elements matching the CSS selector.
	Count(ctx context.Context, selector string) (int, error)

	// CurrentURL returns the page's current URL (after redirects).
	CurrentURL(ctx context.Context) (string, error)

	// PageSource returns the rendered page HTML.
	PageSource(ctx context.Context) (string, error)

	// Close releases the page.
	Close() error
}

// Factory creates isolated sessions. Parallel workers each own one
// session; the underlying browser resource is not safely shared.
type Factory interface {
	NewSession(ctx context.Context) (Session, error)
	Close() error
}

// WaitUntil polls pred every interval until it returns true or the
// timeout elapses. Returns false on timeout or context cancellation.
func WaitUntil(ctx context.Context, timeout, interval time.Duration, pred func() bool) bool {
	deadline := time.Now().Add(timeout)
	for {
		if pred() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(interval):
		}
	}
}
