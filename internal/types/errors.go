package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for run-level failure modes.
var (
	ErrDriverUnavailable = errors.New("browser driver unavailable")
	ErrBatchInterrupted  = errors.New("batch interrupted")
)

// LocateError wraps errors that occur while locating the review control.
type LocateError struct {
	ProductURL string
	Strategy   string
	Err        error
}

func (e *LocateError) Error() string {
	return fmt.Sprintf("locate error for %s (strategy=%q): %v", e.ProductURL, e.Strategy, e.Err)
}

func (e *LocateError) Unwrap() error { return e.Err }

// ExtractError wraps errors that occur while extracting a review page.
type ExtractError struct {
	ProductURL string
	Page       int
	Err        error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract error for %s (page %d): %v", e.ProductURL, e.Page, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// StoreError wraps errors that occur during persistence.
type StoreError struct {
	Backend string
	Err     error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error (%s): %v", e.Backend, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// EnrichError wraps errors that occur in an enrichment pass.
type EnrichError struct {
	Pass     string
	ReviewID string
	Err      error
}

func (e *EnrichError) Error() string {
	return fmt.Sprintf("enrich error at pass %q (review %s): %v", e.Pass, e.ReviewID, e.Err)
}

func (e *EnrichError) Unwrap() error { return e.Err }
