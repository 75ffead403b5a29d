package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be >= 1, got %d", cfg.Batch.Workers)
	}
	if cfg.Batch.Workers > 32 {
		return fmt.Errorf("batch.workers must be <= 32, got %d", cfg.Batch.Workers)
	}
	if cfg.Batch.ProductDelay < 0 {
		return fmt.Errorf("batch.product_delay must be >= 0")
	}

	if cfg.Paginate.MaxPages < 1 {
		return fmt.Errorf("paginate.max_pages must be >= 1, got %d", cfg.Paginate.MaxPages)
	}
	if cfg.Paginate.LoadTimeout <= 0 {
		return fmt.Errorf("paginate.load_timeout must be > 0")
	}
	if cfg.Paginate.PollInterval <= 0 {
		return fmt.Errorf("paginate.poll_interval must be > 0")
	}
	if cfg.Paginate.SettleDelay < 0 {
		return fmt.Errorf("paginate.settle_delay must be >= 0")
	}

	if cfg.Driver.RequestTimeout <= 0 {
		return fmt.Errorf("driver.request_timeout must be > 0")
	}

	if len(cfg.Selectors.Container) == 0 {
		return fmt.Errorf("selectors.container must have at least one selector")
	}
	if cfg.Selectors.ReviewNode == "" {
		return fmt.Errorf("selectors.review_node must be set")
	}

	if cfg.Storage.OutputDir == "" {
		return fmt.Errorf("storage.output_dir must be set")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}

// ValidateURL checks if a URL string is a valid product page URL.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
