package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero workers", func(c *Config) { c.Batch.Workers = 0 }},
		{"too many workers", func(c *Config) { c.Batch.Workers = 64 }},
		{"zero max pages", func(c *Config) { c.Paginate.MaxPages = 0 }},
		{"zero load timeout", func(c *Config) { c.Paginate.LoadTimeout = 0 }},
		{"no container selectors", func(c *Config) { c.Selectors.Container = nil }},
		{"no review node", func(c *Config) { c.Selectors.ReviewNode = "" }},
		{"empty output dir", func(c *Config) { c.Storage.OutputDir = "" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "chatty" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := DefaultConfig()
			c.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Errorf("expected validation failure")
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	good := []string{
		"https://shop.example/bike-0713814p.html",
		"http://localhost:8080/page",
	}
	for _, u := range good {
		if err := ValidateURL(u); err != nil {
			t.Errorf("ValidateURL(%q): %v", u, err)
		}
	}

	bad := []string{
		"ftp://shop.example/file",
		"not a url at all://",
		"https://",
	}
	for _, u := range bad {
		if err := ValidateURL(u); err == nil {
			t.Errorf("ValidateURL(%q): expected error", u)
		}
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Paginate.MaxPages != 3 {
		t.Errorf("max pages default: got %d", cfg.Paginate.MaxPages)
	}
	if cfg.Mongo.Database != "retail_reviews" {
		t.Errorf("mongo database default: got %q", cfg.Mongo.Database)
	}
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reviewgoat.yaml")
	yaml := `
paginate:
  max_pages: 7
  settle_delay: 250ms
batch:
  workers: 4
selectors:
  review_node: "article.review"
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Paginate.MaxPages != 7 {
		t.Errorf("max pages: expected 7, got %d", cfg.Paginate.MaxPages)
	}
	if cfg.Paginate.SettleDelay != 250*time.Millisecond {
		t.Errorf("settle delay: got %s", cfg.Paginate.SettleDelay)
	}
	if cfg.Batch.Workers != 4 {
		t.Errorf("workers: expected 4, got %d", cfg.Batch.Workers)
	}
	if cfg.Selectors.ReviewNode != "article.review" {
		t.Errorf("review node: got %q", cfg.Selectors.ReviewNode)
	}
	// Untouched sections keep their defaults.
	if cfg.Mongo.URI != "mongodb://localhost:27017" {
		t.Errorf("mongo uri default lost: %q", cfg.Mongo.URI)
	}
}
