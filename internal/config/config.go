package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for ReviewGoat.
type Config struct {
	Driver    DriverConfig    `mapstructure:"driver"    yaml:"driver"`
	Selectors SelectorsConfig `mapstructure:"selectors" yaml:"selectors"`
	Paginate  PaginateConfig  `mapstructure:"paginate"  yaml:"paginate"`
	Batch     BatchConfig     `mapstructure:"batch"     yaml:"batch"`
	Storage   StorageConfig   `mapstructure:"storage"   yaml:"storage"`
	Mongo     MongoConfig     `mapstructure:"mongo"     yaml:"mongo"`
	Enrich    EnrichConfig    `mapstructure:"enrich"    yaml:"enrich"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
}

// DriverConfig controls the browser session.
type DriverConfig struct {
	Headless       bool          `mapstructure:"headless"        yaml:"headless"`
	Stealth        bool          `mapstructure:"stealth"         yaml:"stealth"`
	UserDataDir    string        `mapstructure:"user_data_dir"   yaml:"user_data_dir"`
	WindowSize     string        `mapstructure:"window_size"     yaml:"window_size"`
	NavigateWait   time.Duration `mapstructure:"navigate_wait"   yaml:"navigate_wait"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

// SelectorsConfig holds the ordered fallback selectors per lookup.
// The core never assumes one selector vocabulary is stable; every
// lookup tries its list in order until one matches.
type SelectorsConfig struct {
	ReviewCount   []string `mapstructure:"review_count"   yaml:"review_count"`
	AverageRating []string `mapstructure:"average_rating" yaml:"average_rating"`
	Accordion     []string `mapstructure:"accordion"      yaml:"accordion"`
	Container     []string `mapstructure:"container"      yaml:"container"`
	ReviewNode    string   `mapstructure:"review_node"    yaml:"review_node"`
	Date          []string `mapstructure:"date"           yaml:"date"`
	Body          []string `mapstructure:"body"           yaml:"body"`
	NextPage      []string `mapstructure:"next_page"      yaml:"next_page"`
	// RatingUnit is the word the fallback scan pairs with a
	// parenthesized count to recognize a review control.
	RatingUnit string `mapstructure:"rating_unit" yaml:"rating_unit"`
}

// PaginateConfig controls the pagination controller.
type PaginateConfig struct {
	MaxPages     int           `mapstructure:"max_pages"     yaml:"max_pages"`
	SettleDelay  time.Duration `mapstructure:"settle_delay"  yaml:"settle_delay"`
	LoadTimeout  time.Duration `mapstructure:"load_timeout"  yaml:"load_timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	// LoadedIndicators are textual markers whose presence (two or
	// more) counts as a "panel loaded" signal.
	LoadedIndicators []string `mapstructure:"loaded_indicators" yaml:"loaded_indicators"`
}

// BatchConfig controls the product batch orchestrator.
type BatchConfig struct {
	Workers      int           `mapstructure:"workers"       yaml:"workers"`
	Resume       bool          `mapstructure:"resume"        yaml:"resume"`
	ProductDelay time.Duration `mapstructure:"product_delay" yaml:"product_delay"`
}

// StorageConfig controls file output.
type StorageConfig struct {
	OutputDir    string `mapstructure:"output_dir"    yaml:"output_dir"`
	ReviewsFile  string `mapstructure:"reviews_file"  yaml:"reviews_file"`
	RatingsFile  string `mapstructure:"ratings_file"  yaml:"ratings_file"`
	ProductsFile string `mapstructure:"products_file" yaml:"products_file"`
	CleanedFile  string `mapstructure:"cleaned_file"  yaml:"cleaned_file"`
}

// MongoConfig controls the MongoDB backend.
type MongoConfig struct {
	URI                string `mapstructure:"uri"                 yaml:"uri"`
	Database           string `mapstructure:"database"            yaml:"database"`
	ProductsCollection string `mapstructure:"products_collection" yaml:"products_collection"`
	ReviewsCollection  string `mapstructure:"reviews_collection"  yaml:"reviews_collection"`
}

// EnrichConfig controls the enrichment passes.
type EnrichConfig struct {
	ConcatenateTitle  bool    `mapstructure:"concatenate_title"  yaml:"concatenate_title"`
	SkipProcessed     bool    `mapstructure:"skip_processed"     yaml:"skip_processed"`
	PositiveThreshold float64 `mapstructure:"positive_threshold" yaml:"positive_threshold"`
	NegativeThreshold float64 `mapstructure:"negative_threshold" yaml:"negative_threshold"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults. The selector
// defaults target a Bazaarvoice-style review widget; every list can be
// overridden per site from the config file.
func DefaultConfig() *Config {
	return &Config{
		Driver: DriverConfig{
			Headless:       true,
			Stealth:        true,
			NavigateWait:   5 * time.Second,
			RequestTimeout: 30 * time.Second,
		},
		Selectors: SelectorsConfig{
			ReviewCount: []string{".bv_numReviews_text"},
			AverageRating: []string{
				".bv_avgRating_component_container",
				".bv-rating-value",
				"[data-rating]",
				".rating-value",
				".average-rating",
			},
			Accordion:  []string{"#BVRRContainer-mobile .nl-accordion__button"},
			Container:  []string{"#reviews_container"},
			ReviewNode: "section[id^='bv-review-']",
			Date:       []string{".bv-rnr__g3jej5-1"},
			Body:       []string{".bv-rnr__sc-16dr7i1-3"},
			NextPage:   []string{"a.next[role='button']"},
			RatingUnit: "star",
		},
		Paginate: PaginateConfig{
			MaxPages:     3,
			SettleDelay:  4 * time.Second,
			LoadTimeout:  30 * time.Second,
			PollInterval: 1 * time.Second,
			LoadedIndicators: []string{
				"verified purchaser",
				"days ago",
				"weeks ago",
				"months ago",
				"helpful",
				"filter reviews",
			},
		},
		Batch: BatchConfig{
			Workers:      1,
			Resume:       true,
			ProductDelay: 2 * time.Second,
		},
		Storage: StorageConfig{
			OutputDir:    "./output",
			ReviewsFile:  "product_reviews.json",
			RatingsFile:  "product_ratings_summary.json",
			ProductsFile: "products_scraped.json",
			CleanedFile:  "products_cleaned.json",
		},
		Mongo: MongoConfig{
			URI:                "mongodb://localhost:27017",
			Database:           "retail_reviews",
			ProductsCollection: "products",
			ReviewsCollection:  "reviews",
		},
		Enrich: EnrichConfig{
			ConcatenateTitle:  false,
			SkipProcessed:     true,
			PositiveThreshold: 0.1,
			NegativeThreshold: -0.1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
