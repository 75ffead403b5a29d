package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and CLI flags.
// Priority (highest to lowest): CLI flags > env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	// Set defaults from struct
	setDefaults(v, cfg)

	// Environment variable support
	v.SetEnvPrefix("REVIEWGOAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Search default locations
		v.SetConfigName("reviewgoat")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".reviewgoat"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("driver.headless", cfg.Driver.Headless)
	v.SetDefault("driver.stealth", cfg.Driver.Stealth)
	v.SetDefault("driver.navigate_wait", cfg.Driver.NavigateWait)
	v.SetDefault("driver.request_timeout", cfg.Driver.RequestTimeout)

	v.SetDefault("selectors.review_count", cfg.Selectors.ReviewCount)
	v.SetDefault("selectors.average_rating", cfg.Selectors.AverageRating)
	v.SetDefault("selectors.accordion", cfg.Selectors.Accordion)
	v.SetDefault("selectors.container", cfg.Selectors.Container)
	v.SetDefault("selectors.review_node", cfg.Selectors.ReviewNode)
	v.SetDefault("selectors.date", cfg.Selectors.Date)
	v.SetDefault("selectors.body", cfg.Selectors.Body)
	v.SetDefault("selectors.next_page", cfg.Selectors.NextPage)
	v.SetDefault("selectors.rating_unit", cfg.Selectors.RatingUnit)

	v.SetDefault("paginate.max_pages", cfg.Paginate.MaxPages)
	v.SetDefault("paginate.settle_delay", cfg.Paginate.SettleDelay)
	v.SetDefault("paginate.load_timeout", cfg.Paginate.LoadTimeout)
	v.SetDefault("paginate.poll_interval", cfg.Paginate.PollInterval)
	v.SetDefault("paginate.loaded_indicators", cfg.Paginate.LoadedIndicators)

	v.SetDefault("batch.workers", cfg.Batch.Workers)
	v.SetDefault("batch.resume", cfg.Batch.Resume)
	v.SetDefault("batch.product_delay", cfg.Batch.ProductDelay)

	v.SetDefault("storage.output_dir", cfg.Storage.OutputDir)
	v.SetDefault("storage.reviews_file", cfg.Storage.ReviewsFile)
	v.SetDefault("storage.ratings_file", cfg.Storage.RatingsFile)
	v.SetDefault("storage.products_file", cfg.Storage.ProductsFile)
	v.SetDefault("storage.cleaned_file", cfg.Storage.CleanedFile)

	v.SetDefault("mongo.uri", cfg.Mongo.URI)
	v.SetDefault("mongo.database", cfg.Mongo.Database)
	v.SetDefault("mongo.products_collection", cfg.Mongo.ProductsCollection)
	v.SetDefault("mongo.reviews_collection", cfg.Mongo.ReviewsCollection)

	v.SetDefault("enrich.concatenate_title", cfg.Enrich.ConcatenateTitle)
	v.SetDefault("enrich.skip_processed", cfg.Enrich.SkipProcessed)
	v.SetDefault("enrich.positive_threshold", cfg.Enrich.PositiveThreshold)
	v.SetDefault("enrich.negative_threshold", cfg.Enrich.NegativeThreshold)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
}
