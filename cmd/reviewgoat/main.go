package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/ReviewGoat/internal/batch"
	"github.com/IshaanNene/ReviewGoat/internal/cleaner"
	"github.com/IshaanNene/ReviewGoat/internal/config"
	"github.com/IshaanNene/ReviewGoat/internal/driver"
	"github.com/IshaanNene/ReviewGoat/internal/enrich"
	"github.com/IshaanNene/ReviewGoat/internal/extractor"
	"github.com/IshaanNene/ReviewGoat/internal/locator"
	"github.com/IshaanNene/ReviewGoat/internal/paginator"
	"github.com/IshaanNene/ReviewGoat/internal/store"
	"github.com/IshaanNene/ReviewGoat/internal/types"
)

var (
	cfgFile string
	verbose bool

	workers     int
	maxPages    int
	noResume    bool
	outputDir   string
	inputFile   string
	headful     bool
	mongoURI    string
	confirmYes  bool
	runNLP      bool
	runSent     bool
	runAll      bool
	concatTitle bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "reviewgoat",
		Short: "ReviewGoat — retail product review scraper",
		Long: `ReviewGoat extracts customer reviews from retail product pages
rendered by JavaScript review widgets.

Pipeline:
  reviews  — scrape reviews and rating summaries for a product batch
  clean    — normalize raw products into the canonical schema
  load     — load cleaned products and reviews into MongoDB
  enrich   — run NLP tokenization and sentiment scoring passes
  clear    — drop the MongoDB collections`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(reviewsCmd())
	rootCmd.AddCommand(cleanCmd())
	rootCmd.AddCommand(loadCmd())
	rootCmd.AddCommand(enrichCmd())
	rootCmd.AddCommand(clearCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// reviewsCmd creates the "reviews" subcommand.
func reviewsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reviews [product-url...]",
		Short: "Scrape reviews for a product batch",
		Long: `Scrape reviews and rating summaries for every product in the input
file, or for the product URLs given as arguments. Progress persists
after every product; re-running resumes where the last run stopped.`,
		RunE: runReviews,
	}

	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "products JSON file (default: <output-dir>/products_scraped.json)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory")
	cmd.Flags().IntVarP(&workers, "workers", "n", 0, "parallel browser sessions (0 = config default)")
	cmd.Flags().IntVarP(&maxPages, "max-pages", "p", 0, "max review pages per product (0 = config default)")
	cmd.Flags().BoolVar(&noResume, "no-resume", false, "ignore previous output and start fresh")
	cmd.Flags().BoolVar(&headful, "headful", false, "run the browser with a visible window")

	return cmd
}

func runReviews(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Logging)

	var products []types.Product
	if len(args) > 0 {
		for _, rawURL := range args {
			if err := config.ValidateURL(rawURL); err != nil {
				return fmt.Errorf("invalid URL %q: %w", rawURL, err)
			}
			products = append(products, types.Product{ProductURL: rawURL, Title: rawURL})
		}
	} else {
		path := inputFile
		if path == "" {
			path = filepath.Join(cfg.Storage.OutputDir, cfg.Storage.ProductsFile)
		}
		products, err = store.LoadProducts(path)
		if err != nil {
			return err
		}
	}
	if len(products) == 0 {
		return fmt.Errorf("no products to process")
	}

	fileStore, err := store.NewFileStore(
		cfg.Storage.OutputDir, cfg.Storage.ReviewsFile, cfg.Storage.RatingsFile, logger)
	if err != nil {
		return err
	}

	// A browser that cannot start is the one fatal condition: without
	// a driver no product can be processed at all.
	browser, err := driver.NewBrowser(cfg.Driver, logger)
	if err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	defer browser.Close()

	loc := locator.New(cfg.Selectors, logger)
	ext := extractor.New(cfg.Selectors, logger)
	ctrl := paginator.New(loc, ext, cfg.Paginate, cfg.Selectors, logger)
	orch := batch.New(browser, ctrl, fileStore, cfg.Batch, cfg.Driver.NavigateWait, logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	logger.Info("starting review batch",
		"products", len(products),
		"workers", cfg.Batch.Workers,
		"max_pages", cfg.Paginate.MaxPages,
		"resume", cfg.Batch.Resume,
	)

	report, err := orch.Run(ctx, products)
	if err != nil && !errors.Is(err, types.ErrBatchInterrupted) {
		return err
	}

	fmt.Printf("\nBatch complete in %s\n", report.Elapsed.Round(time.Millisecond))
	fmt.Printf("  Products:  %d total, %d skipped, %d succeeded, %d failed\n",
		report.Total, report.Skipped, report.Succeeded, report.Failed)
	fmt.Printf("  Reviews:   %d aggregated (%d page errors)\n", report.Reviews, report.PageErrors)
	fmt.Printf("  Ratings:   %d product summaries\n", report.Ratings)
	fmt.Printf("  Output:    %s\n", cfg.Storage.OutputDir)
	if errors.Is(err, types.ErrBatchInterrupted) {
		fmt.Println("  Interrupted — re-run to resume remaining products.")
	}
	return nil
}

// cleanCmd creates the "clean" subcommand.
func cleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Normalize raw products into the canonical schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := setupLogger(cfg.Logging)

			path := inputFile
			if path == "" {
				path = filepath.Join(cfg.Storage.OutputDir, cfg.Storage.ProductsFile)
			}
			products, err := store.LoadProducts(path)
			if err != nil {
				return err
			}

			fileStore, err := store.NewFileStore(
				cfg.Storage.OutputDir, cfg.Storage.ReviewsFile, cfg.Storage.RatingsFile, logger)
			if err != nil {
				return err
			}
			ratings, err := fileStore.LoadRatings()
			if err != nil {
				return err
			}

			cleaned, stats := cleaner.New(logger).Run(products, ratings)

			outPath := filepath.Join(cfg.Storage.OutputDir, cfg.Storage.CleanedFile)
			if err := store.SaveCleanedProducts(outPath, cleaned); err != nil {
				return err
			}

			fmt.Printf("Cleaned %d/%d products (%d errors, %d duplicates) -> %s\n",
				stats.Cleaned, stats.Input, stats.Errors, stats.Duplicates, outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "raw products JSON file")
	return cmd
}

// loadCmd creates the "load" subcommand.
func loadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load cleaned products and reviews into MongoDB",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := setupLogger(cfg.Logging)

			cleanedPath := filepath.Join(cfg.Storage.OutputDir, cfg.Storage.CleanedFile)
			products, err := store.LoadCleanedProducts(cleanedPath)
			if err != nil {
				return err
			}

			fileStore, err := store.NewFileStore(
				cfg.Storage.OutputDir, cfg.Storage.ReviewsFile, cfg.Storage.RatingsFile, logger)
			if err != nil {
				return err
			}
			reviews, err := fileStore.LoadReviews()
			if err != nil {
				return err
			}

			mongoStore, err := store.NewMongoStore(cfg.Mongo, logger)
			if err != nil {
				return err
			}
			defer mongoStore.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			nProducts, err := mongoStore.ReplaceProducts(ctx, products)
			if err != nil {
				return err
			}
			nReviews, err := mongoStore.ReplaceReviews(ctx, reviews)
			if err != nil {
				return err
			}
			if err := mongoStore.EnsureIndexes(ctx); err != nil {
				return err
			}

			totalProducts, totalReviews, err := mongoStore.Counts(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Loaded %d products and %d reviews into %s\n", nProducts, nReviews, cfg.Mongo.Database)
			fmt.Printf("  Collections: %s=%d, %s=%d\n",
				cfg.Mongo.ProductsCollection, totalProducts,
				cfg.Mongo.ReviewsCollection, totalReviews)
			return nil
		},
	}

	cmd.Flags().StringVar(&mongoURI, "uri", "", "MongoDB connection URI")
	return cmd
}

// enrichCmd creates the "enrich" subcommand.
func enrichCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Run enrichment passes over the review collection",
		Long: `Run derived-field passes over reviews in MongoDB. Passes only add
fields; the extracted review data is never modified. Already-enriched
reviews are skipped, so re-running is idempotent.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := setupLogger(cfg.Logging)
			if concatTitle {
				cfg.Enrich.ConcatenateTitle = true
			}
			if !runNLP && !runSent {
				runAll = true
			}

			mongoStore, err := store.NewMongoStore(cfg.Mongo, logger)
			if err != nil {
				return err
			}
			defer mongoStore.Close()

			runner := enrich.NewRunner(mongoStore, cfg.Enrich, logger)

			ctx, cancel := signalContext(logger)
			defer cancel()

			var passes []enrich.Pass
			if runNLP || runAll {
				passes = append(passes, enrich.NLPPass{})
			}
			if runSent || runAll {
				analyzer := enrich.NewAnalyzer(enrich.LexiconScorer{},
					cfg.Enrich.PositiveThreshold, cfg.Enrich.NegativeThreshold)
				passes = append(passes, enrich.SentimentPass{
					Analyzer:         analyzer,
					ConcatenateTitle: cfg.Enrich.ConcatenateTitle,
				})
			}

			for _, pass := range passes {
				stats, err := runner.Run(ctx, pass)
				if err != nil {
					return err
				}
				fmt.Printf("Pass %-10s %d candidates, %d updated, %d skipped, %d errors\n",
					pass.Name()+":", stats.Candidates, stats.Updated, stats.Skipped, stats.Errors)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&runNLP, "nlp", false, "run the sentence/word tokenization pass")
	cmd.Flags().BoolVar(&runSent, "sentiment", false, "run the sentiment scoring pass")
	cmd.Flags().BoolVar(&runAll, "all", false, "run all passes (default when none selected)")
	cmd.Flags().BoolVar(&concatTitle, "concat-title", false, "score title and body together")
	return cmd
}

// clearCmd creates the "clear" subcommand.
func clearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop the MongoDB collections",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := setupLogger(cfg.Logging)

			if !confirmYes {
				fmt.Printf("Drop collections %q and %q from database %q? [y/N] ",
					cfg.Mongo.ProductsCollection, cfg.Mongo.ReviewsCollection, cfg.Mongo.Database)
				reader := bufio.NewReader(os.Stdin)
				answer, _ := reader.ReadString('\n')
				if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
					fmt.Println("Aborted.")
					return nil
				}
			}

			mongoStore, err := store.NewMongoStore(cfg.Mongo, logger)
			if err != nil {
				return err
			}
			defer mongoStore.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := mongoStore.Clear(ctx); err != nil {
				return err
			}
			fmt.Println("Collections dropped.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&confirmYes, "yes", "y", false, "skip the confirmation prompt")
	cmd.Flags().StringVar(&mongoURI, "uri", "", "MongoDB connection URI")
	return cmd
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Driver:\n")
			fmt.Printf("  Headless:          %v\n", cfg.Driver.Headless)
			fmt.Printf("  Stealth:           %v\n", cfg.Driver.Stealth)
			fmt.Printf("  Navigate Wait:     %s\n", cfg.Driver.NavigateWait)
			fmt.Printf("  Request Timeout:   %s\n", cfg.Driver.RequestTimeout)
			fmt.Printf("\nPaginate:\n")
			fmt.Printf("  Max Pages:         %d\n", cfg.Paginate.MaxPages)
			fmt.Printf("  Settle Delay:      %s\n", cfg.Paginate.SettleDelay)
			fmt.Printf("  Load Timeout:      %s\n", cfg.Paginate.LoadTimeout)
			fmt.Printf("\nBatch:\n")
			fmt.Printf("  Workers:           %d\n", cfg.Batch.Workers)
			fmt.Printf("  Resume:            %v\n", cfg.Batch.Resume)
			fmt.Printf("  Product Delay:     %s\n", cfg.Batch.ProductDelay)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Output Dir:        %s\n", cfg.Storage.OutputDir)
			fmt.Printf("  Reviews File:      %s\n", cfg.Storage.ReviewsFile)
			fmt.Printf("  Ratings File:      %s\n", cfg.Storage.RatingsFile)
			fmt.Printf("\nMongo:\n")
			fmt.Printf("  URI:               %s\n", cfg.Mongo.URI)
			fmt.Printf("  Database:          %s\n", cfg.Mongo.Database)
			fmt.Printf("\nEnrich:\n")
			fmt.Printf("  Skip Processed:    %v\n", cfg.Enrich.SkipProcessed)
			fmt.Printf("  Thresholds:        +%.2f / %.2f\n",
				cfg.Enrich.PositiveThreshold, cfg.Enrich.NegativeThreshold)
			return nil
		},
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ReviewGoat %s\n", config.Version)
		},
	}
}

// loadConfig loads config, applies CLI overrides, and validates.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) {
	if workers > 0 {
		cfg.Batch.Workers = workers
	}
	if maxPages > 0 {
		cfg.Paginate.MaxPages = maxPages
	}
	if noResume {
		cfg.Batch.Resume = false
	}
	if outputDir != "" {
		cfg.Storage.OutputDir = outputDir
	}
	if headful {
		cfg.Driver.Headless = false
	}
	if mongoURI != "" {
		cfg.Mongo.URI = mongoURI
	}
}

// signalContext returns a context canceled on SIGINT/SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, finishing current product...", "signal", sig)
		cancel()
	}()
	return ctx, cancel
}

// setupLogger creates a structured logger from the logging config,
// with -v forcing debug level.
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
