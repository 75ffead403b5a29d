package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/IshaanNene/ReviewGoat/internal/types"
)

// FileStore keeps the output artifacts as JSON files in one directory.
// Every save is a full-file overwrite through a temp file plus rename,
// so a crash mid-write never corrupts the previous artifact.
type FileStore struct {
	dir         string
	reviewsFile string
	ratingsFile string
	logger      *slog.Logger
}

// NewFileStore creates the output directory if needed.
func NewFileStore(dir, reviewsFile, ratingsFile string, logger *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &types.StoreError{Backend: "file", Err: fmt.Errorf("create output dir: %w", err)}
	}
	return &FileStore{
		dir:         dir,
		reviewsFile: reviewsFile,
		ratingsFile: ratingsFile,
		logger:      logger.With("component", "file_store"),
	}, nil
}

func (s *FileStore) Name() string { return "file" }

// ReviewsPath returns the absolute path of the reviews artifact.
func (s *FileStore) ReviewsPath() string { return filepath.Join(s.dir, s.reviewsFile) }

// RatingsPath returns the absolute path of the ratings artifact.
func (s *FileStore) RatingsPath() string { return filepath.Join(s.dir, s.ratingsFile) }

func (s *FileStore) LoadReviews() ([]types.Review, error) {
	var reviews []types.Review
	if err := readJSON(s.ReviewsPath(), &reviews); err != nil {
		return nil, &types.StoreError{Backend: "file", Err: err}
	}
	return reviews, nil
}

func (s *FileStore) SaveReviews(reviews []types.Review) error {
	if reviews == nil {
		reviews = []types.Review{}
	}
	if err := writeJSONAtomic(s.ReviewsPath(), reviews); err != nil {
		return &types.StoreError{Backend: "file", Err: err}
	}
	s.logger.Debug("reviews written", "path", s.ReviewsPath(), "count", len(reviews))
	return nil
}

func (s *FileStore) LoadRatings() (map[string]types.ProductRating, error) {
	ratings := make(map[string]types.ProductRating)
	if err := readJSON(s.RatingsPath(), &ratings); err != nil {
		return nil, &types.StoreError{Backend: "file", Err: err}
	}
	return ratings, nil
}

func (s *FileStore) SaveRatings(ratings map[string]types.ProductRating) error {
	if ratings == nil {
		ratings = map[string]types.ProductRating{}
	}
	if err := writeJSONAtomic(s.RatingsPath(), ratings); err != nil {
		return &types.StoreError{Backend: "file", Err: err}
	}
	s.logger.Debug("ratings written", "path", s.RatingsPath(), "count", len(ratings))
	return nil
}

// readJSON decodes a JSON file into v. A missing file leaves v as-is.
func readJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// writeJSONAtomic writes v as indented JSON via temp file + rename.
func writeJSONAtomic(path string, v any) error {
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// LoadProducts reads the product list produced by the discovery
// scraper. Unlike the output artifacts, a missing input file is an
// error: there is nothing to scrape without it.
func LoadProducts(path string) ([]types.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open products file %s: %w", path, err)
	}
	defer f.Close()

	var products []types.Product
	if err := json.NewDecoder(f).Decode(&products); err != nil {
		return nil, fmt.Errorf("decode products file %s: %w", path, err)
	}
	return products, nil
}

// LoadCleanedProducts reads a cleaned-products artifact.
func LoadCleanedProducts(path string) ([]types.CleanedProduct, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cleaned products %s: %w", path, err)
	}
	defer f.Close()

	var products []types.CleanedProduct
	if err := json.NewDecoder(f).Decode(&products); err != nil {
		return nil, fmt.Errorf("decode cleaned products %s: %w", path, err)
	}
	return products, nil
}

// SaveCleanedProducts writes the cleaned-products artifact.
func SaveCleanedProducts(path string, products []types.CleanedProduct) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return writeJSONAtomic(path, products)
}
