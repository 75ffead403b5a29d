package store

import (
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/IshaanNene/ReviewGoat/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func newStore(t *testing.T) *FileStore {
	t.Helper()
	fs, err := NewFileStore(t.TempDir(), "reviews.json", "ratings.json", testLogger)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return fs
}

func TestLoadAbsentArtifactsIsEmpty(t *testing.T) {
	fs := newStore(t)

	reviews, err := fs.LoadReviews()
	if err != nil {
		t.Fatalf("load reviews: %v", err)
	}
	if len(reviews) != 0 {
		t.Errorf("expected empty reviews, got %d", len(reviews))
	}

	ratings, err := fs.LoadRatings()
	if err != nil {
		t.Fatalf("load ratings: %v", err)
	}
	if len(ratings) != 0 {
		t.Errorf("expected empty ratings, got %d", len(ratings))
	}
}

func TestReviewsRoundTrip(t *testing.T) {
	fs := newStore(t)

	saved := []types.Review{
		{
			ReviewID:          "bv-review-1",
			ProductURL:        "https://shop.example/a-0001p.html",
			Rating:            5,
			Title:             "Solid bike",
			Body:              "Rides great & assembly was <30 minutes.",
			Reviewer:          "Sam",
			VerifiedPurchaser: true,
			HelpfulCount:      3,
		},
		{
			ReviewID:   "bv-review-2",
			ProductURL: "https://shop.example/a-0001p.html",
			Body:       "No rating given.",
		},
	}
	if err := fs.SaveReviews(saved); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := fs.LoadReviews()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(loaded))
	}
	if !reflect.DeepEqual(loaded[0], saved[0]) {
		t.Errorf("first review changed across round trip:\n  saved  %+v\n  loaded %+v", saved[0], loaded[0])
	}
	if loaded[1].Rating != 0 {
		t.Errorf("absent rating must stay zero, got %d", loaded[1].Rating)
	}
}

func TestRatingsRoundTrip(t *testing.T) {
	fs := newStore(t)

	saved := map[string]types.ProductRating{
		"https://shop.example/a-0001p.html": {
			ProductTitle:  "Bike A",
			ProductURL:    "https://shop.example/a-0001p.html",
			AverageRating: 4.4,
			TotalReviews:  31,
			ExtractedAt:   "2026-08-28 10:00:00",
		},
	}
	if err := fs.SaveRatings(saved); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := fs.LoadRatings()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded["https://shop.example/a-0001p.html"] != saved["https://shop.example/a-0001p.html"] {
		t.Errorf("rating changed across round trip: %+v", loaded)
	}
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	fs := newStore(t)
	if err := fs.SaveReviews([]types.Review{{ReviewID: "r", ProductURL: "u"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(fs.ReviewsPath() + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind after rename")
	}
	if _, err := os.Stat(fs.ReviewsPath()); err != nil {
		t.Errorf("artifact missing: %v", err)
	}
}

func TestSaveOverwritesFully(t *testing.T) {
	fs := newStore(t)

	big := make([]types.Review, 50)
	for i := range big {
		big[i] = types.Review{ReviewID: "r", ProductURL: "u"}
	}
	if err := fs.SaveReviews(big); err != nil {
		t.Fatalf("save big: %v", err)
	}
	if err := fs.SaveReviews([]types.Review{{ReviewID: "only", ProductURL: "u"}}); err != nil {
		t.Fatalf("save small: %v", err)
	}

	loaded, err := fs.LoadReviews()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ReviewID != "only" {
		t.Fatalf("smaller write must fully replace the file, got %d reviews", len(loaded))
	}
}

func TestLoadProductsMissingFileIsError(t *testing.T) {
	if _, err := LoadProducts(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("a missing input file must be an error")
	}
}
