package store

import (
	"github.com/IshaanNene/ReviewGoat/internal/types"
)

// Store persists the batch output artifacts: the aggregated review
// collection and the per-product rating summary mapping.
//
// Loads of absent artifacts return empty collections, not errors; the
// resume contract reconstructs progress purely from whatever output
// already exists.
type Store interface {
	LoadReviews() ([]types.Review, error)
	SaveReviews(reviews []types.Review) error

	LoadRatings() (map[string]types.ProductRating, error)
	SaveRatings(ratings map[string]types.ProductRating) error

	// Name returns the backend identifier.
	Name() string
}
