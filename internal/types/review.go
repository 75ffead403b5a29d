package types

import (
	"time"
)

// Review is a single customer review of one product.
//
// (ProductURL, ReviewID) is unique within any aggregated result set.
// Core fields are never mutated after extraction; enrichment passes
// only add the optional fields below.
type Review struct {
	ReviewID   string `json:"review_id"            bson:"review_id"`
	ProductURL string `json:"product_url"          bson:"product_url"`

	// Rating is 1-5, or 0 when the page did not expose one.
	Rating            int    `json:"rating,omitempty"    bson:"rating,omitempty"`
	Title             string `json:"title,omitempty"     bson:"title,omitempty"`
	Body              string `json:"body"                bson:"body"`
	Date              string `json:"date"                bson:"date"`
	Reviewer          string `json:"reviewer"            bson:"reviewer"`
	VerifiedPurchaser bool   `json:"verified_purchaser"  bson:"verified_purchaser"`
	HelpfulCount      int    `json:"helpful_count"       bson:"helpful_count"`

	// Enrichment fields, written by later passes via additive updates.
	Sentences      []string         `json:"sentences,omitempty"        bson:"sentences,omitempty"`
	Words          []string         `json:"words,omitempty"            bson:"words,omitempty"`
	NLPProcessedAt *time.Time       `json:"nlp_processed_at,omitempty" bson:"nlp_processed_at,omitempty"`
	Sentiment      *SentimentResult `json:"sentiment_analysis,omitempty" bson:"sentiment_analysis,omitempty"`
}

// Key returns the identity of a review within an aggregated set.
func (r *Review) Key() string {
	return r.ProductURL + "\x00" + r.ReviewID
}

// SentimentResult is the output of a sentiment scoring pass.
type SentimentResult struct {
	Sentiment       string  `json:"sentiment"        bson:"sentiment"`
	ConfidenceScore float64 `json:"confidence_score" bson:"confidence_score"`
	CombinedScore   float64 `json:"combined_score"   bson:"combined_score"`
	Method          string  `json:"method"           bson:"method"`
	ProcessedAt     string  `json:"processed_at,omitempty" bson:"processed_at,omitempty"`
}

// RatingSummary is the aggregate rating read near the review control.
// It is known independently of individual reviews: the control may
// expose a count and average even when review extraction fails.
type RatingSummary struct {
	AverageRating float64 `json:"average_rating,omitempty" bson:"average_rating,omitempty"`
	TotalReviews  int     `json:"total_reviews,omitempty"  bson:"total_reviews,omitempty"`
	HasReviews    bool    `json:"has_reviews"              bson:"has_reviews"`
}

// ProductRating is a persisted per-product rating summary.
type ProductRating struct {
	ProductTitle  string  `json:"product_title"            bson:"product_title"`
	ProductURL    string  `json:"product_url"              bson:"product_url"`
	AverageRating float64 `json:"average_rating,omitempty" bson:"average_rating,omitempty"`
	TotalReviews  int     `json:"total_reviews,omitempty"  bson:"total_reviews,omitempty"`
	ExtractedAt   string  `json:"extracted_at"             bson:"extracted_at"`
}

// Product is a raw record produced by the product-discovery scraper.
// The review batch consumes ProductURL and never mutates these.
type Product struct {
	ProductURL    string `json:"product_url"               bson:"product_url"`
	Title         string `json:"title"                     bson:"title"`
	Price         string `json:"price,omitempty"           bson:"price,omitempty"`
	Description   string `json:"description,omitempty"     bson:"description,omitempty"`
	SKU           string `json:"sku,omitempty"             bson:"sku,omitempty"`
	SearchURL     string `json:"search_url,omitempty"      bson:"search_url,omitempty"`
	DetailedTitle string `json:"detailed_title,omitempty"  bson:"detailed_title,omitempty"`
	DetailedPrice string `json:"detailed_price,omitempty"  bson:"detailed_price,omitempty"`
}

// CleanedProduct is the canonical product schema produced by the
// cleaner from a raw Product plus its rating summary.
type CleanedProduct struct {
	ProductID     string        `json:"product_id"               bson:"product_id"`
	Title         string        `json:"title"                    bson:"title"`
	Brand         string        `json:"brand"                    bson:"brand"`
	Category      string        `json:"category"                 bson:"category"`
	ProductURL    string        `json:"product_url"              bson:"product_url"`
	Price         float64       `json:"price,omitempty"          bson:"price,omitempty"`
	RawPrice      string        `json:"raw_price"                bson:"raw_price"`
	Discount      *DiscountInfo `json:"discount"                 bson:"discount"`
	AverageRating float64       `json:"average_rating,omitempty" bson:"average_rating,omitempty"`
	TotalReviews  int           `json:"total_reviews,omitempty"  bson:"total_reviews,omitempty"`
	Description   string        `json:"description"              bson:"description"`
	SKU           string        `json:"sku"                      bson:"sku"`
	SearchURL     string        `json:"search_url"               bson:"search_url"`
	DetailedTitle string        `json:"detailed_title"           bson:"detailed_title"`
	DetailedPrice string        `json:"detailed_price"           bson:"detailed_price"`
	CreatedAt     time.Time     `json:"created_at"               bson:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"               bson:"updated_at"`
}

// DiscountInfo holds discount details parsed from raw price text.
type DiscountInfo struct {
	DiscountPercentage int     `json:"discount_percentage,omitempty" bson:"discount_percentage,omitempty"`
	DiscountAmount     float64 `json:"discount_amount,omitempty"     bson:"discount_amount,omitempty"`
	OriginalPrice      float64 `json:"original_price,omitempty"      bson:"original_price,omitempty"`
	EndsDate           string  `json:"ends_date,omitempty"           bson:"ends_date,omitempty"`
}
