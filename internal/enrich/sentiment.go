package enrich

import (
	"math"
	"strings"
	"time"

	"github.com/IshaanNene/ReviewGoat/internal/types"
)

// Scorer turns review text into a raw polarity score in [-1, 1] plus
// the per-token evidence needed for the confidence formula.
type Scorer interface {
	// Score returns the combined polarity, the number of positive and
	// negative hits, and the total token count.
	Score(text string) (score float64, positive, negative, tokens int)
	// Method identifies the scorer in persisted results.
	Method() string
}

// positiveWords and negativeWords form the built-in lexicon. Scores
// are unit weights; intensity comes from hit density, not per-word
// magnitude.
var positiveWords = map[string]struct{}{
	"good": {}, "great": {}, "excellent": {}, "amazing": {}, "awesome": {},
	"love": {}, "loves": {}, "loved": {}, "perfect": {}, "best": {},
	"happy": {}, "nice": {}, "easy": {}, "smooth": {}, "sturdy": {},
	"solid": {}, "comfortable": {}, "durable": {}, "recommend": {},
	"recommended": {}, "fantastic": {}, "wonderful": {}, "quality": {},
	"beautiful": {}, "fun": {}, "enjoy": {}, "enjoys": {}, "pleased": {},
	"satisfied": {}, "worth": {}, "fast": {}, "reliable": {},
}

var negativeWords = map[string]struct{}{
	"bad": {}, "poor": {}, "terrible": {}, "awful": {}, "horrible": {},
	"hate": {}, "hated": {}, "worst": {}, "broken": {}, "broke": {},
	"breaks": {}, "cheap": {}, "flimsy": {}, "defective": {},
	"disappointed": {}, "disappointing": {}, "useless": {}, "waste": {},
	"wobbly": {}, "loose": {}, "rust": {}, "rusted": {}, "return": {},
	"returned": {}, "refund": {}, "difficult": {}, "hard": {},
	"uncomfortable": {}, "slow": {}, "damaged": {}, "missing": {},
}

// negations flip the polarity of the word that follows them.
var negations = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "don't": {}, "doesn't": {},
	"didn't": {}, "won't": {}, "isn't": {}, "wasn't": {}, "aren't": {},
	"can't": {}, "couldn't": {}, "wouldn't": {}, "shouldn't": {},
}

// LexiconScorer is the built-in dictionary scorer with one-token
// negation lookback.
type LexiconScorer struct{}

func (LexiconScorer) Method() string { return "lexicon" }

func (LexiconScorer) Score(text string) (float64, int, int, int) {
	words := Words(text)
	if len(words) == 0 {
		return 0, 0, 0, 0
	}

	var positive, negative int
	for i, w := range words {
		negated := i > 0 && isNegation(words[i-1])

		if _, ok := positiveWords[w]; ok {
			if negated {
				negative++
			} else {
				positive++
			}
			continue
		}
		if _, ok := negativeWords[w]; ok {
			if negated {
				positive++
			} else {
				negative++
			}
		}
	}

	hits := positive + negative
	if hits == 0 {
		return 0, 0, 0, len(words)
	}
	score := float64(positive-negative) / float64(hits)
	return score, positive, negative, len(words)
}

func isNegation(w string) bool {
	_, ok := negations[w]
	return ok
}

// Analyzer applies a Scorer and labels the result against the
// configured thresholds.
type Analyzer struct {
	scorer            Scorer
	positiveThreshold float64
	negativeThreshold float64
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(scorer Scorer, positiveThreshold, negativeThreshold float64) *Analyzer {
	return &Analyzer{
		scorer:            scorer,
		positiveThreshold: positiveThreshold,
		negativeThreshold: negativeThreshold,
	}
}

// Analyze scores one review text. The confidence blends hit agreement
// (how one-sided the evidence is) with hit intensity (how much of the
// text is opinionated), weighted 60/40.
func (a *Analyzer) Analyze(text string) *types.SentimentResult {
	score, positive, negative, tokens := a.scorer.Score(text)

	label := "neutral"
	switch {
	case score > a.positiveThreshold:
		label = "positive"
	case score < a.negativeThreshold:
		label = "negative"
	}

	var agreement, intensity float64
	if hits := positive + negative; hits > 0 {
		agreement = math.Abs(float64(positive-negative)) / float64(hits)
	}
	if tokens > 0 {
		intensity = float64(positive+negative) / float64(tokens)
		if intensity > 1 {
			intensity = 1
		}
	}
	confidence := agreement*0.6 + intensity*0.4

	return &types.SentimentResult{
		Sentiment:       label,
		ConfidenceScore: round3(confidence),
		CombinedScore:   round3(score),
		Method:          a.scorer.Method(),
		ProcessedAt:     time.Now().UTC().Format(time.RFC3339),
	}
}

// AnalyzeReview scores a review, optionally concatenating the title
// in front of the body so title-only opinions still register.
func (a *Analyzer) AnalyzeReview(r *types.Review, concatenateTitle bool) *types.SentimentResult {
	text := r.Body
	if concatenateTitle && r.Title != "" {
		text = strings.TrimSpace(r.Title + ". " + r.Body)
	}
	return a.Analyze(text)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
