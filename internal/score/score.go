// Package score assigns each clause a risk category and a numeric score by
// comparing its embedding against the risk pattern catalog.
package score

import (
	"time"

	"github.com/clauselens/clauselens/internal/catalog"
)

// Score is the scoring result for one clause. Created once, never mutated.
//
// When Unknown is true the embedding provider failed persistently for this
// clause: Embedding is nil, NearestPattern is -1, RawScore is 0, and Category
// carries no meaning. Unknown clauses are excluded from category tallies and
// overall-score weighting but still counted in the report's unscored bucket.
type Score struct {
	ClauseIndex       int              `json:"clause_index"`
	Embedding         []float32        `json:"-"`
	RawScore          float64          `json:"raw_score"`
	Category          catalog.Category `json:"category"`
	Unknown           bool             `json:"unknown,omitempty"`
	NearestPattern    int              `json:"nearest_pattern"`
	NearestSimilarity float64          `json:"nearest_similarity"`
}

// BlendFunc turns the best similarity per category into a raw score in [0,1].
// bestByCategory only contains categories that matched at least one pattern.
type BlendFunc func(bestByCategory map[catalog.Category]float64, threshold float64, weights map[catalog.Category]float64) float64

// Config holds the scoring parameters. Zero values fall back to the
// documented defaults via DefaultConfig.
type Config struct {
	// SimilarityThresholdCritical is the similarity at which a Critical
	// pattern match dominates the raw score outright.
	SimilarityThresholdCritical float64
	// SeverityWeights weight each category in the fallback blend and in the
	// overall report score.
	SeverityWeights map[catalog.Category]float64
	// MaxRetries bounds embedding attempts per clause.
	MaxRetries int
	// RetryBackoff is the base backoff between attempts; it doubles each retry.
	RetryBackoff time.Duration
	// Concurrency bounds in-flight embedding calls.
	Concurrency int
	// Blend computes the raw score; nil means DefaultBlend.
	Blend BlendFunc
}

// DefaultConfig returns the documented scoring defaults: threshold 0.8,
// weights critical 1.0 / high 0.7 / medium 0.4 / low 0.1, 3 attempts with
// 500ms base backoff, 4 workers.
func DefaultConfig() Config {
	return Config{
		SimilarityThresholdCritical: 0.8,
		SeverityWeights: map[catalog.Category]float64{
			catalog.Critical: 1.0,
			catalog.High:     0.7,
			catalog.Medium:   0.4,
			catalog.Low:      0.1,
		},
		MaxRetries:   3,
		RetryBackoff: 500 * time.Millisecond,
		Concurrency:  4,
		Blend:        DefaultBlend,
	}
}

// DefaultBlend implements the two-tier scoring policy.
//
// A Critical match at or above the threshold wins outright, so clauses that
// resemble known critical language always surface with a high score even when
// a non-critical pattern is numerically closer. Otherwise the score is the
// severity-weighted mean of the best match per category, clamped into [0,1].
func DefaultBlend(bestByCategory map[catalog.Category]float64, threshold float64, weights map[catalog.Category]float64) float64 {
	if best, ok := bestByCategory[catalog.Critical]; ok && best >= threshold {
		return clamp01(best)
	}
	var num, den float64
	for _, c := range catalog.Categories {
		best, ok := bestByCategory[c]
		if !ok {
			continue
		}
		w := weights[c]
		num += w * clamp01(best)
		den += w
	}
	if den == 0 {
		return 0
	}
	return clamp01(num / den)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
