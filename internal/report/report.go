// Package report assembles the immutable analysis result and persists it.
package report

import (
	"fmt"
	"time"

	"github.com/clauselens/clauselens/internal/catalog"
	"github.com/clauselens/clauselens/internal/projection"
	"github.com/clauselens/clauselens/internal/score"
	"github.com/clauselens/clauselens/internal/segment"
)

// Report is the complete result of one contract analysis. Immutable once
// assembled; this is the unit persisted and rendered.
type Report struct {
	Clauses          []segment.Clause         `json:"clauses"`
	Scores           []score.Score            `json:"scores"`
	Projections      projection.Set           `json:"projections"`
	SummaryCounts    map[catalog.Category]int `json:"summary_counts"`
	Unscored         int                      `json:"unscored"`
	OverallRiskScore float64                  `json:"overall_risk_score"`
	RiskLevel        string                   `json:"risk_level"`
	Partial          bool                     `json:"partial,omitempty"`
	CatalogVersion   string                   `json:"catalog_version"`
	ModelID          string                   `json:"model_id"`
	CreatedAt        time.Time                `json:"created_at"`
}

// AssembleInput carries everything the assembler merges.
type AssembleInput struct {
	Clauses         []segment.Clause
	Scores          []score.Score
	Projections     projection.Set
	SeverityWeights map[catalog.Category]float64
	Partial         bool
	CatalogVersion  string
	ModelID         string
}

// Assemble merges clauses, scores, and projections into a Report.
//
// The clause/score correspondence is a construction invariant of the
// pipeline; a mismatch here is a programming error and surfaces as
// ErrInvariant rather than being papered over.
func Assemble(in AssembleInput) (*Report, error) {
	if len(in.Clauses) != len(in.Scores) {
		return nil, fmt.Errorf("%w: %d clauses but %d scores", ErrInvariant, len(in.Clauses), len(in.Scores))
	}
	for i := range in.Clauses {
		if in.Scores[i].ClauseIndex != in.Clauses[i].Index {
			return nil, fmt.Errorf("%w: score %d has clause_index %d, clause has index %d",
				ErrInvariant, i, in.Scores[i].ClauseIndex, in.Clauses[i].Index)
		}
	}

	counts := make(map[catalog.Category]int, len(catalog.Categories))
	for _, c := range catalog.Categories {
		counts[c] = 0
	}
	unscored := 0
	for _, s := range in.Scores {
		if s.Unknown {
			unscored++
			continue
		}
		counts[s.Category]++
	}

	overall := OverallScore(in.Scores, in.SeverityWeights)

	return &Report{
		Clauses:          in.Clauses,
		Scores:           in.Scores,
		Projections:      in.Projections,
		SummaryCounts:    counts,
		Unscored:         unscored,
		OverallRiskScore: overall,
		RiskLevel:        RiskLevel(overall),
		Partial:          in.Partial,
		CatalogVersion:   in.CatalogVersion,
		ModelID:          in.ModelID,
		CreatedAt:        time.Now().UTC(),
	}, nil
}

// OverallScore is the severity-weighted mean of the scored clauses' raw
// scores. Unknown clauses carry no weight. Returns 0 when nothing scored.
func OverallScore(scores []score.Score, weights map[catalog.Category]float64) float64 {
	var num, den float64
	for _, s := range scores {
		if s.Unknown {
			continue
		}
		w := weights[s.Category]
		num += w * s.RawScore
		den += w
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// RiskLevel maps the overall score to the document-level label shown to users.
func RiskLevel(overall float64) string {
	switch {
	case overall >= 0.7:
		return "HIGH RISK"
	case overall >= 0.4:
		return "MEDIUM RISK"
	default:
		return "LOW RISK"
	}
}
