// Package analyze wires the full pipeline: segment the document, score each
// clause against the catalog, project the scores, and assemble the report.
package analyze

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/clauselens/clauselens/internal/catalog"
	"github.com/clauselens/clauselens/internal/config"
	"github.com/clauselens/clauselens/internal/embeddings"
	"github.com/clauselens/clauselens/internal/projection"
	"github.com/clauselens/clauselens/internal/report"
	"github.com/clauselens/clauselens/internal/score"
	"github.com/clauselens/clauselens/internal/segment"
)

// Options collects the per-stage parameters of one analysis.
type Options struct {
	Segment    segment.Options
	Score      score.Config
	Projection projection.Config
}

// DefaultOptions returns the documented defaults for every stage.
func DefaultOptions() Options {
	return Options{
		Segment:    segment.DefaultOptions(),
		Score:      score.DefaultConfig(),
		Projection: projection.DefaultConfig(),
	}
}

// OptionsFromConfig translates the user-facing YAML config into stage options.
// Unknown severity-weight keys are ignored; missing ones keep their defaults.
func OptionsFromConfig(a config.AnalysisConfig) Options {
	opts := DefaultOptions()
	if a.MinClauseTokens > 0 {
		opts.Segment.MinClauseTokens = a.MinClauseTokens
	}
	if a.MinDocumentLen > 0 {
		opts.Segment.MinDocumentLen = a.MinDocumentLen
	}
	if a.SimilarityThresholdCritical > 0 {
		opts.Score.SimilarityThresholdCritical = a.SimilarityThresholdCritical
	}
	if len(a.SeverityWeights) > 0 {
		weights := make(map[catalog.Category]float64, len(a.SeverityWeights))
		for k, v := range a.SeverityWeights {
			c, err := catalog.ParseCategory(k)
			if err != nil {
				continue
			}
			weights[c] = v
		}
		if len(weights) > 0 {
			for c, v := range weights {
				opts.Score.SeverityWeights[c] = v
			}
		}
	}
	if a.MaxEmbeddingRetries > 0 {
		opts.Score.MaxRetries = a.MaxEmbeddingRetries
	}
	if a.Concurrency > 0 {
		opts.Score.Concurrency = a.Concurrency
	}
	if a.Mesh.Rows > 0 {
		opts.Projection.MeshRows = a.Mesh.Rows
	}
	if a.Mesh.Cols > 0 {
		opts.Projection.MeshCols = a.Mesh.Cols
	}
	if a.Mesh.Bandwidth > 0 {
		opts.Projection.MeshBandwidth = a.Mesh.Bandwidth
	}
	return opts
}

// Analyzer runs analyses against one provider and one loaded catalog.
type Analyzer struct {
	provider embeddings.Provider
	catalog  *catalog.Catalog
	opts     Options
	log      *zap.Logger
}

// New returns an Analyzer. A nil logger disables logging.
func New(prov embeddings.Provider, cat *catalog.Catalog, opts Options, log *zap.Logger) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{provider: prov, catalog: cat, opts: opts, log: log}
}

// Run analyzes one document and returns the assembled report.
//
// An empty or too-short document fails with segment.ErrEmptyDocument before
// any provider call is made. Per-clause embedding failures degrade to Unknown
// scores and set Report.Partial; they never abort the run. Cancelling ctx
// aborts the run without persisting anything.
func (a *Analyzer) Run(ctx context.Context, text string) (*report.Report, error) {
	start := time.Now()

	clauses, err := segment.Segment(text, a.opts.Segment)
	if err != nil {
		return nil, err
	}
	a.log.Debug("segmented document",
		zap.Int("clauses", len(clauses)),
		zap.Int("doc_bytes", len(text)))

	scorer := score.New(a.provider, a.catalog, a.opts.Score, a.log)
	scores, partial, err := scorer.ScoreAll(ctx, clauses)
	if err != nil {
		return nil, err
	}

	overall := report.OverallScore(scores, scorer.Config.SeverityWeights)
	proj := projection.Build(scores, overall, a.opts.Projection)
	if proj.Distribution.Degenerate {
		a.log.Debug("distribution is degenerate", zap.Int("points", len(proj.Distribution.Points)))
	}

	rep, err := report.Assemble(report.AssembleInput{
		Clauses:         clauses,
		Scores:          scores,
		Projections:     proj,
		SeverityWeights: scorer.Config.SeverityWeights,
		Partial:         partial,
		CatalogVersion:  a.catalog.Version,
		ModelID:         a.catalog.ModelID,
	})
	if err != nil {
		return nil, err
	}

	a.log.Info("analysis complete",
		zap.Int("clauses", len(clauses)),
		zap.Int("unscored", rep.Unscored),
		zap.Float64("overall", rep.OverallRiskScore),
		zap.Bool("partial", rep.Partial),
		zap.Duration("took", time.Since(start)))
	return rep, nil
}
