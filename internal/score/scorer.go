package score

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/clauselens/clauselens/internal/catalog"
	"github.com/clauselens/clauselens/internal/embeddings"
	"github.com/clauselens/clauselens/internal/segment"
)

// Scorer scores clauses against a loaded catalog. The catalog is read-only,
// so a single Scorer is safe for concurrent use.
type Scorer struct {
	Provider embeddings.Provider
	Catalog  *catalog.Catalog
	Config   Config
	Log      *zap.Logger
}

// New returns a Scorer with defaults applied for any zero Config fields.
func New(prov embeddings.Provider, cat *catalog.Catalog, cfg Config, log *zap.Logger) *Scorer {
	def := DefaultConfig()
	if cfg.SimilarityThresholdCritical == 0 {
		cfg.SimilarityThresholdCritical = def.SimilarityThresholdCritical
	}
	if len(cfg.SeverityWeights) == 0 {
		cfg.SeverityWeights = def.SeverityWeights
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = def.RetryBackoff
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.Blend == nil {
		cfg.Blend = DefaultBlend
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scorer{Provider: prov, Catalog: cat, Config: cfg, Log: log}
}

// ScoreAll embeds and scores every clause, issuing embedding calls through a
// bounded worker pool. Results are written into a slice indexed by clause
// index, so completion order never leaks into data order.
//
// A clause whose embedding fails after all retries degrades to Unknown and
// sets the partial flag instead of failing the batch. The only error returned
// is context cancellation.
func (s *Scorer) ScoreAll(ctx context.Context, clauses []segment.Clause) ([]Score, bool, error) {
	results := make([]Score, len(clauses))
	var partial atomic.Bool

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Config.Concurrency)
	for i := range clauses {
		i := i
		g.Go(func() error {
			cl := clauses[i]
			emb, err := s.embedWithRetry(ctx, cl.Text)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.Log.Warn("clause degraded to unknown",
					zap.Int("clause_index", cl.Index),
					zap.Error(err))
				results[i] = Score{ClauseIndex: cl.Index, Unknown: true, NearestPattern: -1}
				partial.Store(true)
				return nil
			}
			sc, err := s.scoreEmbedding(cl.Index, emb)
			if err != nil {
				return err
			}
			results[i] = sc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, false, err
	}
	return results, partial.Load(), nil
}

// embedWithRetry calls the provider up to MaxRetries times with exponential
// backoff. A response of the wrong dimension is treated the same as a failed
// call: the shared embedding space is only meaningful at the catalog's dim.
func (s *Scorer) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	backoff := s.Config.RetryBackoff
	var lastErr error
	for attempt := 1; attempt <= s.Config.MaxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		emb, err := s.Provider.Embed(ctx, text)
		if err == nil && len(emb) != s.Catalog.Dim {
			err = fmt.Errorf("%w: embedding dim mismatch: got %d want %d",
				ErrEmbeddingProvider, len(emb), s.Catalog.Dim)
		}
		if err == nil {
			return emb, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		s.Log.Debug("embedding attempt failed",
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
	return nil, fmt.Errorf("%w: %v", ErrEmbeddingProvider, lastErr)
}

// scoreEmbedding compares one clause embedding against every catalog entry.
// The nearest pattern decides the category; ties break toward the earlier
// catalog entry because only strictly greater similarities displace the best.
func (s *Scorer) scoreEmbedding(clauseIndex int, emb []float32) (Score, error) {
	bestIdx := -1
	bestSim := 0.0
	bestByCat := map[catalog.Category]float64{}
	for i, p := range s.Catalog.Patterns {
		sim, err := catalog.Cosine(emb, p.Embedding)
		if err != nil {
			return Score{}, fmt.Errorf("cannot compare clause %d to pattern %d: %w", clauseIndex, i, err)
		}
		if bestIdx == -1 || sim > bestSim {
			bestIdx = i
			bestSim = sim
		}
		if prev, ok := bestByCat[p.Category]; !ok || sim > prev {
			bestByCat[p.Category] = sim
		}
	}

	raw := s.Config.Blend(bestByCat, s.Config.SimilarityThresholdCritical, s.Config.SeverityWeights)
	return Score{
		ClauseIndex:       clauseIndex,
		Embedding:         emb,
		RawScore:          raw,
		Category:          s.Catalog.Patterns[bestIdx].Category,
		NearestPattern:    bestIdx,
		NearestSimilarity: bestSim,
	}, nil
}
