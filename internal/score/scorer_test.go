package score

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/clauselens/clauselens/internal/catalog"
	"github.com/clauselens/clauselens/internal/segment"
)

// axisCatalog returns a catalog with one pattern per category, each on its
// own axis, so test clauses can dial in exact similarities.
func axisCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		Version: "test",
		ModelID: "stub:test",
		Dim:     4,
		Patterns: []catalog.Pattern{
			{Category: catalog.Critical, Description: "critical anchor", Embedding: []float32{1, 0, 0, 0}},
			{Category: catalog.High, Description: "high anchor", Embedding: []float32{0, 1, 0, 0}},
			{Category: catalog.Medium, Description: "medium anchor", Embedding: []float32{0, 0, 1, 0}},
			{Category: catalog.Low, Description: "low anchor", Embedding: []float32{0, 0, 0, 1}},
		},
	}
}

// mapProvider returns fixed vectors per clause text and can fail persistently
// for chosen texts.
type mapProvider struct {
	mu    sync.Mutex
	vecs  map[string][]float32
	fail  map[string]bool
	calls map[string]int
}

func (p *mapProvider) ModelID() string { return "stub:test" }
func (p *mapProvider) Dim() int        { return 4 }

func (p *mapProvider) Embed(_ context.Context, text string) ([]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calls == nil {
		p.calls = map[string]int{}
	}
	p.calls[text]++
	if p.fail[text] {
		return nil, errors.New("provider down")
	}
	v, ok := p.vecs[text]
	if !ok {
		return []float32{0, 0, 0, 1}, nil
	}
	return v, nil
}

func clausesFromTexts(texts ...string) []segment.Clause {
	out := make([]segment.Clause, len(texts))
	pos := 0
	for i, tx := range texts {
		out[i] = segment.Clause{Index: i, Text: tx, Start: pos, End: pos + len(tx)}
		pos += len(tx) + 1
	}
	return out
}

func TestScoreAll_CriticalDominates(t *testing.T) {
	// cos to the Critical anchor is exactly 0.95, above the 0.8 threshold.
	v := []float32{0.95, float32(math.Sqrt(1 - 0.95*0.95)), 0, 0}
	prov := &mapProvider{vecs: map[string][]float32{"c0": v}}

	s := New(prov, axisCatalog(), Config{RetryBackoff: time.Millisecond}, nil)
	scores, partial, err := s.ScoreAll(context.Background(), clausesFromTexts("c0"))
	if err != nil {
		t.Fatalf("ScoreAll: %v", err)
	}
	if partial {
		t.Fatal("unexpected partial flag")
	}
	sc := scores[0]
	if sc.Category != catalog.Critical {
		t.Fatalf("category = %s, want critical", sc.Category)
	}
	if math.Abs(sc.RawScore-0.95) > 1e-6 {
		t.Fatalf("raw score = %v, want 0.95", sc.RawScore)
	}
	if sc.NearestPattern != 0 {
		t.Fatalf("nearest pattern = %d, want 0", sc.NearestPattern)
	}
}

func TestScoreAll_FallbackBlend(t *testing.T) {
	// Clause sits on the High axis: no Critical match above threshold, so the
	// score is the severity-weighted mean 0.7*1 / (1.0+0.7+0.4+0.1).
	prov := &mapProvider{vecs: map[string][]float32{"c0": {0, 1, 0, 0}}}

	s := New(prov, axisCatalog(), Config{RetryBackoff: time.Millisecond}, nil)
	scores, _, err := s.ScoreAll(context.Background(), clausesFromTexts("c0"))
	if err != nil {
		t.Fatalf("ScoreAll: %v", err)
	}
	sc := scores[0]
	if sc.Category != catalog.High {
		t.Fatalf("category = %s, want high", sc.Category)
	}
	want := 0.7 / 2.2
	if math.Abs(sc.RawScore-want) > 1e-9 {
		t.Fatalf("raw score = %v, want %v", sc.RawScore, want)
	}
}

func TestScoreAll_TieBreaksByInsertionOrder(t *testing.T) {
	cat := &catalog.Catalog{
		Version: "test",
		ModelID: "stub:test",
		Dim:     4,
		Patterns: []catalog.Pattern{
			{Category: catalog.Medium, Description: "first", Embedding: []float32{0, 0, 1, 0}},
			{Category: catalog.High, Description: "duplicate", Embedding: []float32{0, 0, 1, 0}},
			{Category: catalog.Critical, Description: "critical anchor", Embedding: []float32{1, 0, 0, 0}},
			{Category: catalog.Low, Description: "low anchor", Embedding: []float32{0, 0, 0, 1}},
		},
	}
	prov := &mapProvider{vecs: map[string][]float32{"c0": {0, 0, 1, 0}}}

	s := New(prov, cat, Config{RetryBackoff: time.Millisecond}, nil)
	scores, _, err := s.ScoreAll(context.Background(), clausesFromTexts("c0"))
	if err != nil {
		t.Fatalf("ScoreAll: %v", err)
	}
	if scores[0].NearestPattern != 0 {
		t.Fatalf("nearest pattern = %d, want 0 (earlier entry wins ties)", scores[0].NearestPattern)
	}
	if scores[0].Category != catalog.Medium {
		t.Fatalf("category = %s, want medium", scores[0].Category)
	}
}

func TestScoreAll_PersistentFailureDegradesToUnknown(t *testing.T) {
	texts := make([]string, 10)
	vecs := map[string][]float32{}
	for i := range texts {
		texts[i] = fmt.Sprintf("c%d", i)
		vecs[texts[i]] = []float32{0, 0, 0, 1}
	}
	prov := &mapProvider{vecs: vecs, fail: map[string]bool{"c7": true}}

	s := New(prov, axisCatalog(), Config{MaxRetries: 3, RetryBackoff: time.Millisecond}, nil)
	scores, partial, err := s.ScoreAll(context.Background(), clausesFromTexts(texts...))
	if err != nil {
		t.Fatalf("ScoreAll: %v", err)
	}
	if !partial {
		t.Fatal("partial flag not set")
	}
	if len(scores) != 10 {
		t.Fatalf("got %d scores, want 10", len(scores))
	}
	unknown := 0
	for i, sc := range scores {
		if sc.ClauseIndex != i {
			t.Fatalf("score %d has clause index %d (completion order leaked)", i, sc.ClauseIndex)
		}
		if sc.Unknown {
			unknown++
			if sc.NearestPattern != -1 || sc.RawScore != 0 {
				t.Fatalf("unknown score carries data: %+v", sc)
			}
		}
	}
	if unknown != 1 {
		t.Fatalf("got %d unknown scores, want 1", unknown)
	}
	if got := prov.calls["c7"]; got != 3 {
		t.Fatalf("failing clause embedded %d times, want 3 attempts", got)
	}
}

func TestScoreAll_DimMismatchRetriesThenDegrades(t *testing.T) {
	prov := &mapProvider{vecs: map[string][]float32{"c0": {1, 0}}} // wrong dim

	s := New(prov, axisCatalog(), Config{MaxRetries: 2, RetryBackoff: time.Millisecond}, nil)
	scores, partial, err := s.ScoreAll(context.Background(), clausesFromTexts("c0"))
	if err != nil {
		t.Fatalf("ScoreAll: %v", err)
	}
	if !partial || !scores[0].Unknown {
		t.Fatalf("dim mismatch did not degrade clause: partial=%v score=%+v", partial, scores[0])
	}
	if got := prov.calls["c0"]; got != 2 {
		t.Fatalf("got %d attempts, want 2", got)
	}
}

func TestScoreAll_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	prov := &mapProvider{fail: map[string]bool{"c0": true, "c1": true}}
	s := New(prov, axisCatalog(), Config{RetryBackoff: time.Minute}, nil)
	_, _, err := s.ScoreAll(ctx, clausesFromTexts("c0", "c1"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

func TestDefaultBlend_Clamps(t *testing.T) {
	weights := DefaultConfig().SeverityWeights
	// Negative similarities clamp to zero contribution.
	got := DefaultBlend(map[catalog.Category]float64{catalog.Low: -0.9}, 0.8, weights)
	if got != 0 {
		t.Fatalf("blend of negative similarity = %v, want 0", got)
	}
	// An above-threshold critical match passes through.
	got = DefaultBlend(map[catalog.Category]float64{catalog.Critical: 0.91, catalog.High: 0.99}, 0.8, weights)
	if math.Abs(got-0.91) > 1e-9 {
		t.Fatalf("critical short-circuit = %v, want 0.91", got)
	}
	// Empty input scores zero.
	if got := DefaultBlend(nil, 0.8, weights); got != 0 {
		t.Fatalf("blend of nothing = %v, want 0", got)
	}
}
