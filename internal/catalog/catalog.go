// Package catalog holds the versioned set of reference risk patterns that
// clauses are scored against. The pattern texts ship with the binary; their
// embeddings are computed by the same provider used for clauses and cached on
// disk per model so restarts don't re-embed unchanged patterns.
package catalog

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/clauselens/clauselens/internal/embeddings"
)

//go:embed patterns.yaml
var patternsYAML []byte

// Pattern is one catalog member: a canonical description of known risk
// language, its severity category, and its embedding.
type Pattern struct {
	Category    Category  `json:"category"`
	Description string    `json:"description"`
	Embedding   []float32 `json:"-"`
}

// Catalog is the loaded, embedded pattern set. It is read-only after Load;
// concurrent readers need no locking. Patterns keeps source order, which is
// the tie-break order for nearest-match scoring.
type Catalog struct {
	Version  string
	ModelID  string
	Dim      int
	Patterns []Pattern
}

// LoadOptions controls catalog loading.
type LoadOptions struct {
	// CacheDir is where pattern embeddings are cached between runs.
	// Empty disables the cache and every pattern is embedded fresh.
	CacheDir string
}

type sourceFile struct {
	CatalogVersion string          `yaml:"catalog_version"`
	Patterns       []sourcePattern `yaml:"patterns"`
}

type sourcePattern struct {
	Category    string `yaml:"category"`
	Description string `yaml:"description"`
}

// Parse reads the embedded pattern source and validates that every category
// has at least one entry. The returned catalog has no embeddings yet; Load
// produces the embedded form used for scoring.
func Parse() (*Catalog, error) {
	var src sourceFile
	if err := yaml.Unmarshal(patternsYAML, &src); err != nil {
		return nil, fmt.Errorf("%w: invalid patterns YAML: %v", ErrCatalogLoad, err)
	}
	if len(src.Patterns) == 0 {
		return nil, fmt.Errorf("%w: no patterns defined", ErrCatalogLoad)
	}

	patterns := make([]Pattern, 0, len(src.Patterns))
	seen := map[Category]int{}
	for i, sp := range src.Patterns {
		cat, err := ParseCategory(sp.Category)
		if err != nil {
			return nil, fmt.Errorf("%w: pattern %d: %v", ErrCatalogLoad, i, err)
		}
		if sp.Description == "" {
			return nil, fmt.Errorf("%w: pattern %d has an empty description", ErrCatalogLoad, i)
		}
		seen[cat]++
		patterns = append(patterns, Pattern{Category: cat, Description: sp.Description})
	}
	for _, c := range Categories {
		if seen[c] == 0 {
			return nil, fmt.Errorf("%w: category %s has no patterns", ErrCatalogLoad, c)
		}
	}
	return &Catalog{Version: src.CatalogVersion, Patterns: patterns}, nil
}

// Load parses the embedded pattern source and embeds each pattern with prov.
//
// All failures wrap ErrCatalogLoad: a catalog that cannot load is fatal to
// the whole pipeline, unlike per-clause embedding failures.
func Load(ctx context.Context, prov embeddings.Provider, opts LoadOptions) (*Catalog, error) {
	parsed, err := Parse()
	if err != nil {
		return nil, err
	}
	patterns := parsed.Patterns

	cached := loadCache(opts.CacheDir, parsed.Version, prov.ModelID())

	dim := 0
	for i := range patterns {
		h := patternHash(patterns[i])
		if v, ok := cached[h]; ok {
			patterns[i].Embedding = v
			if dim == 0 {
				dim = len(v)
			}
			continue
		}
		emb, err := prov.Embed(ctx, patterns[i].Description)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot embed pattern %d: %v", ErrCatalogLoad, i, err)
		}
		if dim == 0 {
			dim = len(emb)
		}
		if len(emb) != dim {
			return nil, fmt.Errorf("%w: embedding dim changed mid-load: got %d want %d", ErrCatalogLoad, len(emb), dim)
		}
		patterns[i].Embedding = emb
	}
	if dim == 0 {
		return nil, fmt.Errorf("%w: provider produced empty embeddings", ErrCatalogLoad)
	}
	for i := range patterns {
		if len(patterns[i].Embedding) != dim {
			return nil, fmt.Errorf("%w: cached embedding dim mismatch for pattern %d: got %d want %d",
				ErrCatalogLoad, i, len(patterns[i].Embedding), dim)
		}
	}

	cat := &Catalog{
		Version:  parsed.Version,
		ModelID:  prov.ModelID(),
		Dim:      dim,
		Patterns: patterns,
	}
	if opts.CacheDir != "" {
		if err := writeCache(opts.CacheDir, cat); err != nil {
			return nil, fmt.Errorf("%w: cannot write embedding cache: %v", ErrCatalogLoad, err)
		}
	}
	return cat, nil
}
