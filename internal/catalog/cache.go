package catalog

import (
	"bufio"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// The cache directory holds three artifacts, mirroring how the pattern set is
// held in memory:
//
//	catalog_manifest.json  model id, dim, catalog version
//	patterns.jsonl         one row per pattern with its text hash
//	vectors.f32            little-endian float32 embeddings, row-major
type cacheManifest struct {
	CacheVersion   int    `json:"cache_version"`
	CreatedAt      string `json:"created_at"`
	CatalogVersion string `json:"catalog_version"`
	ModelID        string `json:"model_id"`
	Dim            int    `json:"dim"`
	VectorFile     string `json:"vector_file"`
	PatternsFile   string `json:"patterns_file"`
}

type cacheEntry struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	TextHash    string `json:"text_hash"`
}

// patternHash returns a sha256 hash (hex) of a pattern's canonical text.
// The category is part of the hash so reclassifying a pattern invalidates
// its cached vector.
func patternHash(p Pattern) string {
	text := "category: " + p.Category.String() + "\n" + p.Description
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// loadCache returns cached embeddings keyed by pattern hash. Any problem with
// the cache (missing, stale model, corrupt files) yields an empty map; the
// caller simply re-embeds.
func loadCache(dir, catalogVersion, modelID string) map[string][]float32 {
	if dir == "" {
		return nil
	}
	manifestPath := filepath.Join(dir, "catalog_manifest.json")
	b, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil
	}
	var m cacheManifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	if m.Dim <= 0 || m.ModelID != modelID || m.CatalogVersion != catalogVersion {
		return nil
	}
	if m.VectorFile == "" {
		m.VectorFile = "vectors.f32"
	}
	if m.PatternsFile == "" {
		m.PatternsFile = "patterns.jsonl"
	}

	entries, err := loadCacheEntries(filepath.Join(dir, m.PatternsFile))
	if err != nil {
		return nil
	}
	vectors, err := loadCacheVectors(filepath.Join(dir, m.VectorFile), len(entries), m.Dim)
	if err != nil {
		return nil
	}

	out := make(map[string][]float32, len(entries))
	for i, e := range entries {
		if e.TextHash == "" {
			continue
		}
		v := make([]float32, m.Dim)
		copy(v, vectors[i*m.Dim:(i+1)*m.Dim])
		out[e.TextHash] = v
	}
	return out
}

func loadCacheEntries(path string) ([]cacheEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open patterns file %s: %w", path, err)
	}
	defer f.Close()

	var out []cacheEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e cacheEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("invalid patterns JSONL %s: %w", path, err)
		}
		out = append(out, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read patterns file %s: %w", path, err)
	}
	return out, nil
}

func loadCacheVectors(path string, nPatterns, dim int) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open vector file %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("cannot stat vector file %s: %w", path, err)
	}
	expected := int64(nPatterns * dim * 4)
	if st.Size() != expected {
		return nil, fmt.Errorf("vector file size mismatch: got %d want %d (patterns=%d dim=%d)",
			st.Size(), expected, nPatterns, dim)
	}

	out := make([]float32, nPatterns*dim)
	if err := binary.Read(io.LimitReader(f, expected), binary.LittleEndian, out); err != nil {
		return nil, fmt.Errorf("cannot read vectors from %s: %w", path, err)
	}
	return out, nil
}

// writeCache writes the catalog's embeddings to dir.
func writeCache(dir string, c *Catalog) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create cache dir: %w", err)
	}

	manifest := cacheManifest{
		CacheVersion:   1,
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
		CatalogVersion: c.Version,
		ModelID:        c.ModelID,
		Dim:            c.Dim,
		VectorFile:     "vectors.f32",
		PatternsFile:   "patterns.jsonl",
	}

	var lines []byte
	vectors := make([]float32, 0, len(c.Patterns)*c.Dim)
	for _, p := range c.Patterns {
		e := cacheEntry{
			Category:    p.Category.String(),
			Description: p.Description,
			TextHash:    patternHash(p),
		}
		b, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("cannot marshal pattern entry: %w", err)
		}
		lines = append(lines, b...)
		lines = append(lines, '\n')
		vectors = append(vectors, p.Embedding...)
	}
	if err := os.WriteFile(filepath.Join(dir, manifest.PatternsFile), lines, 0o644); err != nil {
		return fmt.Errorf("cannot write patterns file: %w", err)
	}

	vf, err := os.Create(filepath.Join(dir, manifest.VectorFile))
	if err != nil {
		return fmt.Errorf("cannot create vector file: %w", err)
	}
	if err := binary.Write(vf, binary.LittleEndian, vectors); err != nil {
		_ = vf.Close()
		return fmt.Errorf("cannot write vectors: %w", err)
	}
	if err := vf.Close(); err != nil {
		return fmt.Errorf("cannot close vector file: %w", err)
	}

	mb, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "catalog_manifest.json"), mb, 0o644); err != nil {
		return fmt.Errorf("cannot write manifest: %w", err)
	}
	return nil
}
