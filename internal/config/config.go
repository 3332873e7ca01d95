package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// MeshConfig controls the resolution and smoothing of the risk density mesh.
type MeshConfig struct {
	Rows      int     `yaml:"rows"`
	Cols      int     `yaml:"cols"`
	Bandwidth float64 `yaml:"bandwidth"`
}

// AnalysisConfig holds the tunable parameters of the analysis pipeline.
//
// Defaults are documented on DefaultConfig and must stay stable across
// versions: they feed directly into report scores, so changing a default
// changes every report produced afterwards.
type AnalysisConfig struct {
	SimilarityThresholdCritical float64            `yaml:"similarity_threshold_critical"`
	SeverityWeights             map[string]float64 `yaml:"severity_weights,omitempty"`
	Mesh                        MeshConfig         `yaml:"mesh"`
	MinClauseTokens             int                `yaml:"min_clause_tokens"`
	MinDocumentLen              int                `yaml:"min_document_len"`
	MaxEmbeddingRetries         int                `yaml:"max_embedding_retries"`
	Concurrency                 int                `yaml:"concurrency"`
}

// Config is the in-memory representation of ~/.clauselens/clauselens.yaml.
type Config struct {
	ReportsDir string         `yaml:"reports_dir,omitempty"`
	Analysis   AnalysisConfig `yaml:"analysis"`
}

// ClauselensDir returns the absolute path to ~/.clauselens/.
func ClauselensDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".clauselens"), nil
}

// ConfigPath returns the absolute path to ~/.clauselens/clauselens.yaml.
func ConfigPath() (string, error) {
	dir, err := ClauselensDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "clauselens.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// DefaultConfig returns the default Config written on first clauselens init.
//
// Analysis defaults:
//   - similarity_threshold_critical: 0.8
//   - severity_weights: critical 1.0, high 0.7, medium 0.4, low 0.1
//   - mesh: 20x20 grid, kernel bandwidth 2.5 cells
//   - min_clause_tokens: 4
//   - min_document_len: 20 characters
//   - max_embedding_retries: 3
//   - concurrency: 4 embedding calls in flight
func DefaultConfig() (*Config, error) {
	dir, err := ClauselensDir()
	if err != nil {
		return nil, err
	}
	return &Config{
		ReportsDir: filepath.Join(dir, "reports"),
		Analysis: AnalysisConfig{
			SimilarityThresholdCritical: 0.8,
			SeverityWeights: map[string]float64{
				"critical": 1.0,
				"high":     0.7,
				"medium":   0.4,
				"low":      0.1,
			},
			Mesh: MeshConfig{
				Rows:      20,
				Cols:      20,
				Bandwidth: 2.5,
			},
			MinClauseTokens:     4,
			MinDocumentLen:      20,
			MaxEmbeddingRetries: 3,
			Concurrency:         4,
		},
	}, nil
}

// Load reads and parses ~/.clauselens/clauselens.yaml.
//
// Missing or zero fields fall back to the documented defaults so old config
// files keep working when new knobs are added.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig()
		}
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	cfg.ReportsDir, err = ExpandPath(cfg.ReportsDir)
	if err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Save marshals cfg and writes it to ~/.clauselens/clauselens.yaml.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	def, err := DefaultConfig()
	if err != nil {
		return
	}
	a := &cfg.Analysis
	d := def.Analysis
	if cfg.ReportsDir == "" {
		cfg.ReportsDir = def.ReportsDir
	}
	if a.SimilarityThresholdCritical == 0 {
		a.SimilarityThresholdCritical = d.SimilarityThresholdCritical
	}
	if len(a.SeverityWeights) == 0 {
		a.SeverityWeights = d.SeverityWeights
	}
	if a.Mesh.Rows == 0 {
		a.Mesh.Rows = d.Mesh.Rows
	}
	if a.Mesh.Cols == 0 {
		a.Mesh.Cols = d.Mesh.Cols
	}
	if a.Mesh.Bandwidth == 0 {
		a.Mesh.Bandwidth = d.Mesh.Bandwidth
	}
	if a.MinClauseTokens == 0 {
		a.MinClauseTokens = d.MinClauseTokens
	}
	if a.MinDocumentLen == 0 {
		a.MinDocumentLen = d.MinDocumentLen
	}
	if a.MaxEmbeddingRetries == 0 {
		a.MaxEmbeddingRetries = d.MaxEmbeddingRetries
	}
	if a.Concurrency == 0 {
		a.Concurrency = d.Concurrency
	}
}
