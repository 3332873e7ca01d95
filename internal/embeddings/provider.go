package embeddings

import (
	"context"
	"fmt"
	"strconv"

	"github.com/clauselens/clauselens/internal/config"
)

// Provider embeds text into a fixed-length float vector.
//
// Implementations must be deterministic for the same input text and model
// within a session; report reproducibility depends on it. Catalog patterns and
// clauses are always embedded by the same Provider so similarities are
// comparable.
type Provider interface {
	ModelID() string
	Dim() int
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Config contains the resolved embeddings configuration.
type Config struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	// Dim is the expected embedding dimension. Zero means "accept whatever the
	// provider returns on the first call"; nonzero makes every response
	// validated against it.
	Dim int
}

// LoadConfig resolves embeddings config from environment variables first,
// then ~/.clauselens/.env.
func LoadConfig() (*Config, error) {
	provider, err := config.GetConfigValue("CLAUSELENS_EMBEDDINGS_PROVIDER")
	if err != nil {
		return nil, err
	}
	model, err := config.GetConfigValue("CLAUSELENS_EMBEDDINGS_MODEL")
	if err != nil {
		return nil, err
	}
	apiKey, err := config.GetConfigValue("CLAUSELENS_EMBEDDINGS_API_KEY")
	if err != nil {
		return nil, err
	}
	baseURL, err := config.GetConfigValue("CLAUSELENS_EMBEDDINGS_BASE_URL")
	if err != nil {
		return nil, err
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	dimStr, err := config.GetConfigValue("CLAUSELENS_EMBEDDINGS_DIM")
	if err != nil {
		return nil, err
	}
	dim := 0
	if dimStr != "" {
		dim, err = strconv.Atoi(dimStr)
		if err != nil || dim < 0 {
			return nil, fmt.Errorf("invalid CLAUSELENS_EMBEDDINGS_DIM: %q", dimStr)
		}
	}

	return &Config{
		Provider: provider,
		Model:    model,
		APIKey:   apiKey,
		BaseURL:  baseURL,
		Dim:      dim,
	}, nil
}

// NewFromConfig returns an embeddings provider.
func NewFromConfig(cfg *Config) (Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("embeddings config is nil")
	}
	if cfg.Provider == "" {
		return nil, fmt.Errorf("embeddings provider is not configured (set CLAUSELENS_EMBEDDINGS_PROVIDER)")
	}
	switch cfg.Provider {
	case "openai":
		return NewOpenAI(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported embeddings provider: %s", cfg.Provider)
	}
}
