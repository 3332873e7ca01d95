package score

import "errors"

// ErrEmbeddingProvider indicates the embedding provider failed for one clause
// after all retries. It degrades that clause to Unknown; it never aborts the
// analysis.
var ErrEmbeddingProvider = errors.New("embedding provider failure")
