package search

import (
	"context"

	"github.com/young1lin/websearch-mcp/internal/models"
)

// Provider defines the interface for search providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Search performs a search query and returns at most limit results.
	// Transport and parse failures are returned as errors.
	Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error)
}
