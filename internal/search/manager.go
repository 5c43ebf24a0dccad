package search

import (
	"context"

	"go.uber.org/zap"

	"github.com/young1lin/websearch-mcp/internal/models"
	"github.com/young1lin/websearch-mcp/pkg/logger"
)

// ErrorTitle marks the sentinel result returned when a search fails
const ErrorTitle = "Search error"

// Manager fronts a Provider for the tool layer. It never returns an error:
// failures become a single sentinel result.
type Manager struct {
	provider Provider
	log      *zap.Logger
}

// NewManager creates a new search manager
func NewManager(provider Provider, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("search manager initialized", zap.String("provider", provider.Name()))
	return &Manager{provider: provider, log: log}
}

// Search runs query against the provider
func (m *Manager) Search(ctx context.Context, query string, limit int) []models.SearchResult {
	results, err := m.provider.Search(ctx, query, limit)
	if err != nil {
		logger.FromContext(ctx, m.log).Warn("search failed",
			zap.String("provider", m.provider.Name()),
			zap.String("query", query),
			zap.Error(err),
		)
		return []models.SearchResult{{
			Title:       ErrorTitle,
			URL:         "",
			Description: err.Error(),
		}}
	}
	return results
}
