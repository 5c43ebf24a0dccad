// Package tools exposes the search and fetch operations as MCP tools.
package tools

import (
	"context"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/young1lin/websearch-mcp/internal/models"
	"github.com/young1lin/websearch-mcp/pkg/logger"
)

const (
	SearchToolName = "search"
	FetchToolName  = "fetch"
)

// Searcher never fails; errors come back as a sentinel result
type Searcher interface {
	Search(ctx context.Context, query string, limit int) []models.SearchResult
}

// Fetcher never fails; errors come back inside the FetchResult
type Fetcher interface {
	Fetch(ctx context.Context, req models.FetchRequest) models.FetchResult
}

// Dispatcher validates tool arguments and hands them to the search and fetch
// components
type Dispatcher struct {
	searcher Searcher
	fetcher  Fetcher
	defaults Defaults
	log      *zap.Logger
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(searcher Searcher, fetcher Fetcher, defaults Defaults, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		searcher: searcher,
		fetcher:  fetcher,
		defaults: defaults,
		log:      log,
	}
}

// NewServer builds an MCP server with the search and fetch tools registered
func (d *Dispatcher) NewServer(name, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, &mcp.ServerOptions{
		Instructions: "Use search to find pages on the web (DuckDuckGo) and fetch to read a URL.",
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        SearchToolName,
		Description: "Web search tool (DuckDuckGo HTML). Returns up to limit results with title, url and description.",
		Annotations: &mcp.ToolAnnotations{Title: "Web search", ReadOnlyHint: true},
	}, d.handleSearch)

	mcp.AddTool(server, &mcp.Tool{
		Name: FetchToolName,
		Description: "HTTP GET a URL. Returns status, headers and the body decoded as text, truncated to max_bytes. " +
			"Binary content types are not returned.",
		Annotations: &mcp.ToolAnnotations{Title: "Fetch URL", ReadOnlyHint: true},
	}, d.handleFetch)

	return server
}

func (d *Dispatcher) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, in models.SearchInput) (*mcp.CallToolResult, models.SearchResponse, error) {
	ctx, log := d.trace(ctx)

	req, err := normalizeSearch(in, d.defaults)
	if err != nil {
		log.Info("rejected search call", zap.Error(err))
		return nil, models.SearchResponse{}, err
	}

	log.Debug("search call", zap.String("query", req.Query), zap.Int("limit", req.Limit))
	results := d.searcher.Search(ctx, req.Query, req.Limit)
	if results == nil {
		results = []models.SearchResult{}
	}
	return nil, models.SearchResponse{Results: results}, nil
}

func (d *Dispatcher) handleFetch(ctx context.Context, _ *mcp.CallToolRequest, in models.FetchInput) (*mcp.CallToolResult, models.FetchResult, error) {
	ctx, log := d.trace(ctx)

	req, err := normalizeFetch(in, d.defaults)
	if err != nil {
		log.Info("rejected fetch call", zap.Error(err))
		return nil, models.FetchResult{}, err
	}

	log.Debug("fetch call",
		zap.String("url", req.URL),
		zap.Int("max_bytes", req.MaxBytes),
		zap.Int("timeout_ms", req.TimeoutMS),
		zap.Bool("follow_redirects", req.FollowRedirects),
	)
	return nil, d.fetcher.Fetch(ctx, req), nil
}

// trace makes sure ctx carries a trace ID and returns a logger tagged with it
func (d *Dispatcher) trace(ctx context.Context) (context.Context, *zap.Logger) {
	traceID := logger.TraceIDFromContext(ctx)
	if traceID == "" {
		traceID = NewTraceID()
		ctx = logger.ContextWithTraceID(ctx, traceID)
	}
	return ctx, logger.WithTraceID(d.log, traceID)
}

// NewTraceID returns a short random identifier for log correlation
func NewTraceID() string {
	return uuid.New().String()[:16]
}
