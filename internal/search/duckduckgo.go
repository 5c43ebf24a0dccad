package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/young1lin/websearch-mcp/internal/config"
	"github.com/young1lin/websearch-mcp/internal/models"
	"github.com/young1lin/websearch-mcp/pkg/logger"
)

const (
	DefaultEndpoint = "https://html.duckduckgo.com/html/"

	resultSelector  = ".result"
	titleSelector   = ".result__title a"
	snippetSelector = ".result__snippet"
)

// Doer sends HTTP requests; *httpclient.Client satisfies it
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DuckDuckGoProvider scrapes the DuckDuckGo HTML endpoint
type DuckDuckGoProvider struct {
	endpoint  string
	userAgent string
	timeout   time.Duration
	maxLimit  int
	client    Doer
	log       *zap.Logger
}

// NewDuckDuckGoProvider creates a new DuckDuckGo provider
func NewDuckDuckGoProvider(cfg *config.SearchConfig, client Doer, log *zap.Logger) *DuckDuckGoProvider {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	timeoutMS := cfg.TimeoutMS
	if timeoutMS <= 0 {
		timeoutMS = 15000
	}
	maxLimit := cfg.MaxLimit
	if maxLimit <= 0 || maxLimit > config.MaxSearchLimit {
		maxLimit = config.MaxSearchLimit
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &DuckDuckGoProvider{
		endpoint:  endpoint,
		userAgent: cfg.UserAgent,
		timeout:   time.Duration(timeoutMS) * time.Millisecond,
		maxLimit:  maxLimit,
		client:    client,
		log:       log,
	}
}

// Name returns the provider name
func (p *DuckDuckGoProvider) Name() string {
	return "duckduckgo"
}

// Search fetches the results page for query and extracts up to limit hits.
// limit is clamped to [1, maxLimit].
func (p *DuckDuckGoProvider) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	log := logger.FromContext(ctx, p.log)
	limit = clamp(limit, 1, p.maxLimit)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := p.newRequest(ctx, query)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, fmt.Errorf("unexpected status code: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	results, err := parseResults(resp.Body, limit)
	if err != nil {
		return nil, err
	}

	log.Info("duckduckgo search completed",
		zap.String("query", query),
		zap.Int("limit", limit),
		zap.Int("result_count", len(results)),
	)

	return results, nil
}

func (p *DuckDuckGoProvider) newRequest(ctx context.Context, query string) (*http.Request, error) {
	u, err := url.Parse(p.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid search endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("s", "0")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	// Some proxies mangle compressed payloads. Setting the header ourselves
	// also stops net/http from asking for gzip.
	req.Header.Set("Accept-Encoding", "identity")
	req.Header.Set("Referer", "https://duckduckgo.com/")
	return req, nil
}

// parseResults walks result containers in document order and stops as soon as
// limit records have been collected. Containers without a title or link are
// skipped and do not count.
func parseResults(r io.Reader, limit int) ([]models.SearchResult, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse results page: %w", err)
	}

	results := make([]models.SearchResult, 0, limit)
	doc.Find(resultSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(results) >= limit {
			return false
		}

		anchor := s.Find(titleSelector).First()
		if anchor.Length() == 0 {
			return true
		}

		title := strings.TrimSpace(anchor.Text())
		href, _ := anchor.Attr("href")
		href = strings.TrimSpace(href)
		if title == "" || href == "" {
			return true
		}

		results = append(results, models.SearchResult{
			Title:       title,
			URL:         href,
			Description: strings.TrimSpace(s.Find(snippetSelector).First().Text()),
		})
		return len(results) < limit
	})

	return results, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
