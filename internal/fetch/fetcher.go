// Package fetch retrieves arbitrary URLs for the fetch tool and turns every
// outcome, including transport failures, into a models.FetchResult.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/young1lin/websearch-mcp/internal/config"
	"github.com/young1lin/websearch-mcp/internal/httpclient"
	"github.com/young1lin/websearch-mcp/internal/models"
	"github.com/young1lin/websearch-mcp/pkg/logger"
)

const (
	DefaultMaxBytes  = 200000
	DefaultTimeoutMS = 15000

	// UnsupportedBody replaces the body of binary responses
	UnsupportedBody = "Unsupported content-type"
)

// Doer sends HTTP requests; *httpclient.Client satisfies it
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher implements the fetch pipeline on top of the shared client
type Fetcher struct {
	client       Doer
	userAgent    string
	maxRedirects int
	log          *zap.Logger
}

// NewFetcher creates a new fetcher
func NewFetcher(cfg *config.FetchConfig, client Doer, log *zap.Logger) *Fetcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{
		client:       client,
		userAgent:    cfg.UserAgent,
		maxRedirects: cfg.MaxRedirects,
		log:          log,
	}
}

// Fetch performs a GET for req.URL. It never returns an error: transport
// failures yield Status 0 with the error text as Body.
func (f *Fetcher) Fetch(ctx context.Context, req models.FetchRequest) models.FetchResult {
	log := logger.FromContext(ctx, f.log).With(zap.String("url", req.URL))

	maxBytes := req.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	timeoutMS := req.TimeoutMS
	if timeoutMS <= 0 {
		timeoutMS = DefaultTimeoutMS
	}

	hops := 0
	if req.FollowRedirects {
		hops = f.maxRedirects
	}
	ctx = httpclient.WithMaxRedirects(ctx, hops)
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeoutMS)*time.Millisecond)
	defer cancel()

	start := time.Now()
	resp, raw, truncated, err := f.get(ctx, req.URL, maxBytes)
	if err != nil {
		log.Warn("fetch failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return failure(req.URL, err)
	}

	result := models.FetchResult{
		URL:       req.URL,
		FinalURL:  req.URL,
		Status:    resp.StatusCode,
		Headers:   flattenHeaders(resp.Header),
		Truncated: truncated,
	}
	if resp.Request != nil && resp.Request.URL != nil {
		result.FinalURL = resp.Request.URL.String()
	}

	var contentType string
	if values := resp.Header.Values("Content-Type"); len(values) > 0 {
		contentType = values[0]
		result.ContentType = &contentType
	}
	if cs := charsetOf(contentType); cs != "" {
		result.Encoding = &cs
	}

	if isBinary(contentType) {
		result.Body = UnsupportedBody
	} else {
		result.Body = f.decode(log, raw, &result)
		if req.Format == models.FormatMarkdown && isHTML(contentType) {
			if md, err := toMarkdown(result.Body); err != nil {
				log.Warn("markdown conversion failed, returning text", zap.Error(err))
			} else {
				result.Body = md
			}
		}
	}

	log.Info("fetch completed",
		zap.Int("status", result.Status),
		zap.String("final_url", result.FinalURL),
		zap.Int("bytes", len(raw)),
		zap.Bool("truncated", truncated),
		zap.Duration("elapsed", time.Since(start)),
	)

	return result
}

// get issues the request and reads at most maxBytes of the body. The response
// body is closed before returning.
func (f *Fetcher) get(ctx context.Context, rawURL string, maxBytes int) (*http.Response, []byte, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	if f.userAgent != "" {
		httpReq.Header.Set("User-Agent", f.userAgent)
	}
	httpReq.Header.Set("Accept", "*/*")
	// raw bytes: no transparent gzip so max_bytes counts wire bytes
	httpReq.Header.Set("Accept-Encoding", "identity")

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, nil, false, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, int64(maxBytes)+1))
	if err != nil {
		return nil, nil, false, fmt.Errorf("failed to read response: %w", err)
	}

	truncated := false
	if len(raw) > maxBytes {
		raw = raw[:maxBytes]
		truncated = true
	}
	return resp, raw, truncated, nil
}

// decode turns raw into text, falling back to UTF-8 when the declared charset
// cannot be used
func (f *Fetcher) decode(log *zap.Logger, raw []byte, result *models.FetchResult) string {
	charset := ""
	if result.Encoding != nil {
		charset = *result.Encoding
	}

	text, ok := decodeText(raw, charset)
	if !ok {
		log.Warn("unsupported charset, decoded as utf-8", zap.String("charset", charset))
		if result.Encoding == nil {
			enc := defaultCharset
			result.Encoding = &enc
		}
	}
	return text
}

func failure(rawURL string, err error) models.FetchResult {
	return models.FetchResult{
		URL:      rawURL,
		FinalURL: rawURL,
		Status:   0,
		Headers:  map[string]string{},
		Body:     errorText(err),
	}
}

// errorText never returns an empty string so callers always see a reason
func errorText(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out: " + err.Error()
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "request failed"
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[strings.ToLower(k)] = strings.Join(v, ", ")
	}
	return out
}
