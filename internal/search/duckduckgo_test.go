package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/young1lin/websearch-mcp/internal/config"
	"github.com/young1lin/websearch-mcp/internal/httpclient"
)

func loadFixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/results.html")
	require.NoError(t, err)
	return data
}

func newTestProvider(endpoint string) *DuckDuckGoProvider {
	return NewDuckDuckGoProvider(&config.SearchConfig{
		Endpoint:  endpoint,
		TimeoutMS: 2000,
		MaxLimit:  10,
		UserAgent: "test-agent",
	}, httpclient.New(func(string) string { return "" }, nil), nil)
}

func TestParseResults(t *testing.T) {
	page := loadFixture(t)

	t.Run("Skips incomplete containers", func(t *testing.T) {
		results, err := parseResults(strings.NewReader(string(page)), 10)
		require.NoError(t, err)
		require.Len(t, results, 3)

		assert.Equal(t, "The Go Programming Language", results[0].Title)
		assert.Equal(t, "https://go.dev/", results[0].URL)
		assert.Equal(t, "Go is an open source programming language.", results[0].Description)

		assert.Equal(t, "Go Packages", results[1].Title)
		assert.Equal(t, "https://pkg.go.dev/", results[1].URL)
		assert.Empty(t, results[1].Description)

		assert.Equal(t, "Documentation - Go", results[2].Title)
		assert.Equal(t, "The Go docs.", results[2].Description)
	})

	t.Run("Respects limit", func(t *testing.T) {
		for limit := 1; limit <= 10; limit++ {
			results, err := parseResults(strings.NewReader(string(page)), limit)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(results), limit)
			for _, r := range results {
				assert.NotEmpty(t, r.Title)
				assert.NotEmpty(t, r.URL)
			}
		}

		results, err := parseResults(strings.NewReader(string(page)), 2)
		require.NoError(t, err)
		require.Len(t, results, 2)
		// skipped containers do not count against the limit
		assert.Equal(t, "https://pkg.go.dev/", results[1].URL)
	})

	t.Run("No containers", func(t *testing.T) {
		results, err := parseResults(strings.NewReader("<html><body><p>nothing</p></body></html>"), 5)
		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)
	})
}

func TestDuckDuckGoProvider_Search(t *testing.T) {
	page := loadFixture(t)

	t.Run("Request shape", func(t *testing.T) {
		var got *http.Request
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.Clone(context.Background())
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write(page)
		}))
		defer srv.Close()

		results, err := newTestProvider(srv.URL+"/html/").Search(context.Background(), "golang tips", 5)
		require.NoError(t, err)
		assert.Len(t, results, 3)

		require.NotNil(t, got)
		assert.Equal(t, http.MethodGet, got.Method)
		assert.Equal(t, "/html/", got.URL.Path)
		assert.Equal(t, "golang tips", got.URL.Query().Get("q"))
		assert.Equal(t, "0", got.URL.Query().Get("s"))
		assert.Equal(t, "test-agent", got.Header.Get("User-Agent"))
		assert.Equal(t, "identity", got.Header.Get("Accept-Encoding"))
		assert.Equal(t, "en-US,en;q=0.5", got.Header.Get("Accept-Language"))
		assert.Contains(t, got.Header.Get("Accept"), "text/html")
	})

	t.Run("Clamps out of range limit", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write(page)
		}))
		defer srv.Close()

		p := newTestProvider(srv.URL)
		results, err := p.Search(context.Background(), "go", 0)
		require.NoError(t, err)
		assert.Len(t, results, 1)

		results, err = p.Search(context.Background(), "go", 99)
		require.NoError(t, err)
		assert.Len(t, results, 3)
	})

	t.Run("Configured max_limit cannot exceed ceiling", func(t *testing.T) {
		var page strings.Builder
		page.WriteString("<html><body>")
		for i := 0; i < 20; i++ {
			fmt.Fprintf(&page, `<div class="result"><h2 class="result__title"><a href="https://e.example/%d">hit %d</a></h2></div>`, i, i)
		}
		page.WriteString("</body></html>")

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(page.String()))
		}))
		defer srv.Close()

		cfg := &config.SearchConfig{Endpoint: srv.URL, MaxLimit: 50}
		p := NewDuckDuckGoProvider(cfg, httpclient.New(func(string) string { return "" }, nil), nil)

		results, err := p.Search(context.Background(), "go", 50)
		require.NoError(t, err)
		assert.Len(t, results, 10)
	})

	t.Run("Does not modify caller config", func(t *testing.T) {
		cfg := &config.SearchConfig{}
		NewDuckDuckGoProvider(cfg, httpclient.New(func(string) string { return "" }, nil), nil)

		assert.Equal(t, config.SearchConfig{}, *cfg)
	})

	t.Run("Non-2xx is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		_, err := newTestProvider(srv.URL).Search(context.Background(), "go", 5)
		assert.ErrorContains(t, err, "403")
	})

	t.Run("Timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer srv.Close()

		p := NewDuckDuckGoProvider(&config.SearchConfig{Endpoint: srv.URL, TimeoutMS: 50},
			httpclient.New(func(string) string { return "" }, nil), nil)
		_, err := p.Search(context.Background(), "go", 5)
		assert.Error(t, err)
	})
}
