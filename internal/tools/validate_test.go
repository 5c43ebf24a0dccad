package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/young1lin/websearch-mcp/internal/models"
)

func boolPtr(b bool) *bool { return &b }

func TestNormalizeSearch(t *testing.T) {
	d := DefaultDefaults()

	tests := []struct {
		name      string
		in        models.SearchInput
		wantLimit int
	}{
		{"absent limit", models.SearchInput{Query: "go"}, 5},
		{"in range", models.SearchInput{Query: "go", Limit: 3}, 3},
		{"lower bound", models.SearchInput{Query: "go", Limit: 1}, 1},
		{"upper bound", models.SearchInput{Query: "go", Limit: 10}, 10},
		{"above range", models.SearchInput{Query: "go", Limit: 50}, 10},
		{"negative", models.SearchInput{Query: "go", Limit: -2}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := normalizeSearch(tt.in, d)
			require.NoError(t, err)
			assert.Equal(t, "go", req.Query)
			assert.Equal(t, tt.wantLimit, req.Limit)
		})
	}

	t.Run("Blank query", func(t *testing.T) {
		_, err := normalizeSearch(models.SearchInput{Query: "   "}, d)
		assert.EqualError(t, err, "invalid arguments: query is required")
	})
}

func TestNormalizeFetch(t *testing.T) {
	d := DefaultDefaults()

	t.Run("Defaults", func(t *testing.T) {
		req, err := normalizeFetch(models.FetchInput{URL: " https://example.com/a "}, d)
		require.NoError(t, err)
		assert.Equal(t, models.FetchRequest{
			URL:             "https://example.com/a",
			MaxBytes:        200000,
			TimeoutMS:       15000,
			FollowRedirects: true,
			Format:          models.FormatText,
		}, req)
	})

	t.Run("Explicit values", func(t *testing.T) {
		req, err := normalizeFetch(models.FetchInput{
			URL:             "http://example.com/",
			MaxBytes:        10,
			TimeoutMS:       500,
			FollowRedirects: boolPtr(false),
			Format:          "Markdown",
		}, d)
		require.NoError(t, err)
		assert.Equal(t, 10, req.MaxBytes)
		assert.Equal(t, 500, req.TimeoutMS)
		assert.False(t, req.FollowRedirects)
		assert.Equal(t, models.FormatMarkdown, req.Format)
	})

	t.Run("Malformed URLs reach the fetcher", func(t *testing.T) {
		for _, raw := range []string{"example.com/page", "ftp://example.com/file", "http://exa mple.com/"} {
			req, err := normalizeFetch(models.FetchInput{URL: raw}, d)
			require.NoError(t, err, raw)
			assert.Equal(t, raw, req.URL)
		}
	})

	t.Run("Invalid arguments", func(t *testing.T) {
		tests := []struct {
			name string
			in   models.FetchInput
			want string
		}{
			{"missing url", models.FetchInput{}, "url is required"},
			{"blank url", models.FetchInput{URL: "  "}, "url is required"},
			{"bad format", models.FetchInput{URL: "https://example.com", Format: "pdf"}, "format must be one of [text markdown]"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := normalizeFetch(tt.in, d)
				assert.ErrorContains(t, err, tt.want)
			})
		}
	})
}
