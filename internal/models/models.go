package models

// SearchResult represents a single scraped search hit
type SearchResult struct {
	Title       string `json:"title" jsonschema:"result title"`
	URL         string `json:"url" jsonschema:"result link as it appears on the results page"`
	Description string `json:"description" jsonschema:"result snippet, may be empty"`
}

// SearchResponse is the structured output of the search tool
type SearchResponse struct {
	Results []SearchResult `json:"results" jsonschema:"search hits in page order"`
}

// FetchResult is the uniform result of a fetch, including failed ones.
// Status 0 means no HTTP response was obtained; Body then holds the error text.
type FetchResult struct {
	URL         string            `json:"url" jsonschema:"the requested URL"`
	FinalURL    string            `json:"final_url" jsonschema:"the URL after redirects"`
	Status      int               `json:"status" jsonschema:"HTTP status code, 0 on transport failure"`
	ContentType *string           `json:"content_type" jsonschema:"value of the content-type header"`
	Encoding    *string           `json:"encoding" jsonschema:"charset used to decode the body"`
	Headers     map[string]string `json:"headers" jsonschema:"response headers with lower-cased names"`
	Body        string            `json:"body" jsonschema:"decoded body, binary sentinel or error message"`
	Truncated   bool              `json:"truncated" jsonschema:"true if the body exceeded max_bytes"`
}

// FetchRequest carries normalised fetch parameters
type FetchRequest struct {
	URL             string
	MaxBytes        int
	TimeoutMS       int
	FollowRedirects bool
	Format          string
}

const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
)

// SearchInput is the argument object of the search tool
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query" validate:"required"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results, 1 to 10, default 5"`
}

// FetchInput is the argument object of the fetch tool
type FetchInput struct {
	URL             string `json:"url" jsonschema:"URL to fetch" validate:"required"`
	MaxBytes        int    `json:"max_bytes,omitempty" jsonschema:"byte ceiling for the body, default 200000"`
	TimeoutMS       int    `json:"timeout_ms,omitempty" jsonschema:"request timeout in milliseconds, default 15000"`
	FollowRedirects *bool  `json:"follow_redirects,omitempty" jsonschema:"follow up to 5 redirects, default true"`
	Format          string `json:"format,omitempty" jsonschema:"text (default) or markdown; markdown converts HTML bodies" validate:"omitempty,oneof=text markdown"`
}
