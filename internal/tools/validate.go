package tools

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/young1lin/websearch-mcp/internal/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Defaults are applied to optional tool arguments
type Defaults struct {
	SearchLimit    int
	SearchMaxLimit int
	FetchMaxBytes  int
	FetchTimeoutMS int
}

// DefaultDefaults mirrors the documented tool defaults
func DefaultDefaults() Defaults {
	return Defaults{
		SearchLimit:    5,
		SearchMaxLimit: 10,
		FetchMaxBytes:  200000,
		FetchTimeoutMS: 15000,
	}
}

// SearchRequest is a validated search call
type SearchRequest struct {
	Query string
	Limit int
}

// normalizeSearch checks required fields and resolves limit: absent or
// non-positive means the default, anything above the ceiling is clamped.
func normalizeSearch(in models.SearchInput, d Defaults) (SearchRequest, error) {
	in.Query = strings.TrimSpace(in.Query)
	if err := validate.Struct(in); err != nil {
		return SearchRequest{}, describe(err)
	}

	limit := in.Limit
	if limit <= 0 {
		limit = d.SearchLimit
	}
	if limit > d.SearchMaxLimit {
		limit = d.SearchMaxLimit
	}
	if limit < 1 {
		limit = 1
	}
	return SearchRequest{Query: in.Query, Limit: limit}, nil
}

func normalizeFetch(in models.FetchInput, d Defaults) (models.FetchRequest, error) {
	in.URL = strings.TrimSpace(in.URL)
	in.Format = strings.ToLower(strings.TrimSpace(in.Format))
	if err := validate.Struct(in); err != nil {
		return models.FetchRequest{}, describe(err)
	}

	req := models.FetchRequest{
		URL:             in.URL,
		MaxBytes:        in.MaxBytes,
		TimeoutMS:       in.TimeoutMS,
		FollowRedirects: true,
		Format:          in.Format,
	}
	if req.MaxBytes <= 0 {
		req.MaxBytes = d.FetchMaxBytes
	}
	if req.TimeoutMS <= 0 {
		req.TimeoutMS = d.FetchTimeoutMS
	}
	if in.FollowRedirects != nil {
		req.FollowRedirects = *in.FollowRedirects
	}
	if req.Format == "" {
		req.Format = models.FormatText
	}
	return req, nil
}

// describe turns validator output into a message naming the JSON fields
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid arguments: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := jsonName(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", field, fe.Tag()))
		}
	}
	return fmt.Errorf("invalid arguments: %s", strings.Join(msgs, "; "))
}

func jsonName(field string) string {
	switch field {
	case "URL":
		return "url"
	case "Query":
		return "query"
	case "Format":
		return "format"
	default:
		return strings.ToLower(field)
	}
}
