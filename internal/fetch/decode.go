package fetch

import (
	"mime"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

const defaultCharset = "utf-8"

// binaryPrefixes are content-type prefixes we refuse to decode as text
var binaryPrefixes = []string{
	"image/",
	"audio/",
	"video/",
	"application/pdf",
	"application/zip",
	"application/x-",
}

// isBinary classifies a raw content-type header value
func isBinary(contentType string) bool {
	ct := strings.ToLower(contentType)
	for _, prefix := range binaryPrefixes {
		if strings.HasPrefix(ct, prefix) {
			return true
		}
	}
	return ct == "application/octet-stream"
}

// charsetOf extracts a lower-cased charset parameter from a content-type header
func charsetOf(contentType string) string {
	if contentType == "" {
		return ""
	}
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		return strings.ToLower(strings.TrimSpace(params["charset"]))
	}
	// tolerate headers mime rejects, e.g. duplicate parameters
	parts := strings.Split(contentType, ";")
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		if len(p) > len("charset=") && strings.EqualFold(p[:len("charset=")], "charset=") {
			return strings.ToLower(strings.Trim(strings.TrimSpace(p[len("charset="):]), `"'`))
		}
	}
	return ""
}

// decodeText decodes raw with the named charset. Invalid sequences become
// U+FFFD. The second return is false when the charset is unknown or its
// decoder failed and UTF-8 was used instead.
func decodeText(raw []byte, charset string) (string, bool) {
	if charset == "" {
		charset = defaultCharset
	}
	if enc, err := htmlindex.Get(charset); err == nil {
		if out, err := enc.NewDecoder().Bytes(raw); err == nil {
			return string(out), true
		}
	}
	return decodeUTF8(raw), false
}

func decodeUTF8(raw []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), "\uFFFD")
	}
	return string(out)
}

func isHTML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

func toMarkdown(html string) (string, error) {
	return htmltomarkdown.ConvertString(html)
}
