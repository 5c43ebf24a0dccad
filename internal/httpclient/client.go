// Package httpclient builds the single outbound HTTP client shared by the
// search and fetch tools.
package httpclient

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http/httpproxy"
)

// proxyEnvKeys lists proxy variables in priority order; the first non-empty wins.
var proxyEnvKeys = []string{"HTTPS_PROXY", "https_proxy", "HTTP_PROXY", "http_proxy"}

// ProxyConfig is the proxy decision taken once per process.
// A nil URL means direct connections.
type ProxyConfig struct {
	URL     *url.URL
	Source  string // env var the URL came from
	NoProxy string
}

// Enabled reports whether a proxy endpoint was resolved
func (p ProxyConfig) Enabled() bool {
	return p.URL != nil
}

// ResolveProxy reads the proxy variables through lookup. A malformed value is
// returned as an error together with a direct ProxyConfig so the caller can
// log and carry on.
func ResolveProxy(lookup func(string) string) (ProxyConfig, error) {
	cfg := ProxyConfig{NoProxy: lookup("NO_PROXY")}
	if cfg.NoProxy == "" {
		cfg.NoProxy = lookup("no_proxy")
	}

	for _, key := range proxyEnvKeys {
		raw := lookup(key)
		if raw == "" {
			continue
		}
		u, err := parseProxyURL(raw)
		if err != nil {
			return ProxyConfig{NoProxy: cfg.NoProxy}, fmt.Errorf("invalid %s %q: %w", key, raw, err)
		}
		cfg.URL = u
		cfg.Source = key
		return cfg, nil
	}
	return cfg, nil
}

func parseProxyURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "http", "https", "socks5", "socks5h":
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("missing proxy host")
	}
	return u, nil
}

// Client wraps the process-wide *http.Client. It is safe for concurrent use.
type Client struct {
	http  *http.Client
	proxy ProxyConfig
}

// New builds the shared client. Proxy problems never fail construction: they
// are logged and the client connects directly.
func New(lookup func(string) string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}

	proxy, err := ResolveProxy(lookup)
	if err != nil {
		log.Warn("ignoring proxy configuration, using direct connection", zap.Error(err))
	}

	transport := &http.Transport{
		Proxy: proxyFunc(proxy),
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if proxy.Enabled() {
		log.Info("using outbound proxy",
			zap.String("proxy", proxy.URL.Redacted()),
			zap.String("source", proxy.Source),
			zap.String("no_proxy", proxy.NoProxy),
		)
	} else {
		log.Debug("no outbound proxy configured")
	}

	return &Client{
		http: &http.Client{
			Transport:     transport,
			CheckRedirect: checkRedirect,
		},
		proxy: proxy,
	}
}

// proxyFunc routes both http and https traffic through the resolved proxy
// while still honouring NO_PROXY.
func proxyFunc(p ProxyConfig) func(*http.Request) (*url.URL, error) {
	if !p.Enabled() {
		return nil
	}
	pc := &httpproxy.Config{
		HTTPProxy:  p.URL.String(),
		HTTPSProxy: p.URL.String(),
		NoProxy:    p.NoProxy,
	}
	fn := pc.ProxyFunc()
	return func(req *http.Request) (*url.URL, error) {
		return fn(req.URL)
	}
}

// Proxy returns the proxy decision the client was built with
func (c *Client) Proxy() ProxyConfig {
	return c.proxy
}

// Do sends req. Redirect policy is taken from the request context, see
// WithMaxRedirects.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.http.Do(req)
}

type maxRedirectsKey struct{}

// DefaultMaxRedirects applies when the context carries no redirect policy
const DefaultMaxRedirects = 10

// WithMaxRedirects limits redirect hops for requests made with the returned
// context. Zero disables following: the 3xx response itself is returned.
func WithMaxRedirects(ctx context.Context, n int) context.Context {
	return context.WithValue(ctx, maxRedirectsKey{}, n)
}

func maxRedirects(ctx context.Context) int {
	if n, ok := ctx.Value(maxRedirectsKey{}).(int); ok {
		return n
	}
	return DefaultMaxRedirects
}

func checkRedirect(req *http.Request, via []*http.Request) error {
	n := maxRedirects(req.Context())
	if n <= 0 {
		return http.ErrUseLastResponse
	}
	if len(via) > n {
		return fmt.Errorf("stopped after %d redirects", n)
	}
	return nil
}
