package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
	TransportSSE   = "sse"

	// MaxSearchLimit is the hard ceiling on results per search call
	MaxSearchLimit = 10
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Search  SearchConfig  `mapstructure:"search"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
}

type ServerConfig struct {
	Transport    string `mapstructure:"transport"` // "stdio", "http", "sse"
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SearchConfig configures the DuckDuckGo HTML scraper
type SearchConfig struct {
	Endpoint     string `mapstructure:"endpoint"`
	TimeoutMS    int    `mapstructure:"timeout_ms"`
	DefaultLimit int    `mapstructure:"default_limit"`
	MaxLimit     int    `mapstructure:"max_limit"`
	UserAgent    string `mapstructure:"user_agent"`
}

// FetchConfig configures the URL fetch pipeline
type FetchConfig struct {
	MaxBytes     int    `mapstructure:"max_bytes"`
	TimeoutMS    int    `mapstructure:"timeout_ms"`
	MaxRedirects int    `mapstructure:"max_redirects"`
	UserAgent    string `mapstructure:"user_agent"`
}

// Load reads configuration. Environment variables (WSMCP_*) override the
// config file, which overrides built-in defaults.
func Load(cfgFile string) (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()
	_ = godotenv.Load(".env.local")

	v := viper.New()

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("WSMCP")
	v.AutomaticEnv()
	// PORT is what container platforms hand us
	if err := v.BindEnv("server.port", "WSMCP_SERVER_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("failed to bind env: %w", err)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	if err := v.ReadInConfig(); err != nil {
		if !isNotFound(err) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// isNotFound reports whether err means there simply is no config file.
// An explicitly named file that does not exist surfaces as an fs error, not
// viper.ConfigFileNotFoundError, and is treated the same way.
func isNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return true
	}
	return errors.Is(err, fs.ErrNotExist)
}

// Validate checks values that would otherwise fail late at runtime
func (c *Config) Validate() error {
	switch c.Server.Transport {
	case TransportStdio, TransportHTTP, TransportSSE:
	default:
		return fmt.Errorf("unknown server.transport %q (want stdio, http or sse)", c.Server.Transport)
	}
	if c.Server.Transport != TransportStdio && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Search.Endpoint == "" {
		return fmt.Errorf("search.endpoint must not be empty")
	}
	if c.Search.MaxLimit < 1 || c.Search.MaxLimit > MaxSearchLimit {
		return fmt.Errorf("search.max_limit must be between 1 and %d, got %d", MaxSearchLimit, c.Search.MaxLimit)
	}
	if c.Fetch.MaxRedirects < 0 {
		return fmt.Errorf("fetch.max_redirects must not be negative")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.transport", TransportStdio)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 30)
	// 0: SSE and streamable HTTP responses stay open for the whole session
	v.SetDefault("server.write_timeout", 0)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Search defaults
	v.SetDefault("search.endpoint", "https://html.duckduckgo.com/html/")
	v.SetDefault("search.timeout_ms", 15000)
	v.SetDefault("search.default_limit", 5)
	v.SetDefault("search.max_limit", MaxSearchLimit)
	v.SetDefault("search.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	// Fetch defaults
	v.SetDefault("fetch.max_bytes", 200000)
	v.SetDefault("fetch.timeout_ms", 15000)
	v.SetDefault("fetch.max_redirects", 5)
	v.SetDefault("fetch.user_agent", "websearch-mcp/1.0")
}
