package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/young1lin/websearch-mcp/internal/config"
	"github.com/young1lin/websearch-mcp/internal/fetch"
	"github.com/young1lin/websearch-mcp/internal/handler"
	"github.com/young1lin/websearch-mcp/internal/httpclient"
	"github.com/young1lin/websearch-mcp/internal/search"
	"github.com/young1lin/websearch-mcp/internal/tools"
	"github.com/young1lin/websearch-mcp/pkg/logger"
)

const serverName = "websearch-mcp"

var (
	Version   = "dev"
	BuildDate = "unknown"
)

var (
	cfgFile   string
	port      int
	transport string
	showVer   bool
)

var rootCmd = &cobra.Command{
	Use:   "websearch-mcp",
	Short: "MCP server exposing web search and URL fetch tools",
	Long: `An MCP (Model Context Protocol) server with two tools:
search scrapes DuckDuckGo's HTML results page, fetch retrieves a URL
and returns status, headers and a size-limited text body.
Outbound traffic honours HTTPS_PROXY / HTTP_PROXY / NO_PROXY.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVer {
			fmt.Printf("websearch-mcp %s (built %s)\n", Version, BuildDate)
			return nil
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		// Override config with command line flags
		if port > 0 {
			cfg.Server.Port = port
		}
		if transport != "" {
			cfg.Server.Transport = transport
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		log := logger.Init(cfg.Logging.Level, cfg.Logging.Format)
		defer logger.Sync()

		log.Info("starting server",
			zap.String("version", Version),
			zap.String("transport", cfg.Server.Transport),
		)

		server := buildServer(cfg, log)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cfg.Server.Transport == config.TransportStdio {
			return runStdio(ctx, server)
		}
		return runHTTP(ctx, cfg, server, log)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "./config.yaml", "config file path")
	rootCmd.PersistentFlags().IntVarP(&port, "port", "p", 0, "listen port (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&transport, "transport", "t", "", "stdio, http or sse (overrides config)")
	rootCmd.Flags().BoolVarP(&showVer, "version", "v", false, "show version")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildServer wires the shared HTTP client into both tools
func buildServer(cfg *config.Config, log *zap.Logger) *mcp.Server {
	client := httpclient.New(os.Getenv, log.Named("httpclient"))

	provider := search.NewDuckDuckGoProvider(&cfg.Search, client, log.Named("search"))
	searcher := search.NewManager(provider, log.Named("search"))
	fetcher := fetch.NewFetcher(&cfg.Fetch, client, log.Named("fetch"))

	defaults := tools.DefaultDefaults()
	if cfg.Search.DefaultLimit > 0 {
		defaults.SearchLimit = cfg.Search.DefaultLimit
	}
	defaults.SearchMaxLimit = cfg.Search.MaxLimit
	if cfg.Fetch.MaxBytes > 0 {
		defaults.FetchMaxBytes = cfg.Fetch.MaxBytes
	}
	if cfg.Fetch.TimeoutMS > 0 {
		defaults.FetchTimeoutMS = cfg.Fetch.TimeoutMS
	}

	dispatcher := tools.NewDispatcher(searcher, fetcher, defaults, log.Named("tools"))
	return dispatcher.NewServer(serverName, Version)
}

func runStdio(ctx context.Context, server *mcp.Server) error {
	logger.Info("serving MCP over stdio")
	err := server.Run(ctx, &mcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// runHTTP serves both the streamable HTTP (/mcp) and SSE (/sse) transports;
// "http" and "sse" only differ in what we advertise at start-up.
func runHTTP(ctx context.Context, cfg *config.Config, server *mcp.Server, log *zap.Logger) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler.NewHandler(server, Version, log.Named("http")),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	endpoint := handler.MCPPath
	if cfg.Server.Transport == config.TransportSSE {
		endpoint = handler.SSEPath
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("endpoint", endpoint),
			zap.String("health", handler.HealthPath),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
	return nil
}
