package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/young1lin/websearch-mcp/internal/tools"
	"github.com/young1lin/websearch-mcp/pkg/logger"
)

const (
	MCPPath    = "/mcp"
	SSEPath    = "/sse"
	HealthPath = "/health"
)

// Handler serves the MCP server over HTTP
type Handler struct {
	streamable http.Handler
	sse        http.Handler
	version    string
	log        *zap.Logger
}

// errorResponse is the JSON body of non-MCP errors
type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewHandler creates a handler exposing server on both the streamable HTTP
// and the SSE transport
func NewHandler(server *mcp.Server, version string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	getServer := func(*http.Request) *mcp.Server { return server }
	return &Handler{
		streamable: mcp.NewStreamableHTTPHandler(getServer, nil),
		sse:        mcp.NewSSEHandler(getServer, nil),
		version:    version,
		log:        log,
	}
}

// ServeHTTP handles all HTTP requests
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	traceID := extractTraceID(r)
	if traceID == "" {
		traceID = tools.NewTraceID()
	}
	r = r.WithContext(logger.ContextWithTraceID(r.Context(), traceID))

	log := logger.WithTraceID(h.log, traceID)
	log.Debug("request received",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("remote_addr", r.RemoteAddr),
	)

	w.Header().Set("X-Trace-ID", traceID)

	switch {
	case r.URL.Path == HealthPath:
		h.handleHealth(w, r)
	case r.URL.Path == MCPPath || strings.HasPrefix(r.URL.Path, MCPPath+"/"):
		h.streamable.ServeHTTP(w, r)
	// SSE clients POST their messages back to the same path with ?sessionid=
	case r.URL.Path == SSEPath:
		h.sse.ServeHTTP(w, r)
	default:
		h.handleError(w, http.StatusNotFound, "not_found", "Endpoint not found", log)
	}

	log.Debug("request completed",
		zap.String("path", r.URL.Path),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
}

// handleHealth handles health check requests
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "healthy",
		"version":   h.version,
		"timestamp": time.Now().Unix(),
	})
}

func (h *Handler) handleError(w http.ResponseWriter, status int, errType, message string, log *zap.Logger) {
	log.Warn("request error",
		zap.String("error_type", errType),
		zap.String("message", message),
		zap.Int("status", status),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error: errorDetail{
			Type:    errType,
			Message: message,
		},
	})
}

// extractTraceID reuses a correlation ID supplied by the client
func extractTraceID(r *http.Request) string {
	headers := []string{
		"X-Trace-ID",
		"X-Request-ID",
		"X-Correlation-ID",
	}

	for _, header := range headers {
		if id := r.Header.Get(header); id != "" {
			return id
		}
	}

	return ""
}
