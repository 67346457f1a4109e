package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/reconkit/reconkit/pkg/defaults"
	"github.com/reconkit/reconkit/pkg/discovery"
	"github.com/reconkit/reconkit/pkg/jsonutil"
	"github.com/reconkit/reconkit/pkg/metrics"
	"github.com/reconkit/reconkit/pkg/recon"
	"github.com/reconkit/reconkit/pkg/tracing"
)

// The MCP SDK defines LoggingLevel as a raw string type without exported
// constants.
const (
	logInfo    mcp.LoggingLevel = "info"
	logWarning mcp.LoggingLevel = "warning"
)

// Config holds MCP server configuration.
type Config struct {
	// Scanner runs the recon tools (default: recon.New(recon.DefaultConfig())).
	Scanner *recon.Scanner

	// Discovery is the template every discover_endpoints call starts
	// from; tool arguments override its toggles. Nil means
	// discovery.DefaultOptions.
	Discovery *discovery.Options

	Logger  *slog.Logger
	Metrics *metrics.Collector
	Tracer  trace.Tracer
}

// Server wraps the MCP server with reconkit's tools.
type Server struct {
	mcp     *mcp.Server
	config  *Config
	scanner *recon.Scanner
	logger  *slog.Logger
	tracer  trace.Tracer
	ready   atomic.Bool
}

// MCPServer returns the underlying MCP server for direct access (e.g., testing).
func (s *Server) MCPServer() *mcp.Server { return s.mcp }

// MarkReady flips /health from 503 to 200.
func (s *Server) MarkReady() { s.ready.Store(true) }

// IsReady reports whether MarkReady has been called.
func (s *Server) IsReady() bool { return s.ready.Load() }

// New creates a new MCP server with every tool registered.
func New(cfg *Config) *Server {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Discovery == nil {
		opts := discovery.DefaultOptions("")
		cfg.Discovery = &opts
	}

	s := &Server{
		config:  cfg,
		scanner: cfg.Scanner,
		logger:  cfg.Logger,
		tracer:  cfg.Tracer,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tracer == nil {
		s.tracer = noop.NewTracerProvider().Tracer(tracing.InstrumentationName)
	}
	if s.scanner == nil {
		rc := recon.DefaultConfig()
		rc.Logger = s.logger
		rc.Metrics = cfg.Metrics
		s.scanner = recon.New(rc)
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    defaults.ToolName,
			Title:   "reconkit MCP Server",
			Version: defaults.Version,
		},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)

	s.registerTools()
	return s
}

// RunStdio runs the MCP server over stdio transport until ctx is done or
// the client disconnects.
func (s *Server) RunStdio(ctx context.Context) error {
	s.MarkReady()
	s.logger.Info("mcp server listening on stdio")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler returns the handler for HTTP mode: streamable MCP on /mcp
// and /, liveness on /health, and Prometheus metrics on /metrics when a
// collector is configured.
func (s *Server) HTTPHandler() http.Handler {
	streamable := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return s.mcp },
		&mcp.StreamableHTTPOptions{Stateless: false},
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	if s.config.Metrics != nil {
		mux.Handle("/metrics", s.config.Metrics.Handler())
	}
	mux.Handle("/mcp", streamable)
	mux.Handle("/", streamable)

	return corsMiddleware(s.recoveryMiddleware(securityHeaders(mux)))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if !s.IsReady() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"starting","service":"reconkit-mcp"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok","service":"reconkit-mcp"}`))
}

// corsMiddleware reflects the caller's Origin so browser-based MCP
// clients can reach the server. Requests without Origin pass untouched.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		w.Header().Add("Vary", "Origin")

		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers",
			strings.Join([]string{
				"Content-Type",
				"Authorization",
				"Mcp-Session-Id",
				"MCP-Protocol-Version",
				"Last-Event-ID",
				"Accept",
			}, ", "))
		w.Header().Set("Access-Control-Expose-Headers", "Mcp-Session-Id, MCP-Protocol-Version")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				s.logger.Error("panic in HTTP handler",
					slog.Any("panic", p),
					slog.String("path", r.URL.Path),
					slog.String("stack", string(debug.Stack())))

				// If headers were already sent WriteHeader is a no-op.
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"internal server error"}`))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// loggedTool wraps a handler with a span, a metrics sample and one log
// line per call. Arguments are not logged.
func (s *Server) loggedTool(name string, h mcp.ToolHandler) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := s.tracer.Start(ctx, "mcp."+name,
			trace.WithAttributes(attribute.String("mcp.tool", name)))
		defer span.End()

		start := time.Now()
		res, err := h(ctx, req)
		took := time.Since(start)

		outcome := metrics.OutcomeHit
		switch {
		case err != nil:
			outcome = metrics.OutcomeError
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case res != nil && res.IsError:
			outcome = metrics.OutcomeError
			span.SetStatus(codes.Error, "tool error")
		}
		s.config.Metrics.ToolCall(name, outcome, took)
		s.logger.Info("mcp tool call",
			slog.String("tool", name),
			slog.String("outcome", outcome),
			slog.Duration("took", took))
		return res, err
	}
}

// notifyProgress sends a progress notification when the client supplied
// a progress token.
func notifyProgress(ctx context.Context, req *mcp.CallToolRequest, progress, total float64, message string) {
	token := req.Params.GetProgressToken()
	if token == nil || req.Session == nil {
		return
	}
	// Progress is advisory; a failed notification does not affect the call.
	_ = req.Session.NotifyProgress(ctx, &mcp.ProgressNotificationParams{
		ProgressToken: token,
		Progress:      progress,
		Total:         total,
		Message:       message,
	})
}

// logToSession sends a structured log message to the MCP client.
func logToSession(ctx context.Context, req *mcp.CallToolRequest, level mcp.LoggingLevel, data any) {
	if req.Session == nil {
		return
	}
	_ = req.Session.Log(ctx, &mcp.LoggingMessageParams{
		Level:  level,
		Logger: defaults.ToolName,
		Data:   data,
	})
}

// textResult creates a CallToolResult with a single text content block.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// jsonResult marshals v to indented JSON and wraps it in a CallToolResult.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := jsonutil.MarshalIndent(v, "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return textResult(string(data)), nil
}

// errorResult creates an IsError CallToolResult so the model sees the
// error and can correct its input instead of getting a protocol error.
func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

// probeError turns a recon failure into an IsError result with a hint
// for the failures a caller can do something about.
func probeError(tool string, err error) *mcp.CallToolResult {
	msg := fmt.Sprintf("%s failed: %v", tool, err)
	switch {
	case errors.Is(err, recon.ErrInvalidDomain):
		msg += ". Pass a bare domain such as example.com"
	case errors.Is(err, recon.ErrNoRecords):
		msg += ". The domain may not exist; check the spelling"
	case errors.Is(err, recon.ErrNoFavicon):
		msg += ". The site does not serve /favicon.ico"
	}
	return errorResult(msg)
}

// boolPtr returns a pointer to b. Used for optional bool fields in the SDK.
func boolPtr(b bool) *bool { return &b }

// parseArgs decodes the raw JSON arguments of a tool call into dst.
func parseArgs(req *mcp.CallToolRequest, dst any) error {
	if len(req.Params.Arguments) == 0 {
		return nil
	}
	if err := jsonutil.Unmarshal(req.Params.Arguments, dst); err != nil {
		return fmt.Errorf("parsing tool arguments: %w", err)
	}
	return nil
}

const serverInstructions = `You are operating reconkit, a web reconnaissance toolkit.

Start with discover_endpoints to map what a target exposes. It combines a wordlist probe, the Wayback Machine archive, robots.txt and sitemaps, a bounded crawl of internal links, and JavaScript analysis. It takes from a few seconds to a few minutes depending on max_depth.

Use the recon tools for infrastructure questions:
- dns_lookup and whois_lookup take a bare domain (example.com).
- http_headers, tls_info and favicon_hash take a URL or host.

Recon results are cached for hours, so repeating a call is cheap. Errors come back as tool results with a hint about what to change.`
