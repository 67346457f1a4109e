package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/reconkit/reconkit/pkg/duration"
	"github.com/reconkit/reconkit/pkg/mcpserver"
	"github.com/reconkit/reconkit/pkg/recon"
)

// runMCP serves the tools over stdio, or over streamable HTTP when -http
// is given.
func (a *app) runMCP(ctx context.Context, args []string) int {
	cfg, path, err := loadConfig(args)
	if err != nil {
		return a.fail(err)
	}
	var flags commonFlags
	flags.configPath = path
	var httpAddr string
	fs := a.newFlagSet("mcp")
	flags.bind(fs, false)
	fs.StringVar(&httpAddr, "http", "", "Serve streamable HTTP on this address (e.g. :8080) instead of stdio")
	cfg.BindReconFlags(fs)
	cfg.BindHTTPFlags(fs)
	cfg.BindTelemetryFlags(fs)
	if err := parse(fs, cfg, args); err != nil {
		return a.fail(err)
	}
	if fs.NArg() > 0 {
		return a.fail(fmt.Errorf("%w: mcp takes no arguments, got %q", errUsage, fs.Args()))
	}

	// stdout carries the protocol in stdio mode.
	if httpAddr == "" {
		flags.silent = true
	}
	s, err := a.start(ctx, cfg, flags)
	if err != nil {
		return a.fail(err)
	}
	defer s.close(ctx)

	template, err := cfg.DiscoveryOptions("")
	if err != nil {
		return a.fail(fmt.Errorf("%w: %w", errUsage, err))
	}
	template.Logger = s.logger
	template.Metrics = s.metrics
	template.Tracer = s.tracing.Tracer()

	rc := cfg.ScannerConfig()
	rc.Logger = s.logger
	rc.Metrics = s.metrics

	srv := mcpserver.New(&mcpserver.Config{
		Scanner:   recon.New(rc),
		Discovery: &template,
		Logger:    s.logger,
		Metrics:   s.metrics,
		Tracer:    s.tracing.Tracer(),
	})

	if httpAddr == "" {
		if err := srv.RunStdio(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("mcp stdio session ended", slog.String("error", err.Error()))
		}
		return exitOK
	}

	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		return a.fail(fmt.Errorf("%w: -http: %w", errUsage, err))
	}
	return a.serveMCP(ctx, s, srv, ln)
}

// serveMCP serves srv on ln until ctx is cancelled, then drains in-flight
// requests.
func (a *app) serveMCP(ctx context.Context, s *session, srv *mcpserver.Server, ln net.Listener) int {
	httpSrv := &http.Server{
		Handler:           srv.HTTPHandler(),
		ReadHeaderTimeout: duration.ServerReadHeader,
		// No WriteTimeout: streamable responses are long-lived.
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), duration.ServerShutdown)
		defer cancel()
		s.logger.Info("shutting down mcp server")
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("shutdown incomplete", slog.String("error", err.Error()))
		}
	}()

	srv.MarkReady()
	s.printer.Banner()
	s.printer.Success("MCP server listening on http://%s/mcp (metrics on /metrics)", ln.Addr())

	if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("mcp server stopped", slog.String("error", err.Error()))
	}
	return exitOK
}
