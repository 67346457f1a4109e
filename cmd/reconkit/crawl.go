package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reconkit/reconkit/pkg/discovery"
	"github.com/reconkit/reconkit/pkg/ui"
)

// runCrawl runs discovery against every target in turn and writes one
// JSON document per target.
func (a *app) runCrawl(ctx context.Context, args []string) int {
	cfg, path, err := loadConfig(args)
	if err != nil {
		return a.fail(err)
	}

	var flags commonFlags
	flags.configPath = path
	fs := a.newFlagSet("crawl")
	flags.bind(fs, true)
	cfg.BindDiscoveryFlags(fs)
	cfg.BindHTTPFlags(fs)
	cfg.BindTelemetryFlags(fs)
	if err := parse(fs, cfg, args); err != nil {
		return a.fail(err)
	}

	targets, err := a.targets(flags, fs.Args())
	if err != nil {
		return a.fail(err)
	}

	s, err := a.start(ctx, cfg, flags)
	if err != nil {
		return a.fail(err)
	}
	defer s.close(ctx)

	d := cfg.Discovery
	s.printer.Banner()
	s.printer.Config(
		ui.Option{Name: "Targets", Value: fmt.Sprint(len(targets))},
		ui.Option{Name: "Depth", Value: fmt.Sprint(d.MaxDepth)},
		ui.Option{Name: "Wordlist", Value: fmt.Sprint(d.UseWordlist)},
		ui.Option{Name: "Wayback", Value: fmt.Sprint(d.UseWayback)},
		ui.Option{Name: "JS analysis", Value: fmt.Sprint(d.AnalyzeJS)},
		ui.Option{Name: "Format", Value: d.OutputFormat},
	)

	for i, target := range targets {
		if ctx.Err() != nil {
			s.logger.Warn("interrupted", slog.Int("remaining", len(targets)-i))
			break
		}
		opts, err := cfg.DiscoveryOptions(target)
		if err != nil {
			return a.fail(fmt.Errorf("%w: %w", errUsage, err))
		}
		opts.Logger = s.logger
		opts.Metrics = s.metrics
		opts.Tracer = s.tracing.Tracer()

		res := discovery.Discover(ctx, opts)
		s.printer.Summary(res)
		if err := s.emit(res.Output()); err != nil {
			s.logger.Error("writing output failed", slog.String("error", err.Error()))
		}
	}
	if flags.output != "" {
		s.printer.Success("results written to %s", flags.output)
	}
	return exitOK
}
