package main

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/reconkit/reconkit/pkg/defaults"
	"github.com/reconkit/reconkit/pkg/recon"
	"github.com/reconkit/reconkit/pkg/workerpool"
)

// probe runs one recon check against a target.
type probe func(ctx context.Context, s *recon.Scanner, target string) (any, error)

var probes = map[string]probe{
	"dns": func(ctx context.Context, s *recon.Scanner, t string) (any, error) {
		return s.DNSLookup(ctx, t)
	},
	"whois": func(ctx context.Context, s *recon.Scanner, t string) (any, error) {
		return s.WhoisLookup(ctx, t)
	},
	"headers": func(ctx context.Context, s *recon.Scanner, t string) (any, error) {
		return s.AnalyzeHeaders(ctx, t)
	},
	"tls": func(ctx context.Context, s *recon.Scanner, t string) (any, error) {
		return s.TLSInfo(ctx, t)
	},
	"favicon": func(ctx context.Context, s *recon.Scanner, t string) (any, error) {
		return s.FaviconHash(ctx, t)
	},
}

func probeNames() []string {
	names := make([]string, 0, len(probes))
	for name := range probes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// probeFailure is emitted in place of a result when a probe fails.
type probeFailure struct {
	Target string `json:"target"`
	Probe  string `json:"probe"`
	Error  string `json:"error"`
}

// runRecon runs one probe against every target, in parallel, and writes
// the results in target order.
func (a *app) runRecon(ctx context.Context, args []string) int {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return a.fail(fmt.Errorf("%w: recon needs a probe: %s", errUsage, strings.Join(probeNames(), ", ")))
	}
	name, args := args[0], args[1:]
	run, ok := probes[name]
	if !ok {
		return a.fail(fmt.Errorf("%w: unknown probe %q (want one of %s)", errUsage, name, strings.Join(probeNames(), ", ")))
	}

	cfg, path, err := loadConfig(args)
	if err != nil {
		return a.fail(err)
	}
	var flags commonFlags
	flags.configPath = path
	fs := a.newFlagSet("recon " + name)
	flags.bind(fs, true)
	cfg.BindReconFlags(fs)
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

	rc := cfg.ScannerConfig()
	rc.Logger = s.logger
	rc.Metrics = s.metrics
	scanner := recon.New(rc)

	pool := workerpool.New(defaults.ReconConcurrency)
	defer pool.Close()
	results := workerpool.Map(ctx, pool, targets, func(target string) any {
		out, err := run(ctx, scanner, target)
		if err != nil {
			s.logger.Debug("probe failed",
				slog.String("probe", name),
				slog.String("target", target),
				slog.String("error", err.Error()))
			return probeFailure{Target: target, Probe: name, Error: err.Error()}
		}
		return out
	})

	for i, res := range results {
		switch r := res.(type) {
		case nil:
			continue
		case probeFailure:
			s.printer.Error("%s %s: %s", name, r.Target, r.Error)
		case *recon.HeaderReport:
			s.printer.HeaderSummary(r)
		default:
			s.printer.Success("%s %s", name, targets[i])
		}
		if err := s.emit(res); err != nil {
			s.logger.Error("writing output failed", slog.String("error", err.Error()))
		}
	}
	return exitOK
}
