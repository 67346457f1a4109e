package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/reconkit/reconkit/pkg/config"
	"github.com/reconkit/reconkit/pkg/input"
	"github.com/reconkit/reconkit/pkg/jsonutil"
	"github.com/reconkit/reconkit/pkg/metrics"
	"github.com/reconkit/reconkit/pkg/tracing"
	"github.com/reconkit/reconkit/pkg/ui"
)

// errUsage marks errors caused by the command line rather than the target.
var errUsage = errors.New("usage error")

// commonFlags are accepted by every subcommand.
type commonFlags struct {
	configPath string
	output     string
	silent     bool
	verbose    bool
	noColor    bool
	targets    []string
	listFile   string
}

func (c *commonFlags) bind(fs *flag.FlagSet, withTargets bool) {
	fs.StringVar(&c.configPath, "config", c.configPath, "YAML config file")
	fs.StringVar(&c.output, "o", "", "Write JSON output to this file instead of stdout")
	fs.BoolVar(&c.silent, "silent", false, "Suppress the banner and summaries")
	fs.BoolVar(&c.verbose, "v", false, "Verbose (debug) logging")
	fs.BoolVar(&c.noColor, "no-color", false, "Disable colored output")
	if withTargets {
		fs.Var(input.NewListFlag(&c.targets), "u", "Target URL or host (repeatable, comma-separated)")
		fs.StringVar(&c.listFile, "l", "", "File of targets, one per line")
	}
}

// session is the state shared by one subcommand invocation.
type session struct {
	cfg     *config.Config
	flags   commonFlags
	logger  *slog.Logger
	printer *ui.Printer
	metrics *metrics.Collector
	tracing *tracing.Provider
	out     io.Writer
	closeFn []func()
}

// newFlagSet returns a flag set that reports errors instead of exiting.
func (a *app) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// loadConfig reads the file named by -config, or the defaults. It runs
// before flags are bound so file values become flag defaults.
func loadConfig(args []string) (*config.Config, string, error) {
	path := config.PathFromArgs(args)
	if path == "" {
		return config.DefaultConfig(), "", nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// parse parses args into fs and validates the merged config.
func parse(fs *flag.FlagSet, cfg *config.Config, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return nil
}

// start builds the logger, printer, metrics and tracing for a parsed
// command line. Call close when the command finishes.
func (a *app) start(ctx context.Context, cfg *config.Config, flags commonFlags) (*session, error) {
	level := slog.LevelInfo
	switch {
	case flags.verbose:
		level = slog.LevelDebug
	case flags.silent:
		level = slog.LevelWarn
	}
	ui.ConfigureColor(a.stderr, flags.noColor)

	s := &session{
		cfg:     cfg,
		flags:   flags,
		logger:  slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level})),
		printer: ui.NewPrinter(a.stderr, flags.silent),
		metrics: metrics.New(),
		out:     a.stdout,
	}

	if flags.output != "" {
		f, err := os.Create(flags.output)
		if err != nil {
			return nil, fmt.Errorf("%w: -o: %w", errUsage, err)
		}
		s.out = f
		s.closeFn = append(s.closeFn, func() { _ = f.Close() })
	}

	if addr := cfg.Metrics.Addr; addr != "" {
		bound, err := s.metrics.Serve(addr, s.logger)
		if err != nil {
			s.close(ctx)
			return nil, fmt.Errorf("%w: %w", errUsage, err)
		}
		s.logger.Info("serving metrics", slog.String("addr", "http://"+bound+"/metrics"))
		s.closeFn = append(s.closeFn, func() { _ = s.metrics.Close() })
	}

	tp, err := tracing.Setup(ctx, cfg.TracingOptions())
	if err != nil {
		s.close(ctx)
		return nil, fmt.Errorf("%w: %w", errUsage, err)
	}
	s.tracing = tp
	return s, nil
}

// close releases everything start acquired, most recent first.
func (s *session) close(ctx context.Context) {
	if err := s.tracing.Shutdown(context.WithoutCancel(ctx)); err != nil {
		s.logger.Warn("flushing traces failed", slog.String("error", err.Error()))
	}
	for i := len(s.closeFn) - 1; i >= 0; i-- {
		s.closeFn[i]()
	}
	s.closeFn = nil
}

// emit writes v to the session output as indented JSON.
func (s *session) emit(v any) error {
	enc := jsonutil.NewEncoder(s.out)
	enc.SetIndent("  ")
	return enc.Encode(v)
}

// targets gathers -u values, positional arguments, the -l file and piped
// stdin.
func (a *app) targets(flags commonFlags, positional []string) ([]string, error) {
	src := &input.TargetSource{
		URLs:     append(append([]string(nil), flags.targets...), positional...),
		ListFile: flags.listFile,
		Stdin:    a.stdin,
	}
	return src.Targets()
}

// fail reports err on stderr and returns the matching exit code. Help
// requests exit cleanly.
func (a *app) fail(err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	ui.NewPrinter(a.stderr, false).Error("%v", err)
	return exitUsage
}
