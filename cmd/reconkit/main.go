// Command reconkit discovers the endpoints of web origins and runs recon
// probes against them. It can also serve both as MCP tools.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/reconkit/reconkit/pkg/defaults"
	"github.com/reconkit/reconkit/pkg/input"
)

// Exit codes. Probe and crawl failures are reported in the output and do
// not change the exit code.
const (
	exitOK    = 0
	exitUsage = 1
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := newApp(os.Stdout, os.Stderr, input.PipedStdin()).run(ctx, os.Args[1:])
	cancel()
	os.Exit(code)
}

// app carries the process streams so subcommands can be run in tests.
type app struct {
	stdout io.Writer
	stderr io.Writer
	stdin  io.Reader
}

func newApp(stdout, stderr io.Writer, stdin io.Reader) *app {
	return &app{stdout: stdout, stderr: stderr, stdin: stdin}
}

func (a *app) run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		a.usage()
		return exitUsage
	}

	switch args[0] {
	case "crawl", "discover":
		return a.runCrawl(ctx, args[1:])
	case "recon":
		return a.runRecon(ctx, args[1:])
	case "mcp":
		return a.runMCP(ctx, args[1:])
	case "version", "-version", "--version":
		fmt.Fprintf(a.stdout, "%s %s\n", defaults.ToolName, defaults.Version)
		return exitOK
	case "help", "-h", "--help":
		a.usage()
		return exitOK
	default:
		fmt.Fprintf(a.stderr, "unknown command %q\n\n", args[0])
		a.usage()
		return exitUsage
	}
}

func (a *app) usage() {
	fmt.Fprintf(a.stderr, `%[1]s %[2]s - endpoint discovery and web recon

Usage:
  %[1]s crawl  [flags] [-u url]... [-l file] [url...]
  %[1]s recon  <dns|whois|headers|tls|favicon> [flags] target...
  %[1]s mcp    [-http addr] [flags]
  %[1]s version

Targets are also read from stdin when it is piped.
Every command accepts -config file.yaml; flags override file values.

Examples:
  %[1]s crawl -u https://example.com -depth 2
  %[1]s crawl -l hosts.txt -wayback=false -o results.json
  %[1]s recon dns example.com
  %[1]s recon headers -u https://example.com
  %[1]s mcp -http :8080

Run '%[1]s <command> -h' for the flags of a command.
`, defaults.ToolName, defaults.Version)
}
