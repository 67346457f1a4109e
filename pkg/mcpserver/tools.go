package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/reconkit/reconkit/pkg/defaults"
	"github.com/reconkit/reconkit/pkg/discovery"
)

// maxToolDepth bounds max_depth for tool calls; a deep crawl from a chat
// session is almost never what the caller wanted.
const maxToolDepth = 10

func (s *Server) registerTools() {
	s.addDiscoverTool()
	s.addDNSTool()
	s.addWhoisTool()
	s.addHeadersTool()
	s.addTLSTool()
	s.addFaviconTool()
}

// ═══════════════════════════════════════════════════════════════════════════
// discover_endpoints
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addDiscoverTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "discover_endpoints",
			Title: "Discover Endpoints",
			Description: `Map the HTTP endpoints a web origin exposes.

USE THIS TOOL WHEN:
• The user asks what paths, pages or APIs a site has
• You need a list of URLs to feed into further testing

Runs five channels side by side: a wordlist of common paths, the Wayback Machine archive, robots.txt and sitemaps, a breadth-first crawl of same-origin links, and analysis of the JavaScript those pages load. Every URL is reported once, under the channel that found it first.

EXAMPLE INPUTS:
• Default run: {"target": "https://example.com"}
• Bare host (https is assumed): {"target": "example.com"}
• Deeper crawl, no archive: {"target": "https://app.example.com", "max_depth": 3, "use_wayback": false}
• Just the list: {"target": "https://example.com", "output_format": "simple"}

Returns: JSON with target_url, discovered_endpoints_count, endpoints_by_method, all_discovered_endpoints and errors (or discovered_endpoints and errors in simple format).`,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"target": map[string]any{
						"type":        "string",
						"description": "Target URL or host (e.g. https://example.com).",
					},
					"max_depth": map[string]any{
						"type":        "integer",
						"description": "Link-following depth; 0 fetches only the target page.",
						"default":     defaults.CrawlDepth,
						"minimum":     0,
						"maximum":     maxToolDepth,
					},
					"use_wordlist": map[string]any{
						"type":        "boolean",
						"description": "Probe the built-in list of common paths.",
						"default":     true,
					},
					"use_wayback": map[string]any{
						"type":        "boolean",
						"description": "Query the Wayback Machine for archived URLs.",
						"default":     true,
					},
					"analyze_js": map[string]any{
						"type":        "boolean",
						"description": "Extract endpoints from inline and external scripts.",
						"default":     true,
					},
					"max_js_files": map[string]any{
						"type":        "integer",
						"description": "External scripts analyzed per page.",
						"default":     defaults.MaxJSFiles,
						"minimum":     0,
					},
					"output_format": map[string]any{
						"type":        "string",
						"description": "Shape of the returned JSON.",
						"enum":        []string{defaults.FormatJSON, defaults.FormatSimple},
						"default":     defaults.FormatJSON,
					},
				},
				"required": []string{"target"},
			},
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:   true,
				IdempotentHint: true,
				OpenWorldHint:  boolPtr(true),
				Title:          "Discover Endpoints",
			},
		},
		s.loggedTool("discover_endpoints", s.handleDiscover),
	)
}

type discoverArgs struct {
	Target       string `json:"target"`
	MaxDepth     *int   `json:"max_depth"`
	UseWordlist  *bool  `json:"use_wordlist"`
	UseWayback   *bool  `json:"use_wayback"`
	AnalyzeJS    *bool  `json:"analyze_js"`
	MaxJSFiles   *int   `json:"max_js_files"`
	OutputFormat string `json:"output_format"`
}

// options layers the call's arguments over the server's template.
func (a discoverArgs) options(base discovery.Options) (discovery.Options, error) {
	opts := base
	opts.Target = strings.TrimSpace(a.Target)
	if opts.Target == "" {
		return opts, fmt.Errorf(`target is required. Example: {"target": "https://example.com"}`)
	}
	if a.MaxDepth != nil {
		if *a.MaxDepth < 0 || *a.MaxDepth > maxToolDepth {
			return opts, fmt.Errorf("max_depth must be between 0 and %d (got %d)", maxToolDepth, *a.MaxDepth)
		}
		opts.MaxDepth = *a.MaxDepth
	}
	if a.MaxJSFiles != nil {
		if *a.MaxJSFiles < 0 {
			return opts, fmt.Errorf("max_js_files must not be negative (got %d)", *a.MaxJSFiles)
		}
		opts.MaxJSFiles = *a.MaxJSFiles
	}
	if a.UseWordlist != nil {
		opts.UseWordlist = *a.UseWordlist
	}
	if a.UseWayback != nil {
		opts.UseWayback = *a.UseWayback
	}
	if a.AnalyzeJS != nil {
		opts.AnalyzeJS = *a.AnalyzeJS
	}
	switch a.OutputFormat {
	case "":
	case defaults.FormatJSON, defaults.FormatSimple:
		opts.OutputFormat = a.OutputFormat
	default:
		return opts, fmt.Errorf("output_format must be %q or %q (got %q)", defaults.FormatJSON, defaults.FormatSimple, a.OutputFormat)
	}
	return opts, nil
}

func (s *Server) handleDiscover(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args discoverArgs
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	opts, err := args.options(*s.config.Discovery)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	if opts.Logger == nil {
		opts.Logger = s.logger
	}
	if opts.Metrics == nil {
		opts.Metrics = s.config.Metrics
	}
	if opts.Tracer == nil {
		opts.Tracer = s.tracer
	}

	notifyProgress(ctx, req, 0, 1, "discovering endpoints on "+opts.Target)
	res := discovery.Discover(ctx, opts)
	notifyProgress(ctx, req, 1, 1, fmt.Sprintf("found %d endpoints", res.Count()))

	if len(res.Errors) > 0 {
		logToSession(ctx, req, logWarning, map[string]any{
			"run_id": res.RunID,
			"errors": len(res.Errors),
		})
	} else {
		logToSession(ctx, req, logInfo, map[string]any{
			"run_id": res.RunID,
			"found":  res.Count(),
		})
	}

	data, err := res.JSON("  ")
	if err != nil {
		return nil, fmt.Errorf("encoding discovery result: %w", err)
	}
	return textResult(string(data)), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Recon tools
// ═══════════════════════════════════════════════════════════════════════════

// reconTool describes a single-argument recon tool.
type reconTool struct {
	name, title, description string
	arg, argDescription      string
	run                      func(ctx context.Context, value string) (any, error)
}

func (s *Server) addReconTool(t reconTool) {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:        t.name,
			Title:       t.title,
			Description: t.description,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					t.arg: map[string]any{
						"type":        "string",
						"description": t.argDescription,
					},
				},
				"required": []string{t.arg},
			},
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:   true,
				IdempotentHint: true,
				OpenWorldHint:  boolPtr(true),
				Title:          t.title,
			},
		},
		s.loggedTool(t.name, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args map[string]any
			if err := parseArgs(req, &args); err != nil {
				return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
			}
			value, _ := args[t.arg].(string)
			value = strings.TrimSpace(value)
			if value == "" {
				return errorResult(fmt.Sprintf("%s is required. Example: {%q: \"example.com\"}", t.arg, t.arg)), nil
			}
			out, err := t.run(ctx, value)
			if err != nil {
				return probeError(t.name, err), nil
			}
			return jsonResult(out)
		}),
	)
}

func (s *Server) addDNSTool() {
	s.addReconTool(reconTool{
		name:  "dns_lookup",
		title: "DNS Lookup",
		description: `Resolve A, AAAA, MX, NS, TXT and CNAME records for a domain.

EXAMPLE INPUTS:
• {"domain": "example.com"}
• URLs are reduced to their host: {"domain": "https://www.example.com/login"}

Returns: JSON with records keyed by type; types that failed are listed under errors.`,
		arg:            "domain",
		argDescription: "Domain name to resolve (e.g. example.com).",
		run: func(ctx context.Context, v string) (any, error) {
			return s.scanner.DNSLookup(ctx, v)
		},
	})
}

func (s *Server) addWhoisTool() {
	s.addReconTool(reconTool{
		name:  "whois_lookup",
		title: "WHOIS Lookup",
		description: `Fetch and parse WHOIS registration data for a domain.

EXAMPLE INPUTS:
• {"domain": "example.com"}

Returns: registrar, creation, update and expiry dates, name servers, status and registrant. When the record cannot be parsed, parse_error is set and the raw text is returned.`,
		arg:            "domain",
		argDescription: "Registered domain (e.g. example.com).",
		run: func(ctx context.Context, v string) (any, error) {
			return s.scanner.WhoisLookup(ctx, v)
		},
	})
}

func (s *Server) addHeadersTool() {
	s.addReconTool(reconTool{
		name:  "http_headers",
		title: "HTTP Security Headers",
		description: `Score the security headers a URL returns after redirects.

EXAMPLE INPUTS:
• {"url": "https://example.com"}

Returns: the response headers, which of the seven tracked security headers are present or missing, a 0-100 score, and headers that leak server software.`,
		arg:            "url",
		argDescription: "URL or host to fetch (https is assumed for bare hosts).",
		run: func(ctx context.Context, v string) (any, error) {
			return s.scanner.AnalyzeHeaders(ctx, v)
		},
	})
}

func (s *Server) addTLSTool() {
	s.addReconTool(reconTool{
		name:  "tls_info",
		title: "TLS Certificate Info",
		description: `Handshake with a host and report the negotiated TLS parameters and leaf certificate.

EXAMPLE INPUTS:
• {"target": "example.com"}
• Non-standard port: {"target": "example.com:8443"}

Returns: TLS version, cipher suite, ALPN, subject, issuer, SANs, validity window, days remaining, self-signed flag and SHA-256 fingerprint. Certificates are reported even when they would fail verification.`,
		arg:            "target",
		argDescription: "Host, host:port or URL.",
		run: func(ctx context.Context, v string) (any, error) {
			return s.scanner.TLSInfo(ctx, v)
		},
	})
}

func (s *Server) addFaviconTool() {
	s.addReconTool(reconTool{
		name:  "favicon_hash",
		title: "Favicon Hash",
		description: `Compute the Shodan-compatible MurmurHash3 of a site's /favicon.ico.

EXAMPLE INPUTS:
• {"url": "https://example.com"}

Returns: the favicon URL, the signed 32-bit hash (search Shodan with http.favicon.hash:<hash>) and the icon size.`,
		arg:            "url",
		argDescription: "Any URL on the site; only its origin is used.",
		run: func(ctx context.Context, v string) (any, error) {
			return s.scanner.FaviconHash(ctx, v)
		},
	})
}
