// Package mcpserver exposes reconkit as a Model Context Protocol (MCP)
// server so AI assistants can run endpoint discovery and recon probes
// through tool calls.
//
// # Tools
//
//   - discover_endpoints: crawl a target through every discovery channel
//   - dns_lookup:         A, AAAA, MX, NS, TXT and CNAME records
//   - whois_lookup:       parsed registration data
//   - http_headers:       security header score and information leaks
//   - tls_info:           certificate and negotiated cipher details
//   - favicon_hash:       Shodan-style favicon hash
//
// Tools never raise protocol errors for bad input. They answer with an
// IsError result whose text tells the caller what to fix.
//
// # Transports
//
//   - stdio: communicates over stdin/stdout. Used by IDE integrations.
//   - HTTP:  streamable HTTP on /mcp, with /health and the Prometheus
//     /metrics endpoint on the same mux.
//
// # Usage
//
//	srv := mcpserver.New(&mcpserver.Config{Scanner: recon.New(recon.DefaultConfig())})
//	err := srv.RunStdio(ctx)
package mcpserver
