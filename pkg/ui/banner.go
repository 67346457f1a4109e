// Package ui renders the human-facing side of the CLI: the banner, the
// run configuration and the end-of-run summary. Everything goes to a
// Printer's writer (stderr in the CLI) so stdout stays machine-readable.
package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/reconkit/reconkit/pkg/defaults"
	"github.com/reconkit/reconkit/pkg/discovery"
	"github.com/reconkit/reconkit/pkg/recon"
)

const bannerArt = `
                              __   _ __
   ________  _________  ____  / /__(_) /_
  / ___/ _ \/ ___/ __ \/ __ \/ //_/ / __/
 / /  /  __/ /__/ /_/ / / / / ,< / / /_
/_/   \___/\___/\____/_/ /_/_/|_/_/\__/
`

const separator = "________________________________________________"

// Printer writes styled output. A silent Printer writes nothing.
type Printer struct {
	w       io.Writer
	silent  bool
	unicode bool
}

// NewPrinter returns a Printer writing to w. Status marks use Unicode
// glyphs only when w is a terminal that can render them.
func NewPrinter(w io.Writer, silent bool) *Printer {
	return &Printer{w: w, silent: silent, unicode: IsTerminal(w) && UnicodeTerminal()}
}

func (p *Printer) icon(unicode, ascii string) string {
	if p.unicode {
		return unicode
	}
	return ascii
}

func (p *Printer) printf(format string, args ...any) {
	if p == nil || p.silent {
		return
	}
	fmt.Fprintf(p.w, format, args...)
}

// Banner prints the ASCII banner and version line.
func (p *Printer) Banner() {
	for _, line := range strings.Split(bannerArt, "\n") {
		if line != "" {
			p.printf("%s\n", BannerStyle.Render(line))
		}
	}
	p.printf("                    v%s\n\n", VersionStyle.Render(defaults.Version))
}

// Option is one labelled configuration value.
type Option struct {
	Name, Value string
}

// Config prints options in order, skipping empty values.
// Format:  :: Name               : Value
func (p *Printer) Config(options ...Option) {
	for _, o := range options {
		if o.Value == "" {
			continue
		}
		p.printf(" :: %s : %s\n", LabelStyle.Render(o.Name), ValueStyle.Render(o.Value))
	}
	p.printf("%s\n\n", DividerStyle.Render(separator))
}

// Section prints a section heading.
func (p *Printer) Section(title string) {
	p.printf("%s\n", SectionStyle.Render("> "+title))
}

// Info prints an informational line.
func (p *Printer) Info(format string, args ...any) {
	p.printf("  %s %s\n", BracketStyle.Render(p.icon("•", "[*]")), fmt.Sprintf(format, args...))
}

// Success prints a success line.
func (p *Printer) Success(format string, args ...any) {
	p.printf("  %s\n", PassStyle.Render(p.icon("✓", "[+]")+" "+fmt.Sprintf(format, args...)))
}

// Warning prints a warning line.
func (p *Printer) Warning(format string, args ...any) {
	p.printf("  %s\n", WarnStyle.Render(p.icon("⚠", "[!]")+" "+fmt.Sprintf(format, args...)))
}

// Error prints an error line.
func (p *Printer) Error(format string, args ...any) {
	p.printf("  %s\n", FailStyle.Render(p.icon("✗", "[X]")+" "+fmt.Sprintf(format, args...)))
}

// Summary prints per-channel counts and any error log entries of a
// discovery run.
func (p *Printer) Summary(res *discovery.Result) {
	if res == nil {
		return
	}
	p.Section("Discovery summary " + URLStyle.Render(res.Target))
	for _, m := range discovery.Methods {
		n := len(res.ByMethod[m])
		p.printf("  %s %s %s\n",
			BracketStyle.Render("["),
			ChannelStyle(string(m)).Render(fmt.Sprintf("%-15s", m)),
			BracketStyle.Render("]")+" "+CountStyle.Render(fmt.Sprint(n)))
	}
	p.Success("%d unique endpoints in %s", res.Count(), res.Duration.Round(time.Millisecond))
	for _, e := range res.Errors {
		p.Warning("%s", e)
	}
	p.printf("\n")
}

// HeaderSummary prints the score and missing headers of a header report.
func (p *Printer) HeaderSummary(r *recon.HeaderReport) {
	if r == nil {
		return
	}
	p.Section("Security headers " + URLStyle.Render(r.URL))
	p.printf("  status %s  score %s\n",
		StatusCodeStyle(r.StatusCode).Render(fmt.Sprint(r.StatusCode)),
		ScoreStyle(r.Score).Render(fmt.Sprintf("%.1f%%", r.Score)))
	for _, h := range r.Missing {
		p.printf("  %s %s\n", FailStyle.Render("missing"), h)
	}
	leaks := make([]string, 0, len(r.InfoLeaks))
	for k := range r.InfoLeaks {
		leaks = append(leaks, k)
	}
	sort.Strings(leaks)
	for _, k := range leaks {
		p.printf("  %s %s: %s\n", WarnStyle.Render("leak"), k, r.InfoLeaks[k])
	}
	p.printf("\n")
}
