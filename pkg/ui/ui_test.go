package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/reconkit/reconkit/pkg/defaults"
	"github.com/reconkit/reconkit/pkg/discovery"
	"github.com/reconkit/reconkit/pkg/recon"
)

func newTestPrinter(silent bool) (*Printer, *bytes.Buffer) {
	var buf bytes.Buffer
	ConfigureColor(&buf, true)
	return NewPrinter(&buf, silent), &buf
}

func TestBanner(t *testing.T) {
	p, buf := newTestPrinter(false)
	p.Banner()
	assert.Contains(t, buf.String(), "v"+defaults.Version)
	assert.Contains(t, buf.String(), `/_/   \___/`)
}

func TestSilentPrinterWritesNothing(t *testing.T) {
	p, buf := newTestPrinter(true)
	p.Banner()
	p.Config(Option{"Target", "https://example.com"})
	p.Info("hello")
	p.Summary(&discovery.Result{Target: "https://example.com"})
	assert.Zero(t, buf.Len())
}

func TestNilPrinter(t *testing.T) {
	var p *Printer
	assert.NotPanics(t, func() { p.Info("ignored") })
}

func TestConfigSkipsEmptyValues(t *testing.T) {
	p, buf := newTestPrinter(false)
	p.Config(Option{"Target", "https://example.com"}, Option{"Proxy", ""}, Option{"Depth", "2"})

	out := buf.String()
	assert.Contains(t, out, "https://example.com")
	assert.NotContains(t, out, "Proxy")
	assert.Less(t, strings.Index(out, "Target"), strings.Index(out, "Depth"), "order is kept")
}

func TestSummary(t *testing.T) {
	p, buf := newTestPrinter(false)
	res := &discovery.Result{
		Target:   "https://example.com",
		Duration: 1500 * time.Millisecond,
		ByMethod: map[discovery.Method][]string{
			discovery.MethodWordlist:      {"https://example.com/admin"},
			discovery.MethodInternalLinks: {"https://example.com/a", "https://example.com/b"},
		},
		All:    []string{"https://example.com/a", "https://example.com/admin", "https://example.com/b"},
		Errors: []string{"Error querying Wayback Machine: timeout"},
	}
	p.Summary(res)

	out := buf.String()
	for _, m := range discovery.Methods {
		assert.Contains(t, out, string(m))
	}
	assert.Contains(t, out, "3 unique endpoints in 1.5s")
	assert.Contains(t, out, "[!] Error querying Wayback Machine: timeout")
}

func TestHeaderSummary(t *testing.T) {
	p, buf := newTestPrinter(false)
	p.HeaderSummary(&recon.HeaderReport{
		URL:        "https://example.com",
		StatusCode: 200,
		Score:      42.9,
		Missing:    []string{"content-security-policy"},
		InfoLeaks:  map[string]string{"x-powered-by": "PHP/8.1", "server": "nginx"},
	})

	out := buf.String()
	assert.Contains(t, out, "42.9%")
	assert.Contains(t, out, "missing content-security-policy")
	assert.Less(t, strings.Index(out, "leak server"), strings.Index(out, "leak x-powered-by"))
}

func TestColorDisabledForBuffers(t *testing.T) {
	assert.False(t, ColorEnabled(&bytes.Buffer{}))
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}

func TestColorDisabledByNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.False(t, ColorEnabled(&bytes.Buffer{}))
}

func TestScoreStyle(t *testing.T) {
	assert.Equal(t, PassStyle, ScoreStyle(85.7))
	assert.Equal(t, WarnStyle, ScoreStyle(42.9))
	assert.Equal(t, FailStyle, ScoreStyle(0))
}

func TestPrinterUsesASCIIMarksOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)
	p.Success("done")
	p.Error("broken")
	assert.Contains(t, buf.String(), "[+] done")
	assert.Contains(t, buf.String(), "[X] broken")
}
