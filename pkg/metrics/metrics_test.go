package metrics

import (
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveProbe("wordlist", OutcomeHit, time.Millisecond)
		c.Discovered("wordlist")
		c.ObserveRequest("page", time.Millisecond)
		c.PageFetched(200)
		c.ScriptAnalyzed()
		c.ChannelError("wayback")
		c.ReconQuery("dns", OutcomeHit, time.Millisecond)
		c.ToolCall("dns_lookup", OutcomeHit, time.Millisecond)
		c.RunStarted("json")()
		assert.NoError(t, c.Close())
	})
	assert.Nil(t, c.Registry())
}

func TestCountersIncrement(t *testing.T) {
	c := New()

	c.ObserveProbe("wordlist", OutcomeHit, time.Millisecond)
	c.ObserveProbe("wordlist", OutcomeHit, time.Millisecond)
	c.ObserveProbe("wordlist", OutcomeMiss, time.Millisecond)
	c.Discovered("internal_links")
	c.PageFetched(302)
	c.PageFetched(0)
	c.ScriptAnalyzed()
	c.ChannelError("wayback")
	c.ReconQuery("whois", OutcomeDuplicate, time.Millisecond)
	c.ToolCall("tls_info", OutcomeError, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.probesTotal.WithLabelValues("wordlist", OutcomeHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.probesTotal.WithLabelValues("wordlist", OutcomeMiss)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.discoveredTotal.WithLabelValues("internal_links")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.pagesTotal.WithLabelValues("3xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.pagesTotal.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.scriptsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.errorsTotal.WithLabelValues("wayback")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.reconTotal.WithLabelValues("whois", OutcomeDuplicate)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.toolCallsTotal.WithLabelValues("tls_info", OutcomeError)))
}

func TestRunStartedTracksInFlight(t *testing.T) {
	c := New()
	done := c.RunStarted("json")
	assert.Equal(t, 1.0, testutil.ToFloat64(c.inFlight))
	done()
	assert.Equal(t, 0.0, testutil.ToFloat64(c.inFlight))
}

func TestServeExposesMetrics(t *testing.T) {
	c := New()
	c.Discovered("wayback")

	addr, err := c.Serve("127.0.0.1:0", nil)
	require.NoError(t, err)
	defer c.Close()

	resp, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `reconkit_discovered_total{channel="wayback"} 1`)
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", StatusClass(200))
	assert.Equal(t, "4xx", StatusClass(404))
	assert.Equal(t, "error", StatusClass(0))
}
