package discovery

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/reconkit/reconkit/pkg/defaults"
	"github.com/reconkit/reconkit/pkg/iohelper"
	"github.com/reconkit/reconkit/pkg/jsonutil"
	"github.com/reconkit/reconkit/pkg/urlnorm"
)

// DefaultWaybackEndpoint is the Internet Archive CDX search API.
const DefaultWaybackEndpoint = "https://web.archive.org/cdx/search/cdx"

// waybackQuery builds the CDX query for every archived URL under host,
// one row per distinct URL key.
func waybackQuery(endpoint, host string) string {
	return fmt.Sprintf("%s?url=%s/*&output=json&fl=original&collapse=urlkey", endpoint, host)
}

// parseCDX extracts the original-URL column from a CDX JSON listing. The
// first row is the field header. An empty body means no captures.
func parseCDX(body []byte) ([]string, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, nil
	}
	var rows [][]string
	if err := jsonutil.Unmarshal(body, &rows); err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	out := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) > 0 && row[0] != "" {
			out = append(out, row[0])
		}
	}
	return out, nil
}

// harvestWayback asks the archive for historical URLs of the target host
// and probes the in-scope ones that still answer.
func (r *run) harvestWayback(ctx context.Context) {
	endpoint := r.opts.WaybackEndpoint
	if endpoint == "" {
		endpoint = DefaultWaybackEndpoint
	}
	query := waybackQuery(endpoint, urlnorm.Host(r.target))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, query, nil)
	if err != nil {
		r.fail(MethodWayback, "Error querying Wayback Machine: %v", err)
		return
	}
	req.Header.Set("User-Agent", defaults.UserAgent("wayback"))

	resp, err := r.do(req)
	if err != nil {
		r.fail(MethodWayback, "Error querying Wayback Machine: %v", err)
		return
	}
	defer iohelper.DrainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		r.fail(MethodWayback, "Wayback Machine query failed with status: %d", resp.StatusCode)
		return
	}
	body, err := iohelper.ReadBody(resp.Body, iohelper.ArchiveMaxBodySize)
	if err != nil {
		r.fail(MethodWayback, "Error querying Wayback Machine: %v", err)
		return
	}
	archived, err := parseCDX(body)
	if err != nil {
		r.fail(MethodWayback, "Error parsing Wayback Machine JSON: %v", err)
		return
	}

	candidates := scopeArchived(archived, r.target, r.opts.MaxWaybackURLs)
	if len(candidates) == 0 {
		return
	}
	pool := r.newPool(min(defaults.WaybackConcurrency, len(candidates)), MethodWayback)
	defer pool.Close()
	pool.ParallelFor(ctx, len(candidates), func(i int) {
		r.prober.Check(ctx, candidates[i], MethodWayback, http.MethodHead)
	})
}

// scopeArchived keeps the normalized, distinct URLs on the target host,
// stopping at limit when it is positive.
func scopeArchived(archived []string, target string, limit int) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, a := range archived {
		if limit > 0 && len(out) >= limit {
			break
		}
		if !urlnorm.SameOrigin(a, target) {
			continue
		}
		u, err := urlnorm.Normalize(a)
		if err != nil {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
