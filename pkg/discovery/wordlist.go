package discovery

import (
	"context"
	"net/http"
	"strings"

	"github.com/reconkit/reconkit/pkg/discovery/wordlists"
)

// resolveWordlist returns the paths to probe: the explicit list when one
// is given, otherwise the embedded common list, followed by any framework
// lists with duplicates removed.
func resolveWordlist(explicit, frameworks []string) ([]string, error) {
	base := explicit
	if len(base) == 0 {
		base = wordlists.MustLoadCommon()
	}
	if len(frameworks) == 0 {
		return base, nil
	}
	extra, err := wordlists.LoadMultiple(frameworks)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, p := range list {
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out, nil
}

// probeWordlist checks {origin}/{path} for every path at once.
func (r *run) probeWordlist(ctx context.Context) {
	paths := r.wordlist
	if len(paths) == 0 {
		return
	}
	pool := r.newPool(len(paths), MethodWordlist)
	defer pool.Close()

	pool.ParallelFor(ctx, len(paths), func(i int) {
		u := r.origin + "/" + strings.TrimPrefix(paths[i], "/")
		r.prober.Check(ctx, u, MethodWordlist, http.MethodHead)
	})
}
