package discovery

import (
	"fmt"
	"time"

	"github.com/reconkit/reconkit/pkg/defaults"
	"github.com/reconkit/reconkit/pkg/jsonutil"
)

// Result is the outcome of one Discover call.
type Result struct {
	RunID    string
	Target   string
	Format   string
	Duration time.Duration

	// ByMethod holds every channel's list in insertion order; All is the
	// union, sorted.
	ByMethod map[Method][]string
	All      []string
	Errors   []string
}

// DetailedOutput is the json output shape.
type DetailedOutput struct {
	TargetURL                string              `json:"target_url"`
	DiscoveredEndpointsCount int                 `json:"discovered_endpoints_count"`
	EndpointsByMethod        map[string][]string `json:"endpoints_by_method"`
	AllDiscoveredEndpoints   []string            `json:"all_discovered_endpoints"`
	Errors                   []string            `json:"errors,omitempty"`
}

// SimpleOutput is the simple output shape.
type SimpleOutput struct {
	TargetURL           string   `json:"target_url"`
	DiscoveredEndpoints []string `json:"discovered_endpoints"`
	Errors              []string `json:"errors,omitempty"`
}

func newResult(runID, target, format string, set *URLSet, errs *ErrorLog, took time.Duration) *Result {
	return &Result{
		RunID:    runID,
		Target:   target,
		Format:   format,
		Duration: took,
		ByMethod: set.ByMethod(),
		All:      set.Sorted(),
		Errors:   errs.Entries(),
	}
}

// Count is the number of distinct endpoints found.
func (r *Result) Count() int {
	return len(r.All)
}

// Output returns the value to serialize for r.Format. Unknown formats use
// the detailed shape.
func (r *Result) Output() any {
	all := r.All
	if all == nil {
		all = []string{}
	}
	if r.Format == defaults.FormatSimple {
		return SimpleOutput{
			TargetURL:           r.Target,
			DiscoveredEndpoints: all,
			Errors:              r.Errors,
		}
	}

	byMethod := make(map[string][]string, len(Methods))
	for _, m := range Methods {
		list := r.ByMethod[m]
		if list == nil {
			list = []string{}
		}
		byMethod[string(m)] = list
	}
	return DetailedOutput{
		TargetURL:                r.Target,
		DiscoveredEndpointsCount: len(all),
		EndpointsByMethod:        byMethod,
		AllDiscoveredEndpoints:   all,
		Errors:                   r.Errors,
	}
}

// JSON renders Output with the given indent; an empty indent is compact.
func (r *Result) JSON(indent string) ([]byte, error) {
	if indent == "" {
		return jsonutil.Marshal(r.Output())
	}
	return jsonutil.MarshalIndent(r.Output(), indent)
}

// Verify checks that the channel lists partition the endpoint list: no URL
// is listed twice and every listed URL appears in All.
func (r *Result) Verify() error {
	all := make(map[string]struct{}, len(r.All))
	for _, u := range r.All {
		all[u] = struct{}{}
	}
	owner := make(map[string]Method, len(r.All))
	total := 0
	for _, m := range Methods {
		for _, u := range r.ByMethod[m] {
			if prev, dup := owner[u]; dup {
				return fmt.Errorf("discovery: %s listed under both %s and %s", u, prev, m)
			}
			if _, ok := all[u]; !ok {
				return fmt.Errorf("discovery: %s listed under %s but missing from results", u, m)
			}
			owner[u] = m
			total++
		}
	}
	if total != len(r.All) {
		return fmt.Errorf("discovery: channel lists hold %d endpoints, results hold %d", total, len(r.All))
	}
	return nil
}
