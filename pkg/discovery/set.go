package discovery

import (
	"fmt"
	"sort"
	"sync"
)

// Method names the channel that first found an endpoint.
type Method string

// Discovery channels. The string values are the keys of the detailed
// output's endpoints_by_method object.
const (
	MethodWordlist      Method = "wordlist"
	MethodWayback       Method = "wayback"
	MethodJSAnalysis    Method = "js_analysis"
	MethodInternalLinks Method = "internal_links"
	MethodRobotsSitemap Method = "robots_sitemap"
)

// Methods lists every channel in output order.
var Methods = []Method{
	MethodWordlist,
	MethodWayback,
	MethodJSAnalysis,
	MethodInternalLinks,
	MethodRobotsSitemap,
}

// URLSet is the deduplicated endpoint collection shared by all channels.
// Membership and the per-channel lists change under one lock, so a URL is
// attributed to exactly one channel: whichever inserted it first.
type URLSet struct {
	mu       sync.Mutex
	seen     map[string]Method
	byMethod map[Method][]string
	onAdd    func(Method)
}

// NewURLSet returns an empty set.
func NewURLSet() *URLSet {
	return &URLSet{
		seen:     make(map[string]Method),
		byMethod: make(map[Method][]string, len(Methods)),
	}
}

// Add inserts u under m and reports whether it was new.
func (s *URLSet) Add(u string, m Method) bool {
	s.mu.Lock()
	if _, ok := s.seen[u]; ok {
		s.mu.Unlock()
		return false
	}
	s.seen[u] = m
	s.byMethod[m] = append(s.byMethod[m], u)
	hook := s.onAdd
	s.mu.Unlock()

	if hook != nil {
		hook(m)
	}
	return true
}

// Contains reports whether u has been recorded.
func (s *URLSet) Contains(u string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[u]
	return ok
}

// Len returns the number of distinct endpoints.
func (s *URLSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// Sorted returns every endpoint in lexicographic order.
func (s *URLSet) Sorted() []string {
	s.mu.Lock()
	out := make([]string, 0, len(s.seen))
	for u := range s.seen {
		out = append(out, u)
	}
	s.mu.Unlock()
	sort.Strings(out)
	return out
}

// ByMethod returns a copy of the per-channel lists in insertion order.
// Every channel has a key, empty or not.
func (s *URLSet) ByMethod() map[Method][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[Method][]string, len(Methods))
	for _, m := range Methods {
		list := make([]string, len(s.byMethod[m]))
		copy(list, s.byMethod[m])
		out[m] = list
	}
	return out
}

// ErrorLog collects the human-readable errors of one run. Channels append
// to it instead of failing.
type ErrorLog struct {
	mu      sync.Mutex
	entries []string
}

// Addf appends a formatted message.
func (l *ErrorLog) Addf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.mu.Lock()
	l.entries = append(l.entries, msg)
	l.mu.Unlock()
}

// Entries returns a copy of the messages in append order.
func (l *ErrorLog) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return nil
	}
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of messages.
func (l *ErrorLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
