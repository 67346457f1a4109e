// Package urlnorm canonicalizes discovered URLs and decides whether a URL
// belongs to the target origin. Every URL written to a discovery result
// passes through Normalize, so two spellings of one endpoint collapse to a
// single set entry.
package urlnorm

import (
	"net/url"
	"path"
	"strings"
)

// DefaultScheme is prepended to targets given as a bare host.
const DefaultScheme = "https"

// EnsureScheme prepends https:// when raw carries no http(s) scheme.
func EnsureScheme(raw string) string {
	raw = strings.TrimSpace(raw)
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return raw
	}
	return DefaultScheme + "://" + raw
}

// Normalize returns scheme://host/path[?query] for an absolute URL. The
// fragment is dropped and the query is kept verbatim. A bare host gets the
// default scheme.
func Normalize(raw string) (string, error) {
	u, err := url.Parse(EnsureScheme(raw))
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", &url.Error{Op: "normalize", URL: raw, Err: errMissingHost}
	}
	return format(u), nil
}

// Resolve joins ref against base using RFC 3986 reference resolution and
// normalizes the result. It reports false for hrefs that can never name
// an endpoint (fragments, javascript:, mailto:) and for unparseable input.
func Resolve(base, ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "#") {
		return "", false
	}
	lower := strings.ToLower(ref)
	for _, p := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, p) {
			return "", false
		}
	}

	b, err := url.Parse(base)
	if err != nil {
		return "", false
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	u := b.ResolveReference(r)
	if u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false
	}
	return format(u), true
}

// Origin returns scheme://host[:port] of raw, or "" when it cannot be parsed.
func Origin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
}

// SameOrigin reports whether u and base share a network location
// (host and port). The scheme is not compared, so an http target that
// upgrades to https keeps its links in scope.
func SameOrigin(u, base string) bool {
	a, err := url.Parse(u)
	if err != nil || a.Host == "" {
		return false
	}
	b, err := url.Parse(base)
	if err != nil {
		return false
	}
	return strings.EqualFold(a.Host, b.Host)
}

// Host returns the network location of raw.
func Host(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}

// HasExtension reports whether the path of raw ends with one of exts.
// Comparison is case-insensitive; exts carry their leading dot.
func HasExtension(raw string, exts []string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if ext == "" {
		return false
	}
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

func format(u *url.URL) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(u.Scheme))
	b.WriteString("://")
	b.WriteString(u.Host)
	b.WriteString(u.EscapedPath())
	if u.RawQuery != "" {
		b.WriteByte('?')
		b.WriteString(u.RawQuery)
	}
	return b.String()
}
