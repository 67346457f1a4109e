package recon

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/spaolacci/murmur3"

	"github.com/reconkit/reconkit/pkg/iohelper"
	"github.com/reconkit/reconkit/pkg/urlnorm"
)

// FaviconResult carries the hash Shodan indexes as http.favicon.hash.
type FaviconResult struct {
	URL  string `json:"url"`
	Hash int32  `json:"hash"`
	Size int    `json:"size"`
}

// FaviconHash fetches /favicon.ico from the origin of rawURL and returns
// its Shodan-style hash.
func (s *Scanner) FaviconHash(ctx context.Context, rawURL string) (*FaviconResult, error) {
	target, err := targetURL(rawURL)
	if err != nil {
		return nil, err
	}
	icon := urlnorm.Origin(target) + "/favicon.ico"

	return cached(s, "favicon", icon, 0, func() (*FaviconResult, error) {
		resp, err := s.fetch(ctx, icon, true)
		if err != nil {
			return nil, err
		}
		defer iohelper.DrainAndClose(resp.Body)
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: status %d", ErrNoFavicon, resp.StatusCode)
		}
		body, err := iohelper.ReadBody(resp.Body, iohelper.PageMaxBodySize)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", icon, err)
		}
		if len(body) == 0 {
			return nil, fmt.Errorf("%w: empty body", ErrNoFavicon)
		}
		return &FaviconResult{URL: icon, Hash: MMH3Favicon(body), Size: len(body)}, nil
	})
}

// MMH3Favicon hashes data the way Shodan does: murmur3 (32-bit, seed 0)
// over the MIME base64 encoding, which breaks lines every 76 characters
// and ends with a newline. The result is read as a signed integer.
func MMH3Favicon(data []byte) int32 {
	return int32(murmur3.Sum32([]byte(mimeBase64(data))))
}

func mimeBase64(data []byte) string {
	enc := base64.StdEncoding.EncodeToString(data)
	var b strings.Builder
	b.Grow(len(enc) + len(enc)/76 + 1)
	for len(enc) > 76 {
		b.WriteString(enc[:76])
		b.WriteByte('\n')
		enc = enc[76:]
	}
	b.WriteString(enc)
	b.WriteByte('\n')
	return b.String()
}
