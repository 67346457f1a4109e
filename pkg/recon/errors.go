package recon

import "errors"

// Sentinel errors returned by the recon probes.
// Callers should use errors.Is() to check for these.
var (
	// ErrInvalidDomain indicates the input could not be reduced to a host name.
	ErrInvalidDomain = errors.New("recon: invalid domain")

	// ErrNoRecords indicates every DNS record type failed to resolve.
	ErrNoRecords = errors.New("recon: no DNS record type could be resolved")

	// ErrWhois indicates the WHOIS exchange itself failed.
	ErrWhois = errors.New("recon: WHOIS query failed")

	// ErrNoFavicon indicates the site served no usable favicon.
	ErrNoFavicon = errors.New("recon: favicon not available")
)
