package defaults_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reconkit/reconkit/pkg/defaults"
)

func TestVersionIsSemver(t *testing.T) {
	semver := regexp.MustCompile(`^\d+\.\d+\.\d+(-[a-zA-Z0-9]+)?$`)
	assert.Regexp(t, semver, defaults.Version)
}

func TestUserAgent(t *testing.T) {
	assert.Equal(t, defaults.UAMinimal, defaults.UserAgent(""))
	assert.Equal(t, "reconkit/"+defaults.Version+" (wayback)", defaults.UserAgent("wayback"))
}

func TestDiscoveryLimitsArePositive(t *testing.T) {
	for name, v := range map[string]int{
		"CrawlDepth":       defaults.CrawlDepth,
		"MaxJSFiles":       defaults.MaxJSFiles,
		"MaxLinksPerPage":  defaults.MaxLinksPerPage,
		"SitemapDepth":     defaults.SitemapDepth,
		"CrawlConcurrency": defaults.CrawlConcurrency,
	} {
		assert.Positive(t, v, name)
	}
}
