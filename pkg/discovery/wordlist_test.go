package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reconkit/reconkit/pkg/discovery/wordlists"
)

func TestResolveWordlistDefaultsToCommon(t *testing.T) {
	got, err := resolveWordlist(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, wordlists.MustLoadCommon(), got)
}

func TestResolveWordlistExplicit(t *testing.T) {
	got, err := resolveWordlist([]string{"a", "b"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestResolveWordlistFrameworksAppend(t *testing.T) {
	wp, err := wordlists.Load("wordpress")
	require.NoError(t, err)

	got, err := resolveWordlist([]string{"admin", wp[0]}, []string{"wordpress"})
	require.NoError(t, err)
	assert.Equal(t, "admin", got[0])
	assert.Equal(t, wp[0], got[1])
	assert.Len(t, got, 1+len(wp), "shared entries appear once")
}

func TestResolveWordlistUnknownFramework(t *testing.T) {
	_, err := resolveWordlist(nil, []string{"nope"})
	assert.Error(t, err)
}
