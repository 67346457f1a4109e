package input

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListFlagReplacesDefault(t *testing.T) {
	frameworks := []string{"from-config"}
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Var(NewListFlag(&frameworks), "frameworks", "")

	require.NoError(t, fs.Parse([]string{"-frameworks", "django,rails", "-frameworks", " laravel ,"}))
	assert.Equal(t, []string{"django", "rails", "laravel"}, frameworks)
}

func TestListFlagKeepsDefaultWhenUnset(t *testing.T) {
	frameworks := []string{"from-config"}
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := NewListFlag(&frameworks)
	fs.Var(f, "frameworks", "")

	require.NoError(t, fs.Parse(nil))
	assert.Equal(t, []string{"from-config"}, frameworks)
	assert.Equal(t, "from-config", f.String())
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitList(" a,,b , "))
	assert.Nil(t, SplitList(""))
}
