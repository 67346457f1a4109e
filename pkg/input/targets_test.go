package input

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetsMergesSources(t *testing.T) {
	list := filepath.Join(t.TempDir(), "targets.txt")
	require.NoError(t, os.WriteFile(list, []byte("# staging\nb.example\n\nexample.com\n"), 0o600))

	ts := &TargetSource{
		URLs:     []string{"example.com", " https://a.example "},
		ListFile: list,
		Stdin:    strings.NewReader("c.example\nexample.com\n"),
	}
	got, err := ts.Targets()
	require.NoError(t, err)
	assert.Equal(t, []string{"example.com", "https://a.example", "b.example", "c.example"}, got)
}

func TestTargetsEmpty(t *testing.T) {
	_, err := (&TargetSource{URLs: []string{" ", "# nothing"}}).Targets()
	assert.ErrorIs(t, err, ErrNoTargets)
}

func TestTargetsMissingListFile(t *testing.T) {
	_, err := (&TargetSource{ListFile: filepath.Join(t.TempDir(), "nope.txt")}).Targets()
	assert.Error(t, err)
}

func TestReadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte("api\n  admin  \n#skip\n"), 0o600))

	lines, err := ReadLines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"api", "admin"}, lines)
}
