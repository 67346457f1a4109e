package duration_test

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reconkit/reconkit/pkg/duration"
)

// guardedSuffixes name the fields that must take a duration constant.
var guardedSuffixes = []string{"Timeout", "TTL", "KeepAlive"}

// TestNoHardcodedTimeouts keeps literal durations such as 30*time.Second
// out of the guarded duration fields under pkg/ and cmd/.
func TestNoHardcodedTimeouts(t *testing.T) {
	root := projectRoot(t)
	var violations []string

	for _, dir := range []string{"pkg", "cmd"} {
		base := filepath.Join(root, dir)
		if _, err := os.Stat(base); os.IsNotExist(err) {
			continue
		}
		err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") {
				return err
			}
			if strings.HasSuffix(path, "_test.go") || filepath.Base(path) == "duration.go" {
				return nil
			}
			found, err := scanFile(root, path)
			if err != nil {
				return err
			}
			violations = append(violations, found...)
			return nil
		})
		require.NoError(t, err)
	}

	assert.Empty(t, violations, "use a duration.* constant instead")
}

func scanFile(root, path string) ([]string, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, 0)
	if err != nil {
		return nil, err
	}

	var out []string
	report := func(field string, value ast.Expr) {
		if !guarded(field) || !literalDuration(value) {
			return
		}
		pos := fset.Position(value.Pos())
		rel, _ := filepath.Rel(root, pos.Filename)
		out = append(out, fmt.Sprintf("%s:%d: %s", rel, pos.Line, field))
	}

	ast.Inspect(file, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.KeyValueExpr:
			if key, ok := n.Key.(*ast.Ident); ok {
				report(key.Name, n.Value)
			}
		case *ast.AssignStmt:
			for i, lhs := range n.Lhs {
				if sel, ok := lhs.(*ast.SelectorExpr); ok && i < len(n.Rhs) {
					report(sel.Sel.Name, n.Rhs[i])
				}
			}
		}
		return true
	})
	return out, nil
}

func guarded(field string) bool {
	for _, s := range guardedSuffixes {
		if strings.HasSuffix(field, s) {
			return true
		}
	}
	return false
}

// literalDuration matches N * time.Unit.
func literalDuration(expr ast.Expr) bool {
	bin, ok := expr.(*ast.BinaryExpr)
	if !ok || bin.Op != token.MUL {
		return false
	}
	if _, ok := bin.X.(*ast.BasicLit); !ok {
		return false
	}
	sel, ok := bin.Y.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	pkg, ok := sel.X.(*ast.Ident)
	return ok && pkg.Name == "time"
}

func projectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		require.NotEqual(t, dir, parent, "go.mod not found")
		dir = parent
	}
}

func TestLiteralDuration(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"30 * time.Second", true},
		{"1 * time.Hour", true},
		{"duration.HTTPRequest", false},
		{"time.Duration(n) * time.Second", false},
		{"30 + time.Second", false},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			expr, err := parser.ParseExpr(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, literalDuration(expr))
		})
	}
}

func TestGuarded(t *testing.T) {
	for _, field := range []string{"IdleConnTimeout", "DNSCacheTTL", "KeepAlive"} {
		assert.True(t, guarded(field), field)
	}
	assert.False(t, guarded("MaxIdleConns"))
}

func TestConstantOrdering(t *testing.T) {
	assert.Less(t, duration.HTTPProbing, duration.HTTPRequest, "recon probes are single-shot and faster than crawl requests")
	assert.LessOrEqual(t, duration.DNSQuery, duration.WhoisQuery)
	assert.Less(t, duration.DNSCacheNegativeTTL, duration.DNSCacheTTL)
	assert.Less(t, duration.CacheHeaders, duration.CacheDNS)
	assert.Less(t, duration.CacheDNS, duration.CacheWhois)
	assert.Less(t, duration.ExpectContinue, duration.HTTPRequest)
	assert.Less(t, duration.Dial, duration.KeepAlive)
}
