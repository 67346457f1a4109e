// Package input collects crawl targets and word lists from flags, files
// and piped stdin.
package input

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"
)

// ErrNoTargets is returned when no source yields a target.
var ErrNoTargets = errors.New("input: no targets specified")

// TargetSource gathers targets from every configured source.
type TargetSource struct {
	URLs     []string  // -u values and positional arguments
	ListFile string    // -l file, one target per line
	Stdin    io.Reader // piped input; nil skips it
}

// Targets returns the deduplicated targets in the order first seen.
// Blank lines and #-comments are skipped. Targets are returned as given,
// so a bare host keeps its default scheme decision for discovery.
func (ts *TargetSource) Targets() ([]string, error) {
	var targets []string
	seen := make(map[string]bool)
	add := func(lines []string) {
		for _, t := range lines {
			t = strings.TrimSpace(t)
			if t == "" || strings.HasPrefix(t, "#") || seen[t] {
				continue
			}
			seen[t] = true
			targets = append(targets, t)
		}
	}

	add(ts.URLs)
	if ts.ListFile != "" {
		lines, err := ReadLines(ts.ListFile)
		if err != nil {
			return nil, err
		}
		add(lines)
	}
	if ts.Stdin != nil {
		lines, err := scanLines(ts.Stdin)
		if err != nil {
			return nil, err
		}
		add(lines)
	}

	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	return targets, nil
}

// ReadLines returns the trimmed, non-empty, non-comment lines of path.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return scanLines(f)
}

func scanLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, sc.Err()
}

// PipedStdin returns os.Stdin when it is a pipe or file, and nil for a
// terminal.
func PipedStdin() io.Reader {
	stat, err := os.Stdin.Stat()
	if err != nil || stat.Mode()&os.ModeCharDevice != 0 {
		return nil
	}
	return os.Stdin
}
