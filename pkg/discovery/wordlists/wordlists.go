// Package wordlists provides the embedded path wordlists used by the
// wordlist prober. "common" is the default list; framework lists can be
// layered on top for targets whose stack is known.
package wordlists

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed *.txt
var embedded embed.FS

// Common is the name of the default list.
const Common = "common"

// Frameworks lists the framework wordlists available besides Common.
var Frameworks = []string{
	"generic-api", "wordpress", "spring", "laravel", "django", "rails", "express", "nextjs",
}

// Load returns the paths of one named list.
func Load(name string) ([]string, error) {
	data, err := embedded.ReadFile(name + ".txt")
	if err != nil {
		return nil, fmt.Errorf("unknown wordlist %q: %w", name, err)
	}
	return parseLines(string(data)), nil
}

// MustLoadCommon returns the default list. The file is embedded at build
// time, so a failure here is a packaging bug.
func MustLoadCommon() []string {
	paths, err := Load(Common)
	if err != nil {
		panic(err)
	}
	return paths
}

// LoadMultiple merges several lists, keeping first-seen order and dropping duplicates.
func LoadMultiple(names []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	for _, name := range names {
		list, err := Load(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		for _, p := range list {
			if !seen[p] {
				seen[p] = true
				paths = append(paths, p)
			}
		}
	}
	return paths, nil
}

func parseLines(content string) []string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			lines = append(lines, line)
		}
	}
	return lines
}
