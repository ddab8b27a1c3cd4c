package catalog

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// LoadPrompts concatenates prompt template files from dir into a single
// bundle for the generative selector's system prompt. Markdown and text
// files are included in lexical order; an examples.json file, if present,
// is appended last under an "Examples:" header. A missing directory yields
// an empty bundle, never an error.
func LoadPrompts(dir string) string {
	if _, err := os.Stat(dir); err != nil {
		return ""
	}

	matches, err := doublestar.FilepathGlob(filepath.Join(dir, "*.{md,txt}"))
	if err != nil {
		return ""
	}
	sort.Strings(matches)

	var parts []string
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		parts = append(parts, string(data))
	}

	if data, err := os.ReadFile(filepath.Join(dir, "examples.json")); err == nil {
		parts = append(parts, "Examples:\n"+string(data))
	}

	trimmed := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimRight(p, " \t\n"); p != "" {
			trimmed = append(trimmed, p)
		}
	}

	return strings.Join(trimmed, "\n\n")
}
