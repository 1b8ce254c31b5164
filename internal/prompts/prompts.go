// Package prompts holds the built-in prompt templates for each pipeline stage.
//
// Templates are plain text with fmt placeholders. Users override them by
// editing the files written to ~/.docsight/prompts/.
package prompts

import (
	"embed"
	"strings"
)

//go:embed defaults/*.txt
var defaults embed.FS

// Default returns the built-in template for name, or "" if there is none.
func Default(name string) string {
	data, err := defaults.ReadFile("defaults/" + name + ".txt")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Names returns the names of all built-in templates.
func Names() []string {
	entries, err := defaults.ReadDir("defaults")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".txt"))
	}
	return names
}
