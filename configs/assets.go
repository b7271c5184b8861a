package configs

import (
	_ "embed"
	"strings"
)

//go:embed config.yaml
var ConfigFile string

//go:embed hide_selectors.lst
var hideSelectors string

// HideSelectors the css selectors of the map website controls hidden before a
// screenshot, one per line, # starts a comment
func HideSelectors() []string {
	cleanStr := strings.ReplaceAll(hideSelectors, "\r", "")
	sels := make([]string, 0)
	for _, l := range strings.Split(cleanStr, "\n") {
		l = strings.TrimSpace(l)
		if l == "" || strings.HasPrefix(l, "#") {
			continue
		}
		sels = append(sels, l)
	}
	return sels
}
