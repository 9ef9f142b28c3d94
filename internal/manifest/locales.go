package manifest

import (
	"sort"

	"dialogprime/internal/dialog"
	"dialogprime/internal/recognizer"
)

// Locales collects every locale reachable through the recognizers of a
// dialog tree, sorted for stable output. The empty default key is excluded.
func Locales(d dialog.Dialog) []string {
	seen := make(map[string]bool)
	var walk func(d dialog.Dialog)
	walk = func(d dialog.Dialog) {
		if d == nil {
			return
		}
		if comp, ok := d.(dialog.Composite); ok {
			for _, loc := range recognizer.Locales(comp.Recognizer) {
				seen[loc] = true
			}
		}
		for _, child := range Children(d) {
			walk(child)
		}
	}
	walk(d)

	out := make([]string, 0, len(seen))
	for loc := range seen {
		out = append(out, loc)
	}
	sort.Strings(out)
	return out
}
