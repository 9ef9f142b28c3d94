package recognizer

import "sort"

// Locales collects every locale key reachable from a recognizer tree. The
// empty default key is excluded. Results are sorted for stable output.
func Locales(r Recognizer) []string {
	seen := make(map[string]bool)
	collectLocales(r, seen)

	out := make([]string, 0, len(seen))
	for loc := range seen {
		out = append(out, loc)
	}
	sort.Strings(out)
	return out
}

func collectLocales(r Recognizer, seen map[string]bool) {
	switch v := r.(type) {
	case MultiLanguage:
		for loc, child := range v.ByLocale {
			if loc != "" {
				seen[loc] = true
			}
			collectLocales(child, seen)
		}
	case Set:
		for _, child := range v.Recognizers {
			collectLocales(child, seen)
		}
	case CrossTrained:
		for _, child := range v.Recognizers {
			collectLocales(child, seen)
		}
	}
}
