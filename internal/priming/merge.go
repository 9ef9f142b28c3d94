package priming

// Merge rules:
//   - intents and entities union by key; duplicates collapse, first-seen
//     order wins
//   - vocabulary lists union by entity key; when two contributors target the
//     same entity, their entry sequences concatenate in contributor order,
//     and entries sharing a value union their synonyms (first-seen order,
//     exact duplicates dropped)
//
// Everything here is a pure function over the inputs. No accumulator state
// escapes, so describe computations built on Merge stay idempotent.

// Merge returns the union of two aggregates. Neither input is modified.
func Merge(a, b Aggregate) Aggregate {
	return MergeAll(a, b)
}

// MergeAll returns the union of any number of aggregates, combined in
// argument order.
func MergeAll(aggs ...Aggregate) Aggregate {
	var out Aggregate

	seenIntents := make(map[string]bool)
	seenEntities := make(map[string]bool)
	listIndex := make(map[string]int)

	for _, a := range aggs {
		for _, in := range a.Intents {
			if k := in.Key(); !seenIntents[k] {
				seenIntents[k] = true
				out.Intents = append(out.Intents, in)
			}
		}
		for _, en := range a.Entities {
			if k := en.Key(); !seenEntities[k] {
				seenEntities[k] = true
				out.Entities = append(out.Entities, en)
			}
		}
		for _, l := range a.Vocabulary {
			idx, ok := listIndex[l.Entity]
			if !ok {
				out.Vocabulary = append(out.Vocabulary, List{Entity: l.Entity})
				idx = len(out.Vocabulary) - 1
				listIndex[l.Entity] = idx
			}
			out.Vocabulary[idx].Entries = mergeEntries(out.Vocabulary[idx].Entries, l.Entries)
		}
	}
	return out
}

// mergeEntries appends entries onto existing, collapsing entries that share a
// value by unioning their synonyms. existing is extended in place; entry
// slices from the inputs are never aliased into the result.
func mergeEntries(existing, incoming []Entry) []Entry {
	index := make(map[string]int, len(existing))
	for i, e := range existing {
		index[e.Value] = i
	}
	for _, e := range incoming {
		if i, ok := index[e.Value]; ok {
			existing[i].Synonyms = unionStrings(existing[i].Synonyms, e.Synonyms)
			continue
		}
		index[e.Value] = len(existing)
		existing = append(existing, Entry{
			Value:    e.Value,
			Synonyms: append([]string(nil), e.Synonyms...),
		})
	}
	return existing
}

// unionStrings appends items from b not already present in a, preserving
// first-seen order.
func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	for _, s := range a {
		seen[s] = true
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			a = append(a, s)
		}
	}
	return a
}

// Equal reports whether two aggregates carry identical priming information,
// including ordering.
func Equal(a, b Aggregate) bool {
	if len(a.Intents) != len(b.Intents) ||
		len(a.Entities) != len(b.Entities) ||
		len(a.Vocabulary) != len(b.Vocabulary) {
		return false
	}
	for i := range a.Intents {
		if a.Intents[i] != b.Intents[i] {
			return false
		}
	}
	for i := range a.Entities {
		if a.Entities[i] != b.Entities[i] {
			return false
		}
	}
	for i := range a.Vocabulary {
		if !listsEqual(a.Vocabulary[i], b.Vocabulary[i]) {
			return false
		}
	}
	return true
}

func listsEqual(a, b List) bool {
	if a.Entity != b.Entity || len(a.Entries) != len(b.Entries) {
		return false
	}
	for i := range a.Entries {
		if a.Entries[i].Value != b.Entries[i].Value {
			return false
		}
		if len(a.Entries[i].Synonyms) != len(b.Entries[i].Synonyms) {
			return false
		}
		for j := range a.Entries[i].Synonyms {
			if a.Entries[i].Synonyms[j] != b.Entries[i].Synonyms[j] {
				return false
			}
		}
	}
	return true
}
