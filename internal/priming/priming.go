// Package priming defines the value types a speech/NLU front end is biased
// ("primed") with on each conversational turn, together with the pure merge
// algebra that combines contributions from composed recognizers and dialogs.
//
// All types are treated as immutable snapshots: merge operations return fresh
// values and never mutate their inputs. Set semantics are deterministic —
// intents and entities dedup by explicit keys in first-seen order, so an
// unchanged input tree always produces an identical aggregate.
package priming

// Intent is a named conversational goal a recognizer can detect. Source
// identifies the compiled model the intent came from, so identical intent
// names from different models stay distinct.
type Intent struct {
	Name   string `json:"name"`
	Source string `json:"source,omitempty"`
}

// Key returns the dedup key for the intent.
func (i Intent) Key() string {
	return i.Name + "\x00" + i.Source
}

// Entity is a named extractable value type (number, date, custom list, ...)
// a recognizer can detect. ID disambiguates multiple pattern entities that
// share a name; Source identifies the originating model. Both normalize to
// the empty string when unset.
type Entity struct {
	Name   string `json:"name"`
	ID     string `json:"id,omitempty"`
	Source string `json:"source,omitempty"`
}

// Key returns the dedup key for the entity.
func (e Entity) Key() string {
	return e.Name + "\x00" + e.ID + "\x00" + e.Source
}

// Entry is one recognizable phrase and its alternate forms. Synonym order is
// meaningful: first-seen order is preserved through merges.
type Entry struct {
	Value    string   `json:"value"`
	Synonyms []string `json:"synonyms,omitempty"`
}

// List holds all vocabulary for one entity key. Within a single Aggregate
// there is at most one List per entity key.
type List struct {
	Entity  string  `json:"entity"`
	Entries []Entry `json:"entries,omitempty"`
}

// Aggregate is the unit produced by every describe computation and consumed
// by the turn stack: everything a recognizer or dialog can contribute to
// priming. Ordered slices with keyed dedup stand in for sets so that output
// order is stable across runs.
type Aggregate struct {
	Intents    []Intent `json:"intents,omitempty"`
	Entities   []Entity `json:"entities,omitempty"`
	Vocabulary []List   `json:"vocabulary,omitempty"`
}

// Empty reports whether the aggregate carries no priming information.
func (a Aggregate) Empty() bool {
	return len(a.Intents) == 0 && len(a.Entities) == 0 && len(a.Vocabulary) == 0
}

// Clone returns a deep copy of the aggregate.
func (a Aggregate) Clone() Aggregate {
	out := Aggregate{}
	if len(a.Intents) > 0 {
		out.Intents = append([]Intent(nil), a.Intents...)
	}
	if len(a.Entities) > 0 {
		out.Entities = append([]Entity(nil), a.Entities...)
	}
	for _, l := range a.Vocabulary {
		nl := List{Entity: l.Entity}
		for _, e := range l.Entries {
			nl.Entries = append(nl.Entries, Entry{
				Value:    e.Value,
				Synonyms: append([]string(nil), e.Synonyms...),
			})
		}
		out.Vocabulary = append(out.Vocabulary, nl)
	}
	return out
}

// VocabularyFor returns the vocabulary list for an entity key, if present.
func (a Aggregate) VocabularyFor(entity string) (List, bool) {
	for _, l := range a.Vocabulary {
		if l.Entity == entity {
			return l, true
		}
	}
	return List{}, false
}
