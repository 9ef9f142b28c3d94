// Package manifest loads declaratively authored dialog trees. A manifest is
// a YAML document whose recognizer and dialog nodes carry a kind
// discriminator, mirroring the closed variant set of the recognizer and
// dialog packages. Unknown kinds are load errors, not silent no-ops.
package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"dialogprime/internal/dialog"
	"dialogprime/internal/priming"
	"dialogprime/internal/recognizer"
)

// Manifest is one authored dialog tree plus its default locale.
type Manifest struct {
	Locale string
	Dialog dialog.Dialog
}

// Load reads and parses a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest.Load: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("manifest.Load: %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a manifest document and validates it.
func Parse(data []byte) (*Manifest, error) {
	var raw rawManifest
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if raw.Dialog == nil {
		return nil, fmt.Errorf("manifest has no dialog")
	}

	d, err := buildDialog(raw.Dialog)
	if err != nil {
		return nil, err
	}
	m := &Manifest{Locale: raw.Locale, Dialog: d}
	if err := validate(m); err != nil {
		return nil, err
	}
	return m, nil
}

// --- raw YAML shapes ---

type rawManifest struct {
	Locale string     `yaml:"locale"`
	Dialog *rawDialog `yaml:"dialog"`
}

type rawDialog struct {
	Kind    string       `yaml:"kind"`
	ID      string       `yaml:"id"`
	Prompt  string       `yaml:"prompt"`
	Op      string       `yaml:"op"`
	Choices []rawChoice  `yaml:"choices"`
	Actions []*rawDialog `yaml:"actions"`

	RecognizeNumbers  *bool `yaml:"recognizeNumbers"`
	RecognizeOrdinals *bool `yaml:"recognizeOrdinals"`
	NoValue           bool  `yaml:"noValue"`
	NoAction          bool  `yaml:"noAction"`

	Recognizer *rawRecognizer `yaml:"recognizer"`
	Schema     []rawBinding   `yaml:"schema"`
	Triggers   []rawTrigger   `yaml:"triggers"`
}

type rawChoice struct {
	Value    string   `yaml:"value"`
	Action   string   `yaml:"action"`
	Synonyms []string `yaml:"synonyms"`
}

type rawBinding struct {
	Property string   `yaml:"property"`
	Entities []string `yaml:"entities"`
}

type rawTrigger struct {
	On      string       `yaml:"on"`
	Intent  string       `yaml:"intent"`
	Actions []*rawDialog `yaml:"actions"`
}

type rawRecognizer struct {
	Kind          string                    `yaml:"kind"`
	Entity        string                    `yaml:"entity"`
	ID            string                    `yaml:"id"`
	Source        string                    `yaml:"source"`
	Intents       []string                  `yaml:"intents"`
	Entities      []string                  `yaml:"entities"`
	DynamicLists  []rawDynamicList          `yaml:"dynamicLists"`
	KnowledgeBase string                    `yaml:"knowledgeBase"`
	Recognizers   []*rawRecognizer          `yaml:"recognizers"`
	ByLocale      map[string]*rawRecognizer `yaml:"byLocale"`
}

type rawDynamicList struct {
	Entity  string     `yaml:"entity"`
	Entries []rawEntry `yaml:"entries"`
}

type rawEntry struct {
	Value    string   `yaml:"value"`
	Synonyms []string `yaml:"synonyms"`
}

// --- conversion ---

var prebuiltKinds = func() map[string]bool {
	m := make(map[string]bool, len(recognizer.PrebuiltEntities))
	for _, name := range recognizer.PrebuiltEntities {
		m[name] = true
	}
	return m
}()

func buildRecognizer(raw *rawRecognizer) (recognizer.Recognizer, error) {
	if raw == nil {
		return nil, nil
	}
	switch {
	case prebuiltKinds[raw.Kind]:
		return recognizer.Prebuilt{Entity: raw.Kind}, nil

	case raw.Kind == recognizer.KindPattern:
		if raw.Entity == "" {
			return nil, fmt.Errorf("pattern recognizer requires an entity name")
		}
		return recognizer.Pattern{Entity: raw.Entity, ID: raw.ID}, nil

	case raw.Kind == recognizer.KindModel:
		m := recognizer.Model{
			Source:   raw.Source,
			Intents:  raw.Intents,
			Entities: raw.Entities,
		}
		for _, dl := range raw.DynamicLists {
			list := recognizer.DynamicList{Entity: dl.Entity}
			for _, e := range dl.Entries {
				list.Entries = append(list.Entries, priming.Entry{Value: e.Value, Synonyms: e.Synonyms})
			}
			m.DynamicLists = append(m.DynamicLists, list)
		}
		return m, nil

	case raw.Kind == recognizer.KindFAQ:
		return recognizer.FAQ{KnowledgeBase: raw.KnowledgeBase}, nil

	case raw.Kind == recognizer.KindSet, raw.Kind == recognizer.KindCrossTrained:
		children := make([]recognizer.Recognizer, 0, len(raw.Recognizers))
		for _, rc := range raw.Recognizers {
			child, err := buildRecognizer(rc)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		if raw.Kind == recognizer.KindSet {
			return recognizer.Set{Recognizers: children}, nil
		}
		return recognizer.CrossTrained{Recognizers: children}, nil

	case raw.Kind == recognizer.KindMultiLanguage:
		byLocale := make(map[string]recognizer.Recognizer, len(raw.ByLocale))
		for locale, rc := range raw.ByLocale {
			child, err := buildRecognizer(rc)
			if err != nil {
				return nil, err
			}
			byLocale[locale] = child
		}
		return recognizer.MultiLanguage{ByLocale: byLocale}, nil

	default:
		return nil, fmt.Errorf("unknown recognizer kind %q", raw.Kind)
	}
}

func buildDialog(raw *rawDialog) (dialog.Dialog, error) {
	if raw == nil {
		return nil, nil
	}
	switch raw.Kind {
	case dialog.KindNumber:
		return dialog.NumberInput{ID: raw.ID, Prompt: raw.Prompt}, nil

	case dialog.KindConfirmation:
		return dialog.ConfirmationInput{ID: raw.ID, Prompt: raw.Prompt}, nil

	case dialog.KindText:
		return dialog.TextInput{ID: raw.ID, Prompt: raw.Prompt}, nil

	case dialog.KindChoice:
		c := dialog.ChoiceInput{
			ID:                raw.ID,
			Prompt:            raw.Prompt,
			RecognizeNumbers:  boolOr(raw.RecognizeNumbers, true),
			RecognizeOrdinals: boolOr(raw.RecognizeOrdinals, true),
			NoValue:           raw.NoValue,
			NoAction:          raw.NoAction,
		}
		for _, rc := range raw.Choices {
			c.Choices = append(c.Choices, dialog.Choice{
				Value:       rc.Value,
				ActionTitle: rc.Action,
				Synonyms:    rc.Synonyms,
			})
		}
		return c, nil

	case dialog.KindControl:
		children, err := buildDialogs(raw.Actions)
		if err != nil {
			return nil, err
		}
		return dialog.Control{ID: raw.ID, Op: raw.Op, Children: children}, nil

	case dialog.KindComposite:
		rec, err := buildRecognizer(raw.Recognizer)
		if err != nil {
			return nil, fmt.Errorf("dialog %q: %w", raw.ID, err)
		}
		comp := dialog.Composite{ID: raw.ID, Recognizer: rec}
		for _, b := range raw.Schema {
			comp.Schema = append(comp.Schema, dialog.Binding{Property: b.Property, Entities: b.Entities})
		}
		for _, t := range raw.Triggers {
			actions, err := buildDialogs(t.Actions)
			if err != nil {
				return nil, err
			}
			comp.Triggers = append(comp.Triggers, dialog.Trigger{On: t.On, Intent: t.Intent, Actions: actions})
		}
		return comp, nil

	default:
		return nil, fmt.Errorf("unknown dialog kind %q (dialog %q)", raw.Kind, raw.ID)
	}
}

func buildDialogs(raws []*rawDialog) ([]dialog.Dialog, error) {
	out := make([]dialog.Dialog, 0, len(raws))
	for _, raw := range raws {
		d, err := buildDialog(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// validate rejects manifests that would behave ambiguously at runtime.
func validate(m *Manifest) error {
	seen := make(map[string]bool)
	var check func(d dialog.Dialog) error
	check = func(d dialog.Dialog) error {
		if d == nil {
			return nil
		}
		if id := d.DialogID(); id != "" {
			if seen[id] {
				return fmt.Errorf("duplicate dialog id %q", id)
			}
			seen[id] = true
		}
		if comp, ok := d.(dialog.Composite); ok {
			props := make(map[string]bool, len(comp.Schema))
			for _, b := range comp.Schema {
				if len(b.Entities) == 0 {
					return fmt.Errorf("dialog %q: schema property %q binds no entities", comp.ID, b.Property)
				}
				if props[b.Property] {
					return fmt.Errorf("dialog %q: duplicate schema property %q", comp.ID, b.Property)
				}
				props[b.Property] = true
			}
		}
		for _, child := range Children(d) {
			if err := check(child); err != nil {
				return err
			}
		}
		return nil
	}
	return check(m.Dialog)
}

// Children returns the statically declared child dialogs of d.
func Children(d dialog.Dialog) []dialog.Dialog {
	switch v := d.(type) {
	case dialog.Composite:
		var out []dialog.Dialog
		for _, t := range v.Triggers {
			out = append(out, t.Actions...)
		}
		return out
	case dialog.Control:
		return v.Children
	default:
		return nil
	}
}

// Index resolves dialogs by ID across the whole static tree.
type Index map[string]dialog.Dialog

// BuildIndex walks the tree rooted at d and indexes every dialog with an ID.
func BuildIndex(d dialog.Dialog) Index {
	idx := make(Index)
	var walk func(d dialog.Dialog)
	walk = func(d dialog.Dialog) {
		if d == nil {
			return
		}
		if id := d.DialogID(); id != "" {
			idx[id] = d
		}
		for _, child := range Children(d) {
			walk(child)
		}
	}
	walk(d)
	return idx
}

// Lookup returns the dialog with the given ID.
func (idx Index) Lookup(id string) (dialog.Dialog, error) {
	d, ok := idx[id]
	if !ok {
		return nil, fmt.Errorf("no dialog with id %q", id)
	}
	return d, nil
}
