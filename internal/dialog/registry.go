package dialog

import (
	"errors"
	"fmt"
	"sync"

	"dialogprime/internal/priming"
	"dialogprime/internal/recognizer"
)

// ErrUnsupportedKind reports a dialog variant with no registered describer.
// Control-flow dialogs are registered empty contributors, not this error.
var ErrUnsupportedKind = errors.New("unsupported dialog kind")

// DescribeFunc computes the priming description for one dialog variant.
type DescribeFunc func(reg *Registry, d Dialog, locale string) (priming.Aggregate, error)

// Registry maps dialog kinds to describe handlers. It carries the recognizer
// registry so composite dialogs can describe their configured recognizers.
type Registry struct {
	mu          sync.RWMutex
	describers  map[string]DescribeFunc
	recognizers *recognizer.Registry
}

// NewRegistry returns a registry pre-registered with all built-in dialog
// kinds, dispatching recognizer description through rec.
func NewRegistry(rec *recognizer.Registry) *Registry {
	if rec == nil {
		rec = recognizer.NewRegistry()
	}
	reg := &Registry{
		describers:  make(map[string]DescribeFunc),
		recognizers: rec,
	}
	reg.Register(KindNumber, describeNumber)
	reg.Register(KindConfirmation, describeConfirmation)
	reg.Register(KindChoice, describeChoice)
	reg.Register(KindComposite, describeComposite)
	reg.Register(KindControl, describeControl)
	// Free-form text adds no priming signal.
	reg.RegisterEmpty(KindText)
	return reg
}

// Register installs (or replaces) the describer for a kind.
func (reg *Registry) Register(kind string, fn DescribeFunc) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.describers[kind] = fn
}

// RegisterEmpty marks kinds as intentional empty contributors.
func (reg *Registry) RegisterEmpty(kinds ...string) {
	for _, kind := range kinds {
		reg.Register(kind, func(*Registry, Dialog, string) (priming.Aggregate, error) {
			return priming.Aggregate{}, nil
		})
	}
}

// Recognizers returns the recognizer registry used for composite dialogs.
func (reg *Registry) Recognizers() *recognizer.Registry {
	return reg.recognizers
}

// Describe computes a dialog's full priming description: the Possible
// universe of intents, entities and vocabulary statically reachable from it.
func (reg *Registry) Describe(d Dialog, locale string) (priming.Aggregate, error) {
	if d == nil {
		return priming.Aggregate{}, nil
	}
	kind := d.DialogKind()

	reg.mu.RLock()
	fn, ok := reg.describers[kind]
	reg.mu.RUnlock()
	if !ok {
		return priming.Aggregate{}, fmt.Errorf("dialog.Describe: %w: %q (dialog %q)", ErrUnsupportedKind, kind, d.DialogID())
	}
	return fn(reg, d, locale)
}

func describeNumber(_ *Registry, _ Dialog, _ string) (priming.Aggregate, error) {
	return priming.Aggregate{Entities: []priming.Entity{{Name: "number"}}}, nil
}

func describeConfirmation(_ *Registry, _ Dialog, _ string) (priming.Aggregate, error) {
	return priming.Aggregate{Entities: []priming.Entity{{Name: "boolean"}}}, nil
}

func describeChoice(_ *Registry, d Dialog, _ string) (priming.Aggregate, error) {
	c, ok := d.(ChoiceInput)
	if !ok {
		return priming.Aggregate{}, fmt.Errorf("dialog.Describe: kind %q has unexpected type %T", KindChoice, d)
	}

	var out priming.Aggregate
	if c.RecognizeNumbers {
		out.Entities = append(out.Entities, priming.Entity{Name: "number"})
	}
	if c.RecognizeOrdinals {
		out.Entities = append(out.Entities, priming.Entity{Name: "ordinal"})
	}

	list := priming.List{Entity: c.ID}
	for _, choice := range c.Choices {
		entry := priming.Entry{Value: choice.Value}
		// Recognizable forms in fixed order: the value itself, the action
		// display title, then the configured synonyms.
		if !c.NoValue {
			entry.Synonyms = append(entry.Synonyms, choice.Value)
		}
		if !c.NoAction && choice.ActionTitle != "" {
			entry.Synonyms = append(entry.Synonyms, choice.ActionTitle)
		}
		entry.Synonyms = append(entry.Synonyms, choice.Synonyms...)
		list.Entries = append(list.Entries, entry)
	}
	out.Vocabulary = []priming.List{list}
	return out, nil
}

func describeControl(reg *Registry, d Dialog, locale string) (priming.Aggregate, error) {
	c, ok := d.(Control)
	if !ok {
		return priming.Aggregate{}, fmt.Errorf("dialog.Describe: kind %q has unexpected type %T", KindControl, d)
	}
	// The step itself contributes nothing; nested dialogs stay reachable.
	return describeAll(reg, c.Children, locale)
}

func describeComposite(reg *Registry, d Dialog, locale string) (priming.Aggregate, error) {
	c, ok := d.(Composite)
	if !ok {
		return priming.Aggregate{}, fmt.Errorf("dialog.Describe: kind %q has unexpected type %T", KindComposite, d)
	}

	own, err := reg.recognizers.Describe(c.Recognizer, locale)
	if err != nil {
		return priming.Aggregate{}, fmt.Errorf("dialog %q: %w", c.ID, err)
	}

	aggs := []priming.Aggregate{own}
	for _, trig := range c.Triggers {
		agg, err := describeAll(reg, trig.Actions, locale)
		if err != nil {
			return priming.Aggregate{}, err
		}
		aggs = append(aggs, agg)
	}
	return priming.MergeAll(aggs...), nil
}

func describeAll(reg *Registry, dialogs []Dialog, locale string) (priming.Aggregate, error) {
	aggs := make([]priming.Aggregate, 0, len(dialogs))
	for _, d := range dialogs {
		agg, err := reg.Describe(d, locale)
		if err != nil {
			return priming.Aggregate{}, err
		}
		aggs = append(aggs, agg)
	}
	return priming.MergeAll(aggs...), nil
}
