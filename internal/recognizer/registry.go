package recognizer

import (
	"errors"
	"fmt"
	"sync"

	"dialogprime/internal/priming"
)

// ErrUnsupportedKind reports a recognizer variant with no registered
// describer. The FAQ recognizer's empty result is explicit and intentional;
// hitting this error means a new variant was added without a handler.
var ErrUnsupportedKind = errors.New("unsupported recognizer kind")

// DescribeFunc computes the priming description for one recognizer variant.
// Composite variants recurse through the registry they receive.
type DescribeFunc func(reg *Registry, r Recognizer, locale string) (priming.Aggregate, error)

// Registry maps recognizer kinds to their describe handlers.
type Registry struct {
	mu         sync.RWMutex
	describers map[string]DescribeFunc
}

// NewRegistry returns a registry pre-registered with all built-in variants.
func NewRegistry() *Registry {
	reg := &Registry{describers: make(map[string]DescribeFunc)}
	reg.Register(KindPrebuilt, describePrebuilt)
	reg.Register(KindPattern, describePattern)
	reg.Register(KindModel, describeModel)
	reg.Register(KindFAQ, describeFAQ)
	reg.Register(KindSet, describeSet)
	reg.Register(KindCrossTrained, describeCrossTrained)
	reg.Register(KindMultiLanguage, describeMultiLanguage)
	return reg
}

// Register installs (or replaces) the describer for a kind.
func (reg *Registry) Register(kind string, fn DescribeFunc) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.describers[kind] = fn
}

// Describe computes the full priming description for a recognizer: every
// intent, entity and vocabulary list statically reachable from it. The walk
// is side-effect-free and idempotent.
func (reg *Registry) Describe(r Recognizer, locale string) (priming.Aggregate, error) {
	if r == nil {
		return priming.Aggregate{}, nil
	}
	kind := r.RecognizerKind()

	reg.mu.RLock()
	fn, ok := reg.describers[kind]
	reg.mu.RUnlock()
	if !ok {
		return priming.Aggregate{}, fmt.Errorf("recognizer.Describe: %w: %q", ErrUnsupportedKind, kind)
	}
	return fn(reg, r, locale)
}

func describePrebuilt(_ *Registry, r Recognizer, _ string) (priming.Aggregate, error) {
	p, err := as[Prebuilt](r, KindPrebuilt)
	if err != nil {
		return priming.Aggregate{}, err
	}
	return priming.Aggregate{Entities: []priming.Entity{{Name: p.Entity}}}, nil
}

func describePattern(_ *Registry, r Recognizer, _ string) (priming.Aggregate, error) {
	p, err := as[Pattern](r, KindPattern)
	if err != nil {
		return priming.Aggregate{}, err
	}
	return priming.Aggregate{Entities: []priming.Entity{{Name: p.Entity, ID: p.ID}}}, nil
}

func describeModel(_ *Registry, r Recognizer, _ string) (priming.Aggregate, error) {
	m, err := as[Model](r, KindModel)
	if err != nil {
		return priming.Aggregate{}, err
	}
	var out priming.Aggregate
	for _, name := range m.Intents {
		out.Intents = append(out.Intents, priming.Intent{Name: name, Source: m.Source})
	}
	for _, name := range m.Entities {
		out.Entities = append(out.Entities, priming.Entity{Name: name, Source: m.Source})
	}
	for _, dl := range m.DynamicLists {
		out.Vocabulary = append(out.Vocabulary, priming.List{
			Entity:  dl.Entity,
			Entries: append([]priming.Entry(nil), dl.Entries...),
		})
	}
	// Normalize through the merge algebra so duplicate configuration entries
	// collapse the same way composite merges do.
	return priming.MergeAll(out), nil
}

func describeFAQ(_ *Registry, r Recognizer, _ string) (priming.Aggregate, error) {
	if _, err := as[FAQ](r, KindFAQ); err != nil {
		return priming.Aggregate{}, err
	}
	// No intent/entity schema to prime with.
	return priming.Aggregate{}, nil
}

func describeSet(reg *Registry, r Recognizer, locale string) (priming.Aggregate, error) {
	s, err := as[Set](r, KindSet)
	if err != nil {
		return priming.Aggregate{}, err
	}
	return describeChildren(reg, s.Recognizers, locale)
}

func describeCrossTrained(reg *Registry, r Recognizer, locale string) (priming.Aggregate, error) {
	s, err := as[CrossTrained](r, KindCrossTrained)
	if err != nil {
		return priming.Aggregate{}, err
	}
	return describeChildren(reg, s.Recognizers, locale)
}

func describeChildren(reg *Registry, children []Recognizer, locale string) (priming.Aggregate, error) {
	aggs := make([]priming.Aggregate, 0, len(children))
	for _, child := range children {
		agg, err := reg.Describe(child, locale)
		if err != nil {
			return priming.Aggregate{}, err
		}
		aggs = append(aggs, agg)
	}
	return priming.MergeAll(aggs...), nil
}

func describeMultiLanguage(reg *Registry, r Recognizer, locale string) (priming.Aggregate, error) {
	m, err := as[MultiLanguage](r, KindMultiLanguage)
	if err != nil {
		return priming.Aggregate{}, err
	}
	child, ok := m.ByLocale[locale]
	if !ok {
		child, ok = m.ByLocale[""]
	}
	if !ok {
		return priming.Aggregate{}, nil
	}
	return reg.Describe(child, locale)
}

// as asserts that a recognizer value matches the concrete type its kind
// promises. A mismatch means a variant lied about its kind.
func as[T Recognizer](r Recognizer, kind string) (T, error) {
	v, ok := r.(T)
	if !ok {
		return v, fmt.Errorf("recognizer.Describe: kind %q has unexpected type %T", kind, r)
	}
	return v, nil
}
