// Package turn owns the per-turn priming context stack: one frame for every
// begun-but-not-ended dialog, tracking the resolved locale and the Possible
// and Expected aggregates at that nesting depth.
//
// The stack is created when a turn starts and discarded when it ends; it is
// owned by the single logical thread processing the turn and must never be
// shared across turns. Dialog begin/end are engine-driven events, not
// lexical scopes, so pushes and pops happen only through explicit calls
// paired by the caller's event contract.
package turn

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dialogprime/internal/dialog"
	"dialogprime/internal/priming"
)

var (
	// ErrStackMismatch reports a dialog-end (or expected-properties
	// declaration) against a dialog that is not the current stack top. The
	// stack is left unmodified.
	ErrStackMismatch = errors.New("dialog is not the top of the context stack")

	// ErrSchemaBindingMissing reports an expected property with no entry in
	// the composite dialog's property schema.
	ErrSchemaBindingMissing = errors.New("expected property has no schema binding")
)

// Frame is the priming context for one active dialog instance.
type Frame struct {
	// InstanceID uniquely identifies this activation of the dialog; the same
	// dialog begun twice gets two distinct instance IDs.
	InstanceID string
	Dialog     dialog.Dialog
	Locale     string

	// Possible is everything statically reachable from the dialog; Expected
	// is what the dialog is currently asking for. Until the dialog declares
	// expected properties the two are identical.
	Possible priming.Aggregate
	Expected priming.Aggregate
}

// Stack is the turn-scoped LIFO of priming frames.
type Stack struct {
	baseLocale string
	dialogs    *dialog.Registry
	log        *zap.Logger
	frames     []Frame
}

// Option configures a Stack.
type Option func(*Stack)

// WithLogger attaches a zap logger to the stack. Without it, transitions are
// not logged.
func WithLogger(log *zap.Logger) Option {
	return func(s *Stack) {
		if log != nil {
			s.log = log
		}
	}
}

// NewStack creates the context stack for one turn. baseLocale is the turn's
// ambient locale; reg resolves dialog descriptions.
func NewStack(baseLocale string, reg *dialog.Registry, opts ...Option) *Stack {
	s := &Stack{
		baseLocale: baseLocale,
		dialogs:    reg,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Begin pushes a frame for a dialog that just began. The locale is the
// explicit override when given, else the ambient locale of the enclosing
// frame (the turn's base locale at depth zero). Possible is the dialog's
// full description; Expected starts identical because nothing specific has
// been requested yet.
//
// The push is complete before Begin returns, so any nested child dialog
// beginning afterwards observes the new frame.
func (s *Stack) Begin(d dialog.Dialog, localeOverride string) (Frame, error) {
	locale := localeOverride
	if locale == "" {
		locale = s.Locale()
	}

	possible, err := s.dialogs.Describe(d, locale)
	if err != nil {
		return Frame{}, fmt.Errorf("turn.Begin: %w", err)
	}

	frame := Frame{
		InstanceID: uuid.NewString(),
		Dialog:     d,
		Locale:     locale,
		Possible:   possible,
		Expected:   possible.Clone(),
	}
	s.frames = append(s.frames, frame)

	s.log.Debug("dialog begun",
		zap.String("dialog", d.DialogID()),
		zap.String("instance", frame.InstanceID),
		zap.String("locale", locale),
		zap.Int("depth", len(s.frames)),
		zap.Int("intents", len(possible.Intents)),
		zap.Int("entities", len(possible.Entities)))
	return frame, nil
}

// DeclareExpected records which properties the active dialog is requesting
// this turn. Only the top frame's dialog may declare; anything else is a
// stack mismatch.
//
// For a composite dialog with a property schema, Expected narrows to the
// entities the schema binds to exactly those properties, and Possible's
// entities and vocabulary narrow the same way. Intents are never narrowed.
// Dialogs without a schema keep their begin-time aggregates.
func (s *Stack) DeclareExpected(d dialog.Dialog, properties []string) error {
	top := s.top()
	if top == nil || top.Dialog.DialogID() != d.DialogID() {
		return fmt.Errorf("turn.DeclareExpected: %w: %q", ErrStackMismatch, d.DialogID())
	}

	comp, ok := d.(dialog.Composite)
	if !ok || comp.Schema == nil {
		return nil
	}

	bound, err := boundEntities(comp.Schema, properties)
	if err != nil {
		return err
	}

	// Narrow from the full description, not from a previous narrowing, so
	// successive declarations within the turn stay independent.
	full, err := s.dialogs.Describe(d, top.Locale)
	if err != nil {
		return fmt.Errorf("turn.DeclareExpected: %w", err)
	}

	top.Possible = narrow(full, bound)
	top.Expected = priming.Aggregate{
		Intents:    append([]priming.Intent(nil), full.Intents...),
		Entities:   expectedEntities(full, bound),
		Vocabulary: top.Possible.Clone().Vocabulary,
	}

	s.log.Debug("expected properties declared",
		zap.String("dialog", d.DialogID()),
		zap.Strings("properties", properties),
		zap.Strings("entities", bound))
	return nil
}

// End pops the frame for a dialog that just ended. The pop is the first
// observable effect of the end: once End returns, the enclosing frame (or
// the ambient defaults) is the visible context.
func (s *Stack) End(d dialog.Dialog) error {
	top := s.top()
	if top == nil || top.Dialog.DialogID() != d.DialogID() {
		return fmt.Errorf("turn.End: %w: %q", ErrStackMismatch, d.DialogID())
	}
	s.frames = s.frames[:len(s.frames)-1]

	s.log.Debug("dialog ended",
		zap.String("dialog", d.DialogID()),
		zap.Int("depth", len(s.frames)))
	return nil
}

// Unwind discards every frame unconditionally. Used when the turn is
// cancelled (e.g. a conversation reset) rather than cleanly unwound.
func (s *Stack) Unwind() {
	if len(s.frames) > 0 {
		s.log.Debug("stack unwound", zap.Int("discarded", len(s.frames)))
	}
	s.frames = nil
}

// Depth returns the number of currently active dialogs.
func (s *Stack) Depth() int { return len(s.frames) }

// Top returns a copy of the innermost frame, or the ambient defaults (base
// locale, empty aggregates) when no dialog is active.
func (s *Stack) Top() Frame {
	if top := s.top(); top != nil {
		return *top
	}
	return Frame{Locale: s.baseLocale}
}

// Locale returns the ambient locale: the top frame's, else the base locale.
func (s *Stack) Locale() string {
	if top := s.top(); top != nil {
		return top.Locale
	}
	return s.baseLocale
}

// Possible returns the top frame's Possible aggregate, empty when idle.
func (s *Stack) Possible() priming.Aggregate { return s.Top().Possible }

// Expected returns the top frame's Expected aggregate, empty when idle.
func (s *Stack) Expected() priming.Aggregate { return s.Top().Expected }

func (s *Stack) top() *Frame {
	if len(s.frames) == 0 {
		return nil
	}
	return &s.frames[len(s.frames)-1]
}

// boundEntities resolves the requested properties through the schema,
// preserving first-seen entity order across properties.
func boundEntities(schema dialog.Schema, properties []string) ([]string, error) {
	var bound []string
	seen := make(map[string]bool)
	for _, prop := range properties {
		ents, ok := schema.Entities(prop)
		if !ok {
			return nil, fmt.Errorf("turn.DeclareExpected: %w: %q", ErrSchemaBindingMissing, prop)
		}
		for _, e := range ents {
			if !seen[e] {
				seen[e] = true
				bound = append(bound, e)
			}
		}
	}
	return bound, nil
}

// narrow filters an aggregate's entities and vocabulary to the bound entity
// names. Intents pass through untouched.
func narrow(full priming.Aggregate, bound []string) priming.Aggregate {
	keep := make(map[string]bool, len(bound))
	for _, name := range bound {
		keep[name] = true
	}

	out := priming.Aggregate{
		Intents: append([]priming.Intent(nil), full.Intents...),
	}
	for _, e := range full.Entities {
		if keep[e.Name] {
			out.Entities = append(out.Entities, e)
		}
	}
	for _, l := range full.Vocabulary {
		if keep[l.Entity] {
			out.Vocabulary = append(out.Vocabulary, l)
		}
	}
	return out.Clone()
}

// expectedEntities expands bound names in declaration order: every matching
// entity from the full description, or the bare entity when the tree never
// produces it (the schema still explicitly requests it).
func expectedEntities(full priming.Aggregate, bound []string) []priming.Entity {
	var out []priming.Entity
	for _, name := range bound {
		matched := false
		for _, e := range full.Entities {
			if e.Name == name {
				out = append(out, e)
				matched = true
			}
		}
		if !matched {
			out = append(out, priming.Entity{Name: name})
		}
	}
	return out
}
