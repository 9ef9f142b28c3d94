// Package dialog models the dialog variants that contribute priming
// information and computes each variant's description on top of the
// recognizer provider. Like recognizers, dialogs dispatch through a closed
// kind registry; control-flow dialogs are explicit empty contributors while
// a kind nobody registered is an error.
package dialog

import "dialogprime/internal/recognizer"

// Dialog is the capability shared by every dialog variant.
type Dialog interface {
	DialogKind() string
	DialogID() string
}

// Kind names for the built-in variants.
const (
	KindNumber       = "number"
	KindConfirmation = "confirmation"
	KindChoice       = "choice"
	KindText         = "text"
	KindComposite    = "composite"
	KindControl      = "control"
)

// NumberInput asks the user for a number.
type NumberInput struct {
	ID     string
	Prompt string
}

func (NumberInput) DialogKind() string { return KindNumber }
func (d NumberInput) DialogID() string { return d.ID }

// ConfirmationInput asks the user a yes/no question.
type ConfirmationInput struct {
	ID     string
	Prompt string
}

func (ConfirmationInput) DialogKind() string { return KindConfirmation }
func (d ConfirmationInput) DialogID() string { return d.ID }

// Choice is one selectable option of a ChoiceInput.
type Choice struct {
	Value       string
	ActionTitle string
	Synonyms    []string
}

// ChoiceInput asks the user to pick from a fixed list of choices. Number and
// ordinal recognition are on unless suppressed; NoValue and NoAction drop the
// choice value and the action title from the recognizable synonyms.
type ChoiceInput struct {
	ID                string
	Prompt            string
	Choices           []Choice
	RecognizeNumbers  bool
	RecognizeOrdinals bool
	NoValue           bool
	NoAction          bool
}

func (ChoiceInput) DialogKind() string { return KindChoice }
func (d ChoiceInput) DialogID() string { return d.ID }

// NewChoiceInput returns a choice input with the default recognition
// options (numbers and ordinals on, value and action synonyms included).
func NewChoiceInput(id string, choices ...Choice) ChoiceInput {
	return ChoiceInput{
		ID:                id,
		Choices:           choices,
		RecognizeNumbers:  true,
		RecognizeOrdinals: true,
	}
}

// TextInput asks for free-form text. Free text carries no priming signal.
type TextInput struct {
	ID     string
	Prompt string
}

func (TextInput) DialogKind() string { return KindText }
func (d TextInput) DialogID() string { return d.ID }

// Control is a pure control-flow step (send, set, branch, loop, goto). It
// contributes nothing itself; dialogs nested under it stay statically
// reachable through Children.
type Control struct {
	ID       string
	Op       string
	Children []Dialog
}

func (Control) DialogKind() string { return KindControl }
func (d Control) DialogID() string { return d.ID }

// Binding maps one logical property of a composite dialog to the entities
// that can fill it.
type Binding struct {
	Property string
	Entities []string
}

// Schema is a composite dialog's ordered property-to-entity mapping.
type Schema []Binding

// Entities returns the entities bound to a property.
func (s Schema) Entities(property string) ([]string, bool) {
	for _, b := range s {
		if b.Property == property {
			return b.Entities, true
		}
	}
	return nil, false
}

// Trigger is one statically declared handler of a composite dialog. Which
// triggers are enabled at runtime never changes priming; every action is
// part of the composite's Possible universe.
type Trigger struct {
	On      string
	Intent  string
	Actions []Dialog
}

// Composite is a schema-driven dialog: a configured recognizer plus a
// statically declared tree of triggers and child dialogs.
type Composite struct {
	ID         string
	Recognizer recognizer.Recognizer
	Triggers   []Trigger
	Schema     Schema
}

func (Composite) DialogKind() string { return KindComposite }
func (d Composite) DialogID() string { return d.ID }
