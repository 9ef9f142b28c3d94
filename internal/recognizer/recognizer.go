// Package recognizer models the composable recognizer tree and computes the
// priming description for every recognizer variant. Dispatch is a closed
// kind registry: each variant registers one describe handler, and an
// unregistered kind is a programming error, never an empty result.
package recognizer

import "dialogprime/internal/priming"

// Recognizer is the capability shared by every recognizer variant. Kind is
// the registry dispatch key.
type Recognizer interface {
	RecognizerKind() string
}

// Kind names for the built-in variants.
const (
	KindPrebuilt      = "prebuilt"
	KindPattern       = "pattern"
	KindModel         = "model"
	KindFAQ           = "faq"
	KindSet           = "set"
	KindCrossTrained  = "crossTrained"
	KindMultiLanguage = "multiLanguage"
)

// PrebuiltEntities lists the entity names the prebuilt single-entity
// recognizers cover.
var PrebuiltEntities = []string{
	"age", "boolean", "currency", "datetime", "dimension", "email", "guid",
	"hashtag", "ip", "mention", "number", "numberRange", "ordinal",
	"percentage", "phoneNumber", "temperature", "url",
}

// Prebuilt is a single-entity recognizer for one of the prebuilt entity
// types (age, currency, datetime, ...).
type Prebuilt struct {
	Entity string
}

func (Prebuilt) RecognizerKind() string { return KindPrebuilt }

// Pattern is a regex-style entity recognizer. ID disambiguates multiple
// pattern recognizers extracting the same entity name.
type Pattern struct {
	Entity string
	ID     string
}

func (Pattern) RecognizerKind() string { return KindPattern }

// DynamicList is runtime-suppliable vocabulary for one entity of a trained
// model, extending or overriding the model's trained vocabulary.
type DynamicList struct {
	Entity  string
	Entries []priming.Entry
}

// Model is a recognizer bound to one compiled NLU model. Its intents and
// entities are static configuration read at description time; the instance
// is already locale-specific, so describe ignores the locale argument.
type Model struct {
	// Source identifies the compiled model; intents and entities are tagged
	// with it so same-named intents from different models stay distinct.
	Source       string
	Intents      []string
	Entities     []string
	DynamicLists []DynamicList
}

func (Model) RecognizerKind() string { return KindModel }

// FAQ is a question-answering recognizer. It carries no intent or entity
// schema, so it contributes an intentionally empty description.
type FAQ struct {
	KnowledgeBase string
}

func (FAQ) RecognizerKind() string { return KindFAQ }

// Set is a non-exclusive union of child recognizers.
type Set struct {
	Recognizers []Recognizer
}

func (Set) RecognizerKind() string { return KindSet }

// CrossTrained is a recognizer set whose children were cross-trained against
// each other. Cross-training only changes runtime disambiguation; for
// priming it describes exactly like Set.
type CrossTrained struct {
	Recognizers []Recognizer
}

func (CrossTrained) RecognizerKind() string { return KindCrossTrained }

// MultiLanguage selects a child recognizer by locale. An exact locale match
// wins; otherwise the empty-key entry is the default; with neither, the
// description is empty.
type MultiLanguage struct {
	ByLocale map[string]Recognizer
}

func (MultiLanguage) RecognizerKind() string { return KindMultiLanguage }
