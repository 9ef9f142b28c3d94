package recognizer

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dialogprime/internal/priming"
)

// sandwichModel builds a fresh model recognizer per call so test cases never
// share mutable state.
func sandwichModel() Model {
	return Model{
		Source:   "sandwich.lu",
		Intents:  []string{"Order", "Cancel"},
		Entities: []string{"bread", "quantity"},
		DynamicLists: []DynamicList{{
			Entity: "bread",
			Entries: []priming.Entry{
				{Value: "rye", Synonyms: []string{"dark"}},
				{Value: "wheat"},
			},
		}},
	}
}

func TestDescribe_Prebuilt(t *testing.T) {
	reg := NewRegistry()

	got, err := reg.Describe(Prebuilt{Entity: "age"}, "en-us")
	require.NoError(t, err)

	assert.Equal(t, []priming.Entity{{Name: "age"}}, got.Entities)
	assert.Empty(t, got.Intents)
	assert.Empty(t, got.Vocabulary)
}

func TestDescribe_PatternCarriesID(t *testing.T) {
	reg := NewRegistry()

	got, err := reg.Describe(Pattern{Entity: "partNumber", ID: "pn-1"}, "")
	require.NoError(t, err)

	assert.Equal(t, []priming.Entity{{Name: "partNumber", ID: "pn-1"}}, got.Entities)
}

func TestDescribe_Model(t *testing.T) {
	reg := NewRegistry()

	got, err := reg.Describe(sandwichModel(), "fr-fr")
	require.NoError(t, err)

	assert.Equal(t, []priming.Intent{
		{Name: "Order", Source: "sandwich.lu"},
		{Name: "Cancel", Source: "sandwich.lu"},
	}, got.Intents)
	assert.Equal(t, []priming.Entity{
		{Name: "bread", Source: "sandwich.lu"},
		{Name: "quantity", Source: "sandwich.lu"},
	}, got.Entities)

	list, ok := got.VocabularyFor("bread")
	require.True(t, ok)
	assert.Equal(t, []priming.Entry{
		{Value: "rye", Synonyms: []string{"dark"}},
		{Value: "wheat"},
	}, list.Entries)
}

func TestDescribe_FAQIsIntentionallyEmpty(t *testing.T) {
	reg := NewRegistry()

	got, err := reg.Describe(FAQ{KnowledgeBase: "support-kb"}, "en-us")
	require.NoError(t, err)
	assert.True(t, got.Empty())
}

func TestDescribe_SetIsPointwiseUnion(t *testing.T) {
	reg := NewRegistry()
	set := Set{Recognizers: []Recognizer{
		sandwichModel(),
		Prebuilt{Entity: "number"},
		Model{Source: "drinks.lu", Intents: []string{"Order"}},
	}}

	got, err := reg.Describe(set, "en-us")
	require.NoError(t, err)

	// Union of each child's description, child order preserved, no dup keys.
	childAggs := make([]priming.Aggregate, 0, len(set.Recognizers))
	for _, child := range set.Recognizers {
		agg, err := reg.Describe(child, "en-us")
		require.NoError(t, err)
		childAggs = append(childAggs, agg)
	}
	want := priming.MergeAll(childAggs...)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("set description mismatch (-want +got):\n%s", diff)
	}

	seen := make(map[string]bool)
	for _, in := range got.Intents {
		assert.False(t, seen[in.Key()], "duplicate intent key %q", in.Key())
		seen[in.Key()] = true
	}
	assert.Equal(t, []priming.Intent{
		{Name: "Order", Source: "sandwich.lu"},
		{Name: "Cancel", Source: "sandwich.lu"},
		{Name: "Order", Source: "drinks.lu"},
	}, got.Intents)
}

func TestDescribe_CrossTrainedMatchesSet(t *testing.T) {
	reg := NewRegistry()
	children := func() []Recognizer {
		return []Recognizer{sandwichModel(), FAQ{KnowledgeBase: "kb"}, Prebuilt{Entity: "datetime"}}
	}

	asSet, err := reg.Describe(Set{Recognizers: children()}, "en-us")
	require.NoError(t, err)
	asCross, err := reg.Describe(CrossTrained{Recognizers: children()}, "en-us")
	require.NoError(t, err)

	assert.True(t, priming.Equal(asSet, asCross),
		"cross-training must not change priming")
}

func TestDescribe_MultiLanguage(t *testing.T) {
	reg := NewRegistry()
	english := sandwichModel()
	fallback := Model{Source: "fallback.lu", Intents: []string{"Help"}}
	ml := MultiLanguage{ByLocale: map[string]Recognizer{
		"en-us": english,
		"":      fallback,
	}}

	t.Run("exact locale match", func(t *testing.T) {
		got, err := reg.Describe(ml, "en-us")
		require.NoError(t, err)
		want, err := reg.Describe(english, "en-us")
		require.NoError(t, err)
		assert.True(t, priming.Equal(want, got))
	})

	t.Run("unknown locale falls back to default", func(t *testing.T) {
		got, err := reg.Describe(ml, "de-de")
		require.NoError(t, err)
		want, err := reg.Describe(fallback, "de-de")
		require.NoError(t, err)
		assert.True(t, priming.Equal(want, got))
	})

	t.Run("unset locale falls back to default", func(t *testing.T) {
		got, err := reg.Describe(ml, "")
		require.NoError(t, err)
		assert.Equal(t, []priming.Intent{{Name: "Help", Source: "fallback.lu"}}, got.Intents)
	})

	t.Run("no match and no default is empty", func(t *testing.T) {
		noDefault := MultiLanguage{ByLocale: map[string]Recognizer{"en-us": english}}
		got, err := reg.Describe(noDefault, "de-de")
		require.NoError(t, err)
		assert.True(t, got.Empty())
	})
}

type unknownRecognizer struct{}

func (unknownRecognizer) RecognizerKind() string { return "experimental" }

func TestDescribe_UnknownKindFails(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Describe(unknownRecognizer{}, "en-us")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedKind))
	assert.Contains(t, err.Error(), "experimental")
}

func TestDescribe_NilRecognizerIsEmpty(t *testing.T) {
	reg := NewRegistry()

	got, err := reg.Describe(nil, "en-us")
	require.NoError(t, err)
	assert.True(t, got.Empty())
}

func TestDescribe_Idempotent(t *testing.T) {
	reg := NewRegistry()
	tree := CrossTrained{Recognizers: []Recognizer{
		sandwichModel(),
		MultiLanguage{ByLocale: map[string]Recognizer{"en-us": Prebuilt{Entity: "number"}}},
	}}

	first, err := reg.Describe(tree, "en-us")
	require.NoError(t, err)
	second, err := reg.Describe(tree, "en-us")
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("describe not idempotent (-first +second):\n%s", diff)
	}
}

func TestRegister_CustomKind(t *testing.T) {
	reg := NewRegistry()
	reg.Register("experimental", func(_ *Registry, _ Recognizer, _ string) (priming.Aggregate, error) {
		return priming.Aggregate{Entities: []priming.Entity{{Name: "custom"}}}, nil
	})

	got, err := reg.Describe(unknownRecognizer{}, "")
	require.NoError(t, err)
	assert.Equal(t, []priming.Entity{{Name: "custom"}}, got.Entities)
}

func TestLocales(t *testing.T) {
	tree := Set{Recognizers: []Recognizer{
		MultiLanguage{ByLocale: map[string]Recognizer{
			"en-us": Prebuilt{Entity: "number"},
			"fr-fr": Prebuilt{Entity: "number"},
			"":      Prebuilt{Entity: "number"},
		}},
		CrossTrained{Recognizers: []Recognizer{
			MultiLanguage{ByLocale: map[string]Recognizer{"de-de": FAQ{}}},
		}},
	}}

	assert.Equal(t, []string{"de-de", "en-us", "fr-fr"}, Locales(tree))
	assert.Empty(t, Locales(Prebuilt{Entity: "age"}))
}
