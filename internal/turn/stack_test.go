package turn

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dialogprime/internal/dialog"
	"dialogprime/internal/priming"
	"dialogprime/internal/recognizer"
)

// Fixtures are built fresh per test so no state leaks between cases.

func newRegistry() *dialog.Registry {
	return dialog.NewRegistry(recognizer.NewRegistry())
}

func orderDialog() dialog.Composite {
	return dialog.Composite{
		ID: "order",
		Recognizer: recognizer.Model{
			Source:   "sandwich.lu",
			Intents:  []string{"Order", "Cancel"},
			Entities: []string{"bread", "quantity"},
			DynamicLists: []recognizer.DynamicList{{
				Entity:  "bread",
				Entries: []priming.Entry{{Value: "rye", Synonyms: []string{"dark"}}},
			}},
		},
		Schema: dialog.Schema{
			{Property: "bread", Entities: []string{"bread"}},
			{Property: "quantity", Entities: []string{"quantity", "number"}},
		},
		Triggers: []dialog.Trigger{
			{On: "intent", Intent: "Order", Actions: []dialog.Dialog{
				dialog.NumberInput{ID: "qty"},
			}},
		},
	}
}

func TestStack_BeginInitializesExpectedToPossible(t *testing.T) {
	s := NewStack("en-us", newRegistry(), WithLogger(zap.NewNop()))

	frame, err := s.Begin(orderDialog(), "")
	require.NoError(t, err)

	assert.NotEmpty(t, frame.InstanceID)
	assert.Equal(t, "en-us", frame.Locale)
	assert.False(t, frame.Possible.Empty())
	assert.True(t, priming.Equal(frame.Possible, frame.Expected))
	assert.Equal(t, 1, s.Depth())
}

func TestStack_LocaleResolution(t *testing.T) {
	s := NewStack("en-us", newRegistry())

	t.Run("ambient locale at depth zero", func(t *testing.T) {
		assert.Equal(t, "en-us", s.Locale())
	})

	t.Run("explicit override wins", func(t *testing.T) {
		frame, err := s.Begin(dialog.NumberInput{ID: "qty"}, "fr-fr")
		require.NoError(t, err)
		assert.Equal(t, "fr-fr", frame.Locale)
		assert.Equal(t, "fr-fr", s.Locale())
	})

	t.Run("nested dialog inherits enclosing locale", func(t *testing.T) {
		frame, err := s.Begin(dialog.ConfirmationInput{ID: "confirm"}, "")
		require.NoError(t, err)
		assert.Equal(t, "fr-fr", frame.Locale)
	})
}

func TestStack_DepthTracksBeginEnd(t *testing.T) {
	s := NewStack("en-us", newRegistry())
	dialogs := []dialog.Dialog{
		orderDialog(),
		dialog.NumberInput{ID: "qty"},
		dialog.ConfirmationInput{ID: "confirm"},
	}

	for i, d := range dialogs {
		_, err := s.Begin(d, "")
		require.NoError(t, err)
		assert.Equal(t, i+1, s.Depth())
	}

	for i := len(dialogs) - 1; i >= 0; i-- {
		require.NoError(t, s.End(dialogs[i]))
		assert.Equal(t, i, s.Depth())
	}

	// Back to the pre-begin ambient defaults.
	assert.Equal(t, 0, s.Depth())
	assert.Equal(t, "en-us", s.Locale())
	assert.True(t, s.Possible().Empty())
	assert.True(t, s.Expected().Empty())
}

func TestStack_EndMismatchLeavesStackUnmodified(t *testing.T) {
	s := NewStack("en-us", newRegistry())
	outer := orderDialog()
	inner := dialog.NumberInput{ID: "qty"}

	_, err := s.Begin(outer, "")
	require.NoError(t, err)
	_, err = s.Begin(inner, "")
	require.NoError(t, err)

	before := s.Top()

	err = s.End(outer)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStackMismatch))

	assert.Equal(t, 2, s.Depth())
	after := s.Top()
	assert.Equal(t, before.InstanceID, after.InstanceID)
	assert.True(t, priming.Equal(before.Possible, after.Possible))
}

func TestStack_EndOnEmptyStackFails(t *testing.T) {
	s := NewStack("en-us", newRegistry())

	err := s.End(dialog.NumberInput{ID: "qty"})
	assert.True(t, errors.Is(err, ErrStackMismatch))
}

func TestStack_DeclareExpectedNarrowsEntitiesNotIntents(t *testing.T) {
	s := NewStack("en-us", newRegistry())
	d := orderDialog()

	_, err := s.Begin(d, "")
	require.NoError(t, err)

	require.NoError(t, s.DeclareExpected(d, []string{"bread"}))

	top := s.Top()

	// Intents are never narrowed.
	assert.Equal(t, []priming.Intent{
		{Name: "Order", Source: "sandwich.lu"},
		{Name: "Cancel", Source: "sandwich.lu"},
	}, top.Expected.Intents)
	assert.Equal(t, top.Expected.Intents, top.Possible.Intents)

	// Entities narrow to what the schema binds to "bread".
	assert.Equal(t, []priming.Entity{{Name: "bread", Source: "sandwich.lu"}}, top.Expected.Entities)
	assert.Equal(t, []priming.Entity{{Name: "bread", Source: "sandwich.lu"}}, top.Possible.Entities)

	// Vocabulary for unrelated entity keys is dropped; the bread list stays.
	_, ok := top.Possible.VocabularyFor("bread")
	assert.True(t, ok)
}

func TestStack_DeclareExpectedMultipleProperties(t *testing.T) {
	s := NewStack("en-us", newRegistry())
	d := orderDialog()

	_, err := s.Begin(d, "")
	require.NoError(t, err)

	require.NoError(t, s.DeclareExpected(d, []string{"quantity", "bread"}))

	top := s.Top()
	// Declaration order drives entity order: quantity's bindings first.
	want := []priming.Entity{
		{Name: "quantity", Source: "sandwich.lu"},
		{Name: "number"}, // bound by schema, produced by the qty child input
		{Name: "bread", Source: "sandwich.lu"},
	}
	if diff := cmp.Diff(want, top.Expected.Entities); diff != "" {
		t.Errorf("expected entities mismatch (-want +got):\n%s", diff)
	}
}

func TestStack_DeclareExpectedMissingBinding(t *testing.T) {
	s := NewStack("en-us", newRegistry())
	d := orderDialog()

	_, err := s.Begin(d, "")
	require.NoError(t, err)

	err = s.DeclareExpected(d, []string{"toppings"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchemaBindingMissing))

	// A failed declaration leaves the begin-time aggregates in place.
	top := s.Top()
	assert.True(t, priming.Equal(top.Possible, top.Expected))
}

func TestStack_DeclareExpectedAgainstNonTopFails(t *testing.T) {
	s := NewStack("en-us", newRegistry())
	outer := orderDialog()

	_, err := s.Begin(outer, "")
	require.NoError(t, err)
	_, err = s.Begin(dialog.NumberInput{ID: "qty"}, "")
	require.NoError(t, err)

	err = s.DeclareExpected(outer, []string{"bread"})
	assert.True(t, errors.Is(err, ErrStackMismatch))
}

func TestStack_DeclareExpectedWithoutSchemaKeepsBeginAggregate(t *testing.T) {
	s := NewStack("en-us", newRegistry())
	d := dialog.Composite{
		ID:         "plain",
		Recognizer: recognizer.Model{Source: "m.lu", Intents: []string{"Go"}, Entities: []string{"thing"}},
	}

	frame, err := s.Begin(d, "")
	require.NoError(t, err)

	require.NoError(t, s.DeclareExpected(d, []string{"anything"}))

	top := s.Top()
	assert.True(t, priming.Equal(frame.Possible, top.Possible))
	assert.True(t, priming.Equal(frame.Expected, top.Expected))
}

func TestStack_SuccessiveDeclarationsAreIndependent(t *testing.T) {
	s := NewStack("en-us", newRegistry())
	d := orderDialog()

	_, err := s.Begin(d, "")
	require.NoError(t, err)

	require.NoError(t, s.DeclareExpected(d, []string{"bread"}))
	require.NoError(t, s.DeclareExpected(d, []string{"quantity"}))

	// The second declaration narrows from the full description, so entities
	// dropped by the first declaration come back when requested.
	top := s.Top()
	assert.Equal(t, []priming.Entity{
		{Name: "quantity", Source: "sandwich.lu"},
		{Name: "number"},
	}, top.Expected.Entities)
}

func TestStack_Unwind(t *testing.T) {
	s := NewStack("en-us", newRegistry())

	_, err := s.Begin(orderDialog(), "de-de")
	require.NoError(t, err)
	_, err = s.Begin(dialog.NumberInput{ID: "qty"}, "")
	require.NoError(t, err)
	require.Equal(t, 2, s.Depth())

	s.Unwind()

	assert.Equal(t, 0, s.Depth())
	assert.Equal(t, "en-us", s.Locale())
	assert.True(t, s.Top().Possible.Empty())
}

func TestStack_InstanceIDsAreUniquePerActivation(t *testing.T) {
	s := NewStack("en-us", newRegistry())
	d := dialog.NumberInput{ID: "qty"}

	first, err := s.Begin(d, "")
	require.NoError(t, err)
	require.NoError(t, s.End(d))

	second, err := s.Begin(d, "")
	require.NoError(t, err)

	assert.NotEqual(t, first.InstanceID, second.InstanceID)
}

func TestStack_BeginPropagatesDescribeErrors(t *testing.T) {
	s := NewStack("en-us", newRegistry())

	_, err := s.Begin(badDialog{}, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, dialog.ErrUnsupportedKind))
	assert.Equal(t, 0, s.Depth(), "failed begin must not push a frame")
}

type badDialog struct{}

func (badDialog) DialogKind() string { return "experimental" }
func (badDialog) DialogID() string   { return "bad" }
