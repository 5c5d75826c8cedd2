package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustEvent(t *testing.T, name string) EventName {
	t.Helper()
	ev, err := ParseEventName(name)
	require.NoError(t, err)
	return ev
}

func TestParseState(t *testing.T) {
	cases := map[string]State{
		"joined":     StateJoined,
		"notjoined":  StateNotJoined,
		"not_joined": StateNotJoined,
		"Winner":     StateWinner,
		"WINNER":     StateWinner,
	}
	for raw, want := range cases {
		got, err := ParseState(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := ParseState("champion")
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestRecord_JoinIsIdempotent(t *testing.T) {
	rec := NewRecord()
	ev := mustEvent(t, "Spring Jam")

	first := rec.Join(ev)
	assert.True(t, first.Changed())
	after := rec.Clone()

	second := rec.Join(ev)
	assert.False(t, second.Changed())
	assert.Equal(t, StateJoined, second.After)
	assert.Equal(t, after.Events(), rec.Events())
	assert.Equal(t, after.Winners(), rec.Winners())
}

func TestRecord_JoinDoesNotDemoteWinner(t *testing.T) {
	rec := NewRecord()
	ev := mustEvent(t, "Spring Jam")
	rec.MarkWinner(ev)

	tr := rec.Join(ev)
	assert.False(t, tr.Changed())
	assert.Equal(t, StateWinner, rec.State(ev))
}

func TestRecord_MarkWinnerRemovesJoined(t *testing.T) {
	rec := NewRecord()
	ev := mustEvent(t, "Spring Jam")
	rec.Join(ev)

	tr := rec.MarkWinner(ev)
	assert.True(t, tr.Changed())
	assert.Empty(t, rec.Events())
	require.Len(t, rec.Winners(), 1)
	assert.Equal(t, "Spring Jam", rec.Winners()[0].Display)

	again := rec.MarkWinner(ev)
	assert.False(t, again.Changed())
}

func TestRecord_RemoveIsTotal(t *testing.T) {
	rec := NewRecord()
	ev := mustEvent(t, "Spring Jam")

	tr := rec.Remove(ev)
	assert.False(t, tr.Changed())
	assert.Equal(t, StateNotJoined, tr.After)

	rec.MarkWinner(ev)
	tr = rec.Remove(ev)
	assert.True(t, tr.Changed())
	assert.Empty(t, rec.Events())
	assert.Empty(t, rec.Winners())
}

func TestRecord_Fix(t *testing.T) {
	ev := mustEvent(t, "Spring Jam")

	t.Run("winner to joined", func(t *testing.T) {
		rec := NewRecord()
		rec.MarkWinner(ev)
		tr, err := rec.Fix(StateWinner, StateJoined, ev)
		require.NoError(t, err)
		assert.Equal(t, StateWinner, tr.Before)
		assert.Equal(t, StateJoined, rec.State(ev))
	})

	t.Run("precondition failure does not mutate", func(t *testing.T) {
		rec := NewRecord()
		rec.Join(ev)
		_, err := rec.Fix(StateWinner, StateNotJoined, ev)
		assert.ErrorIs(t, err, ErrPrecondition)
		assert.Equal(t, StateJoined, rec.State(ev))
	})

	t.Run("not joined requires no standing", func(t *testing.T) {
		rec := NewRecord()
		rec.Join(ev)
		_, err := rec.Fix(StateNotJoined, StateWinner, ev)
		assert.ErrorIs(t, err, ErrPrecondition)

		fresh := NewRecord()
		_, err = fresh.Fix(StateNotJoined, StateWinner, ev)
		require.NoError(t, err)
		assert.Equal(t, StateWinner, fresh.State(ev))
	})

	t.Run("same state is an invalid mode", func(t *testing.T) {
		rec := NewRecord()
		_, err := rec.Fix(StateJoined, StateJoined, ev)
		assert.ErrorIs(t, err, ErrInvalidMode)
	})
}

func TestRecord_EventNamesAreCaseInsensitive(t *testing.T) {
	rec := NewRecord()
	rec.Join(mustEvent(t, "Spring Jam"))

	assert.Equal(t, StateJoined, rec.State(mustEvent(t, "  spring JAM ")))

	rec.MarkWinner(mustEvent(t, "SPRING JAM"))
	require.Len(t, rec.Winners(), 1)
	assert.Equal(t, "Spring Jam", rec.Winners()[0].Display)
}

func TestRecord_EndToEndScenario(t *testing.T) {
	rec := NewRecord()
	ev := mustEvent(t, "Spring Jam")

	rec.Join(ev)
	assert.Equal(t, StateJoined, rec.State(ev))

	rec.MarkWinner(ev)
	assert.Equal(t, StateWinner, rec.State(ev))
	assert.Empty(t, rec.Events())

	_, err := rec.Fix(StateWinner, StateJoined, ev)
	require.NoError(t, err)
	assert.Equal(t, StateJoined, rec.State(ev))

	rec.Remove(ev)
	assert.Equal(t, StateNotJoined, rec.State(ev))
	assert.Empty(t, rec.Events())
	assert.Empty(t, rec.Winners())
}
