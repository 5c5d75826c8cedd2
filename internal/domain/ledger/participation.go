package ledger

import (
	"errors"
	"strings"
)

// State is a participant's standing in one event. Joined and Winner are
// mutually exclusive: a winner is not also listed as joined.
type State string

const (
	StateNotJoined State = "NOT_JOINED"
	StateJoined    State = "JOINED"
	StateWinner    State = "WINNER"
)

var (
	ErrInvalidMode  = errors.New("invalid mode")
	ErrPrecondition = errors.New("participant is not in the required state")
)

// ParseState accepts the command spellings used by admins ("joined",
// "notjoined", "winner") as well as the canonical constants.
func ParseState(raw string) (State, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer("_", "", "-", "", " ", "").Replace(s)
	switch s {
	case "joined", "join":
		return StateJoined, nil
	case "notjoined":
		return StateNotJoined, nil
	case "winner", "winners", "won":
		return StateWinner, nil
	}
	return "", ErrInvalidMode
}

func (s State) Valid() bool {
	switch s {
	case StateNotJoined, StateJoined, StateWinner:
		return true
	}
	return false
}

// CanFix reports whether a fix transition from one state to another is
// meaningful. A fix always moves to a different state.
func CanFix(from, to State) bool {
	return from.Valid() && to.Valid() && from != to
}

// Transition is the before/after delta of one operation on a
// (participant, event) pair.
type Transition struct {
	Event  EventName
	Before State
	After  State
}

func (t Transition) Changed() bool {
	return t.Before != t.After
}

// Join moves NotJoined to Joined. Joined and Winner are left untouched.
func (r *Record) Join(ev EventName) Transition {
	before := r.State(ev)
	if before == StateNotJoined {
		r.setState(ev, StateJoined)
	}
	return Transition{Event: ev, Before: before, After: r.State(ev)}
}

// MarkWinner moves any state to Winner.
func (r *Record) MarkWinner(ev EventName) Transition {
	before := r.State(ev)
	r.setState(ev, StateWinner)
	return Transition{Event: ev, Before: before, After: StateWinner}
}

// Remove moves any state to NotJoined.
func (r *Record) Remove(ev EventName) Transition {
	before := r.State(ev)
	r.setState(ev, StateNotJoined)
	return Transition{Event: ev, Before: before, After: StateNotJoined}
}

// Fix corrects a pair known to be in state from. It fails without mutating
// when the current state differs from from.
func (r *Record) Fix(from, to State, ev EventName) (Transition, error) {
	if !CanFix(from, to) {
		return Transition{}, ErrInvalidMode
	}
	before := r.State(ev)
	if before != from {
		return Transition{Event: ev, Before: before, After: before}, ErrPrecondition
	}
	r.setState(ev, to)
	return Transition{Event: ev, Before: before, After: to}, nil
}
