package ledger

import (
	"errors"
	"strings"

	"golang.org/x/text/cases"
)

var ErrInvalidEventName = errors.New("invalid event name")

// EventName identifies an activity. Identity is case-insensitive; Display keeps
// the spelling first supplied.
type EventName struct {
	Display string
}

func ParseEventName(raw string) (EventName, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return EventName{}, ErrInvalidEventName
	}
	return EventName{Display: name}, nil
}

// Key is the normalized identity used for membership and lookup.
func (e EventName) Key() string {
	return eventKey(e.Display)
}

func (e EventName) Equal(other EventName) bool {
	return e.Key() == other.Key()
}

func (e EventName) String() string {
	return e.Display
}

func eventKey(name string) string {
	// A Caser is stateful and must not be shared between goroutines.
	return cases.Fold().String(strings.TrimSpace(name))
}
