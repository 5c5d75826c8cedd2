package ledger

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var ErrInvalidID = errors.New("invalid id")

// ID is a platform-assigned numeric identity (participant, role, channel or message).
type ID uint64

// ParseID accepts only a decimal string within the 64-bit range.
func ParseID(raw string) (ID, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidID)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidID, raw)
		}
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, raw)
	}
	return ID(v), nil
}

// IsIDKey reports whether a persisted top-level key names a participant.
// Only the canonical spelling counts, so "0123" never shadows "123".
func IsIDKey(key string) bool {
	id, err := ParseID(key)
	return err == nil && id.String() == key
}

func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ID) UnmarshalText(b []byte) error {
	v, err := ParseID(string(b))
	if err != nil {
		return err
	}
	*id = v
	return nil
}

// IDSet is an unordered set of identifiers.
type IDSet map[ID]struct{}

func NewIDSet(ids ...ID) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Has(id ID) bool {
	_, ok := s[id]
	return ok
}

// Add reports whether the id was newly inserted.
func (s IDSet) Add(id ID) bool {
	if s.Has(id) {
		return false
	}
	s[id] = struct{}{}
	return true
}

// Remove reports whether the id was present.
func (s IDSet) Remove(id ID) bool {
	if !s.Has(id) {
		return false
	}
	delete(s, id)
	return true
}

// HasAny reports whether any of ids is in the set.
func (s IDSet) HasAny(ids []ID) bool {
	for _, id := range ids {
		if s.Has(id) {
			return true
		}
	}
	return false
}

// Sorted returns the members in ascending order.
func (s IDSet) Sorted() []ID {
	out := make([]ID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s IDSet) Clone() IDSet {
	out := make(IDSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

func (s IDSet) MarshalJSON() ([]byte, error) {
	return marshalIDs(s.Sorted())
}

func (s *IDSet) UnmarshalJSON(b []byte) error {
	ids, err := unmarshalIDs(b)
	if err != nil {
		return err
	}
	*s = NewIDSet(ids...)
	return nil
}
