package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// IDs are written as decimal strings; numbers are accepted on read for
// documents produced by older tooling.
func marshalIDs(ids []ID) ([]byte, error) {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return json.Marshal(out)
}

func unmarshalIDs(b []byte) ([]ID, error) {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var raw []any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	out := make([]ID, 0, len(raw))
	for _, v := range raw {
		id, err := idFromAny(v)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func idFromAny(v any) (ID, error) {
	switch t := v.(type) {
	case string:
		return ParseID(t)
	case json.Number:
		return ParseID(t.String())
	default:
		return 0, fmt.Errorf("%w: unexpected %T", ErrInvalidID, v)
	}
}
