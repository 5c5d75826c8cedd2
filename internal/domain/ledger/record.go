package ledger

import (
	"encoding/json"
	"sort"
)

type participation struct {
	Event EventName
	State State
}

// Record is the ledger entry for one participant. Participation is held as a
// single state per event; the legacy events/winners lists exist only in JSON.
type Record struct {
	participation     map[string]participation
	TwitterLinks      []string
	TotalMessageCount int
	ArtCount          int
}

func NewRecord() *Record {
	return &Record{participation: make(map[string]participation)}
}

// State returns NotJoined for events the participant has no standing in.
func (r *Record) State(ev EventName) State {
	if r == nil {
		return StateNotJoined
	}
	if p, ok := r.participation[ev.Key()]; ok {
		return p.State
	}
	return StateNotJoined
}

func (r *Record) setState(ev EventName, st State) {
	if r.participation == nil {
		r.participation = make(map[string]participation)
	}
	key := ev.Key()
	if st == StateNotJoined {
		delete(r.participation, key)
		return
	}
	p, ok := r.participation[key]
	if !ok {
		p.Event = ev
	}
	p.State = st
	r.participation[key] = p
}

// Events lists events joined but not won.
func (r *Record) Events() []EventName {
	return r.inState(StateJoined)
}

// Winners lists events won.
func (r *Record) Winners() []EventName {
	return r.inState(StateWinner)
}

func (r *Record) inState(st State) []EventName {
	if r == nil {
		return nil
	}
	var out []EventName
	for _, p := range r.participation {
		if p.State == st {
			out = append(out, p.Event)
		}
	}
	sortEvents(out)
	return out
}

// Participations returns every event with a non-NotJoined state.
func (r *Record) Participations() map[string]EventName {
	out := make(map[string]EventName, len(r.participation))
	for k, p := range r.participation {
		out[k] = p.Event
	}
	return out
}

func (r *Record) AppendLink(link string) {
	r.TwitterLinks = append(r.TwitterLinks, link)
}

func (r *Record) IncrementMessages() {
	r.TotalMessageCount++
}

func (r *Record) IncrementArt() {
	r.ArtCount++
}

// RaiseArtCount sets ArtCount to n when n is larger. Counters never decrease.
func (r *Record) RaiseArtCount(n int) bool {
	if n <= r.ArtCount {
		return false
	}
	r.ArtCount = n
	return true
}

func (r *Record) Clone() *Record {
	out := &Record{
		participation:     make(map[string]participation, len(r.participation)),
		TwitterLinks:      append([]string(nil), r.TwitterLinks...),
		TotalMessageCount: r.TotalMessageCount,
		ArtCount:          r.ArtCount,
	}
	for k, v := range r.participation {
		out.participation[k] = v
	}
	return out
}

type recordJSON struct {
	Events            []string `json:"events"`
	Winners           []string `json:"winners"`
	TwitterLinks      []string `json:"twitter_links"`
	TotalMessageCount int      `json:"total_message_count"`
	ArtCount          int      `json:"art_count"`
}

func (r *Record) MarshalJSON() ([]byte, error) {
	out := recordJSON{
		Events:            displayNames(r.Events()),
		Winners:           displayNames(r.Winners()),
		TwitterLinks:      r.TwitterLinks,
		TotalMessageCount: r.TotalMessageCount,
		ArtCount:          r.ArtCount,
	}
	if out.TwitterLinks == nil {
		out.TwitterLinks = []string{}
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the legacy list views. A name present in both lists is
// treated as a winner.
func (r *Record) UnmarshalJSON(b []byte) error {
	var in recordJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	rec := NewRecord()
	for _, raw := range in.Events {
		if ev, err := ParseEventName(raw); err == nil {
			rec.Join(ev)
		}
	}
	for _, raw := range in.Winners {
		if ev, err := ParseEventName(raw); err == nil {
			rec.MarkWinner(ev)
		}
	}
	rec.TwitterLinks = in.TwitterLinks
	rec.TotalMessageCount = max(in.TotalMessageCount, 0)
	rec.ArtCount = max(in.ArtCount, 0)
	*r = *rec
	return nil
}

func displayNames(events []EventName) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Display)
	}
	return out
}

func sortEvents(events []EventName) {
	sort.Slice(events, func(i, j int) bool {
		ki, kj := events[i].Key(), events[j].Key()
		if ki != kj {
			return ki < kj
		}
		return events[i].Display < events[j].Display
	})
}
