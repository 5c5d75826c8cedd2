package ledger

import (
	"encoding/json"
	"fmt"
	"time"
)

// Reserved top-level keys of the persisted document. Every other key that is
// a decimal id names a participant; anything else is ignored.
const (
	KeyConfig          = "config"
	KeyPostedLinks     = "posted_twitter_links"
	KeyStatsLastClick  = "stats_last_click"
	KeyStatsLastDenial = "stats_last_denial"
)

// Document is the full ledger state written and read as a single unit.
type Document struct {
	Participants    map[ID]*Record
	Config          *GlobalConfig
	PostedLinks     []string
	LastStatsClick  map[ID]time.Time
	LastStatsDenial map[ID]time.Time

	postedIndex map[string]struct{}
}

func NewDocument() *Document {
	d := &Document{}
	d.normalize()
	return d
}

func (d *Document) normalize() {
	if d.Participants == nil {
		d.Participants = make(map[ID]*Record)
	}
	if d.Config == nil {
		d.Config = NewGlobalConfig()
	}
	d.Config.normalize()
	if d.LastStatsClick == nil {
		d.LastStatsClick = make(map[ID]time.Time)
	}
	if d.LastStatsDenial == nil {
		d.LastStatsDenial = make(map[ID]time.Time)
	}
	d.postedIndex = make(map[string]struct{}, len(d.PostedLinks))
	links := d.PostedLinks[:0]
	for _, l := range d.PostedLinks {
		if _, dup := d.postedIndex[l]; dup {
			continue
		}
		d.postedIndex[l] = struct{}{}
		links = append(links, l)
	}
	d.PostedLinks = links
}

// Record returns the participant's record, creating an empty one on first use.
func (d *Document) Record(id ID) *Record {
	rec, ok := d.Participants[id]
	if !ok {
		rec = NewRecord()
		d.Participants[id] = rec
	}
	return rec
}

func (d *Document) HasPostedLink(link string) bool {
	_, ok := d.postedIndex[link]
	return ok
}

// AddPostedLink reports false when the link was already present.
func (d *Document) AddPostedLink(link string) bool {
	if d.HasPostedLink(link) {
		return false
	}
	d.postedIndex[link] = struct{}{}
	d.PostedLinks = append(d.PostedLinks, link)
	return true
}

func (d *Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Participants)+4)
	for id, rec := range d.Participants {
		out[id.String()] = rec
	}
	out[KeyConfig] = d.Config
	links := d.PostedLinks
	if links == nil {
		links = []string{}
	}
	out[KeyPostedLinks] = links
	out[KeyStatsLastClick] = d.LastStatsClick
	out[KeyStatsLastDenial] = d.LastStatsDenial
	return json.Marshal(out)
}

func (d *Document) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	doc := Document{Participants: make(map[ID]*Record)}
	for key, val := range raw {
		switch key {
		case KeyConfig:
			cfg := &GlobalConfig{}
			if err := json.Unmarshal(val, cfg); err != nil {
				return fmt.Errorf("decode %s: %w", key, err)
			}
			doc.Config = cfg
		case KeyPostedLinks:
			if err := json.Unmarshal(val, &doc.PostedLinks); err != nil {
				return fmt.Errorf("decode %s: %w", key, err)
			}
		case KeyStatsLastClick:
			if err := json.Unmarshal(val, &doc.LastStatsClick); err != nil {
				return fmt.Errorf("decode %s: %w", key, err)
			}
		case KeyStatsLastDenial:
			if err := json.Unmarshal(val, &doc.LastStatsDenial); err != nil {
				return fmt.Errorf("decode %s: %w", key, err)
			}
		default:
			if !IsIDKey(key) {
				continue
			}
			id, _ := ParseID(key)
			rec := NewRecord()
			if err := json.Unmarshal(val, rec); err != nil {
				return fmt.Errorf("decode participant %s: %w", key, err)
			}
			doc.Participants[id] = rec
		}
	}
	doc.normalize()
	*d = doc
	return nil
}

// Decode parses a persisted document.
func Decode(data []byte) (*Document, error) {
	doc := &Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Encode serializes the document in its persisted layout.
func Encode(d *Document) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}
