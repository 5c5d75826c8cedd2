package ledger

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	id, err := ParseID(" 333333333333333333 ")
	require.NoError(t, err)
	assert.Equal(t, ID(333333333333333333), id)

	for _, bad := range []string{"", "abc", "-1", "12a", "1.5", "99999999999999999999999"} {
		_, err := ParseID(bad)
		assert.ErrorIs(t, err, ErrInvalidID, bad)
	}
}

func TestDecode_WinnersAreAuthoritative(t *testing.T) {
	data := []byte(`{
		"42": {"events": ["Spring Jam", "Autumn Cup"], "winners": ["spring jam"], "twitter_links": [], "total_message_count": 3, "art_count": 1}
	}`)

	doc, err := Decode(data)
	require.NoError(t, err)

	rec := doc.Participants[42]
	require.NotNil(t, rec)
	assert.Equal(t, []string{"Autumn Cup"}, displayNames(rec.Events()))
	assert.Equal(t, []string{"Spring Jam"}, displayNames(rec.Winners()))
	assert.Equal(t, 3, rec.TotalMessageCount)

	out, err := Encode(doc)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &raw))
	var rec42 struct {
		Events  []string `json:"events"`
		Winners []string `json:"winners"`
	}
	require.NoError(t, json.Unmarshal(raw["42"], &rec42))
	assert.Equal(t, []string{"Autumn Cup"}, rec42.Events)
	assert.Equal(t, []string{"Spring Jam"}, rec42.Winners)
}

func TestDecode_SkipsReservedAndUnknownKeys(t *testing.T) {
	data := []byte(`{
		"config": {"target_roles": ["333333333333333333"], "stats_cooldowns": {"7": 60}},
		"posted_twitter_links": ["https://x.com/a/status/1", "https://x.com/a/status/1"],
		"stats_last_click": {"42": "2026-01-01T00:00:00Z"},
		"schema": "v2",
		"42": {"events": [], "winners": []}
	}`)

	doc, err := Decode(data)
	require.NoError(t, err)

	assert.Len(t, doc.Participants, 1)
	assert.True(t, doc.Config.TargetRoleIDs.Has(333333333333333333))
	assert.Equal(t, int64(60), doc.Config.StatsCooldownByRole[7])
	assert.Equal(t, []string{"https://x.com/a/status/1"}, doc.PostedLinks)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), doc.LastStatsClick[42].UTC())
}

func TestDecode_OnlyCanonicalParticipantKeys(t *testing.T) {
	assert.True(t, IsIDKey("0"))
	assert.True(t, IsIDKey("123"))
	for _, key := range []string{"0123", "00", " 123", "123 ", "+123"} {
		assert.False(t, IsIDKey(key), key)
	}

	data := []byte(`{
		"0123": {"events": [], "winners": [], "twitter_links": [], "total_message_count": 99, "art_count": 0},
		"123": {"events": [], "winners": [], "twitter_links": [], "total_message_count": 4, "art_count": 0}
	}`)
	doc, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, doc.Participants, 1)
	assert.Equal(t, 4, doc.Participants[123].TotalMessageCount)
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode([]byte(`{"42": "not a record"`))
	assert.Error(t, err)
}

func TestDocument_RoundTripKeepsState(t *testing.T) {
	doc := NewDocument()
	doc.Config.AuthorizedRoleIDs.Add(111)
	doc.Config.StatsCooldownByRole[5] = 3600
	rec := doc.Record(42)
	rec.MarkWinner(EventName{Display: "Spring Jam"})
	rec.AppendLink("https://x.com/a/status/1")
	require.True(t, doc.AddPostedLink("https://x.com/a/status/1"))
	assert.False(t, doc.AddPostedLink("https://x.com/a/status/1"))

	data, err := Encode(doc)
	require.NoError(t, err)
	back, err := Decode(data)
	require.NoError(t, err)

	assert.True(t, back.Config.AuthorizedRoleIDs.Has(111))
	assert.Equal(t, int64(3600), back.Config.StatsCooldownByRole[5])
	assert.Equal(t, StateWinner, back.Participants[42].State(EventName{Display: "spring jam"}))
	assert.True(t, back.HasPostedLink("https://x.com/a/status/1"))
}

func TestGlobalConfig_ApplicableCooldown(t *testing.T) {
	cfg := NewGlobalConfig()
	cfg.StatsCooldownByRole[1] = 3600
	cfg.StatsCooldownByRole[2] = 60

	assert.Equal(t, 60*time.Second, cfg.ApplicableCooldown([]ID{1, 2, 9}))
	assert.Equal(t, time.Hour, cfg.ApplicableCooldown([]ID{1}))
	assert.Zero(t, cfg.ApplicableCooldown([]ID{9}))
	assert.Zero(t, cfg.ApplicableCooldown(nil))
}

func TestGlobalConfig_ApplicableCooldownClampsStoredSeconds(t *testing.T) {
	cfg := NewGlobalConfig()
	cfg.StatsCooldownByRole[1] = 20000000000
	assert.Equal(t, time.Duration(MaxCooldownSeconds)*time.Second, cfg.ApplicableCooldown([]ID{1}))
}

func TestGlobalConfig_IsTracked(t *testing.T) {
	cfg := NewGlobalConfig()
	assert.True(t, cfg.IsTracked(nil))

	cfg.TargetRoleIDs.Add(3)
	assert.False(t, cfg.IsTracked([]ID{1}))
	assert.True(t, cfg.IsTracked([]ID{1, 3}))
}
