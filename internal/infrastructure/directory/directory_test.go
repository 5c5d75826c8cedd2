package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engagement-ledger/ledger/internal/domain/ledger"
	"github.com/engagement-ledger/ledger/internal/domain/member"
)

func TestDirectory_ResolveRole(t *testing.T) {
	d := New()
	d.ReplaceRoles([]member.Role{{ID: 10, Name: "Artists"}, {ID: 20, Name: "Moderators"}})

	id, ok := d.ResolveRole("artists")
	require.True(t, ok)
	assert.Equal(t, ledger.ID(10), id)

	id, ok = d.ResolveRole("20")
	require.True(t, ok)
	assert.Equal(t, ledger.ID(20), id)

	_, ok = d.ResolveRole("30")
	assert.False(t, ok)
	_, ok = d.ResolveRole("Lurkers")
	assert.False(t, ok)
}

func TestDirectory_MembersSorted(t *testing.T) {
	d := New()
	d.ReplaceMembers([]member.Member{{ID: 3, DisplayName: "c"}, {ID: 1, DisplayName: "a"}})
	d.Upsert(member.Member{ID: 2, DisplayName: "b"})

	members, err := d.Members(context.Background())
	require.NoError(t, err)
	require.Len(t, members, 3)
	assert.Equal(t, []ledger.ID{1, 2, 3}, []ledger.ID{members[0].ID, members[1].ID, members[2].ID})

	m, ok := d.Member(context.Background(), 2)
	require.True(t, ok)
	assert.Equal(t, "b", m.DisplayName)
}
