package directory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/engagement-ledger/ledger/internal/domain/ledger"
	"github.com/engagement-ledger/ledger/internal/domain/member"
)

// Directory holds the latest member and role listing pushed by the platform
// integration.
type Directory struct {
	mu      sync.RWMutex
	members map[ledger.ID]member.Member
	roles   map[ledger.ID]string
}

func New() *Directory {
	return &Directory{
		members: make(map[ledger.ID]member.Member),
		roles:   make(map[ledger.ID]string),
	}
}

// ReplaceMembers swaps in a full member listing.
func (d *Directory) ReplaceMembers(members []member.Member) {
	next := make(map[ledger.ID]member.Member, len(members))
	for _, m := range members {
		next[m.ID] = m
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.members = next
}

// Upsert records one member, e.g. the author of an inbound message.
func (d *Directory) Upsert(m member.Member) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.members[m.ID] = m
}

// ReplaceRoles swaps in the full role listing.
func (d *Directory) ReplaceRoles(roles []member.Role) {
	next := make(map[ledger.ID]string, len(roles))
	for _, r := range roles {
		next[r.ID] = r.Name
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.roles = next
}

func (d *Directory) Members(ctx context.Context) ([]member.Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]member.Member, 0, len(d.members))
	for _, m := range d.members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (d *Directory) Member(_ context.Context, id ledger.ID) (member.Member, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	m, ok := d.members[id]
	return m, ok
}

func (d *Directory) RoleName(id ledger.ID) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	name, ok := d.roles[id]
	return name, ok
}

func (d *Directory) ResolveRole(token string) (ledger.ID, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if id, err := ledger.ParseID(token); err == nil {
		_, ok := d.roles[id]
		return id, ok
	}
	for id, name := range d.roles {
		if strings.EqualFold(name, token) {
			return id, true
		}
	}
	return 0, false
}
