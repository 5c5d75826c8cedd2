package member

import (
	"context"

	"github.com/engagement-ledger/ledger/internal/domain/ledger"
)

// Member is the platform's view of a community member.
type Member struct {
	ID          ledger.ID   `json:"id"`
	DisplayName string      `json:"display_name"`
	Roles       []ledger.ID `json:"roles"`
	Bot         bool        `json:"bot,omitempty"`
}

// Role names a platform role.
type Role struct {
	ID   ledger.ID `json:"id"`
	Name string    `json:"name"`
}

// Directory is the platform-integration layer's member and role listing.
type Directory interface {
	Members(ctx context.Context) ([]Member, error)
	Member(ctx context.Context, id ledger.ID) (Member, bool)
	RoleName(id ledger.ID) (string, bool)
	// ResolveRole maps a role name (case-insensitive) or decimal id to a known role.
	ResolveRole(token string) (ledger.ID, bool)
}
