package httpapi

import (
	"context"

	"github.com/engagement-ledger/ledger/internal/domain/ledger"
)

type actorContextKey string

const actorKey actorContextKey = "actor"

// Actor is the community member on whose behalf the integration calls.
type Actor struct {
	ID      ledger.ID
	Roles   []ledger.ID
	IsAdmin bool
}

func withActor(ctx context.Context, a *Actor) context.Context {
	if a == nil {
		return ctx
	}
	return context.WithValue(ctx, actorKey, a)
}

func actorFromContext(ctx context.Context) *Actor {
	if v, ok := ctx.Value(actorKey).(*Actor); ok {
		return v
	}
	return &Actor{}
}
