package ingest

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/engagement-ledger/ledger/internal/application/moderation"
	"github.com/engagement-ledger/ledger/internal/application/store"
	"github.com/engagement-ledger/ledger/internal/domain/ledger"
	"github.com/engagement-ledger/ledger/internal/domain/member"
)

// Roster receives the member and role listings pushed by the platform.
type Roster interface {
	ReplaceMembers(members []member.Member)
	ReplaceRoles(roles []member.Role)
	Upsert(m member.Member)
}

// Message is an inbound platform message.
type Message struct {
	moderation.Message
	AuthorName  string `json:"author_name,omitempty"`
	AuthorIsBot bool   `json:"author_is_bot,omitempty"`
}

// Result tells the platform integration what happened to a message.
type Result struct {
	Decision moderation.Decision `json:"decision"`
	Counted  bool                `json:"counted"`
	Ignored  bool                `json:"ignored,omitempty"`
}

// Service turns inbound platform traffic into ledger updates.
type Service struct {
	store      *store.Store
	moderation *moderation.Service
	roster     Roster
	logger     zerolog.Logger
}

func NewService(st *store.Store, mod *moderation.Service, roster Roster, logger zerolog.Logger) *Service {
	return &Service{
		store:      st,
		moderation: mod,
		roster:     roster,
		logger:     logger.With().Str("service", "ingest").Logger(),
	}
}

// HandleMessage applies channel policies first. Messages no policy consumed
// count toward the author's message total when the author is tracked.
func (s *Service) HandleMessage(ctx context.Context, msg Message) Result {
	if msg.AuthorIsBot {
		return Result{Decision: moderation.Decision{Policy: moderation.PolicyNone}, Ignored: true}
	}
	if s.roster != nil && msg.AuthorName != "" {
		s.roster.Upsert(member.Member{ID: msg.AuthorID, DisplayName: msg.AuthorName, Roles: msg.AuthorRoles})
	}

	res := Result{Decision: s.moderation.Evaluate(ctx, msg.Message)}
	if res.Decision.Consumed() {
		return res
	}

	res.Counted = s.store.Update(func(doc *ledger.Document) bool {
		if !doc.Config.IsTracked(msg.AuthorRoles) {
			return false
		}
		doc.Record(msg.AuthorID).IncrementMessages()
		return true
	})
	return res
}

// SyncResult summarizes a member sync.
type SyncResult struct {
	Members int `json:"members"`
	Created int `json:"created"`
}

// SyncMembers refreshes the roster and makes sure every tracked human member
// has a ledger record. A nil roles slice keeps the current role listing.
func (s *Service) SyncMembers(ctx context.Context, members []member.Member, roles []member.Role) SyncResult {
	if s.roster != nil {
		s.roster.ReplaceMembers(members)
		if roles != nil {
			s.roster.ReplaceRoles(roles)
		}
	}

	res := SyncResult{Members: len(members)}
	s.store.Update(func(doc *ledger.Document) bool {
		for _, m := range members {
			if m.Bot || !doc.Config.IsTracked(m.Roles) {
				continue
			}
			if _, ok := doc.Participants[m.ID]; ok {
				continue
			}
			doc.Record(m.ID)
			res.Created++
		}
		return res.Created > 0
	})
	if res.Created > 0 {
		if err := s.store.Flush(ctx); err != nil {
			s.logger.Error().Err(err).Msg("member sync not persisted")
		}
	}
	s.logger.Info().Int("members", res.Members).Int("created", res.Created).Msg("members synced")
	return res
}
