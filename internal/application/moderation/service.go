package moderation

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/engagement-ledger/ledger/internal/application/store"
	"github.com/engagement-ledger/ledger/internal/domain/ledger"
)

// Policy is the content-shape rule enforced on a channel.
type Policy string

const (
	PolicyNone      Policy = "none"
	PolicyLinkOnly  Policy = "link_only"
	PolicyMediaOnly Policy = "media_only"
)

// Message is what the platform integration reports about one inbound message.
type Message struct {
	ChannelID            ledger.ID   `json:"channel_id"`
	AuthorID             ledger.ID   `json:"author_id"`
	AuthorRoles          []ledger.ID `json:"author_roles"`
	AuthorIsAdmin        bool        `json:"author_is_admin"`
	Content              string      `json:"content"`
	HasAttachmentOrEmbed bool        `json:"has_attachment_or_embed"`
}

// Delta is the ledger change an accepted message produced.
type Delta struct {
	Link         string `json:"link,omitempty"`
	LinkCredited bool   `json:"link_credited,omitempty"`
	ArtIncrement int    `json:"art_increment,omitempty"`
}

// Decision tells the platform integration what to do with a message.
// Delete is already false for admin authors.
type Decision struct {
	Policy Policy `json:"policy"`
	Accept bool   `json:"accept"`
	Delete bool   `json:"delete"`
	Reason string `json:"reason,omitempty"`
	Delta  Delta  `json:"delta"`
}

// Consumed reports whether a channel policy handled the message, in which
// case it does not count toward the general message counter.
func (d Decision) Consumed() bool {
	return d.Policy != PolicyNone
}

// Service enforces link-only and media-only channel policies.
type Service struct {
	store       *store.Store
	scanLimit   int
	scanTimeout time.Duration
	logger      zerolog.Logger
}

// NewService creates a moderation service. scanLimit and scanTimeout bound
// every history backfill.
func NewService(st *store.Store, scanLimit int, scanTimeout time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		store:       st,
		scanLimit:   scanLimit,
		scanTimeout: scanTimeout,
		logger:      logger.With().Str("service", "moderation").Logger(),
	}
}

// PolicyFor returns the policy registered for a channel.
func (s *Service) PolicyFor(channelID ledger.ID) Policy {
	var p Policy = PolicyNone
	s.store.View(func(doc *ledger.Document) {
		p = policyOf(doc.Config, channelID)
	})
	return p
}

func policyOf(cfg *ledger.GlobalConfig, channelID ledger.ID) Policy {
	switch {
	case cfg.LinkChannelIDs.Has(channelID):
		return PolicyLinkOnly
	case cfg.MediaChannelIDs.Has(channelID):
		return PolicyMediaOnly
	}
	return PolicyNone
}

// Evaluate applies the channel's policy to msg and records any accepted
// contribution in the ledger.
func (s *Service) Evaluate(ctx context.Context, msg Message) Decision {
	var d Decision
	s.store.Update(func(doc *ledger.Document) bool {
		d = evaluate(doc, msg)
		return d.Accept
	})

	if d.Accept && d.Policy == PolicyLinkOnly {
		if err := s.store.Flush(ctx); err != nil {
			s.logger.Error().Err(err).Str("link", d.Delta.Link).Msg("posted link not persisted")
		}
	}

	if d.Policy != PolicyNone {
		s.logger.Debug().
			Str("channel_id", msg.ChannelID.String()).
			Str("participant_id", msg.AuthorID.String()).
			Str("policy", string(d.Policy)).
			Bool("accept", d.Accept).
			Bool("delete", d.Delete).
			Str("reason", d.Reason).
			Msg("message moderated")
	}
	return d
}

// evaluate is the pure policy decision plus its ledger delta. It mutates doc
// only when the message is accepted.
func evaluate(doc *ledger.Document, msg Message) Decision {
	cfg := doc.Config
	d := Decision{Policy: policyOf(cfg, msg.ChannelID)}
	switch d.Policy {
	case PolicyLinkOnly:
		link, err := NormalizeLink(msg.Content)
		switch {
		case err != nil:
			d.Reason = "not a single status link"
		case doc.HasPostedLink(link):
			d.Reason = "link already posted"
		default:
			doc.AddPostedLink(link)
			d.Accept = true
			d.Delta.Link = link
			if cfg.IsTracked(msg.AuthorRoles) {
				doc.Record(msg.AuthorID).AppendLink(link)
				d.Delta.LinkCredited = true
			}
		}
	case PolicyMediaOnly:
		if isMediaPost(msg) {
			d.Accept = true
			if cfg.IsTracked(msg.AuthorRoles) {
				doc.Record(msg.AuthorID).IncrementArt()
				d.Delta.ArtIncrement = 1
			}
		} else {
			d.Reason = "media posts must carry an attachment and no text"
		}
	default:
		return d
	}
	d.Delete = !d.Accept && !msg.AuthorIsAdmin
	return d
}

func isMediaPost(msg Message) bool {
	return msg.HasAttachmentOrEmbed && strings.TrimSpace(msg.Content) == ""
}
