package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/engagement-ledger/ledger/internal/application/moderation"
	"github.com/engagement-ledger/ledger/internal/application/store"
	"github.com/engagement-ledger/ledger/internal/domain/ledger"
)

var ErrUnknownRoleSet = errors.New("unknown role set")

// RoleSet names one of the role lists kept in the global configuration.
type RoleSet string

const (
	RoleSetAuthorized      RoleSet = "authorized"
	RoleSetTarget          RoleSet = "target"
	RoleSetStatsAuthorized RoleSet = "stats"
)

func ParseRoleSet(raw string) (RoleSet, error) {
	switch RoleSet(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleSetAuthorized, "admin":
		return RoleSetAuthorized, nil
	case RoleSetTarget, "tracked":
		return RoleSetTarget, nil
	case RoleSetStatsAuthorized, "stats_authorized":
		return RoleSetStatsAuthorized, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRoleSet, raw)
}

func (r RoleSet) of(cfg *ledger.GlobalConfig) ledger.IDSet {
	switch r {
	case RoleSetAuthorized:
		return cfg.AuthorizedRoleIDs
	case RoleSetTarget:
		return cfg.TargetRoleIDs
	case RoleSetStatsAuthorized:
		return cfg.StatsAuthorizedRoleIDs
	}
	return nil
}

// Service applies administrative configuration changes. Every change is
// persisted before it returns.
type Service struct {
	store      *store.Store
	moderation *moderation.Service
	logger     zerolog.Logger
}

func NewService(st *store.Store, mod *moderation.Service, logger zerolog.Logger) *Service {
	return &Service{
		store:      st,
		moderation: mod,
		logger:     logger.With().Str("service", "settings").Logger(),
	}
}

// Config returns a copy of the current configuration.
func (s *Service) Config() *ledger.GlobalConfig {
	return s.store.Config()
}

// AddRole adds a role to a role set and reports whether it was new.
func (s *Service) AddRole(ctx context.Context, set RoleSet, roleID ledger.ID) (bool, error) {
	return s.changeRole(ctx, set, roleID, true)
}

// RemoveRole removes a role from a role set and reports whether it was present.
func (s *Service) RemoveRole(ctx context.Context, set RoleSet, roleID ledger.ID) (bool, error) {
	return s.changeRole(ctx, set, roleID, false)
}

func (s *Service) changeRole(ctx context.Context, set RoleSet, roleID ledger.ID, add bool) (bool, error) {
	var unknown bool
	changed := s.store.Update(func(doc *ledger.Document) bool {
		ids := set.of(doc.Config)
		if ids == nil {
			unknown = true
			return false
		}
		if add {
			return ids.Add(roleID)
		}
		return ids.Remove(roleID)
	})
	if unknown {
		return false, fmt.Errorf("%w: %q", ErrUnknownRoleSet, set)
	}
	s.persist(ctx, changed)
	s.logger.Info().
		Str("role_set", string(set)).
		Str("role_id", roleID.String()).
		Bool("add", add).
		Bool("changed", changed).
		Msg("role set updated")
	return changed, nil
}

// RegisterLinkChannel puts a channel under the link-only policy and backfills
// posted links from its history. A channel holds at most one policy.
func (s *Service) RegisterLinkChannel(ctx context.Context, channelID ledger.ID, history moderation.HistorySource) moderation.ScanResult {
	s.registerChannel(ctx, channelID, moderation.PolicyLinkOnly)
	return s.moderation.BackfillLinks(ctx, channelID, history)
}

// RegisterMediaChannel puts a channel under the media-only policy and
// reconciles art counts from its history.
func (s *Service) RegisterMediaChannel(ctx context.Context, channelID ledger.ID, history moderation.HistorySource) moderation.ScanResult {
	s.registerChannel(ctx, channelID, moderation.PolicyMediaOnly)
	return s.moderation.BackfillMedia(ctx, channelID, history)
}

func (s *Service) registerChannel(ctx context.Context, channelID ledger.ID, policy moderation.Policy) {
	changed := s.store.Update(func(doc *ledger.Document) bool {
		cfg := doc.Config
		if policy == moderation.PolicyLinkOnly {
			removed := cfg.MediaChannelIDs.Remove(channelID)
			return cfg.LinkChannelIDs.Add(channelID) || removed
		}
		removed := cfg.LinkChannelIDs.Remove(channelID)
		return cfg.MediaChannelIDs.Add(channelID) || removed
	})
	s.persist(ctx, changed)
	s.logger.Info().Str("channel_id", channelID.String()).Str("policy", string(policy)).Msg("channel registered")
}

// UnregisterChannel lifts any policy from a channel. Ledger contributions
// already recorded are kept.
func (s *Service) UnregisterChannel(ctx context.Context, channelID ledger.ID) bool {
	changed := s.store.Update(func(doc *ledger.Document) bool {
		link := doc.Config.LinkChannelIDs.Remove(channelID)
		media := doc.Config.MediaChannelIDs.Remove(channelID)
		return link || media
	})
	s.persist(ctx, changed)
	s.logger.Info().Str("channel_id", channelID.String()).Bool("changed", changed).Msg("channel unregistered")
	return changed
}

// SetCooldown sets a role's stats cooldown from a duration string.
func (s *Service) SetCooldown(ctx context.Context, roleID ledger.ID, raw string) (time.Duration, error) {
	d, err := ParseCooldown(raw)
	if err != nil {
		return 0, err
	}
	secs := int64(d / time.Second)
	changed := s.store.Update(func(doc *ledger.Document) bool {
		if doc.Config.StatsCooldownByRole[roleID] == secs {
			return false
		}
		doc.Config.StatsCooldownByRole[roleID] = secs
		return true
	})
	s.persist(ctx, changed)
	s.logger.Info().Str("role_id", roleID.String()).Dur("cooldown", d).Msg("stats cooldown set")
	return d, nil
}

// ClearCooldown removes a role's stats cooldown.
func (s *Service) ClearCooldown(ctx context.Context, roleID ledger.ID) bool {
	changed := s.store.Update(func(doc *ledger.Document) bool {
		if _, ok := doc.Config.StatsCooldownByRole[roleID]; !ok {
			return false
		}
		delete(doc.Config.StatsCooldownByRole, roleID)
		return true
	})
	s.persist(ctx, changed)
	s.logger.Info().Str("role_id", roleID.String()).Bool("changed", changed).Msg("stats cooldown cleared")
	return changed
}

// SetStatsPrompt records where the self-service stats prompt is posted.
func (s *Service) SetStatsPrompt(ctx context.Context, channelID, messageID ledger.ID) {
	changed := s.store.Update(func(doc *ledger.Document) bool {
		cfg := doc.Config
		if cfg.StatsPromptChannelID == channelID && cfg.StatsPromptMessageID == messageID {
			return false
		}
		cfg.StatsPromptChannelID, cfg.StatsPromptMessageID = channelID, messageID
		return true
	})
	s.persist(ctx, changed)
}

func (s *Service) persist(ctx context.Context, changed bool) {
	if !changed {
		return
	}
	if err := s.store.Flush(ctx); err != nil {
		s.logger.Error().Err(err).Msg("configuration change not persisted")
	}
}
