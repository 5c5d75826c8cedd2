package ledger

import (
	"math"
	"time"
)

// MaxCooldownSeconds is the longest cooldown a time.Duration can hold.
const MaxCooldownSeconds = math.MaxInt64 / int64(time.Second)

// GlobalConfig is the process-wide configuration mutated only by admin
// operations and persisted with the ledger.
type GlobalConfig struct {
	AuthorizedRoleIDs      IDSet        `json:"authorized_roles"`
	TargetRoleIDs          IDSet        `json:"target_roles"`
	StatsAuthorizedRoleIDs IDSet        `json:"stats_authorized_roles"`
	LinkChannelIDs         IDSet        `json:"monitored_link_channels"`
	MediaChannelIDs        IDSet        `json:"monitored_media_channels"`
	StatsCooldownByRole    map[ID]int64 `json:"stats_cooldowns"`
	StatsPromptChannelID   ID           `json:"stats_prompt_channel_id,omitempty"`
	StatsPromptMessageID   ID           `json:"stats_prompt_message_id,omitempty"`
}

func NewGlobalConfig() *GlobalConfig {
	c := &GlobalConfig{}
	c.normalize()
	return c
}

func (c *GlobalConfig) normalize() {
	if c.AuthorizedRoleIDs == nil {
		c.AuthorizedRoleIDs = IDSet{}
	}
	if c.TargetRoleIDs == nil {
		c.TargetRoleIDs = IDSet{}
	}
	if c.StatsAuthorizedRoleIDs == nil {
		c.StatsAuthorizedRoleIDs = IDSet{}
	}
	if c.LinkChannelIDs == nil {
		c.LinkChannelIDs = IDSet{}
	}
	if c.MediaChannelIDs == nil {
		c.MediaChannelIDs = IDSet{}
	}
	if c.StatsCooldownByRole == nil {
		c.StatsCooldownByRole = map[ID]int64{}
	}
}

// IsAdmin reports whether the role set grants administrative privilege.
func (c *GlobalConfig) IsAdmin(roles []ID) bool {
	return c.AuthorizedRoleIDs.HasAny(roles)
}

// IsTracked reports whether a member with these roles counts toward
// statistics. An empty target set tracks everyone.
func (c *GlobalConfig) IsTracked(roles []ID) bool {
	if len(c.TargetRoleIDs) == 0 {
		return true
	}
	return c.TargetRoleIDs.HasAny(roles)
}

// StatsAuthorized reports whether the self-service stats action is open to
// these roles. An empty set opens it to everyone.
func (c *GlobalConfig) StatsAuthorized(roles []ID) bool {
	if len(c.StatsAuthorizedRoleIDs) == 0 {
		return true
	}
	return c.StatsAuthorizedRoleIDs.HasAny(roles)
}

// ApplicableCooldown is the smallest cooldown configured for any held role,
// or zero when none of the roles has one.
func (c *GlobalConfig) ApplicableCooldown(roles []ID) time.Duration {
	best := int64(-1)
	for _, role := range roles {
		secs, ok := c.StatsCooldownByRole[role]
		if !ok {
			continue
		}
		if best < 0 || secs < best {
			best = secs
		}
	}
	if best <= 0 {
		return 0
	}
	if best > MaxCooldownSeconds {
		best = MaxCooldownSeconds
	}
	return time.Duration(best) * time.Second
}

func (c *GlobalConfig) Clone() *GlobalConfig {
	out := &GlobalConfig{
		AuthorizedRoleIDs:      c.AuthorizedRoleIDs.Clone(),
		TargetRoleIDs:          c.TargetRoleIDs.Clone(),
		StatsAuthorizedRoleIDs: c.StatsAuthorizedRoleIDs.Clone(),
		LinkChannelIDs:         c.LinkChannelIDs.Clone(),
		MediaChannelIDs:        c.MediaChannelIDs.Clone(),
		StatsCooldownByRole:    make(map[ID]int64, len(c.StatsCooldownByRole)),
		StatsPromptChannelID:   c.StatsPromptChannelID,
		StatsPromptMessageID:   c.StatsPromptMessageID,
	}
	for k, v := range c.StatsCooldownByRole {
		out.StatsCooldownByRole[k] = v
	}
	return out
}
