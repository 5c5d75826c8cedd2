package cooldown

import (
	"time"

	"github.com/engagement-ledger/ledger/internal/application/store"
	"github.com/engagement-ledger/ledger/internal/domain/ledger"
)

// Outcome is the gate's answer to one guarded-action attempt.
type Outcome string

const (
	// Allowed: the action may proceed and a new cooldown window starts.
	Allowed Outcome = "allowed"
	// Denied: still cooling down; send exactly one denial notice.
	Denied Outcome = "denied"
	// Suppressed: still cooling down and already told; acknowledge silently.
	Suppressed Outcome = "suppressed"
	// Unauthorized: none of the member's roles may use the action.
	Unauthorized Outcome = "unauthorized"
)

// Verdict carries the outcome and, while cooling down, the time left.
type Verdict struct {
	Outcome   Outcome       `json:"outcome"`
	Cooldown  time.Duration `json:"cooldown"`
	Remaining time.Duration `json:"remaining,omitempty"`
}

// Gate rate-limits a guarded action per participant using the smallest
// cooldown among the roles they hold.
type Gate struct {
	store *store.Store
	now   func() time.Time
}

func NewGate(st *store.Store, now func() time.Time) *Gate {
	if now == nil {
		now = time.Now
	}
	return &Gate{store: st, now: now}
}

// Check records the attempt and decides its outcome.
func (g *Gate) Check(id ledger.ID, roles []ledger.ID) Verdict {
	now := g.now().UTC()
	var v Verdict
	g.store.Update(func(doc *ledger.Document) bool {
		cfg := doc.Config
		if !cfg.StatsAuthorized(roles) {
			v = Verdict{Outcome: Unauthorized}
			return false
		}
		v.Cooldown = cfg.ApplicableCooldown(roles)

		last, used := doc.LastStatsClick[id]
		if used && v.Cooldown > 0 {
			if elapsed := now.Sub(last); elapsed < v.Cooldown {
				v.Remaining = v.Cooldown - elapsed
				if denied, ok := doc.LastStatsDenial[id]; ok && !denied.Before(last) {
					v.Outcome = Suppressed
					return false
				}
				doc.LastStatsDenial[id] = now
				v.Outcome = Denied
				return true
			}
		}

		delete(doc.LastStatsDenial, id)
		doc.LastStatsClick[id] = now
		v.Outcome = Allowed
		return true
	})
	return v
}
