package cooldown

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/engagement-ledger/ledger/internal/application/store"
	"github.com/engagement-ledger/ledger/internal/domain/ledger"
)

// StatsResponse is returned for a self-service statistics request. Summary
// is only set when the gate allowed the request.
type StatsResponse struct {
	Verdict
	Summary *ledger.Summary `json:"summary,omitempty"`
}

// Service guards statistics disclosure with the cooldown gate.
type Service struct {
	gate   *Gate
	store  *store.Store
	logger zerolog.Logger
}

func NewService(st *store.Store, gate *Gate, logger zerolog.Logger) *Service {
	return &Service{
		gate:   gate,
		store:  st,
		logger: logger.With().Str("service", "cooldown").Logger(),
	}
}

// RequestStats runs the gate for the participant and, when allowed, returns
// their current statistics.
func (s *Service) RequestStats(_ context.Context, id ledger.ID, roles []ledger.ID) StatsResponse {
	resp := StatsResponse{Verdict: s.gate.Check(id, roles)}
	s.logger.Debug().
		Str("participant_id", id.String()).
		Str("outcome", string(resp.Outcome)).
		Dur("remaining", resp.Remaining).
		Msg("stats requested")
	if resp.Outcome != Allowed {
		return resp
	}

	rec, ok := s.store.Record(id)
	if !ok {
		rec = ledger.NewRecord()
	}
	summary := rec.Summary(id)
	resp.Summary = &summary
	return resp
}
