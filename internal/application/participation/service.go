package participation

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/engagement-ledger/ledger/internal/application/store"
	"github.com/engagement-ledger/ledger/internal/domain/ledger"
)

var ErrForbidden = errors.New("actor is not authorized")

// BatchInput is what the command layer hands over after routing: who is
// acting, on which event, for which raw participant ids.
type BatchInput struct {
	ActorIsAdmin   bool
	EventName      string
	ParticipantIDs []string
}

// ItemFailure explains why one participant of a batch was not changed.
type ItemFailure struct {
	Input  string       `json:"input"`
	Reason string       `json:"reason"`
	State  ledger.State `json:"state,omitempty"`
}

// BatchResult buckets every participant of a batch. A batch never aborts
// because of one participant.
type BatchResult struct {
	Event     string        `json:"event"`
	Succeeded []ledger.ID   `json:"succeeded"`
	Unchanged []ledger.ID   `json:"unchanged"`
	Failed    []ItemFailure `json:"failed"`
}

// Service enacts participation transitions over the ledger store.
type Service struct {
	store  *store.Store
	logger zerolog.Logger
}

// NewService creates a participation service.
func NewService(st *store.Store, logger zerolog.Logger) *Service {
	return &Service{
		store:  st,
		logger: logger.With().Str("service", "participation").Logger(),
	}
}

type transitionFunc func(rec *ledger.Record, ev ledger.EventName) (ledger.Transition, error)

// Join moves NotJoined participants to Joined.
func (s *Service) Join(ctx context.Context, in BatchInput) (*BatchResult, error) {
	return s.apply(ctx, "join", in, func(rec *ledger.Record, ev ledger.EventName) (ledger.Transition, error) {
		return rec.Join(ev), nil
	})
}

// MarkWinner moves participants to Winner from any state.
func (s *Service) MarkWinner(ctx context.Context, in BatchInput) (*BatchResult, error) {
	return s.apply(ctx, "mark_winner", in, func(rec *ledger.Record, ev ledger.EventName) (ledger.Transition, error) {
		return rec.MarkWinner(ev), nil
	})
}

// Remove moves participants to NotJoined from any state.
func (s *Service) Remove(ctx context.Context, in BatchInput) (*BatchResult, error) {
	return s.apply(ctx, "remove", in, func(rec *ledger.Record, ev ledger.EventName) (ledger.Transition, error) {
		return rec.Remove(ev), nil
	})
}

// FixWinnerTo corrects winners to Joined or NotJoined.
func (s *Service) FixWinnerTo(ctx context.Context, mode string, in BatchInput) (*BatchResult, error) {
	return s.fix(ctx, ledger.StateWinner, mode, in)
}

// FixJoinedTo corrects joined participants to Winner or NotJoined.
func (s *Service) FixJoinedTo(ctx context.Context, mode string, in BatchInput) (*BatchResult, error) {
	return s.fix(ctx, ledger.StateJoined, mode, in)
}

// FixNotJoinedTo corrects participants with no standing to Joined or Winner.
func (s *Service) FixNotJoinedTo(ctx context.Context, mode string, in BatchInput) (*BatchResult, error) {
	return s.fix(ctx, ledger.StateNotJoined, mode, in)
}

// CopyFromMembers joins every listed member, e.g. everyone present in a voice
// channel when the event ran.
func (s *Service) CopyFromMembers(ctx context.Context, actorIsAdmin bool, eventName string, memberIDs []ledger.ID) (*BatchResult, error) {
	raw := make([]string, 0, len(memberIDs))
	for _, id := range memberIDs {
		raw = append(raw, id.String())
	}
	return s.Join(ctx, BatchInput{ActorIsAdmin: actorIsAdmin, EventName: eventName, ParticipantIDs: raw})
}

// DeleteEvent removes the event from every participant and returns how many
// records changed.
func (s *Service) DeleteEvent(ctx context.Context, actorIsAdmin bool, eventName string) (int, error) {
	if !actorIsAdmin {
		return 0, ErrForbidden
	}
	ev, err := ledger.ParseEventName(eventName)
	if err != nil {
		return 0, err
	}
	affected := 0
	s.store.Update(func(doc *ledger.Document) bool {
		for _, rec := range doc.Participants {
			if rec.Remove(ev).Changed() {
				affected++
			}
		}
		return affected > 0
	})
	if affected > 0 {
		_ = s.store.Flush(ctx)
	}
	s.logger.Info().Str("event", ev.Display).Int("affected", affected).Msg("event deleted")
	return affected, nil
}

// Stats returns the participant's statistics.
func (s *Service) Stats(id ledger.ID) (ledger.Summary, error) {
	rec, ok := s.store.Record(id)
	if !ok {
		return ledger.Summary{}, ledger.ErrNotFound
	}
	return rec.Summary(id), nil
}

func (s *Service) fix(ctx context.Context, from ledger.State, mode string, in BatchInput) (*BatchResult, error) {
	to, err := ledger.ParseState(mode)
	if err != nil {
		return nil, err
	}
	if !ledger.CanFix(from, to) {
		return nil, fmt.Errorf("%w: cannot fix %s to %s", ledger.ErrInvalidMode, from, to)
	}
	op := fmt.Sprintf("fix_%s_to_%s", from, to)
	return s.apply(ctx, op, in, func(rec *ledger.Record, ev ledger.EventName) (ledger.Transition, error) {
		return rec.Fix(from, to, ev)
	})
}

func (s *Service) apply(ctx context.Context, op string, in BatchInput, fn transitionFunc) (*BatchResult, error) {
	if !in.ActorIsAdmin {
		return nil, ErrForbidden
	}
	ev, err := ledger.ParseEventName(in.EventName)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{
		Event:     ev.Display,
		Succeeded: []ledger.ID{},
		Unchanged: []ledger.ID{},
		Failed:    []ItemFailure{},
	}
	for _, raw := range in.ParticipantIDs {
		id, err := ledger.ParseID(raw)
		if err != nil {
			result.Failed = append(result.Failed, ItemFailure{Input: raw, Reason: "invalid participant id"})
			continue
		}

		var tr ledger.Transition
		var opErr error
		s.store.Update(func(doc *ledger.Document) bool {
			rec, exists := doc.Participants[id]
			if !exists {
				rec = ledger.NewRecord()
			}
			tr, opErr = fn(rec, ev)
			if opErr != nil || !tr.Changed() {
				return false
			}
			if !exists {
				doc.Participants[id] = rec
			}
			return true
		})

		switch {
		case errors.Is(opErr, ledger.ErrPrecondition):
			result.Failed = append(result.Failed, ItemFailure{Input: raw, Reason: "not in required state", State: tr.Before})
		case opErr != nil:
			result.Failed = append(result.Failed, ItemFailure{Input: raw, Reason: opErr.Error()})
		case tr.Changed():
			result.Succeeded = append(result.Succeeded, id)
		default:
			result.Unchanged = append(result.Unchanged, id)
		}
	}

	if len(result.Succeeded) > 0 {
		_ = s.store.Flush(ctx)
	}

	s.logger.Info().
		Str("op", op).
		Str("event", ev.Display).
		Int("succeeded", len(result.Succeeded)).
		Int("unchanged", len(result.Unchanged)).
		Int("failed", len(result.Failed)).
		Msg("participation batch applied")

	return result, nil
}
