package moderation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/engagement-ledger/ledger/internal/domain/ledger"
)

var ErrHistoryForbidden = errors.New("missing permission to read channel history")

// HistorySource walks a channel's history newest-first, stopping after limit
// messages or when visit returns an error.
type HistorySource interface {
	Walk(ctx context.Context, channelID ledger.ID, limit int, visit func(Message) error) error
}

// StaticHistory replays messages gathered by the platform integration. Err is
// returned after the last message, e.g. ErrHistoryForbidden when the
// integration lost access part way through.
type StaticHistory struct {
	Messages []Message
	Err      error
}

func (h StaticHistory) Walk(ctx context.Context, _ ledger.ID, limit int, visit func(Message) error) error {
	for i, m := range h.Messages {
		if limit > 0 && i >= limit {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := visit(m); err != nil {
			return err
		}
	}
	return h.Err
}

// ScanResult reports a registration-time history backfill. Partial is set
// when the scan stopped early; whatever was applied before that is kept.
type ScanResult struct {
	ScanID    uuid.UUID `json:"scan_id"`
	ChannelID ledger.ID `json:"channel_id"`
	Policy    Policy    `json:"policy"`
	Processed int       `json:"processed"`
	Accepted  int       `json:"accepted"`
	Raised    int       `json:"raised,omitempty"`
	Partial   bool      `json:"partial"`
	Error     string    `json:"error,omitempty"`

	Err error `json:"-"`
}

// BackfillLinks seeds the posted-link set and participant link lists from the
// channel's history. Historical messages are never deleted.
func (s *Service) BackfillLinks(ctx context.Context, channelID ledger.ID, src HistorySource) ScanResult {
	res, history := s.collect(ctx, channelID, PolicyLinkOnly, src)

	s.store.Update(func(doc *ledger.Document) bool {
		for i := len(history) - 1; i >= 0; i-- {
			msg := history[i]
			res.Processed++
			link, err := NormalizeLink(msg.Content)
			if err != nil || !doc.AddPostedLink(link) {
				continue
			}
			res.Accepted++
			if doc.Config.IsTracked(msg.AuthorRoles) {
				doc.Record(msg.AuthorID).AppendLink(link)
			}
		}
		return res.Accepted > 0
	})
	if res.Accepted > 0 {
		if err := s.store.Flush(ctx); err != nil {
			s.logger.Error().Err(err).Str("scan_id", res.ScanID.String()).Msg("backfilled links not persisted")
		}
	}

	s.logScan(res)
	return res
}

// BackfillMedia recounts accepted media posts per author and raises each
// tracked author's art count to at least that number. It never lowers a count.
func (s *Service) BackfillMedia(ctx context.Context, channelID ledger.ID, src HistorySource) ScanResult {
	res, history := s.collect(ctx, channelID, PolicyMediaOnly, src)

	counts := make(map[ledger.ID]int)
	roles := make(map[ledger.ID][]ledger.ID)
	for _, msg := range history {
		res.Processed++
		if !isMediaPost(msg) {
			continue
		}
		res.Accepted++
		counts[msg.AuthorID]++
		if _, seen := roles[msg.AuthorID]; !seen {
			roles[msg.AuthorID] = msg.AuthorRoles
		}
	}

	s.store.Update(func(doc *ledger.Document) bool {
		for id, n := range counts {
			if !doc.Config.IsTracked(roles[id]) {
				continue
			}
			if doc.Record(id).RaiseArtCount(n) {
				res.Raised++
			}
		}
		return res.Raised > 0
	})

	s.logScan(res)
	return res
}

// collect gathers up to the scan limit of history within the scan timeout.
// A permission failure or timeout ends collection and marks the result partial.
func (s *Service) collect(ctx context.Context, channelID ledger.ID, policy Policy, src HistorySource) (ScanResult, []Message) {
	res := ScanResult{ScanID: uuid.New(), ChannelID: channelID, Policy: policy}
	if src == nil {
		return res, nil
	}
	if s.scanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.scanTimeout)
		defer cancel()
	}

	var history []Message
	err := src.Walk(ctx, channelID, s.scanLimit, func(m Message) error {
		if s.scanLimit > 0 && len(history) >= s.scanLimit {
			return errScanLimit
		}
		history = append(history, m)
		return nil
	})
	switch {
	case err == nil, errors.Is(err, errScanLimit):
	case errors.Is(err, ErrHistoryForbidden):
		res.Partial = true
		res.Err = err
	default:
		res.Partial = true
		res.Err = fmt.Errorf("history scan: %w", err)
	}
	if res.Err != nil {
		res.Error = res.Err.Error()
	}
	return res, history
}

var errScanLimit = errors.New("scan limit reached")

func (s *Service) logScan(res ScanResult) {
	ev := s.logger.Info()
	if res.Partial {
		ev = s.logger.Warn().Err(res.Err)
	}
	ev.Str("scan_id", res.ScanID.String()).
		Str("channel_id", res.ChannelID.String()).
		Str("policy", string(res.Policy)).
		Int("processed", res.Processed).
		Int("accepted", res.Accepted).
		Int("raised", res.Raised).
		Bool("partial", res.Partial).
		Msg("history scan finished")
}
