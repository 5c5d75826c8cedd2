package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/engagement-ledger/ledger/internal/domain/ledger"
)

// Store is the single in-memory source of truth for the ledger, mirrored to a
// Repository. All mutations go through one writer lock, so updates to the
// same participant never interleave.
type Store struct {
	mu       sync.Mutex
	doc      *ledger.Document
	revision uint64
	saved    uint64

	flushMu sync.Mutex
	repo    ledger.Repository
	seed    *ledger.GlobalConfig
	logger  zerolog.Logger
}

// NewStore creates a store. seed is the configuration used when no persisted
// document exists; it may be nil.
func NewStore(repo ledger.Repository, seed *ledger.GlobalConfig, logger zerolog.Logger) *Store {
	if seed == nil {
		seed = ledger.NewGlobalConfig()
	}
	return &Store{
		doc:    freshDocument(seed),
		repo:   repo,
		seed:   seed,
		logger: logger.With().Str("service", "store").Logger(),
	}
}

func freshDocument(seed *ledger.GlobalConfig) *ledger.Document {
	doc := ledger.NewDocument()
	doc.Config = seed.Clone()
	return doc
}

// Open loads the persisted document. Missing, unreadable or malformed state
// leaves the store empty; startup never fails because of it.
func (s *Store) Open(ctx context.Context) {
	data, err := s.repo.Load(ctx)
	var doc *ledger.Document
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		s.logger.Info().Msg("no persisted ledger, starting empty")
	case err != nil:
		s.logger.Error().Err(err).Msg("failed to read persisted ledger, starting empty")
	default:
		doc, err = ledger.Decode(data)
		if err != nil {
			s.logger.Error().Err(err).Msg("persisted ledger is malformed, starting empty")
			doc = nil
		}
	}
	if doc == nil {
		doc = freshDocument(s.seed)
	}

	s.mu.Lock()
	s.doc = doc
	s.revision, s.saved = 0, 0
	n := len(doc.Participants)
	s.mu.Unlock()

	s.logger.Info().Int("participants", n).Int("posted_links", len(doc.PostedLinks)).Msg("ledger loaded")
}

// Update runs fn under the writer lock. fn reports whether it changed state;
// a change schedules the next flush.
func (s *Store) Update(fn func(doc *ledger.Document) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := fn(s.doc)
	if changed {
		s.revision++
	}
	return changed
}

// View runs fn with read access. fn must not retain or mutate doc.
func (s *Store) View(fn func(doc *ledger.Document)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.doc)
}

// Config returns a copy of the current global configuration.
func (s *Store) Config() *ledger.GlobalConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Config.Clone()
}

// Record returns a copy of a participant's record.
func (s *Store) Record(id ledger.ID) (*ledger.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.doc.Participants[id]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// Snapshot copies every participant record for read-only consumers.
func (s *Store) Snapshot() map[ledger.ID]*ledger.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[ledger.ID]*ledger.Record, len(s.doc.Participants))
	for id, rec := range s.doc.Participants {
		out[id] = rec.Clone()
	}
	return out
}

// Dirty reports whether there are changes not yet written.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision != s.saved
}

// Flush writes the full document when it changed since the last successful
// write. A failed write is logged; in-memory state stays authoritative.
func (s *Store) Flush(ctx context.Context) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.Lock()
	if s.revision == s.saved {
		s.mu.Unlock()
		return nil
	}
	rev := s.revision
	data, err := ledger.Encode(s.doc)
	s.mu.Unlock()
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to encode ledger")
		return err
	}

	if err := s.repo.Save(ctx, data); err != nil {
		s.logger.Error().Err(err).Uint64("revision", rev).Msg("failed to persist ledger")
		return err
	}

	s.mu.Lock()
	if rev > s.saved {
		s.saved = rev
	}
	s.mu.Unlock()
	s.logger.Debug().Uint64("revision", rev).Int("bytes", len(data)).Msg("ledger persisted")
	return nil
}

// Run flushes periodically until ctx is cancelled.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.Flush(ctx)
		}
	}
}

// Close performs the final flush.
func (s *Store) Close(ctx context.Context) error {
	return s.Flush(ctx)
}
