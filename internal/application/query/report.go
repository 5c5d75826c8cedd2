package query

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/engagement-ledger/ledger/internal/application/store"
	"github.com/engagement-ledger/ledger/internal/domain/ledger"
	"github.com/engagement-ledger/ledger/internal/domain/member"
)

var ErrInvalidSort = errors.New("invalid sort key")

// SortKey selects report ordering. Ties always fall back to display name.
type SortKey string

const (
	SortByName         SortKey = "name"
	SortByMessageCount SortKey = "msgcount"
	SortByTwitterCount SortKey = "twtcount"
)

func ParseSortKey(raw string) (SortKey, error) {
	switch SortKey(strings.ToLower(strings.TrimSpace(raw))) {
	case "", SortByName:
		return SortByName, nil
	case SortByMessageCount:
		return SortByMessageCount, nil
	case SortByTwitterCount:
		return SortByTwitterCount, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSort, raw)
}

// Request selects and orders report rows.
type Request struct {
	Filters []string
	SortBy  string
}

// Row is one participant in a report. Status holds only events the
// participant joined or won, keyed by event display name.
type Row struct {
	ParticipantID     ledger.ID               `json:"participant_id"`
	DisplayName       string                  `json:"display_name"`
	Roles             []string                `json:"roles"`
	JoinedCount       int                     `json:"joined_count"`
	WonCount          int                     `json:"won_count"`
	TotalMessageCount int                     `json:"total_message_count"`
	ArtCount          int                     `json:"art_count"`
	TwitterLinkCount  int                     `json:"twitter_link_count"`
	Status            map[string]ledger.State `json:"status"`
}

// Report is the finalized, filtered and sorted view handed to renderers.
type Report struct {
	ReportID    uuid.UUID `json:"report_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Events      []string  `json:"events"`
	Rows        []Row     `json:"rows"`
}

// Service builds reports over the ledger. It never mutates ledger state.
type Service struct {
	store     *store.Store
	directory member.Directory
	logger    zerolog.Logger
}

// NewService creates a report service.
func NewService(st *store.Store, directory member.Directory, logger zerolog.Logger) *Service {
	return &Service{
		store:     st,
		directory: directory,
		logger:    logger.With().Str("service", "query").Logger(),
	}
}

// Build flushes pending counters, then returns tracked members that pass
// every filter in the requested order.
func (s *Service) Build(ctx context.Context, req Request) (*Report, error) {
	sortKey, err := ParseSortKey(req.SortBy)
	if err != nil {
		return nil, err
	}
	filter, err := Parse(req.Filters, s.directory)
	if err != nil {
		return nil, err
	}

	_ = s.store.Flush(ctx)

	members, err := s.directory.Members(ctx)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	cfg := s.store.Config()
	records := s.store.Snapshot()

	report := &Report{
		ReportID:    uuid.New(),
		GeneratedAt: time.Now().UTC(),
		Rows:        []Row{},
	}
	var columns map[string]string
	report.Events, columns = eventColumns(records)
	for _, m := range members {
		if m.Bot || !cfg.IsTracked(m.Roles) {
			continue
		}
		rec, ok := records[m.ID]
		if !ok {
			rec = ledger.NewRecord()
		}
		matched, err := filter.Match(Subject{Record: rec, Roles: m.Roles})
		if err != nil {
			return nil, fmt.Errorf("evaluate filter for %s: %w", m.ID, err)
		}
		if !matched {
			continue
		}
		report.Rows = append(report.Rows, s.row(m, rec, columns))
	}
	SortRows(report.Rows, sortKey)

	s.logger.Info().
		Str("report_id", report.ReportID.String()).
		Int("rows", len(report.Rows)).
		Int("filters", len(req.Filters)).
		Str("sort", string(sortKey)).
		Msg("report built")
	return report, nil
}

func (s *Service) row(m member.Member, rec *ledger.Record, columns map[string]string) Row {
	roles := make([]string, 0, len(m.Roles))
	for _, id := range m.Roles {
		if name, ok := s.directory.RoleName(id); ok {
			roles = append(roles, name)
		}
	}
	status := make(map[string]ledger.State)
	for _, ev := range rec.Events() {
		status[columns[ev.Key()]] = ledger.StateJoined
	}
	for _, ev := range rec.Winners() {
		status[columns[ev.Key()]] = ledger.StateWinner
	}
	summary := rec.Summary(m.ID)
	return Row{
		ParticipantID:     m.ID,
		DisplayName:       m.DisplayName,
		Roles:             roles,
		JoinedCount:       summary.JoinedCount,
		WonCount:          summary.WonCount,
		TotalMessageCount: summary.TotalMessageCount,
		ArtCount:          summary.ArtCount,
		TwitterLinkCount:  summary.TwitterLinkCount,
		Status:            status,
	}
}

// eventColumns lists every event anyone joined or won, one spelling per
// event, sorted case-insensitively. The map resolves event keys to that spelling.
func eventColumns(records map[ledger.ID]*ledger.Record) ([]string, map[string]string) {
	byKey := make(map[string]string)
	for _, rec := range records {
		for key, ev := range rec.Participations() {
			if existing, ok := byKey[key]; !ok || ev.Display < existing {
				byKey[key] = ev.Display
			}
		}
	}
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, byKey[k])
	}
	return out, byKey
}

// SortRows orders rows by display name ascending (case-insensitive) or by a
// counter descending with display name as the tie-break.
func SortRows(rows []Row, key SortKey) {
	byName := func(a, b Row) bool {
		na, nb := strings.ToLower(a.DisplayName), strings.ToLower(b.DisplayName)
		if na != nb {
			return na < nb
		}
		return a.ParticipantID < b.ParticipantID
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch key {
		case SortByMessageCount:
			if a.TotalMessageCount != b.TotalMessageCount {
				return a.TotalMessageCount > b.TotalMessageCount
			}
		case SortByTwitterCount:
			if a.TwitterLinkCount != b.TwitterLinkCount {
				return a.TwitterLinkCount > b.TwitterLinkCount
			}
		}
		return byName(a, b)
	})
}
