package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	appCooldown "github.com/engagement-ledger/ledger/internal/application/cooldown"
	appIngest "github.com/engagement-ledger/ledger/internal/application/ingest"
	"github.com/engagement-ledger/ledger/internal/application/moderation"
	appParticipation "github.com/engagement-ledger/ledger/internal/application/participation"
	appQuery "github.com/engagement-ledger/ledger/internal/application/query"
	appSettings "github.com/engagement-ledger/ledger/internal/application/settings"
	"github.com/engagement-ledger/ledger/internal/application/store"
	"github.com/engagement-ledger/ledger/internal/domain/ledger"
	"github.com/engagement-ledger/ledger/internal/domain/member"
	"github.com/engagement-ledger/ledger/internal/infrastructure/directory"
	"github.com/engagement-ledger/ledger/internal/infrastructure/memstore"
)

const (
	testToken = "integration-secret"
	adminRole = "900"
)

type testEnv struct {
	server *httptest.Server
	store  *store.Store
	repo   *memstore.Repository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zerolog.Nop()
	seed := ledger.NewGlobalConfig()
	seed.AuthorizedRoleIDs.Add(900)

	repo := memstore.New()
	st := store.NewStore(repo, seed, logger)
	st.Open(context.Background())
	dir := directory.New()
	mod := moderation.NewService(st, 100, time.Minute, logger)

	hash, err := bcrypt.GenerateFromPassword([]byte(testToken), bcrypt.MinCost)
	require.NoError(t, err)

	srv := NewServer(Deps{
		Participation: appParticipation.NewService(st, logger),
		Query:         appQuery.NewService(st, dir, logger),
		Ingest:        appIngest.NewService(st, mod, dir, logger),
		Cooldown:      appCooldown.NewService(st, appCooldown.NewGate(st, time.Now), logger),
		Settings:      appSettings.NewService(st, mod, logger),
	}, string(hash), 5*time.Second, logger)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return &testEnv{server: ts, store: st, repo: repo}
}

func (e *testEnv) do(t *testing.T, method, path, roles string, body interface{}, out interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("Content-Type", "application/json")
	if roles != "" {
		req.Header.Set(headerActorRoles, roles)
	}
	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	resp, err := http.Get(env.server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequireToken(t *testing.T) {
	env := newTestEnv(t)
	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/v1/config/", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err := env.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestEventLifecycle(t *testing.T) {
	env := newTestEnv(t)

	var res appParticipation.BatchResult
	status := env.do(t, http.MethodPost, "/v1/events/Spring%20Jam/join", adminRole,
		participantsRequest{ParticipantIDs: []string{"7", "x"}}, &res)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []ledger.ID{7}, res.Succeeded)
	require.Len(t, res.Failed, 1)

	status = env.do(t, http.MethodPost, "/v1/events/Spring%20Jam/winners", adminRole,
		participantsRequest{ParticipantIDs: []string{"7"}}, &res)
	require.Equal(t, http.StatusOK, status)

	status = env.do(t, http.MethodPost, "/v1/events/spring%20jam/fix", adminRole,
		fixRequest{From: "winner", To: "joined", ParticipantIDs: []string{"7"}}, &res)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []ledger.ID{7}, res.Succeeded)

	var summary ledger.Summary
	status = env.do(t, http.MethodGet, "/v1/participants/7", adminRole, nil, &summary)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"Spring Jam"}, summary.Events)
	assert.Empty(t, summary.Winners)

	status = env.do(t, http.MethodPost, "/v1/events/Spring%20Jam/remove", adminRole,
		participantsRequest{ParticipantIDs: []string{"7"}}, &res)
	require.Equal(t, http.StatusOK, status)

	status = env.do(t, http.MethodGet, "/v1/participants/7", adminRole, nil, &summary)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, summary.Events)
	assert.Empty(t, summary.Winners)

	status = env.do(t, http.MethodPost, "/v1/events/Spring%20Jam/copy", adminRole,
		copyRequest{MemberIDs: []ledger.ID{6}}, &res)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []ledger.ID{6}, res.Succeeded)

	var deleted map[string]interface{}
	status = env.do(t, http.MethodDelete, "/v1/events/SPRING%20JAM", adminRole, nil, &deleted)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, deleted["affected"])

	status = env.do(t, http.MethodGet, "/v1/participants/6", adminRole, nil, &summary)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, summary.Events)
}

func TestEventRoutesRequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	var out map[string]interface{}

	status := env.do(t, http.MethodPost, "/v1/events/Spring%20Jam/join", "1",
		participantsRequest{ParticipantIDs: []string{"7"}}, &out)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", out["error"])

	status = env.do(t, http.MethodGet, "/v1/reports", "", nil, &out)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestFixRejectsInvalidMode(t *testing.T) {
	env := newTestEnv(t)
	var out map[string]interface{}
	status := env.do(t, http.MethodPost, "/v1/events/Spring%20Jam/fix", adminRole,
		fixRequest{From: "winner", To: "winner", ParticipantIDs: []string{"7"}}, &out)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_PARAM", out["error"])
}

func TestIngestAndReport(t *testing.T) {
	env := newTestEnv(t)

	var sync appIngest.SyncResult
	status := env.do(t, http.MethodPost, "/v1/ingest/members", "", membersRequest{
		Members: []member.Member{
			{ID: 1, DisplayName: "alpha"},
			{ID: 2, DisplayName: "bravo"},
		},
	}, &sync)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, sync.Created)

	for i := 0; i < 3; i++ {
		var res appIngest.Result
		msg := appIngest.Message{Message: moderation.Message{ChannelID: 5, AuthorID: 2, Content: "hi"}}
		require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/v1/ingest/messages", "", msg, &res))
		assert.True(t, res.Counted)
	}

	var report appQuery.Report
	status = env.do(t, http.MethodPost, "/v1/reports", adminRole, reportRequest{SortBy: "msgcount"}, &report)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, report.Rows, 2)
	assert.Equal(t, ledger.ID(2), report.Rows[0].ParticipantID)
	assert.Equal(t, 3, report.Rows[0].TotalMessageCount)

	status = env.do(t, http.MethodGet, "/v1/reports?filter=msgcount%3E1", adminRole, nil, &report)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, report.Rows, 1)

	var out map[string]interface{}
	status = env.do(t, http.MethodGet, "/v1/reports?filter=10%3Cartcount%3C5", adminRole, nil, &out)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestLinkChannelRegistrationAndModeration(t *testing.T) {
	env := newTestEnv(t)

	var scan moderation.ScanResult
	status := env.do(t, http.MethodPut, "/v1/channels/link/100", adminRole, channelRequest{
		History: []moderation.Message{{AuthorID: 1, Content: "https://x.com/a/status/1"}},
	}, &scan)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, scan.Accepted)

	var res appIngest.Result
	dup := appIngest.Message{Message: moderation.Message{ChannelID: 100, AuthorID: 2, Content: "https://twitter.com/a/status/1"}}
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/v1/ingest/messages", "", dup, &res))
	assert.False(t, res.Decision.Accept)
	assert.True(t, res.Decision.Delete)
	assert.False(t, res.Counted)
}

func TestCooldownConfigAndStatsRequest(t *testing.T) {
	env := newTestEnv(t)

	var out map[string]interface{}
	status := env.do(t, http.MethodPut, "/v1/config/cooldowns/55", adminRole, cooldownRequest{Duration: "1h"}, &out)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 3600, out["seconds"])

	status = env.do(t, http.MethodPut, "/v1/config/cooldowns/55", adminRole, cooldownRequest{Duration: "later"}, &out)
	assert.Equal(t, http.StatusBadRequest, status)

	var resp appCooldown.StatsResponse
	req := statsRequest{ParticipantID: 7, Roles: []ledger.ID{55}}
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/v1/ingest/stats-requests", "", req, &resp))
	assert.Equal(t, appCooldown.Allowed, resp.Outcome)
	require.NotNil(t, resp.Summary)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/v1/ingest/stats-requests", "", req, &resp))
	assert.Equal(t, appCooldown.Denied, resp.Outcome)
	assert.Nil(t, resp.Summary)
}

func TestRoleSetRoutes(t *testing.T) {
	env := newTestEnv(t)
	var out map[string]interface{}

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPut, "/v1/config/roles/target/42", adminRole, nil, &out))
	assert.Equal(t, true, out["changed"])
	assert.True(t, env.store.Config().TargetRoleIDs.Has(42))

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPut, "/v1/config/roles/owners/42", adminRole, nil, &out))
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPut, "/v1/config/roles/target/abc", adminRole, nil, &out))
}
