package httpapi

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/nfl-pickem/internal/domain/user"
	"github.com/riskibarqy/nfl-pickem/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/nfl-pickem/internal/platform/id"
	"github.com/riskibarqy/nfl-pickem/internal/usecase"
)

const (
	testJobToken = "job-secret"
	seedYear     = 2025
)

type staticVerifier map[string]string

func (v staticVerifier) VerifyAccessToken(_ context.Context, token string) (user.Principal, error) {
	identity, ok := v[token]
	if !ok {
		return user.Principal{}, errors.Wrap(usecase.ErrUnauthorized, "unknown token")
	}
	return user.Principal{UserID: identity}, nil
}

type recordingMetrics struct {
	mu          sync.Mutex
	routes      []string
	picks       map[string]int
	rateLimited int
}

func (m *recordingMetrics) ObserveHTTPRequest(route, _ string, _ int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = append(m.routes, route)
}

func (m *recordingMetrics) IncPickSubmission(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.picks == nil {
		m.picks = make(map[string]int)
	}
	m.picks[outcome]++
}

func (m *recordingMetrics) IncRateLimited() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rateLimited++
}

type stubSyncer struct {
	report usecase.SyncReport
	err    error
	status usecase.SyncStatus
}

func (s *stubSyncer) SyncCurrentWeek(context.Context) (usecase.SyncReport, error) {
	return s.report, s.err
}

func (s *stubSyncer) Status() usecase.SyncStatus { return s.status }

type testServer struct {
	router   http.Handler
	fixtures memory.Fixtures
	metrics  *recordingMetrics
	syncer   *stubSyncer
}

type serverOption func(*RouterConfig)

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()

	repos := memory.NewRepositories()
	fixtures := memory.Seed(seedYear)
	if err := repos.Load(context.Background(), fixtures); err != nil {
		t.Fatalf("load seed: %v", err)
	}

	ids := id.NewUUIDGenerator()
	syncer := &stubSyncer{}
	metrics := &recordingMetrics{}

	schedule := usecase.NewScheduleService(repos.Seasons, repos.Games, ids, nil, nil)
	picks := usecase.NewPickService(repos.Users, repos.Seasons, repos.Games, repos.Picks, ids, nil, nil)
	leagues := usecase.NewLeagueService(repos.Leagues, repos.Users, ids)
	standings := usecase.NewStandingsService(repos.Leagues, repos.Seasons, repos.Games, repos.Picks, syncer, nil)

	handler := NewHandler(schedule, picks, leagues, standings, syncer, metrics, nil)
	verifier := staticVerifier{
		"alice-token": "demo|alice",
		"bruno-token": "demo|bruno",
		"carol-token": "demo|carol",
	}

	cfg := RouterConfig{
		InternalJobToken: testJobToken,
		Metrics:          metrics,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &testServer{
		router:   NewRouter(handler, verifier, nil, cfg),
		fixtures: fixtures,
		metrics:  metrics,
		syncer:   syncer,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var payload []byte
	switch v := body.(type) {
	case nil:
	case string:
		payload = []byte(v)
	default:
		raw, err := sonic.Marshal(v)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		payload = raw
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	switch token {
	case "":
	case testJobToken:
		req.Header.Set("X-Internal-Job-Token", token)
	default:
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

type envelope[T any] struct {
	APIVersion string           `json:"apiVersion"`
	Data       T                `json:"data"`
	Error      *googleErrorBody `json:"error"`
}

func decodeEnvelope[T any](t *testing.T, rec *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var out envelope[T]
	if err := sonic.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal response %q: %v", rec.Body.String(), err)
	}
	return out
}

func errorReason(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeEnvelope[any](t, rec)
	if body.Error == nil || len(body.Error.Errors) == 0 {
		t.Fatalf("expected error body, got %s", rec.Body.String())
	}
	return body.Error.Errors[0].Reason
}

func TestHealthz_ReportsFeedStaleness(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	srv.syncer.status = usecase.SyncStatus{ConsecutiveFailures: 2, LastError: "feed down"}

	rec := srv.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeEnvelope[healthDTO](t, rec)
	if body.Data.Status != "ok" || !body.Data.FeedStale {
		t.Fatalf("unexpected health payload: %+v", body.Data)
	}
}

func TestGetCurrentWeek(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec := srv.do(t, http.MethodGet, "/v1/weeks/current", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope[weekDTO](t, rec)
	if body.Data.Number < 1 || body.Data.ID == "" {
		t.Fatalf("unexpected week payload: %+v", body.Data)
	}
}

func TestListWeekGames(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec := srv.do(t, http.MethodGet, "/v1/weeks/"+memory.SeedWeekID(seedYear, 1)+"/games", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeEnvelope[[]gameDTO](t, rec)
	if len(body.Data) != len(srv.fixtures.Games) {
		t.Fatalf("expected %d games, got %d", len(srv.fixtures.Games), len(body.Data))
	}
	if body.Data[0].Status != "scheduled" {
		t.Fatalf("unexpected status: %q", body.Data[0].Status)
	}
}

func TestSubmitPick_CreatesThenReplaces(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	g := srv.fixtures.Games[0]

	rec := srv.do(t, http.MethodPost, "/v1/picks", "alice-token", submitPickRequest{GameID: g.ID, SelectedTeamID: g.HomeTeamID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeEnvelope[pickDTO](t, rec).Data
	if created.UserID != memory.SeedUserAlice || !created.IsHomeTeamPick || created.WeekID != g.WeekID {
		t.Fatalf("unexpected pick: %+v", created)
	}

	rec = srv.do(t, http.MethodPost, "/v1/picks", "alice-token", submitPickRequest{GameID: g.ID, SelectedTeamID: g.AwayTeamID})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on replacement, got %d: %s", rec.Code, rec.Body.String())
	}
	replaced := decodeEnvelope[pickDTO](t, rec).Data
	if replaced.ID != created.ID || replaced.SelectedTeamID != g.AwayTeamID {
		t.Fatalf("expected replacement of %s, got %+v", created.ID, replaced)
	}

	rec = srv.do(t, http.MethodGet, "/v1/picks/me?week_id="+g.WeekID, "alice-token", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if picks := decodeEnvelope[[]pickDTO](t, rec).Data; len(picks) != 1 {
		t.Fatalf("expected exactly one stored pick, got %d", len(picks))
	}

	srv.metrics.mu.Lock()
	defer srv.metrics.mu.Unlock()
	if srv.metrics.picks["created"] != 1 || srv.metrics.picks["updated"] != 1 {
		t.Fatalf("unexpected pick outcomes: %v", srv.metrics.picks)
	}
}

func TestSubmitPick_RejectsInvalidRequests(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	g := srv.fixtures.Games[0]

	tests := []struct {
		name       string
		token      string
		body       any
		wantStatus int
		wantReason string
	}{
		{name: "missing token", token: "", body: submitPickRequest{GameID: g.ID, SelectedTeamID: g.HomeTeamID}, wantStatus: http.StatusUnauthorized, wantReason: usecase.KindUnauthorized},
		{name: "unknown token", token: "nobody", body: submitPickRequest{GameID: g.ID, SelectedTeamID: g.HomeTeamID}, wantStatus: http.StatusUnauthorized, wantReason: usecase.KindUnauthorized},
		{name: "unknown field", token: "alice-token", body: `{"game_id":"x","selected_team_id":"KC","extra":1}`, wantStatus: http.StatusBadRequest, wantReason: usecase.KindValidation},
		{name: "missing team", token: "alice-token", body: `{"game_id":"x"}`, wantStatus: http.StatusBadRequest, wantReason: usecase.KindValidation},
		{name: "team not in game", token: "alice-token", body: submitPickRequest{GameID: g.ID, SelectedTeamID: "NYJ"}, wantStatus: http.StatusBadRequest, wantReason: usecase.KindValidation},
		{name: "unknown game", token: "alice-token", body: submitPickRequest{GameID: "missing", SelectedTeamID: "KC"}, wantStatus: http.StatusNotFound, wantReason: usecase.KindNotFound},
		{name: "week mismatch", token: "alice-token", body: submitPickRequest{GameID: g.ID, SelectedTeamID: g.HomeTeamID, WeekID: memory.SeedWeekID(seedYear, 2)}, wantStatus: http.StatusBadRequest, wantReason: usecase.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, http.MethodPost, "/v1/picks", tt.token, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if got := errorReason(t, rec); got != tt.wantReason {
				t.Fatalf("expected reason %q, got %q", tt.wantReason, got)
			}
		})
	}
}

func TestSubmitPick_LockedOnceGameStarts(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	g := srv.fixtures.Games[1]

	rec := srv.do(t, http.MethodPut, "/v1/internal/games/"+g.ID+"/result", testJobToken, updateGameResultRequest{Status: "in_progress"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = srv.do(t, http.MethodPost, "/v1/picks", "bruno-token", submitPickRequest{GameID: g.ID, SelectedTeamID: g.HomeTeamID})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := errorReason(t, rec); got != usecase.KindPicksLocked {
		t.Fatalf("expected picks_locked, got %q", got)
	}
}

func TestUpdateGameResult_RejectsRegression(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	g := srv.fixtures.Games[0]
	home, away := 27, 20

	rec := srv.do(t, http.MethodPut, "/v1/internal/games/"+g.ID+"/result", testJobToken,
		updateGameResultRequest{Status: "completed", HomeScore: &home, AwayScore: &away})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	updated := decodeEnvelope[gameDTO](t, rec).Data
	if updated.Status != "completed" || updated.HomeScore == nil || *updated.HomeScore != home {
		t.Fatalf("unexpected game: %+v", updated)
	}

	rec = srv.do(t, http.MethodPut, "/v1/internal/games/"+g.ID+"/result", testJobToken, updateGameResultRequest{Status: "scheduled"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := errorReason(t, rec); got != usecase.KindInvalidTransition {
		t.Fatalf("expected invalid_transition, got %q", got)
	}
}

func TestInternalRoutes_RequireJobToken(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec := srv.do(t, http.MethodPost, "/v1/internal/jobs/sync-results", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	unconfigured := newTestServer(t, func(cfg *RouterConfig) { cfg.InternalJobToken = "" })
	rec = unconfigured.do(t, http.MethodPost, "/v1/internal/jobs/sync-results", testJobToken, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without configured token, got %d", rec.Code)
	}
}

func TestRunSyncResultsJob(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	srv.syncer.report = usecase.SyncReport{WeekID: "w1", Fetched: 4, Updated: 2, Unchanged: 2}

	rec := srv.do(t, http.MethodPost, "/v1/internal/jobs/sync-results", testJobToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if report := decodeEnvelope[usecase.SyncReport](t, rec).Data; report.Updated != 2 || report.WeekID != "w1" {
		t.Fatalf("unexpected report: %+v", report)
	}

	srv.syncer.err = errors.Wrap(usecase.ErrUpstreamUnavailable, "feed down")
	rec = srv.do(t, http.MethodPost, "/v1/internal/jobs/sync-results", testJobToken, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestLeagueLifecycle(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/v1/leagues", "carol-token", createLeagueRequest{Name: "Office Pool"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeEnvelope[leagueDTO](t, rec).Data
	if created.InviteCode == "" || created.Name != "Office Pool" {
		t.Fatalf("unexpected league: %+v", created)
	}

	rec = srv.do(t, http.MethodPost, "/v1/leagues/join", "bruno-token", joinLeagueRequest{InviteCode: created.InviteCode})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on join, got %d: %s", rec.Code, rec.Body.String())
	}
	joined := decodeEnvelope[membershipDTO](t, rec).Data
	if joined.UserID != memory.SeedUserBruno || joined.Status != "active" {
		t.Fatalf("unexpected membership: %+v", joined)
	}

	rec = srv.do(t, http.MethodGet, "/v1/leagues/"+created.ID+"/members", "carol-token", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if members := decodeEnvelope[[]membershipDTO](t, rec).Data; len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}

	rec = srv.do(t, http.MethodGet, "/v1/leagues/me", "bruno-token", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if leagues := decodeEnvelope[[]leagueDTO](t, rec).Data; len(leagues) != 2 {
		t.Fatalf("expected bruno in demo and new league, got %d", len(leagues))
	}

	rec = srv.do(t, http.MethodDelete, "/v1/leagues/"+created.ID+"/membership", "bruno-token", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on leave, got %d", rec.Code)
	}
	if left := decodeEnvelope[membershipDTO](t, rec).Data; left.Status != "inactive" {
		t.Fatalf("expected inactive membership, got %q", left.Status)
	}

	rec = srv.do(t, http.MethodPost, "/v1/leagues/join", "bruno-token", joinLeagueRequest{InviteCode: "NOPE0000"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown invite, got %d", rec.Code)
	}
}

func TestGetLeagueStandings(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	g := srv.fixtures.Games[0]

	for token, team := range map[string]string{"alice-token": g.HomeTeamID, "bruno-token": g.AwayTeamID} {
		rec := srv.do(t, http.MethodPost, "/v1/picks", token, submitPickRequest{GameID: g.ID, SelectedTeamID: team})
		if rec.Code != http.StatusCreated {
			t.Fatalf("submit pick for %s: %d %s", token, rec.Code, rec.Body.String())
		}
	}

	home, away := 31, 17
	rec := srv.do(t, http.MethodPut, "/v1/internal/games/"+g.ID+"/result", testJobToken,
		updateGameResultRequest{Status: "completed", HomeScore: &home, AwayScore: &away})
	if rec.Code != http.StatusOK {
		t.Fatalf("complete game: %d %s", rec.Code, rec.Body.String())
	}

	rec = srv.do(t, http.MethodGet, "/v1/leagues/"+memory.SeedLeagueID+"/standings", "bruno-token", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope[standingsDTO](t, rec).Data
	if body.Stale || body.SeasonYear != seedYear || len(body.Standings) != 2 {
		t.Fatalf("unexpected standings payload: %+v", body)
	}
	if body.Standings[0].UserID != memory.SeedUserAlice || body.Standings[0].Rank != 1 {
		t.Fatalf("expected alice to lead, got %+v", body.Standings[0])
	}
	if body.Standings[0].TotalScore <= body.Standings[1].TotalScore {
		t.Fatalf("expected leader to outscore runner-up: %+v", body.Standings)
	}

	rec = srv.do(t, http.MethodGet, "/v1/leagues/"+memory.SeedLeagueID+"/standings?week=1", "alice-token", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for weekly standings, got %d", rec.Code)
	}
	if weekly := decodeEnvelope[standingsDTO](t, rec).Data; weekly.WeekNumber == nil || *weekly.WeekNumber != 1 {
		t.Fatalf("expected week number 1, got %+v", weekly.WeekNumber)
	}
}

func TestGetLeagueStandings_AccessAndParams(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	srv.syncer.status = usecase.SyncStatus{ConsecutiveFailures: 1}

	rec := srv.do(t, http.MethodGet, "/v1/leagues/"+memory.SeedLeagueID+"/standings", "carol-token", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-member, got %d", rec.Code)
	}

	rec = srv.do(t, http.MethodGet, "/v1/leagues/"+memory.SeedLeagueID+"/standings?week=zero", "alice-token", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad week, got %d", rec.Code)
	}

	rec = srv.do(t, http.MethodGet, "/v1/leagues/"+memory.SeedLeagueID+"/standings", "alice-token", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := decodeEnvelope[standingsDTO](t, rec).Data; !body.Stale {
		t.Fatalf("expected stale standings while feed is failing")
	}
}

func TestRouter_RecordsMatchedPattern(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	srv.do(t, http.MethodGet, "/v1/weeks/"+memory.SeedWeekID(seedYear, 1)+"/games", "", nil)

	srv.metrics.mu.Lock()
	defer srv.metrics.mu.Unlock()
	if len(srv.metrics.routes) != 1 || srv.metrics.routes[0] != "GET /v1/weeks/{weekID}/games" {
		t.Fatalf("unexpected routes: %v", srv.metrics.routes)
	}
}

func TestRouter_ServesMetricsHandler(t *testing.T) {
	t.Parallel()

	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("nfl_pickem_up 1\n"))
	})
	srv := newTestServer(t, func(cfg *RouterConfig) { cfg.MetricsHandler = metricsHandler })

	rec := srv.do(t, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK || !bytes.Contains(rec.Body.Bytes(), []byte("nfl_pickem_up")) {
		t.Fatalf("unexpected metrics response: %d %q", rec.Code, rec.Body.String())
	}
}
