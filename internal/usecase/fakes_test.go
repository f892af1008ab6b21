package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/game"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/infrastructure/repository/memory"
)

var testKST = time.FixedZone("KST", 9*60*60)

// fakeScheduler records armed jobs and fires them on demand. Past-due
// triggers run synchronously, like the cron-backed scheduler.
type fakeScheduler struct {
	mu   sync.Mutex
	now  time.Time
	jobs map[string]*fakeJob
}

type fakeJob struct {
	fireAt time.Time
	period time.Duration
	spec   string
	run    func(ctx context.Context)
}

func newFakeScheduler(now time.Time) *fakeScheduler {
	return &fakeScheduler{now: now, jobs: make(map[string]*fakeJob)}
}

func (f *fakeScheduler) ArmTrigger(name string, fireAt time.Time, job func(ctx context.Context)) error {
	f.mu.Lock()
	delete(f.jobs, name)
	if !fireAt.After(f.now) {
		f.mu.Unlock()
		job(context.Background())
		return nil
	}
	f.jobs[name] = &fakeJob{fireAt: fireAt, run: job}
	f.mu.Unlock()
	return nil
}

func (f *fakeScheduler) ArmInterval(name string, period time.Duration, job func(ctx context.Context)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.jobs[name] = &fakeJob{period: period, run: job}
	return nil
}

func (f *fakeScheduler) ArmCron(name, spec string, job func(ctx context.Context)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.jobs[name] = &fakeJob{spec: spec, run: job}
	return nil
}

func (f *fakeScheduler) Cancel(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.jobs, name)
}

func (f *fakeScheduler) Exists(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.jobs[name]
	return ok
}

func (f *fakeScheduler) job(name string) (fakeJob, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	job, ok := f.jobs[name]
	if !ok {
		return fakeJob{}, false
	}
	return *job, true
}

func (f *fakeScheduler) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, 0, len(f.jobs))
	for name := range f.jobs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// fire runs an armed job once. One-shot triggers are unregistered first.
func (f *fakeScheduler) fire(t *testing.T, name string) {
	t.Helper()

	f.mu.Lock()
	job, ok := f.jobs[name]
	if ok && job.period == 0 && job.spec == "" {
		delete(f.jobs, name)
	}
	f.mu.Unlock()

	if !ok {
		t.Fatalf("job %s is not armed", name)
	}
	job.run(context.Background())
}

type scoreResult struct {
	snapshot ScoreSnapshot
	err      error
}

// scriptedScoreSource replays results in order and repeats the last one.
type scriptedScoreSource struct {
	mu      sync.Mutex
	results []scoreResult
	calls   int
	queries []ScoreQuery
}

func (s *scriptedScoreSource) FetchScore(_ context.Context, query ScoreQuery) (ScoreSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queries = append(s.queries, query)
	if len(s.results) == 0 {
		return ScoreSnapshot{}, fmt.Errorf("no scripted result")
	}
	idx := min(s.calls, len(s.results)-1)
	s.calls++
	return s.results[idx].snapshot, s.results[idx].err
}

func (s *scriptedScoreSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubScheduleSource struct {
	rows map[time.Month][]ExternalScheduleRow
	err  error
}

func (s stubScheduleSource) FetchMonth(_ context.Context, _ int, month time.Month) ([]ExternalScheduleRow, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rows[month], nil
}

func snapshot(status string, home, away int) ScoreSnapshot {
	return ScoreSnapshot{
		Status:    game.StringPtr(status),
		HomeScore: game.IntPtr(home),
		AwayScore: game.IntPtr(away),
	}
}

// scheduledGame is LG (home) against Kiwoom (away) at Jamsil.
func scheduledGame(id string, date time.Time, clock string) game.Game {
	return game.Game{
		ID:         id,
		Date:       date,
		Time:       clock,
		HomeTeamID: memory.TeamIDLG,
		AwayTeamID: memory.TeamIDKiwoom,
		StadiumID:  1,
	}
}

type trackerFixture struct {
	store     *memory.Store
	teams     *memory.TeamRepository
	stadiums  *memory.StadiumRepository
	ranking   *memory.RankingStore
	scheduler *fakeScheduler
	source    *scriptedScoreSource
	ranks     *RankService
	attend    *AttendanceService
	poller    *ScorePollerService
}

func newTrackerFixture(t *testing.T, now time.Time, games ...game.Game) *trackerFixture {
	t.Helper()

	f := &trackerFixture{
		store:     memory.NewStore(games),
		teams:     memory.NewTeamRepository(memory.SeedTeams()),
		stadiums:  memory.NewStadiumRepository(memory.SeedStadiums()),
		ranking:   memory.NewRankingStore(),
		scheduler: newFakeScheduler(now),
		source:    &scriptedScoreSource{},
	}
	f.ranks = NewRankService(f.store.Ranks, f.teams, f.ranking, RankServiceConfig{}, nil, nil)
	f.attend = NewAttendanceService(f.store, f.ranks, nil, nil)
	f.poller = NewScorePollerService(f.store.Games, f.store, f.source, f.scheduler, f.attend, ScorePollerConfig{LeagueID: 1}, nil, nil)
	return f
}

func (f *trackerFixture) register(t *testing.T, gameID string, userID, teamID int64) int64 {
	t.Helper()

	record, err := f.attend.Register(context.Background(), RegisterAttendanceInput{
		GameID:         gameID,
		UserID:         userID,
		CheeringTeamID: teamID,
	})
	if err != nil {
		t.Fatalf("register attendance: %v", err)
	}
	return record.ID
}

func (f *trackerFixture) game(t *testing.T, id string) game.Game {
	t.Helper()

	g, exists, err := f.store.Games.GetByID(context.Background(), id)
	if err != nil || !exists {
		t.Fatalf("load game %s: exists=%v err=%v", id, exists, err)
	}
	return g
}
