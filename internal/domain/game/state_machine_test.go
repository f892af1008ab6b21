package game

import (
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	teamLG = int64(1)
	teamWO = int64(10)
)

func newScheduledGame() Game {
	return Game{
		ID:         "20250513WOLG0",
		Date:       time.Date(2025, 5, 13, 0, 0, 0, 0, time.UTC),
		Time:       "18:30",
		Status:     "경기전",
		HomeTeamID: teamLG,
		AwayTeamID: teamWO,
		StadiumID:  1,
	}
}

func TestStateOf(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status string
		home   *int
		away   *int
		want   State
	}{
		{name: "rain canceled", status: "우천취소", want: StateCanceled},
		{name: "canceled suffix wins over scores", status: "미세먼지취소", home: IntPtr(1), away: IntPtr(0), want: StateCanceled},
		{name: "ground unplayable", status: RawStatusGroundUnplayable, want: StateCanceled},
		{name: "other", status: RawStatusOther, want: StateCanceled},
		{name: "finished", status: RawStatusFinished, home: IntPtr(5), away: IntPtr(3), want: StateFinished},
		{name: "finished without scores", status: RawStatusFinished, want: StateFinished},
		{name: "in progress", status: "3회초", home: IntPtr(0), away: IntPtr(1), want: StateInProgress},
		{name: "only one score", status: "경기전", home: IntPtr(0), want: StateScheduled},
		{name: "scheduled", status: "경기전", want: StateScheduled},
		{name: "padded status", status: "  경기종료 ", want: StateFinished},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := StateOf(tc.status, tc.home, tc.away); got != tc.want {
				t.Fatalf("unexpected state: got=%s want=%s", got, tc.want)
			}
		})
	}
}

func TestApplyInProgressUpdate(t *testing.T) {
	t.Parallel()

	t.Run("merges partial snapshot", func(t *testing.T) {
		t.Parallel()

		g := newScheduledGame()
		next, err := ApplyInProgressUpdate(g, Update{HomeScore: IntPtr(2), AwayScore: IntPtr(1)})
		require.NoError(t, err)
		assert.Equal(t, "경기전", next.Status)
		assert.Equal(t, 2, *next.HomeScore)
		assert.Equal(t, 1, *next.AwayScore)
		assert.Nil(t, next.WinningTeamID)
		assert.Equal(t, StateInProgress, next.State())

		next, err = ApplyInProgressUpdate(next, Update{Status: StringPtr("5회말")})
		require.NoError(t, err)
		assert.Equal(t, "5회말", next.Status)
		assert.Equal(t, 2, *next.HomeScore)
	})

	t.Run("does not alias update pointers", func(t *testing.T) {
		t.Parallel()

		score := 4
		next, err := ApplyInProgressUpdate(newScheduledGame(), Update{HomeScore: &score, AwayScore: IntPtr(0)})
		require.NoError(t, err)
		score = 9
		assert.Equal(t, 4, *next.HomeScore)
	})

	t.Run("never assigns a winner even when the status turns final", func(t *testing.T) {
		t.Parallel()

		next, err := ApplyInProgressUpdate(newScheduledGame(), Update{
			Status:    StringPtr(RawStatusFinished),
			HomeScore: IntPtr(5),
			AwayScore: IntPtr(3),
		})
		require.NoError(t, err)
		assert.True(t, next.IsTerminal())
		assert.Nil(t, next.WinningTeamID)
	})

	t.Run("rejects terminal game", func(t *testing.T) {
		t.Parallel()

		g := newScheduledGame()
		g.Status = "우천취소"
		_, err := ApplyInProgressUpdate(g, Update{HomeScore: IntPtr(1)})
		if !crerr.Is(err, ErrTerminalState) {
			t.Fatalf("expected ErrTerminalState, got %v", err)
		}
	})
}

func TestApplyFinalUpdate(t *testing.T) {
	t.Parallel()

	t.Run("home win", func(t *testing.T) {
		t.Parallel()

		next, err := ApplyFinalUpdate(newScheduledGame(), Update{
			Status:    StringPtr(RawStatusFinished),
			HomeScore: IntPtr(5),
			AwayScore: IntPtr(3),
		})
		require.NoError(t, err)
		require.NotNil(t, next.WinningTeamID)
		assert.Equal(t, teamLG, *next.WinningTeamID)
	})

	t.Run("away win", func(t *testing.T) {
		t.Parallel()

		next, err := ApplyFinalUpdate(newScheduledGame(), Update{
			Status:    StringPtr(RawStatusFinished),
			HomeScore: IntPtr(2),
			AwayScore: IntPtr(7),
		})
		require.NoError(t, err)
		require.NotNil(t, next.WinningTeamID)
		assert.Equal(t, teamWO, *next.WinningTeamID)
	})

	t.Run("tie has no winner", func(t *testing.T) {
		t.Parallel()

		next, err := ApplyFinalUpdate(newScheduledGame(), Update{
			Status:    StringPtr(RawStatusFinished),
			HomeScore: IntPtr(4),
			AwayScore: IntPtr(4),
		})
		require.NoError(t, err)
		assert.Nil(t, next.WinningTeamID)
	})

	t.Run("unknown score has no winner", func(t *testing.T) {
		t.Parallel()

		next, err := ApplyFinalUpdate(newScheduledGame(), Update{Status: StringPtr(RawStatusFinished)})
		require.NoError(t, err)
		assert.Nil(t, next.WinningTeamID)
	})

	t.Run("canceled game never has a winner", func(t *testing.T) {
		t.Parallel()

		g := newScheduledGame()
		g.HomeScore = IntPtr(3)
		g.AwayScore = IntPtr(0)
		g.WinningTeamID = Int64Ptr(teamLG)

		next, err := ApplyFinalUpdate(g, Update{Status: StringPtr("우천취소")})
		require.NoError(t, err)
		assert.Equal(t, StateCanceled, next.State())
		assert.Nil(t, next.WinningTeamID)
	})

	t.Run("invariant violation aborts the update", func(t *testing.T) {
		t.Parallel()

		g := newScheduledGame()
		g.AwayTeamID = g.HomeTeamID

		got, err := ApplyFinalUpdate(g, Update{
			Status:    StringPtr(RawStatusFinished),
			HomeScore: IntPtr(1),
			AwayScore: IntPtr(0),
		})
		require.Error(t, err)
		assert.True(t, crerr.Is(err, ErrInvariantViolation))
		assert.True(t, crerr.HasAssertionFailure(err))
		assert.Equal(t, g, got)
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	finished := newScheduledGame()
	finished.Status = RawStatusFinished
	finished.HomeScore = IntPtr(5)
	finished.AwayScore = IntPtr(3)

	cases := []struct {
		name    string
		mutate  func(g *Game)
		wantErr bool
	}{
		{name: "valid finished", mutate: func(g *Game) { g.WinningTeamID = Int64Ptr(teamLG) }},
		{name: "missing winner", mutate: func(g *Game) { g.WinningTeamID = nil }, wantErr: true},
		{name: "wrong winner", mutate: func(g *Game) { g.WinningTeamID = Int64Ptr(teamWO) }, wantErr: true},
		{name: "tie with winner", mutate: func(g *Game) {
			g.AwayScore = IntPtr(5)
			g.WinningTeamID = Int64Ptr(teamLG)
		}, wantErr: true},
		{name: "scheduled with winner", mutate: func(g *Game) {
			g.Status = "경기전"
			g.HomeScore, g.AwayScore = nil, nil
			g.WinningTeamID = Int64Ptr(teamLG)
		}, wantErr: true},
		{name: "negative score", mutate: func(g *Game) {
			g.HomeScore = IntPtr(-1)
			g.WinningTeamID = Int64Ptr(teamWO)
		}, wantErr: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			g := finished
			tc.mutate(&g)
			err := Validate(g)
			if tc.wantErr && !crerr.Is(err, ErrInvariantViolation) {
				t.Fatalf("expected invariant violation, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestGameStartsAt(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("KST", 9*60*60)
	g := newScheduledGame()

	got, err := g.StartsAt(loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 5, 13, 18, 30, 0, 0, loc), got)

	g.Time = "TBD"
	_, err = g.StartsAt(loc)
	assert.Error(t, err)
}
