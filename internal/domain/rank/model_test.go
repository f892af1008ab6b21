package rank

import (
	"errors"
	"testing"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/attendance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		stats Stats
	}{
		{name: "empty", stats: Stats{}},
		{name: "positive margin", stats: Stats{Win: 12, Lose: 4, Tie: 1, Cancel: 2}},
		{name: "negative margin", stats: Stats{Win: 1, Lose: 9, Tie: 3}},
		{name: "margin below base", stats: Stats{Lose: 400, Cancel: 7}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := Decode(Encode(tc.stats))
			assert.Equal(t, tc.stats.Win-tc.stats.Lose, got.Margin)
			assert.Equal(t, tc.stats.Total(), got.TotalGames)
		})
	}
}

func TestDecode_MarginIndependentOfTotalGames(t *testing.T) {
	t.Parallel()

	few := Decode(Encode(Stats{Win: 3, Lose: 1}))
	many := Decode(Encode(Stats{Win: 3, Lose: 1, Tie: 40, Cancel: 30}))
	if few.Margin != many.Margin {
		t.Fatalf("margin depends on total games: few=%d many=%d", few.Margin, many.Margin)
	}
}

func TestEncode_Ordering(t *testing.T) {
	t.Parallel()

	better := Encode(Stats{Win: 5, Lose: 1})
	worse := Encode(Stats{Win: 5, Lose: 2, Tie: 9})
	if better <= worse {
		t.Fatalf("expected higher margin to rank first: better=%v worse=%v", better, worse)
	}

	moreGames := Encode(Stats{Win: 5, Lose: 1, Tie: 2})
	if moreGames <= better {
		t.Fatalf("expected more games to break margin ties: more=%v fewer=%v", moreGames, better)
	}

	if got := Encode(Stats{Win: 2, Lose: 1, Tie: 1}); got != float64(10030004) {
		t.Fatalf("unexpected encoded score: got=%v want=%v", got, float64(10030004))
	}
}

func TestRecord_IncrementDecrement(t *testing.T) {
	t.Parallel()

	record := Record{TeamID: 1, UserID: 7, ActiveYear: 2025}

	next, err := record.Increment(attendance.StatusWin)
	require.NoError(t, err)
	assert.Equal(t, 1, next.Win)
	assert.Equal(t, 0, record.Win)

	next, err = next.Increment(attendance.StatusNoGame)
	require.NoError(t, err)
	assert.Equal(t, 1, next.Cancel)

	next, err = next.Decrement(attendance.StatusWin)
	require.NoError(t, err)
	assert.Equal(t, 0, next.Win)

	unchanged, err := next.Decrement(attendance.StatusLose)
	if !errors.Is(err, ErrCounterUnderflow) {
		t.Fatalf("expected ErrCounterUnderflow, got %v", err)
	}
	assert.Equal(t, next, unchanged)

	_, err = next.Increment(attendance.Status("Unknown"))
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestAggregate(t *testing.T) {
	t.Parallel()

	got := Aggregate([]Record{
		{TeamID: 1, UserID: 7, ActiveYear: 2024, Stats: Stats{Win: 2, Lose: 1}},
		{TeamID: 1, UserID: 7, ActiveYear: 2025, Stats: Stats{Win: 1, Tie: 1}},
		{TeamID: 3, UserID: 7, ActiveYear: 2025, Stats: Stats{Lose: 2, Cancel: 1}},
	})

	assert.Equal(t, Stats{Win: 3, Lose: 1, Tie: 1}, got["1"])
	assert.Equal(t, Stats{Lose: 2, Cancel: 1}, got["3"])
	assert.Equal(t, Stats{Win: 3, Lose: 3, Tie: 1, Cancel: 1}, got[ScopeTotal])
	assert.Len(t, got, 3)
}

func TestAggregate_EmptyStillHasTotal(t *testing.T) {
	t.Parallel()

	got := Aggregate(nil)
	assert.Equal(t, map[string]Stats{ScopeTotal: {}}, got)
}
