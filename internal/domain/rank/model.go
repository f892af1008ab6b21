package rank

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/attendance"
)

// ScopeTotal is the leaderboard scope that sums every team.
const ScopeTotal = "total"

// Encoded score layout: (ScoreBase + (win-lose)*ScoreMultiplier) * ScoreScale + totalGames.
const (
	ScoreBase       = 1000
	ScoreMultiplier = 3
	ScoreScale      = 10000
)

var (
	ErrCounterUnderflow = errors.New("rank counter cannot go below zero")
	ErrUnknownStatus    = errors.New("unknown attendance status")
)

type Stats struct {
	Win    int
	Lose   int
	Tie    int
	Cancel int
}

func (s Stats) Total() int {
	return s.Win + s.Lose + s.Tie + s.Cancel
}

func (s Stats) Add(other Stats) Stats {
	return Stats{
		Win:    s.Win + other.Win,
		Lose:   s.Lose + other.Lose,
		Tie:    s.Tie + other.Tie,
		Cancel: s.Cancel + other.Cancel,
	}
}

// Record holds the counters of one user for one team in one season.
type Record struct {
	TeamID     int64
	UserID     int64
	ActiveYear int
	Stats
}

// Increment returns r with the counter matching status raised by one.
func (r Record) Increment(status attendance.Status) (Record, error) {
	counter, err := r.counter(status)
	if err != nil {
		return r, err
	}
	*counter++
	return r, nil
}

// Decrement returns r with the counter matching status lowered by one. The
// receiver is returned unchanged together with ErrCounterUnderflow when the
// counter is already zero.
func (r Record) Decrement(status attendance.Status) (Record, error) {
	original := r
	counter, err := r.counter(status)
	if err != nil {
		return original, err
	}
	if *counter <= 0 {
		return original, fmt.Errorf("%w: team=%d user=%d year=%d status=%s", ErrCounterUnderflow, r.TeamID, r.UserID, r.ActiveYear, status)
	}
	*counter--
	return r, nil
}

func (r *Record) counter(status attendance.Status) (*int, error) {
	switch status {
	case attendance.StatusWin:
		return &r.Win, nil
	case attendance.StatusLose:
		return &r.Lose, nil
	case attendance.StatusTie:
		return &r.Tie, nil
	case attendance.StatusNoGame:
		return &r.Cancel, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
}

// Scope returns the leaderboard scope name of a team.
func Scope(teamID int64) string {
	return strconv.FormatInt(teamID, 10)
}

// Aggregate sums records across seasons, grouped by team scope, and adds the
// element-wise total under ScopeTotal.
func Aggregate(records []Record) map[string]Stats {
	out := make(map[string]Stats, len(records)+1)
	total := Stats{}
	for _, record := range records {
		scope := Scope(record.TeamID)
		out[scope] = out[scope].Add(record.Stats)
		total = total.Add(record.Stats)
	}
	out[ScopeTotal] = total
	return out
}

// Encode packs stats into a single sortable score. Ties on win-lose margin
// are broken by the number of games attended.
func Encode(s Stats) float64 {
	margin := int64(s.Win - s.Lose)
	return float64((ScoreBase+margin*ScoreMultiplier)*ScoreScale + int64(s.Total()))
}

// Decoded is the display form of an encoded score.
type Decoded struct {
	Margin     int
	TotalGames int
}

func Decode(score float64) Decoded {
	raw := int64(math.Round(score))
	bucket := floorDiv(raw, ScoreScale)
	return Decoded{
		Margin:     int((bucket - ScoreBase) / ScoreMultiplier),
		TotalGames: int(raw - bucket*ScoreScale),
	}
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
