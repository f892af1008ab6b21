package game

import (
	"fmt"
	"strings"
	"time"
)

// State is the canonical lifecycle state derived from the raw provider status.
type State string

const (
	StateScheduled  State = "SCHEDULED"
	StateInProgress State = "IN_PROGRESS"
	StateFinished   State = "FINISHED"
	StateCanceled   State = "CANCELED"
)

// Raw status texts published by the KBO feed.
const (
	RawStatusFinished         = "경기종료"
	RawStatusGroundUnplayable = "그라운드사정"
	RawStatusOther            = "기타"
	rawCanceledSuffix         = "취소"
)

func (s State) IsTerminal() bool {
	return s == StateFinished || s == StateCanceled
}

// Game is one scheduled KBO game. Status keeps the raw provider text.
type Game struct {
	ID            string
	Date          time.Time
	Time          string
	Status        string
	HomeScore     *int
	AwayScore     *int
	HomeTeamID    int64
	AwayTeamID    int64
	StadiumID     int64
	WinningTeamID *int64
	SeriesID      int
}

func (g Game) State() State {
	return StateOf(g.Status, g.HomeScore, g.AwayScore)
}

func (g Game) IsTerminal() bool {
	return g.State().IsTerminal()
}

func (g Game) HasTeam(teamID int64) bool {
	return teamID == g.HomeTeamID || teamID == g.AwayTeamID
}

// OpponentOf returns the other participant, or zero when teamID is not playing.
func (g Game) OpponentOf(teamID int64) int64 {
	switch teamID {
	case g.HomeTeamID:
		return g.AwayTeamID
	case g.AwayTeamID:
		return g.HomeTeamID
	default:
		return 0
	}
}

// StartsAt combines the calendar date and the HH:MM start time in loc.
func (g Game) StartsAt(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	clock, err := time.Parse("15:04", strings.TrimSpace(g.Time))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse start time %q for game %s: %w", g.Time, g.ID, err)
	}

	y, m, d := g.Date.Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, loc), nil
}

func (g Game) Year() int {
	return g.Date.Year()
}

// StateOf maps a raw status plus the known scores to a canonical State.
func StateOf(rawStatus string, homeScore, awayScore *int) State {
	status := strings.TrimSpace(rawStatus)
	switch {
	case strings.HasSuffix(status, rawCanceledSuffix),
		status == RawStatusGroundUnplayable,
		status == RawStatusOther:
		return StateCanceled
	case status == RawStatusFinished:
		return StateFinished
	case homeScore != nil && awayScore != nil:
		return StateInProgress
	default:
		return StateScheduled
	}
}

// Winner returns the higher scoring team, or nil when a score is unknown or tied.
func Winner(homeTeamID, awayTeamID int64, homeScore, awayScore *int) *int64 {
	if homeScore == nil || awayScore == nil {
		return nil
	}
	switch {
	case *homeScore > *awayScore:
		return &homeTeamID
	case *awayScore > *homeScore:
		return &awayTeamID
	default:
		return nil
	}
}

// Update carries a partial snapshot from the score source. Nil fields keep the previous value.
type Update struct {
	Status    *string
	HomeScore *int
	AwayScore *int
}

func (u Update) IsEmpty() bool {
	return u.Status == nil && u.HomeScore == nil && u.AwayScore == nil
}

func IntPtr(v int) *int {
	return &v
}

func Int64Ptr(v int64) *int64 {
	return &v
}

func StringPtr(v string) *string {
	return &v
}
