package game

import (
	crerr "github.com/cockroachdb/errors"
)

var (
	ErrInvariantViolation = crerr.New("game invariant violation")
	ErrTerminalState      = crerr.New("game already reached a terminal state")
)

// ApplyInProgressUpdate merges a live snapshot into g. It never assigns a winner
// and refuses to touch a game that is already finished or canceled.
func ApplyInProgressUpdate(g Game, update Update) (Game, error) {
	if g.IsTerminal() {
		return g, crerr.Wrapf(ErrTerminalState, "game %s status=%q", g.ID, g.Status)
	}

	return merge(g, update), nil
}

// ApplyFinalUpdate merges the final snapshot into g and derives the winner from
// the resulting state. The result is validated before it is returned.
func ApplyFinalUpdate(g Game, update Update) (Game, error) {
	next := merge(g, update)

	switch next.State() {
	case StateFinished:
		next.WinningTeamID = Winner(next.HomeTeamID, next.AwayTeamID, next.HomeScore, next.AwayScore)
	default:
		next.WinningTeamID = nil
	}

	if err := Validate(next); err != nil {
		return g, err
	}
	return next, nil
}

// Validate checks the structural invariants of a game row.
func Validate(g Game) error {
	if g.HomeTeamID == g.AwayTeamID {
		return invariantf("game %s: home team equals away team (%d)", g.ID, g.HomeTeamID)
	}
	if g.HomeScore != nil && *g.HomeScore < 0 {
		return invariantf("game %s: negative home score %d", g.ID, *g.HomeScore)
	}
	if g.AwayScore != nil && *g.AwayScore < 0 {
		return invariantf("game %s: negative away score %d", g.ID, *g.AwayScore)
	}

	state := g.State()
	switch state {
	case StateScheduled, StateInProgress, StateCanceled:
		if g.WinningTeamID != nil {
			return invariantf("game %s: state %s must not have a winner (got %d)", g.ID, state, *g.WinningTeamID)
		}
	case StateFinished:
		want := Winner(g.HomeTeamID, g.AwayTeamID, g.HomeScore, g.AwayScore)
		switch {
		case want == nil && g.WinningTeamID != nil:
			return invariantf("game %s: tied or unknown score must not have a winner (got %d)", g.ID, *g.WinningTeamID)
		case want != nil && g.WinningTeamID == nil:
			return invariantf("game %s: finished with unequal score is missing winner %d", g.ID, *want)
		case want != nil && *want != *g.WinningTeamID:
			return invariantf("game %s: winner %d does not match higher score team %d", g.ID, *g.WinningTeamID, *want)
		}
	}

	return nil
}

func merge(g Game, update Update) Game {
	next := g
	if update.Status != nil {
		next.Status = *update.Status
	}
	if update.HomeScore != nil {
		next.HomeScore = IntPtr(*update.HomeScore)
	}
	if update.AwayScore != nil {
		next.AwayScore = IntPtr(*update.AwayScore)
	}
	return next
}

func invariantf(format string, args ...any) error {
	return crerr.Mark(crerr.AssertionFailedf(format, args...), ErrInvariantViolation)
}
