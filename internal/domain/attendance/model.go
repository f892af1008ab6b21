package attendance

import (
	"errors"
	"time"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/game"
)

type Status string

const (
	StatusWin    Status = "Win"
	StatusLose   Status = "Lose"
	StatusTie    Status = "Tie"
	StatusNoGame Status = "NoGame"
)

var ErrAlreadyRegistered = errors.New("attendance already registered for game")

func (s Status) Valid() bool {
	switch s {
	case StatusWin, StatusLose, StatusTie, StatusNoGame:
		return true
	default:
		return false
	}
}

// Flip swaps Win and Lose. Tie and NoGame are independent of the cheering side.
func (s Status) Flip() Status {
	switch s {
	case StatusWin:
		return StatusLose
	case StatusLose:
		return StatusWin
	default:
		return s
	}
}

// Record is one user's attendance at one game. A nil Status means the game
// has not been resolved yet.
type Record struct {
	ID             int64
	GameID         string
	UserID         int64
	CheeringTeamID int64
	Status         *Status
	Seat           string
	Review         string
	Image          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (r Record) IsPending() bool {
	return r.Status == nil
}

// Resolve derives the attendance outcome for a supporter of cheeringTeamID.
// The second return value is false while the game has not reached a terminal state.
func Resolve(g game.Game, cheeringTeamID int64) (Status, bool) {
	switch g.State() {
	case game.StateCanceled:
		return StatusNoGame, true
	case game.StateFinished:
		switch {
		case g.WinningTeamID == nil:
			return StatusTie, true
		case *g.WinningTeamID == cheeringTeamID:
			return StatusWin, true
		default:
			return StatusLose, true
		}
	default:
		return "", false
	}
}

func StatusPtr(s Status) *Status {
	return &s
}
