package ranking

import "context"

const keyPrefix = "ranking:"

// Entry is one user's position on a leaderboard. Rank is 0-based, highest score first.
type Entry struct {
	UserID int64
	Score  float64
	Rank   int64
}

// Store is the leaderboard cache. It is never authoritative and can be rebuilt
// from rank records at any time.
type Store interface {
	SetScore(ctx context.Context, scope string, userID int64, score float64) error
	SetScores(ctx context.Context, userID int64, scores map[string]float64) error
	GetRank(ctx context.Context, scope string, userID int64) (int64, bool, error)
	GetRange(ctx context.Context, scope string, start, end int64) ([]Entry, error)
	DeleteUser(ctx context.Context, scope string, userID int64) error
}

func Key(scope string) string {
	return keyPrefix + scope
}
