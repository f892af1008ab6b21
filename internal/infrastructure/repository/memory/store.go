package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/attendance"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/game"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/rank"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/unitofwork"
)

type rankKey struct {
	teamID int64
	userID int64
	year   int
}

type tables struct {
	games            map[string]game.Game
	attendance       map[int64]attendance.Record
	nextAttendanceID int64
	ranks            map[rankKey]rank.Record
}

func (t *tables) clone() *tables {
	return &tables{
		games:            maps.Clone(t.games),
		attendance:       maps.Clone(t.attendance),
		nextAttendanceID: t.nextAttendanceID,
		ranks:            maps.Clone(t.ranks),
	}
}

// Store keeps the transactional tables in memory. Transactions are serialized
// and roll back by restoring a snapshot taken when they began.
type Store struct {
	txMu sync.Mutex

	mu   sync.RWMutex
	data *tables

	Games      *GameRepository
	Attendance *AttendanceRepository
	Ranks      *RankRepository
}

func NewStore(games []game.Game) *Store {
	s := &Store{
		data: &tables{
			games:      make(map[string]game.Game, len(games)),
			attendance: make(map[int64]attendance.Record),
			ranks:      make(map[rankKey]rank.Record),
		},
	}
	for _, item := range games {
		s.data.games[item.ID] = item
	}

	s.Games = &GameRepository{store: s}
	s.Attendance = &AttendanceRepository{store: s}
	s.Ranks = &RankRepository{store: s}
	return s
}

func (s *Store) Repositories() unitofwork.Repositories {
	return unitofwork.Repositories{
		Games:      s.Games,
		Attendance: s.Attendance,
		Ranks:      s.Ranks,
	}
}

// WithinTx implements unitofwork.Transactor.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos unitofwork.Repositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	if err := fn(ctx, s.Repositories()); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) read(fn func(t *tables)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

func (s *Store) write(fn func(t *tables) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}
