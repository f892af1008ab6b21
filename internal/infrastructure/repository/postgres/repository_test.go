package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/attendance"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/game"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/rank"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/unitofwork"
)

var testKST = time.FixedZone("KST", 9*60*60)

type RepositoryTestSuite struct {
	suite.Suite
	db   *sqlx.DB
	mock sqlmock.Sqlmock
	ctx  context.Context
}

func (s *RepositoryTestSuite) SetupTest() {
	mockDB, mock, err := sqlmock.New()
	require.NoError(s.T(), err)

	s.db = sqlx.NewDb(mockDB, "postgres")
	s.mock = mock
	s.ctx = context.Background()
}

func (s *RepositoryTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
	_ = s.db.Close()
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}

func gameRows() *sqlmock.Rows {
	return sqlmock.NewRows(gameColumns)
}

func (s *RepositoryTestSuite) TestGame_GetByIDReadsDateInLocation() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, date, time, status, home_score, away_score, home_team_id, away_team_id, stadium_id, winning_team_id, series_id FROM game WHERE id = $1`)).
		WithArgs("20250513WOLG0").
		WillReturnRows(gameRows().AddRow(
			"20250513WOLG0", time.Date(2025, time.May, 13, 0, 0, 0, 0, time.UTC), "18:30", game.RawStatusFinished,
			int64(5), int64(3), int64(1), int64(10), int64(1), int64(1), int64(0),
		))

	repo := NewGameRepository(s.db, testKST)
	g, exists, err := repo.GetByID(s.ctx, "20250513WOLG0")
	s.Require().NoError(err)
	s.Require().True(exists)

	s.True(g.Date.Equal(time.Date(2025, time.May, 13, 0, 0, 0, 0, testKST)))
	s.Equal(game.StateFinished, g.State())
	s.Require().NotNil(g.WinningTeamID)
	s.Equal(int64(1), *g.WinningTeamID)
	s.Equal(5, *g.HomeScore)
}

func (s *RepositoryTestSuite) TestGame_GetByIDMissing() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`FROM game WHERE id = $1`)).
		WithArgs("20250513WOLG0").
		WillReturnRows(gameRows())

	_, exists, err := NewGameRepository(s.db, testKST).GetByID(s.ctx, "20250513WOLG0")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *RepositoryTestSuite) TestGame_ListByDateRangeUsesCalendarDates() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`FROM game WHERE date BETWEEN $1 AND $2 ORDER BY date, time, id`)).
		WithArgs("2025-05-01", "2025-05-31").
		WillReturnRows(gameRows().
			AddRow("20250513WOLG0", time.Date(2025, time.May, 13, 0, 0, 0, 0, time.UTC), "18:30", "", nil, nil, int64(1), int64(10), int64(1), nil, int64(0)).
			AddRow("20250514WOLG0", time.Date(2025, time.May, 14, 0, 0, 0, 0, time.UTC), "18:30", "", nil, nil, int64(1), int64(10), int64(1), nil, int64(0)))

	from := time.Date(2025, time.May, 1, 0, 0, 0, 0, testKST)
	to := time.Date(2025, time.May, 31, 0, 0, 0, 0, testKST)
	games, err := NewGameRepository(s.db, testKST).ListByDateRange(s.ctx, from, to)
	s.Require().NoError(err)
	s.Require().Len(games, 2)
	s.Nil(games[0].HomeScore)
	s.Nil(games[0].WinningTeamID)
	s.Equal(game.StateScheduled, games[1].State())
}

func (s *RepositoryTestSuite) TestGame_UpsertBatchesRows() {
	s.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO game (id, date, time, status, home_score, away_score, home_team_id, away_team_id, stadium_id, winning_team_id, series_id) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11), ($12,`)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	date := time.Date(2025, time.May, 13, 0, 0, 0, 0, testKST)
	err := NewGameRepository(s.db, testKST).Upsert(s.ctx, []game.Game{
		{ID: "20250513WOLG0", Date: date, Time: "18:30", HomeTeamID: 1, AwayTeamID: 10, StadiumID: 1},
		{ID: "20250513SKHH0", Date: date, Time: "18:30", HomeTeamID: 7, AwayTeamID: 6, StadiumID: 5, Status: "우천취소"},
	})
	s.Require().NoError(err)
}

func (s *RepositoryTestSuite) TestGame_UpsertEmptyIsNoop() {
	s.Require().NoError(NewGameRepository(s.db, testKST).Upsert(s.ctx, nil))
}

func (s *RepositoryTestSuite) TestGame_SaveMissingRow() {
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE game SET date = $1`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewGameRepository(s.db, testKST).Save(s.ctx, game.Game{ID: "20250513WOLG0", Time: "18:30"})
	s.Require().Error(err)
	s.Contains(err.Error(), "not found")
}

func (s *RepositoryTestSuite) TestGame_Rename() {
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE game SET id = $1, updated_at = NOW() WHERE id = $2`)).
		WithArgs("20250513WOLG1", "20250513WOLG0").
		WillReturnResult(sqlmock.NewResult(0, 1))

	s.Require().NoError(NewGameRepository(s.db, testKST).Rename(s.ctx, "20250513WOLG0", "20250513WOLG1"))
}

func (s *RepositoryTestSuite) TestAttendance_CreateReturnsGeneratedColumns() {
	created := time.Date(2025, time.May, 13, 9, 0, 0, 0, time.UTC)
	s.mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO registered_game (game_id, user_id, cheering_team_id, status, seat, review, image) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at, updated_at`)).
		WithArgs("20250513WOLG0", int64(7), int64(1), nil, "3루 201", "", "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(42), created, created))

	record, err := NewAttendanceRepository(s.db).Create(s.ctx, attendance.Record{
		GameID:         "20250513WOLG0",
		UserID:         7,
		CheeringTeamID: 1,
		Seat:           "3루 201",
	})
	s.Require().NoError(err)
	s.Equal(int64(42), record.ID)
	s.True(record.CreatedAt.Equal(created))
	s.True(record.IsPending())
}

func (s *RepositoryTestSuite) TestAttendance_CreateDuplicate() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO registered_game`)).
		WillReturnError(&pq.Error{Code: uniqueViolationCode, Constraint: "registered_game_game_user_key"})

	_, err := NewAttendanceRepository(s.db).Create(s.ctx, attendance.Record{GameID: "20250513WOLG0", UserID: 7, CheeringTeamID: 1})
	s.True(errors.Is(err, attendance.ErrAlreadyRegistered), "got %v", err)
}

func (s *RepositoryTestSuite) TestAttendance_ListPendingLocksRows() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`FROM registered_game WHERE game_id = $1 AND status IS NULL ORDER BY id FOR UPDATE`)).
		WithArgs("20250513WOLG0").
		WillReturnRows(sqlmock.NewRows(attendanceColumns).
			AddRow(int64(1), "20250513WOLG0", int64(7), int64(1), nil, "", "", "", time.Now(), time.Now()).
			AddRow(int64(2), "20250513WOLG0", int64(8), int64(10), nil, "", "", "", time.Now(), time.Now()))

	records, err := NewAttendanceRepository(s.db).ListPendingByGameForUpdate(s.ctx, "20250513WOLG0")
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.True(records[0].IsPending())
	s.Equal(int64(10), records[1].CheeringTeamID)
}

func (s *RepositoryTestSuite) TestAttendance_GetByIDForUpdateReadsStatus() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`FROM registered_game WHERE id = $1 FOR UPDATE`)).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(attendanceColumns).
			AddRow(int64(3), "20250513WOLG0", int64(7), int64(1), "Win", "", "", "", time.Now(), time.Now()))

	record, exists, err := NewAttendanceRepository(s.db).GetByIDForUpdate(s.ctx, 3)
	s.Require().NoError(err)
	s.Require().True(exists)
	s.Require().NotNil(record.Status)
	s.Equal(attendance.StatusWin, *record.Status)
}

func (s *RepositoryTestSuite) TestAttendance_UpdateStatusesStopsOnMissingRow() {
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE registered_game SET status = $1, updated_at = NOW() WHERE id = $2`)).
		WithArgs("Win", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE registered_game SET status = $1`)).
		WithArgs("Lose", int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewAttendanceRepository(s.db).UpdateStatuses(s.ctx, []attendance.Record{
		{ID: 1, Status: attendance.StatusPtr(attendance.StatusWin)},
		{ID: 2, Status: attendance.StatusPtr(attendance.StatusLose)},
		{ID: 3, Status: attendance.StatusPtr(attendance.StatusLose)},
	})
	s.Require().Error(err)
	s.Contains(err.Error(), "attendance record 2 not found")
}

func (s *RepositoryTestSuite) TestAttendance_UpdateCheeringTeamClearsStatus() {
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE registered_game SET cheering_team_id = $1, status = $2, updated_at = NOW() WHERE id = $3`)).
		WithArgs(int64(10), nil, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s.Require().NoError(NewAttendanceRepository(s.db).UpdateCheeringTeam(s.ctx, 5, 10, nil))
}

const (
	ensureRankSQL    = `INSERT INTO rank (team_id, user_id, active_year) VALUES ($1, $2, $3) ON CONFLICT (team_id, user_id, active_year) DO NOTHING`
	selectRankForUpd = `SELECT team_id, user_id, active_year, win, lose, tie, cancel FROM rank WHERE team_id = $1 AND user_id = $2 AND active_year = $3 FOR UPDATE`
)

func (s *RepositoryTestSuite) TestRank_GetForUpdateCreatesRowBeforeLocking() {
	s.mock.ExpectExec(regexp.QuoteMeta(ensureRankSQL)).
		WithArgs(int64(1), int64(7), 2025).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectQuery(regexp.QuoteMeta(selectRankForUpd)).
		WithArgs(int64(1), int64(7), 2025).
		WillReturnRows(sqlmock.NewRows(rankColumns).AddRow(int64(1), int64(7), 2025, 0, 0, 0, 0))

	record, exists, err := NewRankRepository(s.db).GetForUpdate(s.ctx, 1, 7, 2025)
	s.Require().NoError(err)
	s.False(exists)
	s.Equal(rank.Record{TeamID: 1, UserID: 7, ActiveYear: 2025}, record)
}

func (s *RepositoryTestSuite) TestRank_GetForUpdateLocksExistingRow() {
	s.mock.ExpectExec(regexp.QuoteMeta(ensureRankSQL)).
		WithArgs(int64(1), int64(7), 2025).
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectQuery(regexp.QuoteMeta(selectRankForUpd)).
		WithArgs(int64(1), int64(7), 2025).
		WillReturnRows(sqlmock.NewRows(rankColumns).AddRow(int64(1), int64(7), 2025, 4, 2, 1, 0))

	record, exists, err := NewRankRepository(s.db).GetForUpdate(s.ctx, 1, 7, 2025)
	s.Require().NoError(err)
	s.True(exists)
	s.Equal(rank.Stats{Win: 4, Lose: 2, Tie: 1}, record.Stats)
}

func (s *RepositoryTestSuite) TestRank_GetForUpdateEnsureFailureSkipsSelect() {
	s.mock.ExpectExec(regexp.QuoteMeta(ensureRankSQL)).
		WithArgs(int64(1), int64(7), 2025).
		WillReturnError(errors.New("deadlock detected"))

	_, _, err := NewRankRepository(s.db).GetForUpdate(s.ctx, 1, 7, 2025)
	s.Require().Error(err)
	s.Contains(err.Error(), "ensure rank")
}

func (s *RepositoryTestSuite) TestRank_SaveUpserts() {
	s.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO rank (team_id, user_id, active_year, win, lose, tie, cancel) VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT (team_id, user_id, active_year)`)).
		WithArgs(int64(1), int64(7), 2025, 3, 1, 0, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewRankRepository(s.db).Save(s.ctx, rank.Record{
		TeamID:     1,
		UserID:     7,
		ActiveYear: 2025,
		Stats:      rank.Stats{Win: 3, Lose: 1, Cancel: 2},
	})
	s.Require().NoError(err)
}

func (s *RepositoryTestSuite) TestRank_ListUserIDs() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT user_id FROM rank GROUP BY user_id ORDER BY user_id`)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(int64(3)).AddRow(int64(7)))

	userIDs, err := NewRankRepository(s.db).ListUserIDs(s.ctx)
	s.Require().NoError(err)
	s.Equal([]int64{3, 7}, userIDs)
}

func (s *RepositoryTestSuite) TestStadium_CreateByNameReturnsRow() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO stadium (name, full_name) VALUES ($1, $2) ON CONFLICT (name)`)).
		WithArgs("이천", "이천").
		WillReturnRows(sqlmock.NewRows(stadiumColumns).AddRow(int64(13), "이천", "이천", 0.0, 0.0))

	created, err := NewStadiumRepository(s.db).CreateByName(s.ctx, " 이천 ")
	s.Require().NoError(err)
	s.Equal(int64(13), created.ID)
	s.Equal("이천", created.Name)

	_, err = NewStadiumRepository(s.db).CreateByName(s.ctx, "  ")
	s.Require().Error(err)
}

func (s *RepositoryTestSuite) TestTeam_ListTrimsCode() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, short_name, code FROM team ORDER BY id`)).
		WillReturnRows(sqlmock.NewRows(teamColumns).AddRow(int64(1), "LG 트윈스", "LG", "LG ").AddRow(int64(10), "키움 히어로즈", "키움", "WO"))

	teams, err := NewTeamRepository(s.db).List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(teams, 2)
	s.Equal("LG", teams[0].Code)
	s.Equal("키움", teams[1].ShortName)
}

func (s *RepositoryTestSuite) TestTransactor_CommitsOnSuccess() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM registered_game WHERE user_id = $1`)).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	s.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM rank WHERE user_id = $1`)).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	err := NewTransactor(s.db, testKST).WithinTx(s.ctx, func(ctx context.Context, repos unitofwork.Repositories) error {
		if err := repos.Attendance.DeleteByUser(ctx, 7); err != nil {
			return err
		}
		return repos.Ranks.DeleteByUser(ctx, 7)
	})
	s.Require().NoError(err)
}

func (s *RepositoryTestSuite) TestTransactor_RollsBackOnError() {
	s.mock.ExpectBegin()
	s.mock.ExpectRollback()

	boom := errors.New("boom")
	err := NewTransactor(s.db, testKST).WithinTx(s.ctx, func(context.Context, unitofwork.Repositories) error {
		return boom
	})
	s.ErrorIs(err, boom)
}
