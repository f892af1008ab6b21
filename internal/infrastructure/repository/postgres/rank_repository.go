package postgres

import (
	"context"
	"fmt"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/rank"
	qb "github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/platform/querybuilder"
)

var rankColumns = []string{"team_id", "user_id", "active_year", "win", "lose", "tie", "cancel"}

type RankRepository struct {
	db queryer
}

func NewRankRepository(db queryer) *RankRepository {
	return &RankRepository{db: db}
}

// GetForUpdate locks the counters of (team, user, year). A missing row is
// inserted with zero counters first so concurrent first writers queue on the
// same row lock instead of both reading nothing. exists reports whether the
// row was there before this call.
func (r *RankRepository) GetForUpdate(ctx context.Context, teamID, userID int64, year int) (rank.Record, bool, error) {
	created, err := r.ensureRow(ctx, teamID, userID, year)
	if err != nil {
		return rank.Record{}, false, err
	}

	query, args, err := qb.Select(rankColumns...).From("rank").
		Where(
			qb.Eq("team_id", teamID),
			qb.Eq("user_id", userID),
			qb.Eq("active_year", year),
		).
		Suffix("FOR UPDATE").
		ToSQL()
	if err != nil {
		return rank.Record{}, false, fmt.Errorf("build get rank query: %w", err)
	}

	var row rankTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return rank.Record{TeamID: teamID, UserID: userID, ActiveYear: year}, false, nil
		}
		return rank.Record{}, false, fmt.Errorf("get rank team=%d user=%d year=%d: %w", teamID, userID, year, err)
	}
	return rankFromRow(row), !created, nil
}

func (r *RankRepository) ensureRow(ctx context.Context, teamID, userID int64, year int) (bool, error) {
	query, args, err := qb.InsertInto("rank").
		Columns("team_id", "user_id", "active_year").
		Values(teamID, userID, year).
		Suffix("ON CONFLICT (team_id, user_id, active_year) DO NOTHING").
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build ensure rank query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("ensure rank team=%d user=%d year=%d: %w", teamID, userID, year, err)
	}
	created, err := expectOneRow(res)
	if err != nil {
		return false, fmt.Errorf("ensure rank rows affected: %w", err)
	}
	return created, nil
}

func (r *RankRepository) Save(ctx context.Context, record rank.Record) error {
	query, args, err := qb.InsertModel("rank", rankTableModel{
		TeamID:     record.TeamID,
		UserID:     record.UserID,
		ActiveYear: record.ActiveYear,
		Win:        record.Win,
		Lose:       record.Lose,
		Tie:        record.Tie,
		Cancel:     record.Cancel,
	}, `ON CONFLICT (team_id, user_id, active_year)
DO UPDATE SET
    win = EXCLUDED.win,
    lose = EXCLUDED.lose,
    tie = EXCLUDED.tie,
    cancel = EXCLUDED.cancel,
    updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("build save rank query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save rank team=%d user=%d year=%d: %w", record.TeamID, record.UserID, record.ActiveYear, err)
	}
	return nil
}

func (r *RankRepository) ListByUser(ctx context.Context, userID int64) ([]rank.Record, error) {
	query, args, err := qb.Select(rankColumns...).From("rank").
		Where(qb.Eq("user_id", userID)).
		OrderBy("team_id", "active_year").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list rank by user query: %w", err)
	}

	var rows []rankTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list rank of user %d: %w", userID, err)
	}

	out := make([]rank.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, rankFromRow(row))
	}
	return out, nil
}

func (r *RankRepository) ListUserIDs(ctx context.Context) ([]int64, error) {
	query, args, err := qb.Select("user_id").From("rank").
		GroupBy("user_id").
		OrderBy("user_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list rank users query: %w", err)
	}

	var userIDs []int64
	if err := r.db.SelectContext(ctx, &userIDs, query, args...); err != nil {
		return nil, fmt.Errorf("list rank users: %w", err)
	}
	return userIDs, nil
}

func (r *RankRepository) DeleteByUser(ctx context.Context, userID int64) error {
	query, args, err := qb.DeleteFrom("rank").
		Where(qb.Eq("user_id", userID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete rank by user query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete rank of user %d: %w", userID, err)
	}
	return nil
}

func rankFromRow(row rankTableModel) rank.Record {
	return rank.Record{
		TeamID:     row.TeamID,
		UserID:     row.UserID,
		ActiveYear: row.ActiveYear,
		Stats: rank.Stats{
			Win:    row.Win,
			Lose:   row.Lose,
			Tie:    row.Tie,
			Cancel: row.Cancel,
		},
	}
}
