package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/game"
	qb "github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/platform/querybuilder"
)

type GameRepository struct {
	db  queryer
	loc *time.Location
}

// NewGameRepository reads DATE columns back as midnight in loc.
func NewGameRepository(db queryer, loc *time.Location) *GameRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &GameRepository{db: db, loc: loc}
}

func (r *GameRepository) GetByID(ctx context.Context, id string) (game.Game, bool, error) {
	query, args, err := qb.Select(gameColumns...).From("game").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return game.Game{}, false, fmt.Errorf("build get game by id query: %w", err)
	}

	var row gameTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return game.Game{}, false, nil
		}
		return game.Game{}, false, fmt.Errorf("get game by id: %w", err)
	}

	return r.fromRow(row), true, nil
}

func (r *GameRepository) ListByDateRange(ctx context.Context, from, to time.Time) ([]game.Game, error) {
	query, args, err := qb.Select(gameColumns...).From("game").
		Where(qb.Between("date", dateOnly(from), dateOnly(to))).
		OrderBy("date", "time", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list games by date query: %w", err)
	}

	var rows []gameTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list games by date: %w", err)
	}

	out := make([]game.Game, 0, len(rows))
	for _, row := range rows {
		out = append(out, r.fromRow(row))
	}
	return out, nil
}

func (r *GameRepository) Upsert(ctx context.Context, games []game.Game) error {
	if len(games) == 0 {
		return nil
	}

	builder := qb.InsertInto("game").Columns(gameColumns...)
	for _, g := range games {
		if g.ID == "" {
			return fmt.Errorf("game id is required")
		}
		builder.Values(gameValues(g)...)
	}
	query, args, err := builder.Suffix(`ON CONFLICT (id)
DO UPDATE SET
    date = EXCLUDED.date,
    time = EXCLUDED.time,
    status = EXCLUDED.status,
    home_score = EXCLUDED.home_score,
    away_score = EXCLUDED.away_score,
    home_team_id = EXCLUDED.home_team_id,
    away_team_id = EXCLUDED.away_team_id,
    stadium_id = EXCLUDED.stadium_id,
    winning_team_id = EXCLUDED.winning_team_id,
    series_id = EXCLUDED.series_id,
    updated_at = NOW()`).ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert games query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert games: %w", err)
	}
	return nil
}

func (r *GameRepository) Save(ctx context.Context, g game.Game) error {
	query, args, err := qb.Update("game").
		Set("date", dateOnly(g.Date)).
		Set("time", g.Time).
		Set("status", g.Status).
		Set("home_score", g.HomeScore).
		Set("away_score", g.AwayScore).
		Set("home_team_id", g.HomeTeamID).
		Set("away_team_id", g.AwayTeamID).
		Set("stadium_id", g.StadiumID).
		Set("winning_team_id", g.WinningTeamID).
		Set("series_id", g.SeriesID).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", g.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build save game query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("save game %s: %w", g.ID, err)
	}
	found, err := expectOneRow(res)
	if err != nil {
		return fmt.Errorf("save game %s rows affected: %w", g.ID, err)
	}
	if !found {
		return fmt.Errorf("game %s not found", g.ID)
	}
	return nil
}

// Rename changes the primary key. registered_game follows through ON UPDATE CASCADE.
func (r *GameRepository) Rename(ctx context.Context, fromID, toID string) error {
	query, args, err := qb.Update("game").
		Set("id", toID).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", fromID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build rename game query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("game %s already exists: %w", toID, err)
		}
		return fmt.Errorf("rename game %s to %s: %w", fromID, toID, err)
	}
	found, err := expectOneRow(res)
	if err != nil {
		return fmt.Errorf("rename game %s rows affected: %w", fromID, err)
	}
	if !found {
		return fmt.Errorf("game %s not found", fromID)
	}
	return nil
}

func (r *GameRepository) fromRow(row gameTableModel) game.Game {
	return game.Game{
		ID:            row.ID,
		Date:          inLocation(row.Date, r.loc),
		Time:          row.Time,
		Status:        row.Status,
		HomeScore:     nullIntToPtr(row.HomeScore),
		AwayScore:     nullIntToPtr(row.AwayScore),
		HomeTeamID:    row.HomeTeamID,
		AwayTeamID:    row.AwayTeamID,
		StadiumID:     row.StadiumID,
		WinningTeamID: nullInt64ToPtr(row.WinningTeamID),
		SeriesID:      row.SeriesID,
	}
}

// gameValues follows the order of gameColumns.
func gameValues(g game.Game) []any {
	return []any{
		g.ID,
		dateOnly(g.Date),
		g.Time,
		g.Status,
		g.HomeScore,
		g.AwayScore,
		g.HomeTeamID,
		g.AwayTeamID,
		g.StadiumID,
		g.WinningTeamID,
		g.SeriesID,
	}
}
