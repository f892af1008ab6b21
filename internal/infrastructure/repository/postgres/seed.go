package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/infrastructure/repository/memory"
)

// BootstrapSeed fills the team and stadium lookup tables on an empty database.
func BootstrapSeed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM team`); err != nil {
		return fmt.Errorf("count teams for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, t := range memory.SeedTeams() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO team (id, name, short_name, code)
VALUES (:id, :name, :short_name, :code)
ON CONFLICT (id) DO NOTHING`, map[string]any{
			"id":         t.ID,
			"name":       t.Name,
			"short_name": t.ShortName,
			"code":       t.Code,
		})
		if err != nil {
			return fmt.Errorf("bind seed team %d query: %w", t.ID, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed team %d: %w", t.ID, err)
		}
	}

	for _, s := range memory.SeedStadiums() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO stadium (id, name, full_name, latitude, longitude)
VALUES (:id, :name, :full_name, :latitude, :longitude)
ON CONFLICT (id) DO NOTHING`, map[string]any{
			"id":        s.ID,
			"name":      s.Name,
			"full_name": s.FullName,
			"latitude":  s.Latitude,
			"longitude": s.Longitude,
		})
		if err != nil {
			return fmt.Errorf("bind seed stadium %d query: %w", s.ID, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed stadium %d: %w", s.ID, err)
		}
	}

	// Explicit ids bypass the sequence; move it past them so CreateByName keeps working.
	if _, err := tx.ExecContext(ctx, `SELECT setval(pg_get_serial_sequence('stadium', 'id'), (SELECT MAX(id) FROM stadium))`); err != nil {
		return fmt.Errorf("advance stadium sequence: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}

	return nil
}
