package querybuilder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectBuilder_PendingAttendanceForUpdate(t *testing.T) {
	t.Parallel()

	query, args, err := Select("id", "status").
		From("registered_game").
		Where(Eq("game_id", "20250513LGOB0"), IsNull("status")).
		OrderBy("id").
		Suffix("FOR UPDATE").
		ToSQL()
	require.NoError(t, err)

	assert.Equal(t, "SELECT id, status FROM registered_game WHERE game_id = $1 AND status IS NULL ORDER BY id FOR UPDATE", query)
	assert.Equal(t, []any{"20250513LGOB0"}, args)
}

func TestSelectBuilder_BetweenAndGroupBy(t *testing.T) {
	t.Parallel()

	query, args, err := Select("user_id").
		From("rank").
		Where(Between("active_year", 2024, 2025), Expr("win + lose > ?", 0)).
		GroupBy("user_id").
		OrderBy("user_id").
		ToSQL()
	require.NoError(t, err)

	assert.Equal(t, "SELECT user_id FROM rank WHERE active_year BETWEEN $1 AND $2 AND win + lose > $3 GROUP BY user_id ORDER BY user_id", query)
	assert.Equal(t, []any{2024, 2025, 0}, args)
}

func TestSelectBuilder_RequiresColumnsAndTable(t *testing.T) {
	t.Parallel()

	_, _, err := Select().From("game").ToSQL()
	assert.Error(t, err)

	_, _, err = Select("id").ToSQL()
	assert.Error(t, err)
}

func TestInsertBuilder_MultiRowWithSuffix(t *testing.T) {
	t.Parallel()

	query, args, err := InsertInto("game").
		Columns("id", "status").
		Values("20250513LGOB0", "경기전").
		Values("20250513HTSS0", "경기중").
		Suffix("ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status").
		ToSQL()
	require.NoError(t, err)

	assert.Equal(t, "INSERT INTO game (id, status) VALUES ($1, $2), ($3, $4) ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status", query)
	assert.Equal(t, []any{"20250513LGOB0", "경기전", "20250513HTSS0", "경기중"}, args)
}

func TestInsertBuilder_RejectsRaggedRows(t *testing.T) {
	t.Parallel()

	_, _, err := InsertInto("game").Columns("id", "status").Values("only-id").ToSQL()
	assert.ErrorContains(t, err, "row 0 has 1 values for 2 columns")

	_, _, err = InsertInto("game").Columns("id").ToSQL()
	assert.Error(t, err)
}

func TestUpdateBuilder_ExpressionsKeepParameterOrder(t *testing.T) {
	t.Parallel()

	query, args, err := Update("rank").
		Set("win", 3).
		SetExpr("cancel", "cancel + ?", 1).
		SetExpr("updated_at", "NOW()").
		Where(Eq("team_id", int64(1)), Eq("user_id", int64(7))).
		ToSQL()
	require.NoError(t, err)

	assert.Equal(t, "UPDATE rank SET win = $1, cancel = cancel + $2, updated_at = NOW() WHERE team_id = $3 AND user_id = $4", query)
	assert.Equal(t, []any{3, 1, int64(1), int64(7)}, args)
}

func TestUpdateBuilder_RequiresAssignments(t *testing.T) {
	t.Parallel()

	_, _, err := Update("game").Where(Eq("id", "x")).ToSQL()
	assert.Error(t, err)
}

func TestDeleteBuilder(t *testing.T) {
	t.Parallel()

	query, args, err := DeleteFrom("registered_game").Where(Eq("user_id", int64(7))).ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM registered_game WHERE user_id = $1", query)
	assert.Equal(t, []any{int64(7)}, args)

	_, _, err = DeleteFrom("registered_game").ToSQL()
	assert.Error(t, err, "unconditional delete must be rejected")
}

func TestInsertModel(t *testing.T) {
	t.Parallel()

	type row struct {
		Name     string `db:"name"`
		FullName string `db:"full_name,omitempty"`
		Ignored  string `db:"-"`
		Untagged string
		internal string `db:"internal"`
	}

	query, args, err := InsertModel("stadium", &row{Name: "잠실", FullName: "잠실야구장", internal: "x"}, "RETURNING id")
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO stadium (name, full_name) VALUES ($1, $2) RETURNING id", query)
	assert.Equal(t, []any{"잠실", "잠실야구장"}, args)

	_, _, err = InsertModel("stadium", 42, "")
	assert.Error(t, err)

	var nilRow *row
	_, _, err = InsertModel("stadium", nilRow, "")
	assert.Error(t, err)

	_, _, err = InsertModel("stadium", struct{ A int }{A: 1}, "")
	assert.Error(t, err)
}
