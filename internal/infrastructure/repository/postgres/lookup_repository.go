package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/stadium"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/team"
	qb "github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/platform/querybuilder"
)

var (
	teamColumns    = []string{"id", "name", "short_name", "code"}
	stadiumColumns = []string{"id", "name", "full_name", "latitude", "longitude"}
)

type TeamRepository struct {
	db queryer
}

func NewTeamRepository(db queryer) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	query, args, err := qb.Select(teamColumns...).From("team").
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select teams query: %w", err)
	}

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select teams: %w", err)
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, teamFromRow(row))
	}
	return out, nil
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID int64) (team.Team, bool, error) {
	query, args, err := qb.Select(teamColumns...).From("team").
		Where(qb.Eq("id", teamID)).
		ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build get team by id query: %w", err)
	}

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("get team by id: %w", err)
	}
	return teamFromRow(row), true, nil
}

func teamFromRow(row teamTableModel) team.Team {
	return team.Team{
		ID:        row.ID,
		Name:      row.Name,
		ShortName: row.ShortName,
		Code:      strings.TrimSpace(row.Code),
	}
}

type StadiumRepository struct {
	db queryer
}

func NewStadiumRepository(db queryer) *StadiumRepository {
	return &StadiumRepository{db: db}
}

func (r *StadiumRepository) List(ctx context.Context) ([]stadium.Stadium, error) {
	query, args, err := qb.Select(stadiumColumns...).From("stadium").
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select stadiums query: %w", err)
	}

	var rows []stadiumTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select stadiums: %w", err)
	}

	out := make([]stadium.Stadium, 0, len(rows))
	for _, row := range rows {
		out = append(out, stadium.Stadium(row))
	}
	return out, nil
}

func (r *StadiumRepository) GetByID(ctx context.Context, stadiumID int64) (stadium.Stadium, bool, error) {
	query, args, err := qb.Select(stadiumColumns...).From("stadium").
		Where(qb.Eq("id", stadiumID)).
		ToSQL()
	if err != nil {
		return stadium.Stadium{}, false, fmt.Errorf("build get stadium by id query: %w", err)
	}

	var row stadiumTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return stadium.Stadium{}, false, nil
		}
		return stadium.Stadium{}, false, fmt.Errorf("get stadium by id: %w", err)
	}
	return stadium.Stadium(row), true, nil
}

// CreateByName inserts a stadium the schedule feed introduced. An existing row
// with that name is returned unchanged.
func (r *StadiumRepository) CreateByName(ctx context.Context, name string) (stadium.Stadium, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return stadium.Stadium{}, fmt.Errorf("stadium name is required")
	}

	query, args, err := qb.InsertModel("stadium", stadiumInsertModel{Name: name, FullName: name}, `ON CONFLICT (name)
DO UPDATE SET name = EXCLUDED.name
RETURNING `+strings.Join(stadiumColumns, ", "))
	if err != nil {
		return stadium.Stadium{}, fmt.Errorf("build create stadium query: %w", err)
	}

	var row stadiumTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return stadium.Stadium{}, fmt.Errorf("create stadium %q: %w", name, err)
	}
	return stadium.Stadium(row), nil
}
