package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/attendance"
	qb "github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/platform/querybuilder"
)

var attendanceColumns = []string{
	"id",
	"game_id",
	"user_id",
	"cheering_team_id",
	"status",
	"seat",
	"review",
	"image",
	"created_at",
	"updated_at",
}

type AttendanceRepository struct {
	db queryer
}

func NewAttendanceRepository(db queryer) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

func (r *AttendanceRepository) Create(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	insertModel := attendanceInsertModel{
		GameID:         record.GameID,
		UserID:         record.UserID,
		CheeringTeamID: record.CheeringTeamID,
		Status:         statusToNullable(record.Status),
		Seat:           record.Seat,
		Review:         record.Review,
		Image:          record.Image,
	}
	query, args, err := qb.InsertModel("registered_game", insertModel, "RETURNING id, created_at, updated_at")
	if err != nil {
		return attendance.Record{}, fmt.Errorf("build insert attendance query: %w", err)
	}

	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return attendance.Record{}, fmt.Errorf("%w: game=%s user=%d", attendance.ErrAlreadyRegistered, record.GameID, record.UserID)
		}
		return attendance.Record{}, fmt.Errorf("insert attendance: %w", err)
	}
	return record, nil
}

func (r *AttendanceRepository) GetByIDForUpdate(ctx context.Context, id int64) (attendance.Record, bool, error) {
	query, args, err := qb.Select(attendanceColumns...).From("registered_game").
		Where(qb.Eq("id", id)).
		Suffix("FOR UPDATE").
		ToSQL()
	if err != nil {
		return attendance.Record{}, false, fmt.Errorf("build get attendance query: %w", err)
	}

	var row attendanceTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return attendance.Record{}, false, nil
		}
		return attendance.Record{}, false, fmt.Errorf("get attendance %d: %w", id, err)
	}
	return attendanceFromRow(row), true, nil
}

func (r *AttendanceRepository) ListPendingByGameForUpdate(ctx context.Context, gameID string) ([]attendance.Record, error) {
	return r.listForUpdate(ctx, "pending attendance by game", qb.Eq("game_id", gameID), qb.IsNull("status"))
}

func (r *AttendanceRepository) ListByUserForUpdate(ctx context.Context, userID int64) ([]attendance.Record, error) {
	return r.listForUpdate(ctx, "attendance by user", qb.Eq("user_id", userID))
}

func (r *AttendanceRepository) listForUpdate(ctx context.Context, label string, conditions ...qb.Condition) ([]attendance.Record, error) {
	query, args, err := qb.Select(attendanceColumns...).From("registered_game").
		Where(conditions...).
		OrderBy("id").
		Suffix("FOR UPDATE").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list %s query: %w", label, err)
	}

	var rows []attendanceTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", label, err)
	}

	out := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, attendanceFromRow(row))
	}
	return out, nil
}

func (r *AttendanceRepository) UpdateStatuses(ctx context.Context, records []attendance.Record) error {
	for _, record := range records {
		query, args, err := qb.Update("registered_game").
			Set("status", statusToNullable(record.Status)).
			SetExpr("updated_at", "NOW()").
			Where(qb.Eq("id", record.ID)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build update attendance status query: %w", err)
		}
		if err := r.execOne(ctx, record.ID, query, args); err != nil {
			return fmt.Errorf("update attendance status: %w", err)
		}
	}
	return nil
}

func (r *AttendanceRepository) UpdateCheeringTeam(ctx context.Context, id, teamID int64, status *attendance.Status) error {
	query, args, err := qb.Update("registered_game").
		Set("cheering_team_id", teamID).
		Set("status", statusToNullable(status)).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update cheering team query: %w", err)
	}
	if err := r.execOne(ctx, id, query, args); err != nil {
		return fmt.Errorf("update cheering team: %w", err)
	}
	return nil
}

func (r *AttendanceRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := qb.DeleteFrom("registered_game").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete attendance query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete attendance %d: %w", id, err)
	}
	return nil
}

func (r *AttendanceRepository) DeleteByUser(ctx context.Context, userID int64) error {
	query, args, err := qb.DeleteFrom("registered_game").
		Where(qb.Eq("user_id", userID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete attendance by user query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete attendance of user %d: %w", userID, err)
	}
	return nil
}

func (r *AttendanceRepository) execOne(ctx context.Context, id int64, query string, args []any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	found, err := expectOneRow(res)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("attendance record %d not found", id)
	}
	return nil
}

func attendanceFromRow(row attendanceTableModel) attendance.Record {
	return attendance.Record{
		ID:             row.ID,
		GameID:         row.GameID,
		UserID:         row.UserID,
		CheeringTeamID: row.CheeringTeamID,
		Status:         statusFromNullable(row.Status),
		Seat:           row.Seat,
		Review:         row.Review,
		Image:          row.Image,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

func statusToNullable(status *attendance.Status) *string {
	if status == nil {
		return nil
	}
	out := string(*status)
	return &out
}

func statusFromNullable(v sql.NullString) *attendance.Status {
	if !v.Valid || v.String == "" {
		return nil
	}
	return attendance.StatusPtr(attendance.Status(v.String))
}
