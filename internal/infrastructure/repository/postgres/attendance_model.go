package postgres

import (
	"database/sql"
	"time"
)

type attendanceTableModel struct {
	ID             int64          `db:"id"`
	GameID         string         `db:"game_id"`
	UserID         int64          `db:"user_id"`
	CheeringTeamID int64          `db:"cheering_team_id"`
	Status         sql.NullString `db:"status"`
	Seat           string         `db:"seat"`
	Review         string         `db:"review"`
	Image          string         `db:"image"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

type attendanceInsertModel struct {
	GameID         string  `db:"game_id"`
	UserID         int64   `db:"user_id"`
	CheeringTeamID int64   `db:"cheering_team_id"`
	Status         *string `db:"status"`
	Seat           string  `db:"seat"`
	Review         string  `db:"review"`
	Image          string  `db:"image"`
}
