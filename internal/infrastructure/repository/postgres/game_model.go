package postgres

import (
	"database/sql"
	"time"
)

var gameColumns = []string{
	"id",
	"date",
	"time",
	"status",
	"home_score",
	"away_score",
	"home_team_id",
	"away_team_id",
	"stadium_id",
	"winning_team_id",
	"series_id",
}

type gameTableModel struct {
	ID            string        `db:"id"`
	Date          time.Time     `db:"date"`
	Time          string        `db:"time"`
	Status        string        `db:"status"`
	HomeScore     sql.NullInt32 `db:"home_score"`
	AwayScore     sql.NullInt32 `db:"away_score"`
	HomeTeamID    int64         `db:"home_team_id"`
	AwayTeamID    int64         `db:"away_team_id"`
	StadiumID     int64         `db:"stadium_id"`
	WinningTeamID sql.NullInt64 `db:"winning_team_id"`
	SeriesID      int           `db:"series_id"`
}
