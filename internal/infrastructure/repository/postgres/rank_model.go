package postgres

type rankTableModel struct {
	TeamID     int64 `db:"team_id"`
	UserID     int64 `db:"user_id"`
	ActiveYear int   `db:"active_year"`
	Win        int   `db:"win"`
	Lose       int   `db:"lose"`
	Tie        int   `db:"tie"`
	Cancel     int   `db:"cancel"`
}
