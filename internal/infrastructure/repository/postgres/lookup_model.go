package postgres

type teamTableModel struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	ShortName string `db:"short_name"`
	Code      string `db:"code"`
}

type stadiumTableModel struct {
	ID        int64   `db:"id"`
	Name      string  `db:"name"`
	FullName  string  `db:"full_name"`
	Latitude  float64 `db:"latitude"`
	Longitude float64 `db:"longitude"`
}

type stadiumInsertModel struct {
	Name     string `db:"name"`
	FullName string `db:"full_name"`
}
