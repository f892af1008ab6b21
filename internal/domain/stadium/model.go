package stadium

// Stadium is a ballpark as named by the schedule feed.
type Stadium struct {
	ID        int64
	Name      string
	FullName  string
	Latitude  float64
	Longitude float64
}
