package entities

type DigestRow struct {
	Time      string
	Name      string
	PartySize int
	Phone     string
	Notes     string
	Arrived   bool
}

// DigestEmailData feeds the daily digest templates.
type DigestEmailData struct {
	RestaurantName string
	DayLabel       string
	Count          int
	Covers         int
	Rows           []DigestRow
	CurrentYear    int
}
