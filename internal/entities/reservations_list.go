package entities

// SkippedRecord describes a stored record that could not be mapped.
type SkippedRecord struct {
	ID    string `json:"id"`
	Field string `json:"field"`
	Value string `json:"value"`
}

type ReservationsList struct {
	Reservations []Reservation
	Skipped      []SkippedRecord
}
