package entities

import "time"

// ReservationView is a reservation decorated with its lateness at render time.
type ReservationView struct {
	Reservation
	IsLate       bool
	DelayMinutes int
	IsToday      bool
}

type DayGroup struct {
	Date         string
	Label        string
	IsToday      bool
	IsPast       bool
	Covers       int
	Reservations []ReservationView
}

type PlanningCell struct {
	Day          time.Time
	Hour         int
	IsCurrent    bool
	Reservations []ReservationView
}

type PlanningRow struct {
	Hour  int
	Cells []PlanningCell
}

type PlanningWeek struct {
	Start time.Time
	Days  []time.Time
	Rows  []PlanningRow
}
