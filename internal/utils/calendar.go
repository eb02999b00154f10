package utils

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

var frenchWeekdays = [...]string{"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi"}

var frenchMonths = [...]string{"janvier", "février", "mars", "avril", "mai", "juin", "juillet", "août", "septembre", "octobre", "novembre", "décembre"}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns the Monday of t's week at midnight.
func StartOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return StartOfDay(t).AddDate(0, 0, -offset)
}

// WeekDays lists the seven days starting at the Monday of t's week.
func WeekDays(t time.Time) []time.Time {
	start := StartOfWeek(t)
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ParseDate reads a YYYY-MM-DD value at midnight in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, loc)
}

// FrenchDayLabel renders "vendredi 16 janvier 2026".
func FrenchDayLabel(t time.Time) string {
	return fmt.Sprintf("%s %d %s %d", frenchWeekdays[t.Weekday()], t.Day(), frenchMonths[t.Month()-1], t.Year())
}

// FrenchShortDay renders "ven. 16/01".
func FrenchShortDay(t time.Time) string {
	return fmt.Sprintf("%s. %02d/%02d", frenchWeekdays[t.Weekday()][:3], t.Day(), int(t.Month()))
}

// FrenchWeekLabel renders "12 janvier - 18 janvier 2026" for the week of t.
func FrenchWeekLabel(t time.Time) string {
	start := StartOfWeek(t)
	end := start.AddDate(0, 0, 6)
	return fmt.Sprintf("%d %s - %d %s %d", start.Day(), frenchMonths[start.Month()-1], end.Day(), frenchMonths[end.Month()-1], end.Year())
}
