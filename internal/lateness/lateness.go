// Package lateness derives the late indicator shown next to a reservation. The
// value is never stored.
package lateness

import (
	"fmt"
	"math"
	"time"

	"cigale/internal/entities"
)

type Delay struct {
	IsLate  bool
	Minutes int
}

// ArrivalTime combines the reservation date and time in loc.
func ArrivalTime(r entities.Reservation, loc *time.Location) (time.Time, bool) {
	arrival, err := time.ParseInLocation("2006-01-02 15:04", r.Date+" "+r.Time, loc)
	if err != nil {
		return time.Time{}, false
	}
	return arrival, true
}

// Compute reports how late a reservation is at now. Only upcoming
// reservations of the current day, in now's location, can be late.
func Compute(now time.Time, r entities.Reservation) Delay {
	if r.IsArrived() || r.Date != now.Format("2006-01-02") {
		return Delay{}
	}
	arrival, ok := ArrivalTime(r, now.Location())
	if !ok {
		return Delay{}
	}
	minutes := int(math.Floor(now.Sub(arrival).Minutes()))
	if minutes <= 0 {
		return Delay{}
	}
	return Delay{IsLate: true, Minutes: minutes}
}

// FormatDelay renders a delay as "15 min", "1h" or "1h05".
func FormatDelay(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	hours, rest := minutes/60, minutes%60
	if rest == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh%02d", hours, rest)
}
