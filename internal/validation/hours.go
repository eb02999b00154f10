package validation

import (
	"fmt"
	"time"
)

// OperatingHours is the service window accepted for arrival times. Closing is
// exclusive.
type OperatingHours struct {
	Opening time.Duration
	Closing time.Duration
}

func DefaultOperatingHours() OperatingHours {
	return OperatingHours{Opening: 11 * time.Hour, Closing: 23 * time.Hour}
}

// NewOperatingHours parses two HH:MM bounds.
func NewOperatingHours(opening, closing string) (OperatingHours, error) {
	open, err := ParseClock(opening)
	if err != nil {
		return OperatingHours{}, fmt.Errorf("opening: %w", err)
	}
	shut, err := ParseClock(closing)
	if err != nil {
		return OperatingHours{}, fmt.Errorf("closing: %w", err)
	}
	if shut <= open {
		return OperatingHours{}, fmt.Errorf("closing %s is not after opening %s", closing, opening)
	}
	return OperatingHours{Opening: open, Closing: shut}, nil
}

// ParseClock converts HH:MM to an offset from midnight.
func ParseClock(value string) (time.Duration, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil || len(value) != len("15:04") {
		return 0, fmt.Errorf("time %q is not HH:MM", value)
	}
	return time.Duration(parsed.Hour())*time.Hour + time.Duration(parsed.Minute())*time.Minute, nil
}

// Check validates an arrival time against the window.
func (h OperatingHours) Check(value string) error {
	offset, err := ParseClock(value)
	if err != nil {
		return Invalid("time", "format d'heure invalide (HH:MM attendu)")
	}
	if offset < h.Opening || offset >= h.Closing {
		return Invalid("time", fmt.Sprintf("l'heure doit être comprise entre %s et %s", formatClock(h.Opening), formatClock(h.Closing-time.Minute)))
	}
	return nil
}

// Hours lists the planning rows, from the opening hour to the closing hour
// included.
func (h OperatingHours) Hours() []int {
	var hours []int
	for hour := int(h.Opening / time.Hour); time.Duration(hour)*time.Hour <= h.Closing; hour++ {
		hours = append(hours, hour)
	}
	return hours
}

func formatClock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int(d%time.Hour/time.Minute))
}
