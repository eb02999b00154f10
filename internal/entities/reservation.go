package entities

import "strings"

// Status is the arrival workflow state of a reservation.
type Status string

const (
	StatusUpcoming Status = "UPCOMING"
	StatusArrived  Status = "ARRIVED"
)

// ParseStatus normalises a status value. The legacy spellings A_VENIR and
// ARRIVE are still accepted.
func ParseStatus(value string) (Status, bool) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case string(StatusUpcoming), "A_VENIR":
		return StatusUpcoming, true
	case string(StatusArrived), "ARRIVE":
		return StatusArrived, true
	}
	return "", false
}

// StatusFromArrived maps the boolean arrival flag onto a Status.
func StatusFromArrived(arrived bool) Status {
	if arrived {
		return StatusArrived
	}
	return StatusUpcoming
}

type Reservation struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	PartySize int    `json:"partySize"`
	Phone     string `json:"phone,omitempty"`
	Notes     string `json:"notes,omitempty"`
	Status    Status `json:"status"`
}

func (r Reservation) IsArrived() bool {
	return r.Status == StatusArrived
}

// Filter holds the optional equality filters of a list query. Status is kept
// raw so that unknown values match nothing instead of failing.
type Filter struct {
	Date   string
	Status string
}

// Key returns a stable cache key for the filter.
func (f Filter) Key() string {
	status := strings.TrimSpace(f.Status)
	if parsed, ok := ParseStatus(status); ok {
		status = string(parsed)
	}
	return "date=" + strings.TrimSpace(f.Date) + "&status=" + status
}

// Match reports whether the reservation satisfies every present filter.
func (f Filter) Match(r Reservation) bool {
	if date := strings.TrimSpace(f.Date); date != "" && r.Date != date {
		return false
	}
	if raw := strings.TrimSpace(f.Status); raw != "" {
		status, ok := ParseStatus(raw)
		if !ok || r.Status != status {
			return false
		}
	}
	return true
}
