package web

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"cigale/internal/entities"
	"cigale/internal/lateness"
	"cigale/internal/utils"
)

func decorate(now time.Time, r entities.Reservation) entities.ReservationView {
	delay := lateness.Compute(now, r)
	return entities.ReservationView{
		Reservation:  r,
		IsLate:       delay.IsLate,
		DelayMinutes: delay.Minutes,
		IsToday:      r.Date == now.Format(utils.DateLayout),
	}
}

// Search keeps reservations whose name, phone or notes contain query,
// ignoring case.
func Search(reservations []entities.Reservation, query string) []entities.Reservation {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return reservations
	}
	var out []entities.Reservation
	for _, r := range reservations {
		if strings.Contains(strings.ToLower(r.Name), query) ||
			strings.Contains(strings.ToLower(r.Phone), query) ||
			strings.Contains(strings.ToLower(r.Notes), query) {
			out = append(out, r)
		}
	}
	return out
}

// BuildDayGroups groups reservations by date: today and future dates
// ascending, then past dates descending. Past dates are dropped unless
// showPast is set. Each day is ordered by time.
func BuildDayGroups(now time.Time, reservations []entities.Reservation, showPast bool) []entities.DayGroup {
	today := now.Format(utils.DateLayout)
	byDate := make(map[string][]entities.Reservation)
	for _, r := range reservations {
		if r.Date < today && !showPast {
			continue
		}
		byDate[r.Date] = append(byDate[r.Date], r)
	}

	var upcoming, past []string
	for date := range byDate {
		if date >= today {
			upcoming = append(upcoming, date)
		} else {
			past = append(past, date)
		}
	}
	sort.Strings(upcoming)
	sort.Sort(sort.Reverse(sort.StringSlice(past)))

	groups := make([]entities.DayGroup, 0, len(byDate))
	for _, date := range append(upcoming, past...) {
		day := byDate[date]
		sort.SliceStable(day, func(i, j int) bool { return day[i].Time < day[j].Time })

		group := entities.DayGroup{
			Date:    date,
			Label:   date,
			IsToday: date == today,
			IsPast:  date < today,
		}
		if parsed, err := utils.ParseDate(date, now.Location()); err == nil {
			group.Label = utils.FrenchDayLabel(parsed)
		}
		for _, r := range day {
			group.Covers += r.PartySize
			group.Reservations = append(group.Reservations, decorate(now, r))
		}
		groups = append(groups, group)
	}
	return groups
}

// SplitKanban returns today's reservations in the upcoming and arrived
// columns, each ordered by time.
func SplitKanban(now time.Time, reservations []entities.Reservation) (upcoming, arrived []entities.ReservationView) {
	today := now.Format(utils.DateLayout)
	var todays []entities.Reservation
	for _, r := range reservations {
		if r.Date == today {
			todays = append(todays, r)
		}
	}
	sort.SliceStable(todays, func(i, j int) bool { return todays[i].Time < todays[j].Time })

	for _, r := range todays {
		view := decorate(now, r)
		if r.IsArrived() {
			arrived = append(arrived, view)
		} else {
			upcoming = append(upcoming, view)
		}
	}
	return upcoming, arrived
}

// BuildPlanningWeek lays out the Monday-first week containing anchor as one
// row per service hour and one cell per day.
func BuildPlanningWeek(now, anchor time.Time, hours []int, reservations []entities.Reservation) entities.PlanningWeek {
	days := utils.WeekDays(anchor)
	week := entities.PlanningWeek{Start: days[0], Days: days}

	type slot struct {
		date string
		hour int
	}
	bySlot := make(map[slot][]entities.Reservation)
	for _, r := range reservations {
		hour, ok := reservationHour(r.Time)
		if !ok {
			continue
		}
		key := slot{date: r.Date, hour: hour}
		bySlot[key] = append(bySlot[key], r)
	}

	for _, hour := range hours {
		row := entities.PlanningRow{Hour: hour}
		for _, day := range days {
			cell := entities.PlanningCell{
				Day:       day,
				Hour:      hour,
				IsCurrent: utils.SameDay(day, now) && now.Hour() == hour,
			}
			entries := bySlot[slot{date: day.Format(utils.DateLayout), hour: hour}]
			sort.SliceStable(entries, func(i, j int) bool { return entries[i].Time < entries[j].Time })
			for _, r := range entries {
				cell.Reservations = append(cell.Reservations, decorate(now, r))
			}
			row.Cells = append(row.Cells, cell)
		}
		week.Rows = append(week.Rows, row)
	}
	return week
}

func reservationHour(value string) (int, bool) {
	head, _, found := strings.Cut(value, ":")
	if !found {
		return 0, false
	}
	hour, err := strconv.Atoi(head)
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	return hour, true
}

// MaskPhone hides the middle digits of a phone number: "06•••••04".
func MaskPhone(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	cleaned := digits.String()
	if len(cleaned) < 10 {
		return phone
	}
	return cleaned[:2] + "•••••" + cleaned[len(cleaned)-2:]
}
