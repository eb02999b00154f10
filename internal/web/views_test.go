package web

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cigale/internal/entities"
	"cigale/internal/testfixtures"
)

func res(id, date, at string, size int, status entities.Status) entities.Reservation {
	return entities.Reservation{ID: id, Name: "Client " + id, Date: date, Time: at, PartySize: size, Status: status}
}

func TestBuildDayGroups(t *testing.T) {
	now := testfixtures.At(2026, time.January, 16, 19, 45)
	reservations := []entities.Reservation{
		res("a", "2026-01-17", "12:00", 2, entities.StatusUpcoming),
		res("b", "2026-01-16", "20:00", 3, entities.StatusUpcoming),
		res("c", "2026-01-16", "19:30", 4, entities.StatusUpcoming),
		res("d", "2026-01-14", "12:00", 2, entities.StatusArrived),
		res("e", "2026-01-15", "12:00", 5, entities.StatusArrived),
	}

	t.Run("past hidden by default", func(t *testing.T) {
		groups := BuildDayGroups(now, reservations, false)
		require.Len(t, groups, 2)
		assert.Equal(t, "2026-01-16", groups[0].Date)
		assert.True(t, groups[0].IsToday)
		assert.Equal(t, "vendredi 16 janvier 2026", groups[0].Label)
		assert.Equal(t, 7, groups[0].Covers)
		assert.Equal(t, "c", groups[0].Reservations[0].ID)
		assert.True(t, groups[0].Reservations[0].IsLate)
		assert.Equal(t, 15, groups[0].Reservations[0].DelayMinutes)
		assert.False(t, groups[0].Reservations[1].IsLate)
		assert.Equal(t, "2026-01-17", groups[1].Date)
	})

	t.Run("past dates follow in descending order", func(t *testing.T) {
		groups := BuildDayGroups(now, reservations, true)
		var dates []string
		for _, g := range groups {
			dates = append(dates, g.Date)
		}
		assert.Equal(t, []string{"2026-01-16", "2026-01-17", "2026-01-15", "2026-01-14"}, dates)
		assert.True(t, groups[2].IsPast)
	})
}

func TestSearch(t *testing.T) {
	reservations := []entities.Reservation{
		{ID: "1", Name: "Dupont", Phone: "0601020304"},
		{ID: "2", Name: "Martin", Notes: "Anniversaire DUPONT"},
		{ID: "3", Name: "Leroy", Phone: "0699999999"},
	}
	assert.Len(t, Search(reservations, "  dupont "), 2)
	assert.Len(t, Search(reservations, "0699"), 1)
	assert.Len(t, Search(reservations, ""), 3)
	assert.Empty(t, Search(reservations, "zzz"))
}

func TestSplitKanban(t *testing.T) {
	now := testfixtures.At(2026, time.January, 16, 19, 45)
	upcoming, arrived := SplitKanban(now, []entities.Reservation{
		res("a", "2026-01-16", "21:00", 2, entities.StatusUpcoming),
		res("b", "2026-01-16", "19:00", 2, entities.StatusUpcoming),
		res("c", "2026-01-16", "12:00", 2, entities.StatusArrived),
		res("d", "2026-01-17", "12:00", 2, entities.StatusUpcoming),
	})
	require.Len(t, upcoming, 2)
	assert.Equal(t, "b", upcoming[0].ID)
	assert.True(t, upcoming[0].IsLate)
	require.Len(t, arrived, 1)
	assert.False(t, arrived[0].IsLate)
}

func TestBuildPlanningWeek(t *testing.T) {
	now := testfixtures.At(2026, time.January, 16, 19, 45)
	week := BuildPlanningWeek(now, now, []int{11, 12, 19, 23}, []entities.Reservation{
		res("a", "2026-01-16", "19:30", 4, entities.StatusUpcoming),
		res("b", "2026-01-12", "12:15", 2, entities.StatusArrived),
		res("c", "2026-01-19", "12:00", 2, entities.StatusUpcoming),
		res("d", "2026-01-13", "09:00", 2, entities.StatusUpcoming),
	})

	assert.Equal(t, time.Monday, week.Start.Weekday())
	require.Len(t, week.Days, 7)
	require.Len(t, week.Rows, 4)

	lunch := week.Rows[1]
	assert.Equal(t, 12, lunch.Hour)
	require.Len(t, lunch.Cells[0].Reservations, 1)
	assert.Equal(t, "b", lunch.Cells[0].Reservations[0].ID)

	evening := week.Rows[2]
	friday := evening.Cells[4]
	assert.True(t, friday.IsCurrent)
	require.Len(t, friday.Reservations, 1)
	assert.True(t, friday.Reservations[0].IsLate)

	total := 0
	for _, row := range week.Rows {
		for _, cell := range row.Cells {
			total += len(cell.Reservations)
		}
	}
	assert.Equal(t, 2, total, "next week and off-hours reservations are not shown")
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "06•••••04", MaskPhone("06 01 02 03 04"))
	assert.Equal(t, "12345", MaskPhone("12345"))
	assert.Equal(t, "", MaskPhone(""))
}
