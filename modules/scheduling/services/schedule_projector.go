package services

import (
	"strings"
	"time"
)

// CalendarDay is one projected day: which stations the employee works.
type CalendarDay struct {
	Day      int       `json:"day"`
	Date     time.Time `json:"date"`
	Stations []string  `json:"stations"`
}

// ProjectForEmployee maps day number to the ordered list of stations where
// the employee appears. Name matching is whitespace-trimmed and
// case-insensitive. A station shows up once per day even when several cells
// list the employee.
func ProjectForEmployee(entries []WorksheetEntry, identifier string) map[int][]string {
	needle := strings.ToLower(strings.TrimSpace(identifier))
	out := make(map[int][]string)
	if needle == "" {
		return out
	}
	for _, entry := range entries {
		if !containsEmployee(entry.Employees, needle) {
			continue
		}
		station := strings.TrimSpace(entry.Workstation)
		if !containsString(out[entry.Day], station) {
			out[entry.Day] = append(out[entry.Day], station)
		}
	}
	return out
}

// ProjectMonthly lays the per-day stations out as a Sunday-first calendar:
// weeks of seven cells with nil cells for days outside the month, day 1
// aligned to its weekday.
func ProjectMonthly(dayStations map[int][]string, month, year int) [][]*CalendarDay {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	firstWeekday := int(first.Weekday())
	total := daysIn(month, year)

	cells := make([]*CalendarDay, 0, firstWeekday+total)
	for i := 0; i < firstWeekday; i++ {
		cells = append(cells, nil)
	}
	for day := 1; day <= total; day++ {
		cells = append(cells, &CalendarDay{
			Day:      day,
			Date:     time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC),
			Stations: dayStations[day],
		})
	}
	for len(cells)%7 != 0 {
		cells = append(cells, nil)
	}

	weeks := make([][]*CalendarDay, 0, len(cells)/7)
	for i := 0; i < len(cells); i += 7 {
		weeks = append(weeks, cells[i:i+7])
	}
	return weeks
}

// ProjectWeekly returns the Sunday-first week containing ref. Days falling
// outside the worksheet month are nil.
func ProjectWeekly(dayStations map[int][]string, month, year int, ref time.Time) []*CalendarDay {
	start := ref.AddDate(0, 0, -int(ref.Weekday()))
	week := make([]*CalendarDay, 7)
	for i := 0; i < 7; i++ {
		date := start.AddDate(0, 0, i)
		if int(date.Month()) != month || date.Year() != year {
			continue
		}
		week[i] = &CalendarDay{
			Day:      date.Day(),
			Date:     time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
			Stations: dayStations[date.Day()],
		}
	}
	return week
}

// ProjectDaily returns the single projected day, or nil when ref is outside
// the worksheet month.
func ProjectDaily(dayStations map[int][]string, month, year int, ref time.Time) *CalendarDay {
	if int(ref.Month()) != month || ref.Year() != year {
		return nil
	}
	return &CalendarDay{
		Day:      ref.Day(),
		Date:     time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC),
		Stations: dayStations[ref.Day()],
	}
}

func containsEmployee(employees []string, needle string) bool {
	for _, name := range employees {
		if strings.ToLower(strings.TrimSpace(name)) == needle {
			return true
		}
	}
	return false
}

func containsString(values []string, v string) bool {
	for _, existing := range values {
		if existing == v {
			return true
		}
	}
	return false
}
