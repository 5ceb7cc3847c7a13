package status

import (
	"time"

	"lifeline/internal/models"
)

// DayKeyLayout is the key format of the upcoming-events map
const DayKeyLayout = "2006-01-02"

// NextDays returns n consecutive days starting at today, truncated to midnight in today's location
func NextDays(today time.Time, n int) []time.Time {
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	days := make([]time.Time, n)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

// DayKey returns the YYYY-MM-DD key of t
func DayKey(t time.Time) string {
	return t.Format(DayKeyLayout)
}

// DayLabel returns "Today", "Tomorrow" or the short weekday name
func DayLabel(d, today time.Time) string {
	switch DayKey(d) {
	case DayKey(today):
		return "Today"
	case DayKey(today.AddDate(0, 0, 1)):
		return "Tomorrow"
	default:
		return d.Format("Mon")
	}
}

// IsAllDay reports whether ev carries a date but no dateTime
func IsAllDay(ev *models.CalendarEvent) bool {
	return ev.Start != nil && ev.Start.Date != "" && ev.Start.DateTime == ""
}

// EventTime returns "All day" or the 12-hour start time of ev in loc
func EventTime(ev *models.CalendarEvent, loc *time.Location) string {
	if ev == nil || ev.Start == nil {
		return ""
	}
	if IsAllDay(ev) {
		return "All day"
	}
	t, err := time.Parse(time.RFC3339, ev.Start.DateTime)
	if err != nil {
		return ""
	}
	return t.In(loc).Format("3:04 PM")
}

// EventRange formats the start and end of ev for the detail view
func EventRange(ev *models.CalendarEvent, loc *time.Location) string {
	if ev == nil || ev.Start == nil {
		return ""
	}
	if IsAllDay(ev) {
		start, err := time.Parse(DayKeyLayout, ev.Start.Date)
		if err != nil {
			return ev.Start.Date
		}
		return start.Format("Mon, Jan 2") + " (All day)"
	}
	start, err := time.Parse(time.RFC3339, ev.Start.DateTime)
	if err != nil {
		return ev.Start.DateTime
	}
	out := start.In(loc).Format("Mon, Jan 2 3:04 PM")
	if ev.End != nil && ev.End.DateTime != "" {
		if end, err := time.Parse(time.RFC3339, ev.End.DateTime); err == nil {
			out += " - " + end.In(loc).Format("3:04 PM")
		}
	}
	return out
}
