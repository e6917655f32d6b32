package planner

import "time"

// StartOfWeek returns the Monday on or before the given time, as a
// date-only value at midnight UTC. The week boundary is computed in UTC
// on every path so two calls close in time always collide on the same
// cache key; users far from UTC may see the week roll over slightly
// early or late.
func StartOfWeek(now time.Time) time.Time {
	t := now.UTC()
	// time.Weekday has Sunday == 0; shift so Monday == 0.
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, time.UTC)
}

// WeekKey formats a week-start date the way the plan cache stores it.
func WeekKey(weekStart time.Time) string {
	return weekStart.Format("2006-01-02")
}
