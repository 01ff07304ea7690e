package feed

import (
	"time"

	"jotter/api/internal/store"
)

// DayGroup is one calendar day's worth of notes, newest first.
type DayGroup struct {
	Label string       `json:"label"`
	Notes []store.Note `json:"notes"`
	// Count is the number of loaded notes in the group, capped at
	// pageSize-1; More marks groups at or past the cap. An approximation:
	// unloaded pages may hold more notes for the same day.
	Count int  `json:"count"`
	More  bool `json:"more"`
}

// GroupByDay buckets notes by local calendar day, preserving descending
// order within each group. Labels are "Today", "Yesterday", or a formatted
// date.
func GroupByDay(notes []store.Note, now time.Time, pageSize int) []DayGroup {
	var groups []DayGroup
	var currentDay time.Time

	for _, note := range notes {
		day := dateOf(note.CreatedAt.In(now.Location()))
		if len(groups) == 0 || !day.Equal(currentDay) {
			groups = append(groups, DayGroup{Label: dayLabel(day, now)})
			currentDay = day
		}
		groups[len(groups)-1].Notes = append(groups[len(groups)-1].Notes, note)
	}

	cap := pageSize - 1
	for i := range groups {
		n := len(groups[i].Notes)
		if cap > 0 && n >= cap {
			groups[i].Count = cap
			groups[i].More = true
		} else {
			groups[i].Count = n
		}
	}
	return groups
}

// dayLabel compares calendar dates, not elapsed hours: a note from 30
// hours ago is "Yesterday" only if its date is today minus one.
func dayLabel(day, now time.Time) string {
	today := dateOf(now)
	switch {
	case day.Equal(today):
		return "Today"
	case day.Equal(today.AddDate(0, 0, -1)):
		return "Yesterday"
	case day.Year() == today.Year():
		return day.Format("Jan 2")
	default:
		return day.Format("Jan 2, 2006")
	}
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
