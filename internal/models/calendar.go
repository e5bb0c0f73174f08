package models

import (
	"strings"
	"time"
)

// Holiday is immutable reference data consulted by due-date computation.
type Holiday struct {
	ID    int64     `db:"id" json:"id"`
	Title string    `db:"title" json:"title"`
	Date  time.Time `db:"date" json:"date"`
}

// WeekendConfig is the set of weekday names treated as non-business days.
type WeekendConfig struct {
	ID        int64     `db:"id" json:"id"`
	Days      string    `db:"days" json:"-"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Weekdays parses the stored comma-joined day names into a weekday set.
// Unknown names are ignored.
func (w WeekendConfig) Weekdays() map[time.Weekday]bool {
	set := make(map[time.Weekday]bool)
	for _, part := range strings.Split(w.Days, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if day, ok := weekdayNames[name]; ok {
			set[day] = true
		}
	}
	return set
}

// DayNames returns the configured weekend day names in stored order.
func (w WeekendConfig) DayNames() []string {
	if strings.TrimSpace(w.Days) == "" {
		return nil
	}
	parts := strings.Split(w.Days, ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		if name := strings.ToLower(strings.TrimSpace(part)); name != "" {
			names = append(names, name)
		}
	}
	return names
}
