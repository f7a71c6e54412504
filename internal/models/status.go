package models

import (
	"fmt"
	"strings"
)

// Report status codes.
const (
	StatusScheduled = 0
	StatusInProcess = 1
	StatusCompleted = 2
	StatusSuspended = 6
	StatusError     = 7

	// StatusScheduledOrInProcess only appears in list filters and matches 0 and 1.
	StatusScheduledOrInProcess = 8
)

var errorStatuses = map[int]bool{3: true, 4: true, 5: true, 7: true, 23: true}

// IsErrorStatus reports whether code is one of the execution error codes.
func IsErrorStatus(code int) bool {
	return errorStatuses[code]
}

// StatusLabel renders a status code for display.
func StatusLabel(code int) string {
	switch {
	case code == StatusScheduled:
		return "Scheduled"
	case code == StatusInProcess:
		return "In Process"
	case code == StatusCompleted:
		return "Completed"
	case code == StatusSuspended:
		return "Suspended"
	case code == StatusScheduledOrInProcess:
		return "Scheduled/In Process"
	case IsErrorStatus(code):
		return "Error"
	}
	return "—"
}

// MatchesStatus reports whether a report status passes a status filter.
func MatchesStatus(filter, status int) bool {
	switch filter {
	case StatusScheduledOrInProcess:
		return status == StatusScheduled || status == StatusInProcess
	case StatusError:
		return IsErrorStatus(status)
	}
	return filter == status
}

// Schedule type filter codes.
const (
	TypeAdhoc    = 1
	TypeByMinute = 2
	TypeHourly   = 3
	TypeWeekly   = 4
	TypeMonthly  = 5
)

// Weekday numbers days the way the backend does, Sunday=1.
type Weekday int

const (
	Sunday Weekday = iota + 1
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var weekdayNames = [...]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

func (d Weekday) Valid() bool {
	return d >= Sunday && d <= Saturday
}

func (d Weekday) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return weekdayNames[d-1]
}

// Short returns the three letter abbreviation.
func (d Weekday) Short() string {
	return d.String()[:3]
}

// ParseWeekday accepts a full or abbreviated English name or the 1-7 number.
func ParseWeekday(s string) (Weekday, error) {
	s = strings.TrimSpace(s)
	for i, name := range weekdayNames {
		if strings.EqualFold(s, name) || strings.EqualFold(s, name[:3]) {
			return Weekday(i + 1), nil
		}
	}
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err == nil && Weekday(n).Valid() {
		return Weekday(n), nil
	}
	return 0, fmt.Errorf("invalid weekday %q", s)
}
