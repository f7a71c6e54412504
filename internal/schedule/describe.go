package schedule

import (
	"fmt"
	"strings"

	"github.com/guregu/null/v5"

	"github.com/reportconsole/internal/models"
)

// Describe renders the schedule column of the report list.
func Describe(v models.ReportView) string {
	switch {
	case v.Month != nil:
		t := PrettyTime(intOr(v.Month.RunHour, 0), intOr(v.Month.RunMinute, 0))
		months := intOr(v.Month.RecurrenceMonths, 1)
		if months <= 1 {
			return "Every month at " + t
		}
		return fmt.Sprintf("Every %d months at %s", months, t)
	case v.Week != nil:
		t := PrettyTime(intOr(v.Week.RunHour, 0), intOr(v.Week.RunMinute, 0))
		days := weekDays(*v.Week, models.Weekday.Short)
		if len(days) == 0 {
			return "Weekly at " + t
		}
		return strings.Join(days, ",") + " at " + t
	case v.Hour != nil:
		// Window bounds stay raw hour-of-day integers here.
		return fmt.Sprintf("Every %d hour(s) between %d and %d",
			intOr(v.Hour.RecurrenceHours, 1), intOr(v.Hour.RunHourStart, 0), intOr(v.Hour.RunHourEnd, 0))
	case v.Minute != nil:
		n := v.Minute.StatusID
		if n == 0 {
			n = 1
		}
		return fmt.Sprintf("Every %d minute(s)", n)
	case v.Adhoc != nil:
		return "Adhoc"
	}
	return "—"
}

// DescribeDetail renders the schedule for the detail screen, with 12-hour
// clocks throughout.
func DescribeDetail(v models.ReportView) string {
	switch Classify(v) {
	case KindMonthly:
		m := v.Month
		t := PrettyTime(intOr(m.RunHour, 0), intOr(m.RunMinute, 0))
		every := "every month"
		if n := intOr(m.RecurrenceMonths, 1); n > 1 {
			every = fmt.Sprintf("every %d months", n)
		}
		if m.NthWeekday() {
			day := m.WeekDay.String
			if d, err := models.ParseWeekday(day); err == nil {
				day = d.String()
			}
			return fmt.Sprintf("The %s %s of %s at %s", ordinal(m.WeekNo), day, every, t)
		}
		return fmt.Sprintf("Day %d of %s at %s", m.DayOfMonth, every, t)
	case KindWeekly:
		w := v.Week
		t := PrettyTime(intOr(w.RunHour, 0), intOr(w.RunMinute, 0))
		days := weekDays(*w, models.Weekday.String)
		if len(days) == 0 {
			return "Weekly at " + t
		}
		return "Every " + strings.Join(days, ", ") + " at " + t
	case KindHourly:
		h := v.Hour
		return fmt.Sprintf("Every %d hour(s) at minute %d between %s and %s",
			intOr(h.RecurrenceHours, 1), intOr(h.RunMinute, 0),
			PrettyTime(intOr(h.RunHourStart, 0), 0), PrettyTime(intOr(h.RunHourEnd, 0), 0))
	case KindByMinute:
		return fmt.Sprintf("Every %d minute(s)", v.Minute.Interval())
	}
	if v.Adhoc == nil {
		return "—"
	}
	c, err := AdhocClock(v)
	if err != nil {
		return "Once at " + v.Adhoc.DateTime
	}
	return fmt.Sprintf("Once on %s at %d:%02d %s", c.Date, c.Hour, c.Minute, c.AMPM)
}

func weekDays(w models.Week, name func(models.Weekday) string) []string {
	var days []string
	for i, on := range w.Days() {
		if on {
			days = append(days, name(models.Weekday(i+1)))
		}
	}
	return days
}

func ordinal(weekNo int) string {
	switch weekNo {
	case 1:
		return "first"
	case 2:
		return "second"
	case 3:
		return "third"
	case 4:
		return "fourth"
	case models.LastWeekNo:
		return "last"
	}
	return fmt.Sprintf("#%d", weekNo)
}

func intOr(n null.Int, def int) int {
	if !n.Valid {
		return def
	}
	return int(n.Int64)
}
