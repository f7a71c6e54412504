package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/reportconsole/internal/models"
)

var (
	// ErrNotCronExpressible is returned for schedules a five-field cron line cannot carry.
	ErrNotCronExpressible = errors.New("schedule cannot be expressed as a cron line")
	// ErrNoNextRun is returned when the schedule will not fire after the given time.
	ErrNoNextRun = errors.New("schedule has no upcoming run")
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// CronSpec renders the schedule as a cron line. Ad hoc and nth-weekday
// monthly schedules are not expressible.
func CronSpec(v models.ReportView) (string, error) {
	switch Classify(v) {
	case KindByMinute:
		return fmt.Sprintf("@every %dm", v.Minute.Interval()), nil
	case KindHourly:
		h := v.Hour
		start, end := intOr(h.RunHourStart, 0), intOr(h.RunHourEnd, 23)
		if end < start {
			return "", fmt.Errorf("hour window %d-%d ends before it starts", start, end)
		}
		return fmt.Sprintf("%d %d-%d/%d * * *", intOr(h.RunMinute, 0), start, end, max(intOr(h.RecurrenceHours, 1), 1)), nil
	case KindWeekly:
		w := v.Week
		var dow []string
		for i, on := range w.Days() {
			if on {
				dow = append(dow, strconv.Itoa(i))
			}
		}
		if len(dow) == 0 {
			return "", fmt.Errorf("weekly schedule has no days")
		}
		return fmt.Sprintf("%d %d * * %s", intOr(w.RunMinute, 0), intOr(w.RunHour, 0), strings.Join(dow, ",")), nil
	case KindMonthly:
		m := v.Month
		if m.NthWeekday() {
			return "", ErrNotCronExpressible
		}
		day := m.DayOfMonth
		if day < 1 || day > 31 {
			return "", fmt.Errorf("day of month %d outside 1-31", day)
		}
		return fmt.Sprintf("%d %d %d */%d *", intOr(m.RunMinute, 0), intOr(m.RunHour, 0), day, max(intOr(m.RecurrenceMonths, 1), 1)), nil
	}
	return "", ErrNotCronExpressible
}

// NextRun returns the first run of v strictly after from.
func NextRun(v models.ReportView, from time.Time) (time.Time, error) {
	switch Classify(v) {
	case KindAdhoc:
		if v.Adhoc == nil {
			return time.Time{}, ErrNoNextRun
		}
		at, err := models.ParseTimestamp(v.Adhoc.DateTime, from.Location())
		if err != nil {
			return time.Time{}, err
		}
		if !at.After(from) {
			return time.Time{}, ErrNoNextRun
		}
		return at, nil
	case KindByMinute:
		return cron.Every(time.Duration(v.Minute.Interval()) * time.Minute).Next(from), nil
	case KindMonthly:
		if v.Month.NthWeekday() {
			return nextNthWeekday(*v.Month, from)
		}
	}

	spec, err := CronSpec(v)
	if err != nil {
		return time.Time{}, err
	}
	sched, err := parser.Parse(spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse cron line %q: %w", spec, err)
	}
	next := sched.Next(from)
	if next.IsZero() {
		return time.Time{}, ErrNoNextRun
	}
	return next, nil
}

func nextNthWeekday(m models.Month, from time.Time) (time.Time, error) {
	wd, err := models.ParseWeekday(m.WeekDay.String)
	if err != nil {
		return time.Time{}, err
	}
	step := max(intOr(m.RecurrenceMonths, 1), 1)
	hour, minute := intOr(m.RunHour, 0), intOr(m.RunMinute, 0)

	year, month := from.Year(), from.Month()
	for i := 0; i < 24; i++ {
		first := time.Date(year, month, 1, hour, minute, 0, 0, from.Location())
		if at, ok := nthWeekdayOf(first, time.Weekday(wd-1), m.WeekNo); ok && at.After(from) {
			return at, nil
		}
		first = first.AddDate(0, step, 0)
		year, month = first.Year(), first.Month()
	}
	return time.Time{}, ErrNoNextRun
}

// nthWeekdayOf returns the n-th wd of first's month; n == LastWeekNo picks the last one.
func nthWeekdayOf(first time.Time, wd time.Weekday, n int) (time.Time, bool) {
	offset := (int(wd) - int(first.Weekday()) + 7) % 7
	at := first.AddDate(0, 0, offset)
	if n == models.LastWeekNo {
		for at.AddDate(0, 0, 7).Month() == first.Month() {
			at = at.AddDate(0, 0, 7)
		}
		return at, true
	}
	if n < 1 {
		return time.Time{}, false
	}
	at = at.AddDate(0, 0, 7*(n-1))
	return at, at.Month() == first.Month()
}
