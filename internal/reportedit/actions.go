// Package reportedit applies explicit edit actions to a report view. Every
// Apply works on a copy, so the caller's view never changes.
package reportedit

import (
	"fmt"
	"strings"
	"time"

	"github.com/guregu/null/v5"

	"github.com/reportconsole/internal/models"
	"github.com/reportconsole/internal/schedule"
)

// Action edits a view in place. Actions only ever see the copy made by Apply.
type Action func(v *models.ReportView) error

// Apply clones v and runs the actions in order. The first failing action
// aborts the edit and the original view is returned with the error.
func Apply(v models.ReportView, actions ...Action) (models.ReportView, error) {
	out := v.Clone()
	for _, act := range actions {
		if err := act(&out); err != nil {
			return v, err
		}
	}
	return out, nil
}

func Rename(name string) Action {
	return func(v *models.ReportView) error {
		name = strings.TrimSpace(name)
		if name == "" {
			return fmt.Errorf("report name is required")
		}
		v.Name = name
		return nil
	}
}

func SetSQL(sql string) Action {
	return func(v *models.ReportView) error {
		v.SQL = sql
		return nil
	}
}

// SetConnection points the report at another connection. The linked object
// is dropped when it no longer matches.
func SetConnection(id int) Action {
	return func(v *models.ReportView) error {
		if id <= 0 {
			return fmt.Errorf("invalid connection id %d", id)
		}
		v.ConnectionID = id
		if v.DatabaseConnection != nil && v.DatabaseConnection.ID != id {
			v.DatabaseConnection = nil
		}
		return nil
	}
}

// SetFrequency switches the schedule kind, resetting the variant to defaults.
func SetFrequency(kind schedule.Kind, now time.Time) Action {
	return func(v *models.ReportView) error {
		out, err := schedule.WithKind(*v, kind, now)
		if err != nil {
			return err
		}
		*v = out
		return nil
	}
}

func ensureKind(v *models.ReportView, kind schedule.Kind, now time.Time) error {
	if schedule.Classify(*v) == kind && populated(v, kind) {
		return nil
	}
	return SetFrequency(kind, now)(v)
}

func populated(v *models.ReportView, kind schedule.Kind) bool {
	switch kind {
	case schedule.KindAdhoc:
		return v.Adhoc != nil
	case schedule.KindMonthly:
		return v.Month != nil
	case schedule.KindWeekly:
		return v.Week != nil
	case schedule.KindHourly:
		return v.Hour != nil
	case schedule.KindByMinute:
		return v.Minute != nil
	}
	return false
}

func checkClock(hour, minute int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("hour %d outside 0-23", hour)
	}
	if minute < 0 || minute > 59 {
		return fmt.Errorf("minute %d outside 0-59", minute)
	}
	return nil
}

// SetAdhoc schedules a single run at at.
func SetAdhoc(at time.Time) Action {
	return func(v *models.ReportView) error {
		if err := ensureKind(v, schedule.KindAdhoc, at); err != nil {
			return err
		}
		v.Adhoc.DateTime = models.FormatTimestamp(at)
		return nil
	}
}

// MonthlyRule is either a fixed day (Day) or the WeekNo-th WeekDay of the month.
type MonthlyRule struct {
	Day     int
	WeekNo  int
	WeekDay models.Weekday
	Every   int
	Hour    int
	Minute  int
}

func SetMonthly(r MonthlyRule) Action {
	return func(v *models.ReportView) error {
		if err := checkClock(r.Hour, r.Minute); err != nil {
			return err
		}
		if r.Every < 1 {
			return fmt.Errorf("month recurrence %d must be at least 1", r.Every)
		}
		nth := r.WeekNo != 0
		if nth {
			if r.WeekNo < 1 || r.WeekNo > models.LastWeekNo || !r.WeekDay.Valid() {
				return fmt.Errorf("invalid weekday rule %d/%d", r.WeekNo, r.WeekDay)
			}
		} else if r.Day < 1 || r.Day > 31 {
			return fmt.Errorf("day of month %d outside 1-31", r.Day)
		}
		if err := ensureKind(v, schedule.KindMonthly, time.Now()); err != nil {
			return err
		}
		m := v.Month
		m.RecurrenceMonths = null.IntFrom(int64(r.Every))
		m.RunHour = null.IntFrom(int64(r.Hour))
		m.RunMinute = null.IntFrom(int64(r.Minute))
		if nth {
			m.DayOfMonth = 0
			m.WeekNo = r.WeekNo
			m.WeekDay = null.StringFrom(r.WeekDay.String())
			m.OnDays = null.StringFrom("1")
		} else {
			m.DayOfMonth = r.Day
			m.WeekNo = 0
			m.WeekDay = null.String{}
			m.OnDays = null.String{}
		}
		return nil
	}
}

// SetWeekly replaces the day mask and run time.
func SetWeekly(days []models.Weekday, hour, minute int) Action {
	return func(v *models.ReportView) error {
		if err := checkClock(hour, minute); err != nil {
			return err
		}
		for _, d := range days {
			if !d.Valid() {
				return fmt.Errorf("invalid weekday %d", d)
			}
		}
		if err := ensureKind(v, schedule.KindWeekly, time.Now()); err != nil {
			return err
		}
		w := v.Week
		for d := models.Sunday; d <= models.Saturday; d++ {
			w.SetDay(d, false)
		}
		for _, d := range days {
			w.SetDay(d, true)
		}
		w.RunHour = null.IntFrom(int64(hour))
		w.RunMinute = null.IntFrom(int64(minute))
		return nil
	}
}

// SetHourly runs every `every` hours at minute inside [start, end].
func SetHourly(every, start, end, minute int) Action {
	return func(v *models.ReportView) error {
		if err := checkClock(start, minute); err != nil {
			return err
		}
		if err := checkClock(end, 0); err != nil {
			return err
		}
		if every < 1 || every > 23 {
			return fmt.Errorf("hour recurrence %d outside 1-23", every)
		}
		if err := ensureKind(v, schedule.KindHourly, time.Now()); err != nil {
			return err
		}
		h := v.Hour
		h.RecurrenceHours = null.IntFrom(int64(every))
		h.RunHourStart = null.IntFrom(int64(start))
		h.RunHourEnd = null.IntFrom(int64(end))
		h.RunMinute = null.IntFrom(int64(minute))
		return nil
	}
}

func SetByMinute(every int) Action {
	return func(v *models.ReportView) error {
		if every < 1 {
			return fmt.Errorf("minute interval %d must be at least 1", every)
		}
		if err := ensureKind(v, schedule.KindByMinute, time.Now()); err != nil {
			return err
		}
		v.Minute.StatusID = every
		return nil
	}
}
