package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/reportconsole/internal/models"
)

const (
	AM = "AM"
	PM = "PM"
)

// To12 converts an hour of day to the 12-hour clock.
func To12(hour int) (int, string) {
	ampm := AM
	if hour >= 12 {
		ampm = PM
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}
	return h, ampm
}

// To24 converts a 12-hour clock reading back to an hour of day.
func To24(hour12 int, ampm string) (int, error) {
	if hour12 < 1 || hour12 > 12 {
		return 0, fmt.Errorf("hour %d outside 1-12", hour12)
	}
	switch strings.ToUpper(strings.TrimSpace(ampm)) {
	case AM:
		return hour12 % 12, nil
	case PM:
		return hour12%12 + 12, nil
	}
	return 0, fmt.Errorf("invalid meridiem %q", ampm)
}

// PrettyTime renders "h:mm AM".
func PrettyTime(hour, minute int) string {
	h, ampm := To12(hour)
	return fmt.Sprintf("%d:%02d %s", h, minute, ampm)
}

// Clock is the 12-hour form of an ad hoc run.
type Clock struct {
	Date   string
	Hour   int
	Minute int
	AMPM   string
}

func (c Clock) String() string {
	return fmt.Sprintf("%s %d:%02d %s", c.Date, c.Hour, c.Minute, c.AMPM)
}

// AdhocClock derives the 12-hour display of the ad hoc timestamp.
func AdhocClock(v models.ReportView) (Clock, error) {
	if v.Adhoc == nil {
		return Clock{}, fmt.Errorf("report %d has no ad hoc schedule", v.ID)
	}
	t, err := models.ParseTimestamp(v.Adhoc.DateTime, time.Local)
	if err != nil {
		return Clock{}, err
	}
	h, ampm := To12(t.Hour())
	return Clock{Date: t.Format("2006-01-02"), Hour: h, Minute: t.Minute(), AMPM: ampm}, nil
}

// WithAdhocClock writes a 12-hour reading back into the ad hoc timestamp.
func WithAdhocClock(v models.ReportView, c Clock) (models.ReportView, error) {
	if v.Adhoc == nil {
		return v, fmt.Errorf("report %d has no ad hoc schedule", v.ID)
	}
	hour, err := To24(c.Hour, c.AMPM)
	if err != nil {
		return v, err
	}
	if c.Minute < 0 || c.Minute > 59 {
		return v, fmt.Errorf("minute %d outside 0-59", c.Minute)
	}
	day, err := time.ParseInLocation("2006-01-02", c.Date, time.Local)
	if err != nil {
		return v, fmt.Errorf("invalid date %q: %w", c.Date, err)
	}
	out := v.Clone()
	at := time.Date(day.Year(), day.Month(), day.Day(), hour, c.Minute, 0, 0, time.Local)
	out.Adhoc.DateTime = models.FormatTimestamp(at)
	return out, nil
}
