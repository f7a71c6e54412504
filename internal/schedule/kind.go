// Package schedule classifies, rewrites and describes the recurrence
// sub-objects of a report.
package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/guregu/null/v5"

	"github.com/reportconsole/internal/models"
)

// Kind is one of the five schedule variants.
type Kind string

const (
	KindAdhoc    Kind = "Ad Hoc"
	KindMonthly  Kind = "Monthly"
	KindWeekly   Kind = "Weekly"
	KindHourly   Kind = "Hourly"
	KindByMinute Kind = "By Minute"
)

// Kinds lists every kind in classification order.
var Kinds = []Kind{KindMonthly, KindWeekly, KindHourly, KindByMinute, KindAdhoc}

// ParseKind accepts the display names as well as short forms like "adhoc" or "minute".
func ParseKind(s string) (Kind, error) {
	key := strings.ToLower(strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s))
	switch key {
	case "adhoc", "once":
		return KindAdhoc, nil
	case "monthly", "month":
		return KindMonthly, nil
	case "weekly", "week":
		return KindWeekly, nil
	case "hourly", "hour":
		return KindHourly, nil
	case "byminute", "minute", "minutes":
		return KindByMinute, nil
	}
	return "", fmt.Errorf("unknown schedule kind %q", s)
}

// KindFromType maps a list filter type code to its kind.
func KindFromType(code int) (Kind, bool) {
	switch code {
	case models.TypeAdhoc:
		return KindAdhoc, true
	case models.TypeByMinute:
		return KindByMinute, true
	case models.TypeHourly:
		return KindHourly, true
	case models.TypeWeekly:
		return KindWeekly, true
	case models.TypeMonthly:
		return KindMonthly, true
	}
	return "", false
}

// Type returns the list filter code of k.
func (k Kind) Type() int {
	switch k {
	case KindAdhoc:
		return models.TypeAdhoc
	case KindByMinute:
		return models.TypeByMinute
	case KindHourly:
		return models.TypeHourly
	case KindWeekly:
		return models.TypeWeekly
	case KindMonthly:
		return models.TypeMonthly
	}
	return 0
}

// Classify returns the kind of the populated variant. Month wins over Week,
// Week over Hour, Hour over Minute; a report with none of them is ad hoc.
func Classify(v models.ReportView) Kind {
	switch {
	case v.Month != nil:
		return KindMonthly
	case v.Week != nil:
		return KindWeekly
	case v.Hour != nil:
		return KindHourly
	case v.Minute != nil:
		return KindByMinute
	}
	return KindAdhoc
}

// WithKind returns a copy of v with every variant cleared and only kind
// initialized to its defaults.
func WithKind(v models.ReportView, kind Kind, now time.Time) (models.ReportView, error) {
	out := v.Clone()
	out.Adhoc, out.Minute, out.Hour, out.Week, out.Month = nil, nil, nil, nil, nil

	zero := null.IntFrom(0)
	one := null.IntFrom(1)
	switch kind {
	case KindAdhoc:
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		out.Adhoc = &models.Adhoc{ReportID: v.ID, DateTime: models.FormatTimestamp(midnight)}
	case KindMonthly:
		out.Month = &models.Month{
			ReportID:         v.ID,
			DayOfMonth:       1,
			RecurrenceMonths: one,
			RunHour:          zero,
			RunMinute:        zero,
		}
	case KindWeekly:
		out.Week = &models.Week{
			ReportID:  v.ID,
			Monday:    true,
			Tuesday:   true,
			Wednesday: true,
			Thursday:  true,
			Friday:    true,
			RunHour:   zero,
			RunMinute: zero,
		}
	case KindHourly:
		out.Hour = &models.Hour{
			ReportID:        v.ID,
			RunMinute:       zero,
			RunHourStart:    zero,
			RunHourEnd:      null.IntFrom(23),
			RecurrenceHours: one,
		}
	case KindByMinute:
		out.Minute = &models.Minute{ReportID: v.ID, StatusID: 1}
	default:
		return v, fmt.Errorf("unknown schedule kind %q", kind)
	}
	return out, nil
}
