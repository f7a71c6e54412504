package schedule

import (
	"testing"
	"time"

	"github.com/guregu/null/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reportconsole/internal/models"
)

var now = time.Date(2024, 3, 14, 15, 9, 26, 0, time.UTC)

func populated(v models.ReportView) int {
	n := 0
	if v.Adhoc != nil {
		n++
	}
	if v.Minute != nil {
		n++
	}
	if v.Hour != nil {
		n++
	}
	if v.Week != nil {
		n++
	}
	if v.Month != nil {
		n++
	}
	return n
}

func TestWithKindPopulatesExactlyOneVariant(t *testing.T) {
	start := models.ReportView{
		Report: models.Report{ID: 42},
		Month:  &models.Month{DayOfMonth: 15},
		Week:   &models.Week{Sunday: true},
		Minute: &models.Minute{StatusID: 5},
	}

	for _, kind := range Kinds {
		t.Run(string(kind), func(t *testing.T) {
			v, err := WithKind(start, kind, now)
			require.NoError(t, err)
			assert.Equal(t, 1, populated(v))
			assert.Equal(t, kind, Classify(v))
		})
	}

	assert.Equal(t, 3, populated(start), "input is not modified")
}

func TestWithKindDefaults(t *testing.T) {
	base := models.ReportView{Report: models.Report{ID: 42}}

	v, err := WithKind(base, KindMonthly, now)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Month.DayOfMonth)
	assert.Equal(t, null.IntFrom(1), v.Month.RecurrenceMonths)
	assert.Equal(t, null.IntFrom(0), v.Month.RunHour)
	assert.Equal(t, null.IntFrom(0), v.Month.RunMinute)
	assert.Equal(t, 42, v.Month.ReportID)

	v, err = WithKind(base, KindWeekly, now)
	require.NoError(t, err)
	assert.Equal(t, [7]bool{false, true, true, true, true, true, false}, v.Week.Days())
	assert.Equal(t, null.IntFrom(0), v.Week.RunHour)
	assert.Equal(t, null.IntFrom(0), v.Week.RunMinute)

	v, err = WithKind(base, KindHourly, now)
	require.NoError(t, err)
	assert.Equal(t, null.IntFrom(1), v.Hour.RecurrenceHours)
	assert.Equal(t, null.IntFrom(0), v.Hour.RunHourStart)
	assert.Equal(t, null.IntFrom(0), v.Hour.RunMinute)

	v, err = WithKind(base, KindByMinute, now)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Minute.StatusID)

	v, err = WithKind(base, KindAdhoc, now)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-14T00:00:00", v.Adhoc.DateTime)

	_, err = WithKind(base, Kind("Yearly"), now)
	assert.Error(t, err)
}

func TestClassifyPrecedence(t *testing.T) {
	assert.Equal(t, KindAdhoc, Classify(models.ReportView{}))
	assert.Equal(t, KindByMinute, Classify(models.ReportView{Minute: &models.Minute{}, Adhoc: &models.Adhoc{}}))
	assert.Equal(t, KindHourly, Classify(models.ReportView{Hour: &models.Hour{}, Minute: &models.Minute{}}))
	assert.Equal(t, KindWeekly, Classify(models.ReportView{Week: &models.Week{}, Hour: &models.Hour{}}))
	assert.Equal(t, KindMonthly, Classify(models.ReportView{Month: &models.Month{}, Week: &models.Week{}}))
}

func TestKindCodes(t *testing.T) {
	for _, k := range Kinds {
		got, ok := KindFromType(k.Type())
		require.True(t, ok)
		assert.Equal(t, k, got)
	}
	_, ok := KindFromType(0)
	assert.False(t, ok)

	k, err := ParseKind("by-minute")
	require.NoError(t, err)
	assert.Equal(t, KindByMinute, k)
	k, err = ParseKind("Ad Hoc")
	require.NoError(t, err)
	assert.Equal(t, KindAdhoc, k)
	_, err = ParseKind("fortnightly")
	assert.Error(t, err)
}

func TestTwelveHourRoundTrip(t *testing.T) {
	for hour := 0; hour < 24; hour++ {
		h12, ampm := To12(hour)
		want := hour % 12
		if want == 0 {
			want = 12
		}
		assert.Equal(t, want, h12, "hour %d", hour)
		if hour >= 12 {
			assert.Equal(t, PM, ampm)
		} else {
			assert.Equal(t, AM, ampm)
		}

		back, err := To24(h12, ampm)
		require.NoError(t, err)
		assert.Equal(t, hour, back)
	}

	_, err := To24(0, AM)
	assert.Error(t, err)
	_, err = To24(5, "XM")
	assert.Error(t, err)
}

func TestAdhocClock(t *testing.T) {
	v := models.ReportView{Adhoc: &models.Adhoc{DateTime: "2024-03-14T00:05:00"}}
	c, err := AdhocClock(v)
	require.NoError(t, err)
	assert.Equal(t, Clock{Date: "2024-03-14", Hour: 12, Minute: 5, AMPM: AM}, c)

	c.Hour, c.AMPM = 1, PM
	out, err := WithAdhocClock(v, c)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-14T13:05:00", out.Adhoc.DateTime)
	assert.Equal(t, "2024-03-14T00:05:00", v.Adhoc.DateTime)

	_, err = AdhocClock(models.ReportView{})
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		view models.ReportView
		want string
	}{
		{"monthly", models.ReportView{Month: &models.Month{RunHour: null.IntFrom(0), RunMinute: null.IntFrom(5)}}, "Every month at 12:05 AM"},
		{"every three months", models.ReportView{Month: &models.Month{RecurrenceMonths: null.IntFrom(3), RunHour: null.IntFrom(14), RunMinute: null.IntFrom(30)}}, "Every 3 months at 2:30 PM"},
		{"weekly days", models.ReportView{Week: &models.Week{Monday: true, Wednesday: true, RunHour: null.IntFrom(7)}}, "Mon,Wed at 7:00 AM"},
		{"weekly no days", models.ReportView{Week: &models.Week{RunHour: null.IntFrom(12)}}, "Weekly at 12:00 PM"},
		{"hourly raw", models.ReportView{Hour: &models.Hour{RecurrenceHours: null.IntFrom(2), RunHourStart: null.IntFrom(8), RunHourEnd: null.IntFrom(17)}}, "Every 2 hour(s) between 8 and 17"},
		{"by minute", models.ReportView{Minute: &models.Minute{StatusID: 15}}, "Every 15 minute(s)"},
		{"adhoc", models.ReportView{Adhoc: &models.Adhoc{DateTime: "2024-03-14T00:00:00"}}, "Adhoc"},
		{"nothing", models.ReportView{}, "—"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(tt.view))
		})
	}
}

func TestDescribeDetail(t *testing.T) {
	hourly := models.ReportView{Hour: &models.Hour{RecurrenceHours: null.IntFrom(2), RunHourStart: null.IntFrom(8), RunHourEnd: null.IntFrom(17)}}
	assert.Equal(t, "Every 2 hour(s) at minute 0 between 8:00 AM and 5:00 PM", DescribeDetail(hourly))

	lastFriday := models.ReportView{Month: &models.Month{WeekNo: models.LastWeekNo, WeekDay: null.StringFrom("Friday"), RunHour: null.IntFrom(18)}}
	assert.Equal(t, "The last Friday of every month at 6:00 PM", DescribeDetail(lastFriday))

	adhoc := models.ReportView{Adhoc: &models.Adhoc{DateTime: "2024-03-14T13:05:00"}}
	assert.Equal(t, "Once on 2024-03-14 at 1:05 PM", DescribeDetail(adhoc))

	weekly := models.ReportView{Week: &models.Week{Tuesday: true, Thursday: true, RunHour: null.IntFrom(9)}}
	assert.Equal(t, "Every Tuesday, Thursday at 9:00 AM", DescribeDetail(weekly))
}

func TestCronSpec(t *testing.T) {
	spec, err := CronSpec(models.ReportView{Week: &models.Week{Monday: true, Friday: true, RunHour: null.IntFrom(7), RunMinute: null.IntFrom(30)}})
	require.NoError(t, err)
	assert.Equal(t, "30 7 * * 1,5", spec)

	spec, err = CronSpec(models.ReportView{Minute: &models.Minute{StatusID: 10}})
	require.NoError(t, err)
	assert.Equal(t, "@every 10m", spec)

	_, err = CronSpec(models.ReportView{Adhoc: &models.Adhoc{}})
	assert.ErrorIs(t, err, ErrNotCronExpressible)

	_, err = CronSpec(models.ReportView{Week: &models.Week{}})
	assert.Error(t, err)
}

func TestNextRun(t *testing.T) {
	// 2024-03-14 is a Thursday.
	weekly := models.ReportView{Week: &models.Week{Monday: true, RunHour: null.IntFrom(7), RunMinute: null.IntFrom(30)}}
	next, err := NextRun(weekly, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 18, 7, 30, 0, 0, time.UTC), next)

	monthly := models.ReportView{Month: &models.Month{DayOfMonth: 1, RecurrenceMonths: null.IntFrom(1), RunHour: null.IntFrom(6), RunMinute: null.IntFrom(0)}}
	next, err = NextRun(monthly, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 4, 1, 6, 0, 0, 0, time.UTC), next)

	lastFriday := models.ReportView{Month: &models.Month{WeekNo: models.LastWeekNo, WeekDay: null.StringFrom("Friday"), RunHour: null.IntFrom(18)}}
	next, err = NextRun(lastFriday, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 29, 18, 0, 0, 0, time.UTC), next)

	secondMonday := models.ReportView{Month: &models.Month{WeekNo: 2, WeekDay: null.StringFrom("2")}}
	next, err = NextRun(secondMonday, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 4, 8, 0, 0, 0, 0, time.UTC), next)

	past := models.ReportView{Adhoc: &models.Adhoc{DateTime: "2024-01-01T00:00:00"}}
	_, err = NextRun(past, now)
	assert.ErrorIs(t, err, ErrNoNextRun)

	future := models.ReportView{Adhoc: &models.Adhoc{DateTime: "2024-03-20T09:00:00"}}
	next, err = NextRun(future, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC), next)
}
