package reportedit

import (
	"testing"
	"time"

	"github.com/guregu/null/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reportconsole/internal/models"
	"github.com/reportconsole/internal/schedule"
)

var now = time.Date(2024, 3, 14, 15, 9, 26, 0, time.UTC)

func baseView() models.ReportView {
	return models.ReportView{
		Report: models.Report{ID: 5, Name: "Daily Sales", ConnectionID: 12, SQL: "SELECT 1"},
		Week:   &models.Week{ReportID: 5, Monday: true, RunHour: null.IntFrom(7)},
		Exports: []models.ExportComplex{
			{Export: models.Export{ID: 31, Location: null.StringFrom("/out"), Name: null.StringFrom("sales")}},
		},
		EmailLists: []models.EmailList{
			{ID: 77, ReportID: 5, SendType: null.StringFrom("To"), Address: null.StringFrom("a@example.com")},
		},
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	v := baseView()
	out, err := Apply(v, Rename("Weekly Sales"), SetWeekly([]models.Weekday{models.Friday}, 18, 30))
	require.NoError(t, err)

	assert.Equal(t, "Weekly Sales", out.Name)
	assert.True(t, out.Week.Friday)
	assert.False(t, out.Week.Monday)
	assert.Equal(t, null.IntFrom(18), out.Week.RunHour)

	assert.Equal(t, "Daily Sales", v.Name)
	assert.True(t, v.Week.Monday)
	assert.Equal(t, null.IntFrom(7), v.Week.RunHour)
}

func TestApplyStopsOnError(t *testing.T) {
	v := baseView()
	out, err := Apply(v, Rename("Changed"), SetWeekly(nil, 24, 0))
	assert.Error(t, err)
	assert.Equal(t, v, out)
}

func TestSetFrequencySwitchesVariant(t *testing.T) {
	out, err := Apply(baseView(), SetFrequency(schedule.KindHourly, now))
	require.NoError(t, err)
	assert.Nil(t, out.Week)
	require.NotNil(t, out.Hour)
	assert.Equal(t, schedule.KindHourly, schedule.Classify(out))
}

func TestScheduleSetters(t *testing.T) {
	out, err := Apply(baseView(), SetMonthly(MonthlyRule{WeekNo: models.LastWeekNo, WeekDay: models.Friday, Every: 2, Hour: 6}))
	require.NoError(t, err)
	assert.Nil(t, out.Week)
	assert.Equal(t, "The last Friday of every 2 months at 6:00 AM", schedule.DescribeDetail(out))

	out, err = Apply(out, SetMonthly(MonthlyRule{Day: 15, Every: 1, Hour: 23, Minute: 59}))
	require.NoError(t, err)
	assert.Equal(t, 15, out.Month.DayOfMonth)
	assert.False(t, out.Month.NthWeekday())

	out, err = Apply(out, SetHourly(3, 8, 17, 15))
	require.NoError(t, err)
	assert.Equal(t, "Every 3 hour(s) between 8 and 17", schedule.Describe(out))

	out, err = Apply(out, SetByMinute(20))
	require.NoError(t, err)
	assert.Equal(t, "Every 20 minute(s)", schedule.Describe(out))

	at := time.Date(2024, 4, 1, 9, 45, 0, 0, time.UTC)
	out, err = Apply(out, SetAdhoc(at))
	require.NoError(t, err)
	assert.Equal(t, "2024-04-01T09:45:00", out.Adhoc.DateTime)
	assert.Nil(t, out.Minute)

	_, err = Apply(out, SetMonthly(MonthlyRule{Day: 32, Every: 1}))
	assert.Error(t, err)
	_, err = Apply(out, SetHourly(0, 1, 2, 0))
	assert.Error(t, err)
	_, err = Apply(out, SetByMinute(0))
	assert.Error(t, err)
}

func TestConnectionAndSQL(t *testing.T) {
	v := baseView()
	v.DatabaseConnection = &models.DatabaseConnection{ID: 12}

	out, err := Apply(v, SetConnection(1273), SetSQL("SELECT 2"))
	require.NoError(t, err)
	assert.Equal(t, 1273, out.ConnectionID)
	assert.Nil(t, out.DatabaseConnection)
	assert.Equal(t, "SELECT 2", out.SQL)

	_, err = Apply(v, SetConnection(0))
	assert.Error(t, err)
	_, err = Apply(v, Rename("  "))
	assert.Error(t, err)
}

func TestExports(t *testing.T) {
	out, err := Apply(baseView(), AddExport(models.Export{Location: null.StringFrom("/tmp"), Name: null.StringFrom("extra")}))
	require.NoError(t, err)
	require.Len(t, out.Exports, 2)
	assert.Equal(t, null.IntFrom(5), out.Exports[1].Export.ReportID)

	out, err = Apply(out, RemoveExport(0))
	require.NoError(t, err)
	require.Len(t, out.Exports, 1)
	assert.Equal(t, "extra", out.Exports[0].Export.Name.String)
	require.Len(t, out.ExportsToBeDeleted, 1)
	assert.Equal(t, 31, out.ExportsToBeDeleted[0].Export.ID)

	_, err = Apply(out, RemoveExport(4))
	assert.Error(t, err)
	_, err = Apply(out, AddExport(models.Export{}))
	assert.Error(t, err)
}

func TestRecipients(t *testing.T) {
	out, err := Apply(baseView(), AddRecipient("cc", "b@example.com"), AddRecipient("BCC", "A@example.com"))
	require.NoError(t, err)
	require.Len(t, out.EmailLists, 2)
	assert.Equal(t, "BCC", out.EmailLists[0].SendType.String)
	assert.Equal(t, "CC", out.EmailLists[1].SendType.String)

	out, err = Apply(out, RemoveRecipient("a@example.com"))
	require.NoError(t, err)
	require.Len(t, out.EmailLists, 1)
	require.Len(t, out.EmailListsToBeDeleted, 1)

	_, err = Apply(out, AddRecipient("Reply-To", "c@example.com"))
	assert.Error(t, err)
	_, err = Apply(out, AddRecipient("To", "nope"))
	assert.Error(t, err)
	_, err = Apply(out, RemoveRecipient("ghost@example.com"))
	assert.Error(t, err)
}

func TestSetEmail(t *testing.T) {
	out, err := Apply(baseView(), SetEmail(EmailSettings{
		Enabled: true, From: "reports@example.com", Subject: "Sales", Attachment: true,
		AttachmentName: "sales", Zip: true, ZipPassword: "s3cret",
	}))
	require.NoError(t, err)
	require.NotNil(t, out.EmailReport)
	assert.False(t, out.EmailReport.Disable)
	assert.True(t, out.EmailReport.ZipFile.Bool)

	_, err = Apply(baseView(), SetEmail(EmailSettings{Enabled: true, From: "bad"}))
	assert.Error(t, err)
	_, err = Apply(baseView(), SetEmail(EmailSettings{ZipPassword: "x"}))
	assert.Error(t, err)
}
