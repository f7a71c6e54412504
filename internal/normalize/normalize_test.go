package normalize

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/guregu/null/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reportconsole/internal/models"
)

var now = time.Date(2024, 3, 14, 15, 9, 26, 0, time.UTC)

func TestParseEditShape(t *testing.T) {
	raw := []byte(`{
		"Report": {
			"Report": {"fnReportID": 5, "fcReportName": "Daily Sales", "fnConnectionID": 0, "fnStatusID": 2},
			"DatabaseConnection": {"fnConnectionID": 1272, "fcConnectionName": "SQLScheduler"},
			"Week": {"fnReportID": 5, "fnMonday": true, "fnRunHour": 7, "fnRunMinute": 30}
		},
		"Logs": [{"LogId": "a1", "Message": "timeout"}],
		"Users": [{"fnUserID": 3, "fcFirstName": "Jane"}]
	}`)

	view, shape, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, ShapeEdit, shape)
	assert.Equal(t, 5, view.ID)
	assert.Equal(t, "Daily Sales", view.Name)
	assert.Equal(t, 1272, view.ConnectionID, "connection id back-filled from nested object")
	require.NotNil(t, view.Week)
	assert.True(t, view.Week.Monday)
	require.Len(t, view.Logs, 1)
	assert.Equal(t, "timeout", view.Logs[0].Message.String)
	require.NotNil(t, view.Status)
	assert.Equal(t, 2, view.Status.ID)
}

func TestParseComplexShape(t *testing.T) {
	raw := []byte(`{
		"Report": {"fnReportID": 9, "fcReportName": "Inventory"},
		"User": {"fnUserID": 44, "fcFirstName": "John", "fcLastName": "Doe"},
		"Month": {"fnReportID": 9, "fnDayOfMonth": 1, "fnRecurrenceMonths": 2}
	}`)

	view, shape, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, ShapeComplex, shape)
	assert.Equal(t, 9, view.ID)
	assert.Equal(t, 44, view.UserID)
	require.NotNil(t, view.Month)
	assert.Equal(t, int64(2), view.Month.RecurrenceMonths.Int64)
	assert.Equal(t, models.StatusInProcess, view.Status.ID, "status defaults to in process")
	assert.NotNil(t, view.Logs)
}

func TestParseFlatShapeUnchanged(t *testing.T) {
	in := models.ReportView{
		Report: models.Report{
			ID:           7,
			Name:         "Flat",
			ConnectionID: 12,
			SQL:          "SELECT 1",
			UserID:       3,
			StatusID:     null.IntFrom(0),
		},
		Hour:       &models.Hour{ReportID: 7, RunHourStart: null.IntFrom(8), RunHourEnd: null.IntFrom(17)},
		Exports:    []models.ExportComplex{},
		Sheets:     []models.SheetComplex{},
		EmailLists: []models.EmailList{},
	}
	raw, err := json.Marshal(in)
	require.NoError(t, err)

	view, shape, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, ShapeFlat, shape)

	want := in
	want.Status = &models.Status{ID: 0, Description: null.StringFrom("Scheduled")}
	want.Logs = []models.Log{}
	assert.Equal(t, want, view)
}

func TestParseFlatBackfillsForeignKeys(t *testing.T) {
	raw := []byte(`{"fnReportID": 3, "DatabaseConnection": {"fnConnectionID": 1273}, "User": {"fnUserID": 8}}`)

	view, _, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, 1273, view.ConnectionID)
	assert.Equal(t, 8, view.UserID)
}

func TestParseFlatWithoutIdentity(t *testing.T) {
	view, shape, err := Parse([]byte(`{"fcSQL":"SELECT 1","fnConnectionID":2}`))
	require.NoError(t, err)
	assert.Equal(t, ShapeFlat, shape)
	assert.Equal(t, "SELECT 1", view.SQL)
	assert.Equal(t, 2, view.ConnectionID)

	view, shape, err = Parse([]byte(`{"Report":{"fcSQL":"SELECT 2"},"Logs":[]}`))
	require.NoError(t, err)
	assert.Equal(t, ShapeComplex, shape)
	assert.Equal(t, "SELECT 2", view.SQL)

	got := Normalize([]byte(`{"fnConnectionID":4}`), time.Now())
	assert.Equal(t, 4, got.ConnectionID)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"empty", "", ErrEmptyPayload},
		{"null", " null ", ErrEmptyPayload},
		{"no report columns", `{"foo": 1}`, ErrUnrecognizedShape},
		{"report is scalar", `{"Report": 5}`, ErrUnrecognizedShape},
		{"inner unrecognized", `{"Report": {"foo": 1}}`, ErrUnrecognizedShape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse([]byte(tt.raw))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, _, err := Parse([]byte(`[1,2]`))
	assert.Error(t, err)
}

func TestNormalizeNeverFails(t *testing.T) {
	for _, raw := range []string{"", "null", "[]", `{"x":1}`, "{not json"} {
		view := Normalize([]byte(raw), now)
		assert.Equal(t, Empty(now), view, "input %q", raw)
	}

	empty := Empty(now)
	assert.Equal(t, int64(models.StatusInProcess), empty.StatusID.Int64)
	require.NotNil(t, empty.Adhoc)
	assert.Equal(t, "2024-03-14T00:00:00", empty.Adhoc.DateTime)
	assert.Nil(t, empty.Week)
	assert.Empty(t, empty.Logs)
	assert.Empty(t, empty.EmailLists)
}

func TestDenormalize(t *testing.T) {
	setup := models.Setup{
		Users:              []models.UserItem{{ID: 3, FirstName: "Jane", DepartmentID: 2}},
		Departments:        []models.Department{{ID: 2, Name: "Finance"}},
		DatabaseConnection: []models.DatabaseConnection{{ID: 12, Name: "Warehouse"}},
	}
	v := models.ReportView{Report: models.Report{ID: 1, ConnectionID: 12, UserID: 3}}

	out := Denormalize(v, setup)
	require.NotNil(t, out.DatabaseConnection)
	assert.Equal(t, "Warehouse", out.DatabaseConnection.Name)
	require.NotNil(t, out.User)
	assert.Equal(t, "Jane", out.User.FirstName)
	require.NotNil(t, out.Department)
	assert.Equal(t, "Finance", out.Department.Name)
	assert.Nil(t, v.DatabaseConnection, "input is not modified")
}
