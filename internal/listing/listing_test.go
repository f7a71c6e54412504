package listing

import (
	"testing"

	"github.com/guregu/null/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reportconsole/internal/models"
	"github.com/reportconsole/internal/schedule"
)

func sampleList() models.ReportList {
	return models.ReportList{
		Reports: []models.ReportComplex{
			{
				Report: models.Report{ID: 1, Name: "Daily Sales", ConnectionID: 1272, UserID: 44, StatusID: null.IntFrom(1), RunDate: null.StringFrom("2024-03-13T07:00:00")},
				Week:   &models.Week{Monday: true, Friday: true, RunHour: null.IntFrom(7)},
				User:   &models.UserItem{ID: 44, DepartmentID: 2},
			},
			{
				Report:             models.Report{ID: 2, Name: "inventory", ConnectionID: 1273, UserID: 45, StatusID: null.IntFrom(2), RunDate: null.StringFrom("2024-03-10T01:00:00")},
				Month:              &models.Month{DayOfMonth: 15},
				DatabaseConnection: &models.DatabaseConnection{ID: 1273, DataSource: "sql02"},
			},
			{
				Report: models.Report{ID: 3, Name: "Audit", ConnectionID: 1272, UserID: 44, StatusID: null.IntFrom(6)},
				Minute: &models.Minute{StatusID: 5},
			},
			{
				Report: models.Report{ID: 4, Name: "Errors", ConnectionID: 1274, UserID: 46, StatusID: null.IntFrom(23)},
				Adhoc:  &models.Adhoc{DateTime: "2024-03-20T00:00:00"},
			},
			{
				Report: models.Report{ID: 5, Name: "Backlog", ConnectionID: 1274, UserID: 46, StatusID: null.IntFrom(0)},
			},
		},
		DatabaseConnection: []models.DatabaseConnection{
			{ID: 1272, DataSource: "sql01"},
			{ID: 1274, DataSource: "sql01"},
		},
	}
}

func ids(l models.ReportList) []int {
	out := make([]int, 0, len(l.Reports))
	for _, r := range l.Reports {
		out = append(out, r.Report.ID)
	}
	return out
}

func TestStatusScheduledOrInProcess(t *testing.T) {
	q := models.DefaultReportQueryOptions()
	q.Status = null.IntFrom(models.StatusScheduledOrInProcess)

	out := Apply(sampleList(), q)
	assert.Equal(t, []int{1, 5}, ids(out))
	assert.Equal(t, 2, out.Total)

	row := models.FromComplex(out.Reports[0])
	assert.Equal(t, "Mon,Fri at 7:00 AM", schedule.Describe(row))
}

func TestFilters(t *testing.T) {
	tests := []struct {
		name string
		edit func(q *models.ReportQueryOptions)
		want []int
	}{
		{"no filter", func(q *models.ReportQueryOptions) {}, []int{1, 2, 3, 4, 5}},
		{"error status", func(q *models.ReportQueryOptions) { q.Status = null.IntFrom(7) }, []int{4}},
		{"suspended", func(q *models.ReportQueryOptions) { q.Status = null.IntFrom(6) }, []int{3}},
		{"weekly", func(q *models.ReportQueryOptions) { q.Type = null.IntFrom(models.TypeWeekly) }, []int{1}},
		{"adhoc includes unscheduled", func(q *models.ReportQueryOptions) { q.Type = null.IntFrom(models.TypeAdhoc) }, []int{4, 5}},
		{"friday", func(q *models.ReportQueryOptions) { q.TypeDayOfWeek = null.IntFrom(int64(models.Friday)) }, []int{1}},
		{"day 15", func(q *models.ReportQueryOptions) { q.TypeDayOfMonth = null.IntFrom(15) }, []int{2}},
		{"user", func(q *models.ReportQueryOptions) { q.User = null.IntFrom(44) }, []int{1, 3}},
		{"department", func(q *models.ReportQueryOptions) { q.Department = null.IntFrom(2) }, []int{1}},
		{"database", func(q *models.ReportQueryOptions) { q.Database = "1274" }, []int{4, 5}},
		{"server", func(q *models.ReportQueryOptions) { q.Server = "SQL01" }, []int{1, 3, 4, 5}},
		{"search name", func(q *models.ReportQueryOptions) { q.SearchTerm = "SALES" }, []int{1}},
		{"search id", func(q *models.ReportQueryOptions) { q.SearchTerm = "3" }, []int{3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := models.DefaultReportQueryOptions()
			tt.edit(&q)
			assert.Equal(t, tt.want, ids(Apply(sampleList(), q)))
		})
	}
}

func TestOrdering(t *testing.T) {
	q := models.DefaultReportQueryOptions()

	q.OrderBy = models.OrderByName
	assert.Equal(t, []int{3, 5, 1, 4, 2}, ids(Apply(sampleList(), q)))

	q.OrderBy = models.OrderByRunDate
	assert.Equal(t, []int{3, 4, 5, 2, 1}, ids(Apply(sampleList(), q)))

	q.OrderBy = models.OrderByStatus
	q.OrderByReverse = true
	assert.Equal(t, []int{4, 3, 2, 1, 5}, ids(Apply(sampleList(), q)))
}

func TestPaging(t *testing.T) {
	q := models.DefaultReportQueryOptions()
	q.Take = 2
	q.Skip = 2
	out := Apply(sampleList(), q)
	assert.Equal(t, []int{3, 4}, ids(out))
	assert.Equal(t, 5, out.Total)

	q.Skip = 10
	out = Apply(sampleList(), q)
	assert.Empty(t, out.Reports)
	assert.NotNil(t, out.Reports)

	in := sampleList()
	Apply(in, q)
	assert.Len(t, in.Reports, 5, "input list untouched")
}

func TestPager(t *testing.T) {
	assert.Equal(t, 1, Pager{Total: 0, Take: 10}.TotalPages())

	p := Pager{Total: 95, Take: 10, Skip: 40}
	assert.Equal(t, 10, p.TotalPages())
	assert.Equal(t, 5, p.Current())
	assert.Equal(t, []int{3, 4, 5, 6, 7}, p.Window())
	assert.Equal(t, 90, p.Page(99))
	assert.Equal(t, 0, p.Page(-1))
	assert.True(t, p.HasPrev())
	assert.True(t, p.HasNext())

	last := Pager{Total: 95, Take: 10, Skip: 90}
	assert.Equal(t, []int{8, 9, 10}, last.Window())
	assert.False(t, last.HasNext())

	first := Pager{Total: 30, Take: 10}
	require.Equal(t, []int{1, 2, 3}, first.Window())
	assert.False(t, first.HasPrev())
}
