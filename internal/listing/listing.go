// Package listing evaluates report list queries locally: filtering, ordering
// and paging of a ReportList.
package listing

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/reportconsole/internal/models"
	"github.com/reportconsole/internal/schedule"
)

// Apply filters, orders and pages list.Reports by q. Total is the filtered count.
func Apply(list models.ReportList, q models.ReportQueryOptions) models.ReportList {
	out := list
	matched := make([]models.ReportComplex, 0, len(list.Reports))
	for _, r := range list.Reports {
		if Matches(r, q, list.DatabaseConnection) {
			matched = append(matched, r)
		}
	}

	sortReports(matched, q.OrderBy, q.OrderByReverse)
	out.Total = len(matched)
	out.Reports = page(matched, q.Skip, q.Take)
	return out
}

// Matches reports whether r passes every filter of q. connections resolves
// the server of reports that only carry a connection id.
func Matches(r models.ReportComplex, q models.ReportQueryOptions, connections []models.DatabaseConnection) bool {
	v := models.FromComplex(r)

	if q.Status.Valid && !models.MatchesStatus(int(q.Status.Int64), v.StatusCode()) {
		return false
	}
	if q.Type.Valid {
		kind, ok := schedule.KindFromType(int(q.Type.Int64))
		if ok && schedule.Classify(v) != kind {
			return false
		}
	}
	if q.TypeDayOfWeek.Valid {
		if v.Week == nil || !v.Week.HasDay(models.Weekday(q.TypeDayOfWeek.Int64)) {
			return false
		}
	}
	if q.TypeDayOfMonth.Valid {
		if v.Month == nil || v.Month.DayOfMonth != int(q.TypeDayOfMonth.Int64) {
			return false
		}
	}
	if q.User.Valid && v.UserID != int(q.User.Int64) {
		return false
	}
	if q.Department.Valid {
		dept := 0
		switch {
		case v.Department != nil:
			dept = v.Department.ID
		case v.User != nil:
			dept = v.User.DepartmentID
		}
		if dept != int(q.Department.Int64) {
			return false
		}
	}
	if db := strings.TrimSpace(q.Database); db != "" && strconv.Itoa(v.ConnectionID) != db {
		return false
	}
	if srv := strings.TrimSpace(q.Server); srv != "" && !strings.EqualFold(server(v, connections), srv) {
		return false
	}
	if term := strings.TrimSpace(q.SearchTerm); term != "" {
		if !strings.Contains(strings.ToLower(v.Name), strings.ToLower(term)) && strconv.Itoa(v.ID) != term {
			return false
		}
	}
	return true
}

func server(v models.ReportView, connections []models.DatabaseConnection) string {
	if v.DatabaseConnection != nil && v.DatabaseConnection.DataSource != "" {
		return v.DatabaseConnection.DataSource
	}
	if dc := models.FindConnection(connections, v.ConnectionID); dc != nil {
		return dc.DataSource
	}
	return ""
}

func sortReports(reports []models.ReportComplex, orderBy int, reverse bool) {
	less := func(a, b models.Report) bool { return a.ID < b.ID }
	switch orderBy {
	case models.OrderByName:
		less = func(a, b models.Report) bool {
			an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
			if an == bn {
				return a.ID < b.ID
			}
			return an < bn
		}
	case models.OrderByRunDate:
		less = func(a, b models.Report) bool {
			at, bt := runDate(a), runDate(b)
			if at.Equal(bt) {
				return a.ID < b.ID
			}
			return at.Before(bt)
		}
	case models.OrderByStatus:
		less = func(a, b models.Report) bool {
			if a.StatusID.Int64 == b.StatusID.Int64 {
				return a.ID < b.ID
			}
			return a.StatusID.Int64 < b.StatusID.Int64
		}
	}
	sort.SliceStable(reports, func(i, j int) bool {
		if reverse {
			return less(reports[j].Report, reports[i].Report)
		}
		return less(reports[i].Report, reports[j].Report)
	})
}

func runDate(r models.Report) time.Time {
	if !r.RunDate.Valid {
		return time.Time{}
	}
	t, err := models.ParseTimestamp(r.RunDate.String, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

func page(reports []models.ReportComplex, skip, take int) []models.ReportComplex {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(reports) {
		return []models.ReportComplex{}
	}
	end := len(reports)
	if take > 0 && skip+take < end {
		end = skip + take
	}
	return reports[skip:end]
}
