package validate

import (
	"testing"

	"github.com/guregu/null/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reportconsole/internal/models"
)

func TestReportMissingFields(t *testing.T) {
	err := Report(models.ReportView{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ElementsMatch(t, []string{"fcReportName", "fnConnectionID", "fcSQL"}, verr.Missing)
	assert.Contains(t, err.Error(), "missing")
}

func TestReportValid(t *testing.T) {
	v := models.ReportView{
		Report: models.Report{Name: "Nightly Extract", ConnectionID: 12, SQL: "SELECT 1"},
		Adhoc:  &models.Adhoc{DateTime: "2024-03-14T00:00:00"},
		Exports: []models.ExportComplex{{Export: models.Export{
			Location: null.StringFrom(`\\share\out`),
			Name:     null.StringFrom("extract"),
		}}},
		EmailLists: []models.EmailList{{SendType: null.StringFrom("To"), Address: null.StringFrom("ops@example.com")}},
	}
	assert.NoError(t, Report(v))
}

func TestReportExportsAndSchedule(t *testing.T) {
	v := models.ReportView{
		Report:     models.Report{Name: "x", ConnectionID: 1, SQL: "SELECT 1"},
		Adhoc:      &models.Adhoc{},
		Week:       &models.Week{},
		Exports:    []models.ExportComplex{{Export: models.Export{Name: null.StringFrom("out")}}},
		EmailLists: []models.EmailList{{Address: null.StringFrom("not-an-address")}},
	}
	var verr *ValidationError
	require.ErrorAs(t, Report(v), &verr)
	assert.Equal(t, []string{"Exports[0].fcExportLocation"}, verr.Missing)
	assert.Equal(t, []string{"schedule", "EmailLists[0].fcEmailAddress"}, verr.Invalid)
}

func TestUser(t *testing.T) {
	u := models.UserItem{FirstName: "John", LastName: "Doe", NTLogin: "CORP\\jdoe", Email: "jdoe", DepartmentID: 1, AccessID: 2}
	var verr *ValidationError
	require.ErrorAs(t, User(u), &verr)
	assert.Empty(t, verr.Missing)
	assert.Equal(t, []string{"fcUserEmail"}, verr.Invalid)

	u.Email = "jdoe@example.com"
	assert.NoError(t, User(u))

	require.ErrorAs(t, User(models.UserItem{}), &verr)
	assert.ElementsMatch(t, []string{"fcFirstName", "fcLastName", "fcUserNT", "fcUserEmail", "fnDepartmentID", "fnAccessID"}, verr.Missing)
}

func TestDatabase(t *testing.T) {
	var verr *ValidationError
	require.ErrorAs(t, Database(models.DatabaseConnection{Name: "Warehouse"}), &verr)
	assert.ElementsMatch(t, []string{"fcProvider", "fcDataSource", "fcInitialCatalog"}, verr.Missing)

	assert.NoError(t, Database(models.DatabaseConnection{
		Name: "Warehouse", Provider: "SQLOLEDB", DataSource: "sql01", InitialCatalog: "dw",
	}))
}

func TestEmail(t *testing.T) {
	assert.NoError(t, Email("a@b.com"))
	assert.Error(t, Email(""))
	assert.Error(t, Email("nope"))
}
