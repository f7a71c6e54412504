package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/guregu/null/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/reportconsole/internal/api/client"
	"github.com/reportconsole/internal/auth"
	"github.com/reportconsole/internal/config"
	"github.com/reportconsole/internal/fallback"
	"github.com/reportconsole/internal/models"
	"github.com/reportconsole/internal/normalize"
)

var secret = "0123456789abcdef0123456789abcdef"

func newTestServer(t *testing.T, withAuth bool) *httptest.Server {
	t.Helper()
	assets, err := fallback.NewAssets()
	require.NoError(t, err)
	t.Cleanup(assets.Close)
	store, err := NewStore(assets)
	require.NoError(t, err)

	srv := NewServer(store, config.ServerConfig{JWTSecret: secret, Auth: withAuth}, zap.NewNop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func newClient(t *testing.T, url string, opts ...client.Option) *client.Client {
	t.Helper()
	c, err := client.New(url, opts...)
	require.NoError(t, err)
	return c
}

func TestReportRoutes(t *testing.T) {
	ts := newTestServer(t, false)
	c := newClient(t, ts.URL)
	ctx := context.Background()

	has, err := c.HasApplicationAccess(ctx)
	require.NoError(t, err)
	assert.True(t, has)

	setup, err := c.GetSetupData(ctx)
	require.NoError(t, err)
	assert.Len(t, setup.DatabaseConnection, 4)
	assert.Len(t, setup.Users, 3)

	q := models.DefaultReportQueryOptions()
	q.Status = null.IntFrom(models.StatusScheduledOrInProcess)
	list, err := c.GetReports(ctx, q)
	require.NoError(t, err)
	assert.NotZero(t, list.Total)
	for _, r := range list.Reports {
		assert.True(t, models.MatchesStatus(models.StatusScheduledOrInProcess, models.FromComplex(r).StatusCode()))
	}

	raw, err := c.GetReport(ctx, 1, true)
	require.NoError(t, err)
	view, shape, err := normalize.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, normalize.ShapeEdit, shape)
	assert.Equal(t, 1, view.ID)
	assert.True(t, view.HasEditAccess)

	_, err = c.GetReport(ctx, 404, true)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestCreateAndSaveReport(t *testing.T) {
	ts := newTestServer(t, false)
	c := newClient(t, ts.URL)
	ctx := context.Background()

	payload := models.ReportComplex{
		Report: models.Report{Name: "Nightly Extract", ConnectionID: 1272, SQL: "SELECT 1"},
		Exports: []models.ExportComplex{{Export: models.Export{
			Location: null.StringFrom("/data/out"),
			Name:     null.StringFrom("nightly"),
		}}},
	}
	raw, err := c.CreateReport(ctx, payload)
	require.NoError(t, err)
	created, _, err := normalize.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, 6, created.ID)
	assert.Equal(t, models.StatusScheduled, created.StatusCode())
	require.Len(t, created.Exports, 1)
	assert.Equal(t, 1, created.Exports[0].Export.ID)
	assert.Equal(t, int64(6), created.Exports[0].Export.ReportID.Int64)

	created.Name = "Nightly Extract v2"
	created.ExportsToBeDeleted = created.Exports
	created.Exports = nil
	raw, err = c.SaveReport(ctx, created.Complex())
	require.NoError(t, err)
	saved, _, err := normalize.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "Nightly Extract v2", saved.Name)
	assert.Empty(t, saved.ExportsToBeDeleted)

	_, err = c.CreateReport(ctx, models.ReportComplex{Report: models.Report{Name: "no sql"}})
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "fcSQL")
}

func TestCheckSQLSyntax(t *testing.T) {
	ts := newTestServer(t, false)
	c := newClient(t, ts.URL)

	tests := []struct {
		name string
		conn int
		sql  string
		ok   bool
	}{
		{"select", 1272, "SELECT 1", true},
		{"cte", 1272, "with x as (select 1) select * from x", true},
		{"procedure", 1273, "EXEC dbo.Extract", true},
		{"empty", 1272, "  ", false},
		{"delete", 1272, "DELETE FROM dbo.Sales", false},
		{"unknown connection", 9, "SELECT 1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := c.CheckSQLSyntax(context.Background(), models.SQLCheckRequest{DatabaseConnectionID: tt.conn, SQL: tt.sql})
			require.NoError(t, err)
			assert.Equal(t, tt.ok, res.OK())
			if !tt.ok {
				assert.Equal(t, 0, res.ProcessStatus)
				assert.NotEmpty(t, res.SQLErrorMsg.String)
			}
		})
	}
}

func TestCheckValidPath(t *testing.T) {
	ts := newTestServer(t, false)
	c := newClient(t, ts.URL)

	tests := []struct {
		loc, name string
		valid     bool
	}{
		{"/data/out", "x", true},
		{`\\fileserver\reports`, "x", true},
		{"relative/dir", "x", false},
		{"/data/out", "", false},
		{"", "x", false},
	}
	for _, tt := range tests {
		res, err := c.CheckValidPath(context.Background(), models.Export{
			Location: null.StringFrom(tt.loc),
			Name:     null.StringFrom(tt.name),
		})
		require.NoError(t, err)
		assert.Equal(t, tt.valid, res.IsValid, tt.loc)
		assert.NotEmpty(t, res.Message)
	}
}

func TestSuspendAndReschedule(t *testing.T) {
	ts := newTestServer(t, false)
	c := newClient(t, ts.URL)
	ctx := context.Background()

	target := models.ReportComplex{Report: models.Report{ID: 2}}
	raw, err := c.ActiveSuspendReport(ctx, models.SuspendRequest{Report: target, SuspendFlag: true})
	require.NoError(t, err)
	assert.JSONEq(t, `"Suspended"`, string(raw))

	_, err = c.RescheduleReport(ctx, target)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)

	_, err = c.ActiveSuspendReport(ctx, models.SuspendRequest{Report: target})
	require.NoError(t, err)
	raw, err = c.RescheduleReport(ctx, target)
	require.NoError(t, err)
	assert.JSONEq(t, `"Rescheduled"`, string(raw))
}

func TestUserRoutes(t *testing.T) {
	ts := newTestServer(t, false)
	c := newClient(t, ts.URL)
	ctx := context.Background()

	edit, err := c.GetUser(ctx, 44)
	require.NoError(t, err)
	assert.Equal(t, "John", edit.User.User.FirstName)
	assert.NotEmpty(t, edit.UserAccess)
	assert.Len(t, edit.DatabaseAccess, 4)

	edit.User.User.NTLogin = "CORP\\jdoe"
	edit.User.User.Comments = "updated"
	_, err = c.UpdateUser(ctx, 44, *edit)
	require.NoError(t, err)

	list, err := c.GetUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, list.Users, 3)
	assert.Equal(t, "updated", list.Users[0].User.Comments)

	newUser := models.UserEdit{User: models.UserComplex{User: models.UserItem{
		FirstName: "Ana", LastName: "Lopez", NTLogin: "CORP\\alopez",
		Email: "ana@example.com", DepartmentID: 1, AccessID: 3,
	}}}
	raw, err := c.CreateUser(ctx, newUser)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "47")

	_, err = c.DeleteUser(ctx, 47)
	require.NoError(t, err)
	_, err = c.DeleteUser(ctx, 47)
	assert.Error(t, err)
}

func TestCreateUserAcceptsBareItem(t *testing.T) {
	ts := newTestServer(t, false)
	body, err := json.Marshal(models.UserItem{
		FirstName: "Bo", LastName: "Kim", NTLogin: "CORP\\bkim",
		Email: "bo@example.com", DepartmentID: 2, AccessID: 3,
	})
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+client.PathCreateUser, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDatabaseRoutes(t *testing.T) {
	ts := newTestServer(t, false)
	c := newClient(t, ts.URL)
	ctx := context.Background()

	status, err := c.SaveDatabase(ctx, models.DatabaseConnection{
		Name: "Warehouse", Provider: "SQLOLEDB", DataSource: "sql04", InitialCatalog: "DW",
	})
	require.NoError(t, err)
	assert.Equal(t, "Created", status)

	list, err := c.GetDatabases(ctx)
	require.NoError(t, err)
	require.Len(t, list, 5)
	assert.Equal(t, 1276, list[4].ID)

	list[4].DataSource = "sql05"
	status, err = c.SaveDatabase(ctx, list[4])
	require.NoError(t, err)
	assert.Equal(t, "Updated", status)

	_, err = c.SaveDatabase(ctx, models.DatabaseConnection{Name: "incomplete"})
	assert.Error(t, err)
}

func TestAuth(t *testing.T) {
	ts := newTestServer(t, true)
	ctx := context.Background()

	_, err := newClient(t, ts.URL).GetUsers(ctx)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	viewer, err := auth.Issue([]byte(secret), "viewer", false, time.Hour)
	require.NoError(t, err)
	c := newClient(t, ts.URL, client.WithToken(viewer))
	_, err = c.GetUsers(ctx)
	require.NoError(t, err)
	_, err = c.DeleteUser(ctx, 44)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)

	admin, err := auth.Issue([]byte(secret), "admin", true, time.Hour)
	require.NoError(t, err)
	_, err = newClient(t, ts.URL, client.WithToken(admin)).DeleteUser(ctx, 44)
	require.NoError(t, err)
}
