package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/reportconsole/internal/models"
)

// Backend routes.
const (
	PathHasApplicationAccess = "/api/report/hasapplicationaccess"
	PathGetSetupData         = "/api/report/getsetupdata"
	PathGetReports           = "/api/report/getreports"
	PathGetReport            = "/api/report/GetReport"
	PathCreateReport         = "/api/report/create"
	PathSaveReport           = "/api/report/savereport"
	PathCheckSQLSyntax       = "/api/report/CheckSQLSyntax"
	PathCheckValidPath       = "/api/report/CheckValidPath"
	PathRescheduleReport     = "/api/report/RescheduleReport"
	PathActiveSuspendReport  = "/api/report/ActiveSuspendReport"

	PathGetUsers   = "/api/user/getusers"
	PathGetUser    = "/api/user/getuser"
	PathCreateUser = "/api/user/create"
	PathUpdateUser = "/api/user/update"
	PathDeleteUser = "/api/user/delete"

	PathGetDatabases = "/api/database/getdatabases"
	PathSaveDatabase = "/api/database/savedatabase"
)

func (c *Client) HasApplicationAccess(ctx context.Context) (bool, error) {
	var resp struct {
		HasAccess *bool `json:"hasAccess"`
	}
	if err := c.post(ctx, PathHasApplicationAccess, nil, nil, &resp); err != nil {
		return false, err
	}
	if resp.HasAccess == nil {
		return true, nil
	}
	return *resp.HasAccess, nil
}

func (c *Client) GetSetupData(ctx context.Context) (*models.Setup, error) {
	var setup models.Setup
	if err := c.post(ctx, PathGetSetupData, nil, nil, &setup); err != nil {
		return nil, err
	}
	return &setup, nil
}

func (c *Client) GetReports(ctx context.Context, q models.ReportQueryOptions) (*models.ReportList, error) {
	var list models.ReportList
	if err := c.post(ctx, PathGetReports, nil, q, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetReport returns the raw report payload; its shape varies between backends.
func (c *Client) GetReport(ctx context.Context, id int, isAdmin bool) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("id", strconv.Itoa(id))
	admin := "0"
	if isAdmin {
		admin = "1"
	}
	query.Set("isAdmin", admin)
	return c.postRaw(ctx, PathGetReport, query, nil)
}

func (c *Client) CreateReport(ctx context.Context, payload models.ReportComplex) (json.RawMessage, error) {
	return c.postRaw(ctx, PathCreateReport, nil, payload)
}

func (c *Client) SaveReport(ctx context.Context, payload models.ReportComplex) (json.RawMessage, error) {
	return c.postRaw(ctx, PathSaveReport, nil, payload)
}

func (c *Client) CheckSQLSyntax(ctx context.Context, req models.SQLCheckRequest) (*models.ProcessReportQuery, error) {
	var resp models.ProcessReportQuery
	if err := c.post(ctx, PathCheckSQLSyntax, nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CheckValidPath(ctx context.Context, export models.Export) (*models.PathCheck, error) {
	var resp models.PathCheck
	if err := c.post(ctx, PathCheckValidPath, nil, export, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) RescheduleReport(ctx context.Context, payload models.ReportComplex) (json.RawMessage, error) {
	return c.postRaw(ctx, PathRescheduleReport, nil, payload)
}

func (c *Client) ActiveSuspendReport(ctx context.Context, req models.SuspendRequest) (json.RawMessage, error) {
	return c.postRaw(ctx, PathActiveSuspendReport, nil, req)
}

func (c *Client) GetUsers(ctx context.Context) (*models.UserList, error) {
	var list models.UserList
	if err := c.post(ctx, PathGetUsers, nil, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Client) GetUser(ctx context.Context, id int) (*models.UserEdit, error) {
	var edit models.UserEdit
	if err := c.post(ctx, PathGetUser, nil, map[string]int{"id": id}, &edit); err != nil {
		return nil, err
	}
	return &edit, nil
}

func (c *Client) CreateUser(ctx context.Context, edit models.UserEdit) (json.RawMessage, error) {
	return c.postRaw(ctx, PathCreateUser, nil, edit)
}

func (c *Client) UpdateUser(ctx context.Context, id int, edit models.UserEdit) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.put(ctx, fmt.Sprintf("%s/%d", PathUpdateUser, id), edit, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) DeleteUser(ctx context.Context, id int) (json.RawMessage, error) {
	return c.postRaw(ctx, fmt.Sprintf("%s/%d", PathDeleteUser, id), nil, nil)
}

func (c *Client) GetDatabases(ctx context.Context) ([]models.DatabaseConnection, error) {
	var list []models.DatabaseConnection
	if err := c.post(ctx, PathGetDatabases, nil, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SaveDatabase returns the status string the backend answers with.
func (c *Client) SaveDatabase(ctx context.Context, dc models.DatabaseConnection) (string, error) {
	raw, err := c.postRaw(ctx, PathSaveDatabase, nil, dc)
	if err != nil {
		return "", err
	}
	var status string
	if err := json.Unmarshal(raw, &status); err != nil {
		return string(raw), nil
	}
	return status, nil
}
