// Package normalize turns the report payloads the backend returns into a
// single flattened models.ReportView.
//
// Three shapes are recognized:
//
//	{"Report":{"Report":{"fnReportID":5,...},...},"Logs":[...]}   ShapeEdit
//	{"Report":{"fnReportID":5,...},"Month":{...},...}            ShapeComplex
//	{"fnReportID":5,"fcReportName":"...","Month":{...},...}      ShapeFlat
package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/guregu/null/v5"

	"github.com/reportconsole/internal/models"
)

// Shape identifies which payload layout was parsed.
type Shape int

const (
	ShapeUnknown Shape = iota
	ShapeEdit
	ShapeComplex
	ShapeFlat
)

func (s Shape) String() string {
	switch s {
	case ShapeEdit:
		return "edit"
	case ShapeComplex:
		return "complex"
	case ShapeFlat:
		return "flat"
	}
	return "unknown"
}

var (
	ErrEmptyPayload      = errors.New("empty report payload")
	ErrUnrecognizedShape = errors.New("unrecognized report payload shape")
)

// Parse detects the payload shape and flattens it. Status and Logs are
// defaulted on every successful parse.
func Parse(raw []byte) (models.ReportView, Shape, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return models.ReportView{}, ShapeUnknown, ErrEmptyPayload
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return models.ReportView{}, ShapeUnknown, fmt.Errorf("failed to decode report payload: %w", err)
	}

	var (
		view  models.ReportView
		shape Shape
		err   error
	)
	switch {
	case isObject(top["Report"]):
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(top["Report"], &inner); err != nil {
			return models.ReportView{}, ShapeUnknown, fmt.Errorf("failed to decode report payload: %w", err)
		}
		switch {
		case isObject(inner["Report"]):
			shape = ShapeEdit
			view, err = parseEdit(raw)
		case hasReportColumns(inner):
			shape = ShapeComplex
			view, err = parseComplex(raw)
		default:
			return models.ReportView{}, ShapeUnknown, ErrUnrecognizedShape
		}
	case hasReportColumns(top):
		shape = ShapeFlat
		err = json.Unmarshal(raw, &view)
	default:
		return models.ReportView{}, ShapeUnknown, ErrUnrecognizedShape
	}
	if err != nil {
		return models.ReportView{}, shape, fmt.Errorf("failed to decode %s report payload: %w", shape, err)
	}

	backfill(&view)
	applyDefaults(&view)
	return view, shape, nil
}

// Normalize never fails: unusable payloads yield Empty(now).
func Normalize(raw []byte, now time.Time) models.ReportView {
	view, _, err := Parse(raw)
	if err != nil {
		return Empty(now)
	}
	return view
}

// Empty is the blank report used by the create screen and as the fallback
// for unusable payloads: in process, ad hoc today at midnight.
func Empty(now time.Time) models.ReportView {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return models.ReportView{
		Report: models.Report{
			StatusID: null.IntFrom(models.StatusInProcess),
		},
		Adhoc: &models.Adhoc{
			DateTime: models.FormatTimestamp(midnight),
		},
		Exports:    []models.ExportComplex{},
		Sheets:     []models.SheetComplex{},
		EmailLists: []models.EmailList{},
		Status:     statusFor(models.StatusInProcess),
		Logs:       []models.Log{},
	}
}

// Denormalize fills the connection, owner and department from setup lookups
// when the payload only carried their ids.
func Denormalize(v models.ReportView, setup models.Setup) models.ReportView {
	out := v.Clone()
	if out.DatabaseConnection == nil && out.ConnectionID != 0 {
		if dc := models.FindConnection(setup.DatabaseConnection, out.ConnectionID); dc != nil {
			c := *dc
			out.DatabaseConnection = &c
		}
	}
	if out.User == nil && out.UserID != 0 {
		for _, u := range setup.Users {
			if u.ID == out.UserID {
				u := u
				out.User = &u
				break
			}
		}
	}
	if out.Department == nil && out.User != nil && out.User.DepartmentID != 0 {
		for _, d := range setup.Departments {
			if d.ID == out.User.DepartmentID {
				d := d
				out.Department = &d
				break
			}
		}
	}
	return out
}

func parseComplex(raw []byte) (models.ReportView, error) {
	var c models.ReportComplex
	if err := json.Unmarshal(raw, &c); err != nil {
		return models.ReportView{}, err
	}
	return models.FromComplex(c), nil
}

func parseEdit(raw []byte) (models.ReportView, error) {
	var e models.ReportEdit
	if err := json.Unmarshal(raw, &e); err != nil {
		return models.ReportView{}, err
	}
	v := models.FromComplex(e.Report)
	if len(v.Logs) == 0 {
		v.Logs = e.Logs
	}

	setup := models.Setup{
		Users:              e.Users,
		Departments:        e.Departments,
		DatabaseConnection: append(append(append([]models.DatabaseConnection{}, e.DatabaseConnection...), e.DatabaseConnectionsImport...), e.DatabaseConnectionsExport...),
	}
	if e.CurrentUser != nil {
		setup.Users = append(setup.Users, *e.CurrentUser)
	}
	backfill(&v)
	return Denormalize(v, setup), nil
}

func backfill(v *models.ReportView) {
	if v.ConnectionID == 0 && v.DatabaseConnection != nil {
		v.ConnectionID = v.DatabaseConnection.ID
	}
	if v.UserID == 0 && v.User != nil {
		v.UserID = v.User.ID
	}
}

func applyDefaults(v *models.ReportView) {
	if v.Status == nil {
		code := models.StatusInProcess
		if v.StatusID.Valid {
			code = int(v.StatusID.Int64)
		}
		v.Status = statusFor(code)
	}
	if v.Logs == nil {
		v.Logs = []models.Log{}
	}
}

func statusFor(code int) *models.Status {
	return &models.Status{ID: code, Description: null.StringFrom(models.StatusLabel(code))}
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

var reportColumns = []string{"fnReportID", "fcReportName", "fcSQL", "fnConnectionID"}

func hasReportColumns(m map[string]json.RawMessage) bool {
	for _, col := range reportColumns {
		if _, ok := m[col]; ok {
			return true
		}
	}
	return false
}
