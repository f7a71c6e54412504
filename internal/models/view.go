package models

import "encoding/json"

// ReportView is the flattened report: the Report columns at top level plus
// every linked object. It is what normalization produces and what edits act on.
type ReportView struct {
	Report

	DatabaseConnection *DatabaseConnection `json:"DatabaseConnection,omitempty"`
	Department         *Department         `json:"Department,omitempty"`
	User               *UserItem           `json:"User,omitempty"`
	UserAccess         *UserAccess         `json:"UserAccess,omitempty"`
	EmailReport        *EmailReport        `json:"EmailReport,omitempty"`
	ExistingWorkbook   *ExistingWorkbook   `json:"ExistingWorkbook,omitempty"`
	ReportHistory      *ReportHistory      `json:"ReportHistory,omitempty"`
	ReportQueue        *ReportQueue        `json:"ReportQueue,omitempty"`

	Adhoc  *Adhoc  `json:"Adhoc"`
	Minute *Minute `json:"Minute"`
	Hour   *Hour   `json:"Hour"`
	Week   *Week   `json:"Week"`
	Month  *Month  `json:"Month"`

	Exports    []ExportComplex `json:"Exports"`
	Sheets     []SheetComplex  `json:"Sheets"`
	EmailLists []EmailList     `json:"EmailLists"`
	Status     *Status         `json:"Status"`
	Logs       []Log           `json:"Logs"`

	ExportsToBeDeleted    []ExportComplex `json:"ExportsToBeDeleted,omitempty"`
	EmailListsToBeDeleted []EmailList     `json:"EmailListsToBeDeleted,omitempty"`

	HasEditAccess bool `json:"HasEditAccess"`
}

// StatusCode returns fnStatusID, falling back to the Status object.
func (v ReportView) StatusCode() int {
	if v.StatusID.Valid {
		return int(v.StatusID.Int64)
	}
	if v.Status != nil {
		return v.Status.ID
	}
	return StatusScheduled
}

// IsSuspended gates actions: suspended reports cannot be rescheduled.
func (v ReportView) IsSuspended() bool {
	return v.StatusCode() == StatusSuspended
}

// FromComplex flattens a ReportComplex.
func FromComplex(c ReportComplex) ReportView {
	v := ReportView{
		Report:             c.Report,
		DatabaseConnection: c.DatabaseConnection,
		Department:         c.Department,
		User:               c.User,
		UserAccess:         c.UserAccess,
		EmailReport:        c.EmailReport,
		ExistingWorkbook:   c.ExistingWorkbook,
		ReportHistory:      c.ReportHistory,
		ReportQueue:        c.ReportQueue,
		Adhoc:              c.Adhoc,
		Minute:             c.Minute,
		Hour:               c.Hour,
		Week:               c.Week,
		Month:              c.Month,
		Exports:            c.Exports,
		Sheets:             c.Sheets,
		EmailLists:         c.EmailLists,
		Status:             c.Status,
		HasEditAccess:      c.HasEditAccess,

		ExportsToBeDeleted:    c.ExportsToBeDeleted,
		EmailListsToBeDeleted: c.EmailListsToBeDeleted,
	}
	if v.Status == nil {
		v.Status = c.ReportStatus
	}
	return v
}

// Complex rebuilds the wire wrapper the backend accepts on save.
func (v ReportView) Complex() ReportComplex {
	return ReportComplex{
		Report:             v.Report,
		User:               v.User,
		Department:         v.Department,
		UserAccess:         v.UserAccess,
		EmailReport:        v.EmailReport,
		ReportHistory:      v.ReportHistory,
		ExistingWorkbook:   v.ExistingWorkbook,
		DatabaseConnection: v.DatabaseConnection,
		Adhoc:              v.Adhoc,
		Minute:             v.Minute,
		Week:               v.Week,
		Month:              v.Month,
		Hour:               v.Hour,
		Status:             v.Status,
		Exports:            v.Exports,
		Sheets:             v.Sheets,
		EmailLists:         v.EmailLists,
		ReportQueue:        v.ReportQueue,
		HasEditAccess:      v.HasEditAccess,

		ExportsToBeDeleted:    v.ExportsToBeDeleted,
		EmailListsToBeDeleted: v.EmailListsToBeDeleted,
	}
}

// Clone returns a deep copy. A round trip through JSON keeps every nested
// pointer and slice independent of the original.
func (v ReportView) Clone() ReportView {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out ReportView
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}
