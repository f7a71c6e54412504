package models

import (
	"github.com/guregu/null/v5"
)

// Report is the report row itself.
type Report struct {
	ID                     int         `json:"fnReportID"`
	Name                   string      `json:"fcReportName" validate:"required"`
	ConnectionID           int         `json:"fnConnectionID" validate:"required"`
	SQL                    string      `json:"fcSQL" validate:"required"`
	UserID                 int         `json:"fnUserID"`
	UpdateExistingWorkbook bool        `json:"fnUpdateExistingWorkbook"`
	LastUpdate             null.String `json:"fdLastUpdate"`
	LastEditUserID         null.Int    `json:"fnLastEditUserID"`
	RunDate                null.String `json:"fdRunDate"`
	StatusID               null.Int    `json:"fnStatusID"`
	RunTimeDurationSeconds null.Int    `json:"fnRunTimeDurationSeconds"`
}

// ReportComplex is the backend wrapper combining a report row with its
// related schedule, export and email sub-objects.
type ReportComplex struct {
	Report             Report              `json:"Report"`
	User               *UserItem           `json:"User,omitempty"`
	Department         *Department         `json:"Department,omitempty"`
	UserAccess         *UserAccess         `json:"UserAccess,omitempty"`
	EmailReport        *EmailReport        `json:"EmailReport,omitempty"`
	ReportHistory      *ReportHistory      `json:"ReportHistory,omitempty"`
	ReportStatus       *Status             `json:"ReportStatus,omitempty"`
	ExistingWorkbook   *ExistingWorkbook   `json:"ExistingWorkbook,omitempty"`
	DatabaseConnection *DatabaseConnection `json:"DatabaseConnection,omitempty"`
	Adhoc              *Adhoc              `json:"Adhoc,omitempty"`
	Minute             *Minute             `json:"Minute,omitempty"`
	Week               *Week               `json:"Week,omitempty"`
	Month              *Month              `json:"Month,omitempty"`
	Hour               *Hour               `json:"Hour,omitempty"`
	Status             *Status             `json:"Status,omitempty"`
	Exports            []ExportComplex     `json:"Exports,omitempty"`
	Sheets             []SheetComplex      `json:"Sheets,omitempty"`
	EmailLists         []EmailList         `json:"EmailLists,omitempty"`
	ReportQueue        *ReportQueue        `json:"ReportQueue,omitempty"`

	ExportsToBeDeleted    []ExportComplex `json:"ExportsToBeDeleted,omitempty"`
	SheetsToBeDeleted     []SheetComplex  `json:"SheetsToBeDeleted,omitempty"`
	EmailListsToBeDeleted []EmailList     `json:"EmailListsToBeDeleted,omitempty"`

	HasEditAccess bool `json:"HasEditAccess,omitempty"`
}

// ReportEdit is the GetReport response: the report plus the lookup lists of the edit form.
type ReportEdit struct {
	Report                    ReportComplex        `json:"Report"`
	FileExtensions            []FileExtension      `json:"FileExtensions"`
	Delimiters                []Delimiter          `json:"Delimiters"`
	TimeZoneOffsets           []TimeZoneOffset     `json:"TimeZoneOffsets"`
	CurrentUser               *UserItem            `json:"CurrentUser"`
	DatabaseConnectionsImport []DatabaseConnection `json:"DatabaseConnectionsImport"`
	DatabaseConnectionsExport []DatabaseConnection `json:"DatabaseConnectionsExport"`
	Users                     []UserItem           `json:"Users"`
	Departments               []Department         `json:"Departments"`
	DatabaseConnection        []DatabaseConnection `json:"DatabaseConnection,omitempty"`
	Logs                      []Log                `json:"Logs"`
}

type ReportList struct {
	Total              int                  `json:"Total"`
	Reports            []ReportComplex      `json:"Reports"`
	Departments        []Department         `json:"Departments"`
	Users              []UserItem           `json:"Users"`
	DatabaseConnection []DatabaseConnection `json:"DatabaseConnection,omitempty"`
}

// Find returns the index of the report with the given id, or -1.
func (l ReportList) Find(id int) int {
	for i, r := range l.Reports {
		if r.Report.ID == id {
			return i
		}
	}
	return -1
}

// NextID returns max(id)+1 over the list, starting at 1.
func (l ReportList) NextID() int {
	next := 1
	for _, r := range l.Reports {
		if r.Report.ID >= next {
			next = r.Report.ID + 1
		}
	}
	return next
}

// Setup holds the shared lookup lists used by the reports screens.
type Setup struct {
	Users              []UserItem           `json:"Users"`
	Departments        []Department         `json:"Departments"`
	DatabaseConnection []DatabaseConnection `json:"DatabaseConnection"`
}

// Servers returns the distinct data sources of the setup connections, in order.
func (s Setup) Servers() []string {
	seen := make(map[string]bool)
	var servers []string
	for _, dc := range s.DatabaseConnection {
		if dc.DataSource == "" || seen[dc.DataSource] {
			continue
		}
		seen[dc.DataSource] = true
		servers = append(servers, dc.DataSource)
	}
	return servers
}

type EmailReport struct {
	ReportID       int         `json:"fnReportID"`
	Disable        bool        `json:"fnDisable"`
	From           null.String `json:"fcFrom"`
	Subject        null.String `json:"fcSubject"`
	Body           null.String `json:"fcBody"`
	SendSecure     null.Bool   `json:"fnSendSecure"`
	Attachment     null.Bool   `json:"fnAttachment"`
	AttachmentName null.String `json:"fcAttachmentName"`
	ZipFile        null.Bool   `json:"fnZipFile"`
	ZipPassword    null.String `json:"fcZipPassword"`
}

type ReportHistory struct {
	InstanceID             int         `json:"fnInstanceID"`
	ReportID               int         `json:"fnReportID"`
	RunDate                string      `json:"fdRunDate"`
	StatusID               int         `json:"fnStatusID"`
	StatusComments         null.String `json:"fcStatusComments"`
	RunTimeDurationSeconds int         `json:"fnRunTimeDurationSeconds,omitempty"`
	ReportType             null.String `json:"fcReportType"`
	Port                   int         `json:"fnPort,omitempty"`
}

type Status struct {
	ID          int         `json:"fnStatusID"`
	Description null.String `json:"fcStatusDescription"`
}

type ExistingWorkbook struct {
	ReportID   int         `json:"fnReportID"`
	Location   null.String `json:"fcWbLocation"`
	Name       null.String `json:"fcWbName"`
	AppendData bool        `json:"fcWbAppendData,omitempty"`
	IsDeleted  bool        `json:"IsDeleted,omitempty"`
}

// Export describes one output file of a report.
type Export struct {
	ID              int         `json:"fnExportID"`
	ReportID        null.Int    `json:"fnReportID"`
	Location        null.String `json:"fcExportLocation" validate:"required"`
	Name            null.String `json:"fcExportName" validate:"required"`
	AddDate         null.Int    `json:"fnAddDate"`
	FileExtensionID null.Int    `json:"fnFileExtensionID"`
	DelimiterID     null.Int    `json:"fnDelimiterID"`
	AddQuotes       bool        `json:"fnAddQuotes,omitempty"`
	GenerateSQL     bool        `json:"fnGenerateSQL,omitempty"`
	IncludeHeader   bool        `json:"fnIncludeHeader,omitempty"`
}

type ExportComplex struct {
	Export        Export         `json:"Export"`
	FileExtension *FileExtension `json:"FileExtension,omitempty"`
	Delimiter     *Delimiter     `json:"Delimiter,omitempty"`
}

type FileExtension struct {
	ID        int         `json:"fnFileExtensionID"`
	Extension null.String `json:"fcFileExtension"`
	XLFormat  int         `json:"fnXLFormat,omitempty"`
}

type Delimiter struct {
	ID        int         `json:"fnDelimiterID"`
	Delimiter null.String `json:"fcDelimiter"`
}

type Sheet struct {
	ID                 int         `json:"fnSheetID"`
	ReportID           int         `json:"fnReportID"`
	Order              int         `json:"fnSheetOrder,omitempty"`
	Name               null.String `json:"fcSheetName"`
	Hide               bool        `json:"fnHideSheet,omitempty"`
	Delete             bool        `json:"fnDeleteSheet,omitempty"`
	DBExport           bool        `json:"fbDBExport,omitempty"`
	DBExportConnection int         `json:"fnDBExportConnectionID,omitempty"`
}

type SheetComplex struct {
	Sheet              Sheet               `json:"Sheet"`
	DatabaseConnection *DatabaseConnection `json:"DatabaseConnection"`
}

// Recipient send types.
const (
	SendTypeTo  = "To"
	SendTypeCC  = "CC"
	SendTypeBCC = "BCC"
)

type EmailList struct {
	ID       int         `json:"fnEmailListID"`
	ReportID int         `json:"fnReportID"`
	SendType null.String `json:"fcSendType"`
	Address  null.String `json:"fcEmailAddress"`
}

type ReportQueue struct {
	ID         string      `json:"ReportQueueId"`
	ReportID   int         `json:"ReportId"`
	Status     null.String `json:"Status"`
	ServerName null.String `json:"ServerName"`
	ArriveTime null.String `json:"ArriveTime"`
	StartTime  null.String `json:"StartTime"`
	EndTime    null.String `json:"EndTime"`
	Timestamp  []int       `json:"Timestamp"`
	Duration   null.Int    `json:"Duration"`
}

// Log is an execution error record of a report.
type Log struct {
	ID            string      `json:"LogId"`
	SeverityID    int         `json:"SeverityId"`
	CodeID        int         `json:"CodeId"`
	Timestamp     string      `json:"Timestamp"`
	MachineName   null.String `json:"MachineName"`
	ThreadID      int         `json:"ThreadId,omitempty"`
	Message       null.String `json:"Message"`
	ReportID      null.Int    `json:"ReportId"`
	ReportQueueID null.String `json:"ReportQueueId"`
	StackTrace    null.String `json:"StackTrace"`
}

// ProcessReportQuery is the CheckSQLSyntax result.
type ProcessReportQuery struct {
	ProcessStatus int         `json:"ProcessStatus"`
	SQLErrorMsg   null.String `json:"SQLErrorMsg"`
}

// OK reports whether the server accepted the statement.
func (p ProcessReportQuery) OK() bool {
	return !p.SQLErrorMsg.Valid || p.SQLErrorMsg.String == ""
}

// PathCheck is the CheckValidPath result.
type PathCheck struct {
	IsValid bool   `json:"IsValid"`
	Message string `json:"Message"`
}

type SQLCheckRequest struct {
	DatabaseConnectionID int    `json:"DatabaseConnectionID"`
	SQL                  string `json:"SQL"`
}

type SuspendRequest struct {
	Report      ReportComplex `json:"Report"`
	SuspendFlag bool          `json:"SuspendFlag"`
}
