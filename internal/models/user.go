package models

import (
	"github.com/guregu/null/v5"
)

// UserItem is a user row as the backend sends it.
type UserItem struct {
	ID                   int    `json:"fnUserID"`
	FirstName            string `json:"fcFirstName" validate:"required"`
	LastName             string `json:"fcLastName" validate:"required"`
	NTLogin              string `json:"fcUserNT" validate:"required"`
	Email                string `json:"fcUserEmail" validate:"required,email"`
	DepartmentID         int    `json:"fnDepartmentID" validate:"required"`
	AccessID             int    `json:"fnAccessID" validate:"required"`
	ApprovalStatus       string `json:"fcApprovalStatus,omitempty"`
	Comments             string `json:"fcComments,omitempty"`
	RunConsolePermission bool   `json:"fnRunConsolePermission"`
	Developer            bool   `json:"fbDeveloper"`
	TimeZoneID           int    `json:"TimeZoneID"`
}

// FullName joins first and last name.
func (u UserItem) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

type Department struct {
	ID   int    `json:"fnDepartmentID"`
	Name string `json:"fcDepartmentName"`
}

type UserAccess struct {
	ID          int    `json:"fnAccessID"`
	Description string `json:"fcAccessDescription"`
}

type TimeZoneOffset struct {
	ID             int     `json:"TimeZoneID"`
	Code           string  `json:"TimeZoneCode"`
	Name           string  `json:"TimeZoneName"`
	StdOffset      float64 `json:"std_Offset"`
	DaylightOffset float64 `json:"daylight_Offset"`
}

// UserComplex wraps a user row with its denormalized lookups.
type UserComplex struct {
	User                   UserItem        `json:"User"`
	Department             *Department     `json:"Department,omitempty"`
	UserAccess             *UserAccess     `json:"UserAccess,omitempty"`
	TimeZoneOffset         *TimeZoneOffset `json:"TimeZoneOffset,omitempty"`
	CurrentUserAccessLevel string          `json:"CurrentUserAccesslevel,omitempty"`
}

type UserList struct {
	Users             []UserComplex `json:"Users"`
	Departments       []Department  `json:"Departments"`
	HasUserEditAccess bool          `json:"HasUserEditAccess"`
}

// Find returns the index of the user with the given id, or -1.
func (l UserList) Find(id int) int {
	for i, u := range l.Users {
		if u.User.ID == id {
			return i
		}
	}
	return -1
}

// NextID returns max(id)+1 over the list, starting at 1.
func (l UserList) NextID() int {
	next := 1
	for _, u := range l.Users {
		if u.User.ID >= next {
			next = u.User.ID + 1
		}
	}
	return next
}

// UserEdit carries a user plus the option lists the edit form needs.
type UserEdit struct {
	User           UserComplex             `json:"User"`
	DatabaseAccess []DatabaseAccessComplex `json:"DatabaseAccess"`
	Departments    []Department            `json:"Departments"`
	UserAccess     []UserAccess            `json:"UserAccess"`
	TimeZone       []TimeZoneOffset        `json:"TimeZone"`
}

// MergeMissingOptions appends the user's current department, access level
// and time zone to the option lists when the backend omitted them.
func (e *UserEdit) MergeMissingOptions() {
	u := e.User
	if d := u.Department; d != nil && !containsDepartment(e.Departments, d.ID) {
		e.Departments = append(e.Departments, *d)
	} else if d == nil && u.User.DepartmentID != 0 && !containsDepartment(e.Departments, u.User.DepartmentID) {
		e.Departments = append(e.Departments, Department{ID: u.User.DepartmentID})
	}

	if a := u.UserAccess; a != nil && !containsAccess(e.UserAccess, a.ID) {
		e.UserAccess = append(e.UserAccess, *a)
	} else if a == nil && u.User.AccessID != 0 && !containsAccess(e.UserAccess, u.User.AccessID) {
		e.UserAccess = append(e.UserAccess, UserAccess{ID: u.User.AccessID})
	}

	if tz := u.TimeZoneOffset; tz != nil && !containsTimeZone(e.TimeZone, tz.ID) {
		e.TimeZone = append(e.TimeZone, *tz)
	} else if tz == nil && u.User.TimeZoneID != 0 && !containsTimeZone(e.TimeZone, u.User.TimeZoneID) {
		e.TimeZone = append(e.TimeZone, TimeZoneOffset{ID: u.User.TimeZoneID})
	}
}

func containsDepartment(list []Department, id int) bool {
	for _, d := range list {
		if d.ID == id {
			return true
		}
	}
	return false
}

func containsAccess(list []UserAccess, id int) bool {
	for _, a := range list {
		if a.ID == id {
			return true
		}
	}
	return false
}

func containsTimeZone(list []TimeZoneOffset, id int) bool {
	for _, tz := range list {
		if tz.ID == id {
			return true
		}
	}
	return false
}

// DatabaseConnection holds ADO-style connection parameters.
type DatabaseConnection struct {
	ID                 int         `json:"fnConnectionID,omitempty"`
	Name               string      `json:"fcConnectionName,omitempty" validate:"required"`
	Type               string      `json:"fcConnectionType,omitempty"`
	Provider           string      `json:"fcProvider,omitempty" validate:"required"`
	DataSource         string      `json:"fcDataSource,omitempty" validate:"required"`
	InitialCatalog     string      `json:"fcInitialCatalog,omitempty" validate:"required"`
	IntegratedSecurity string      `json:"fcIntegratedSecurity,omitempty"`
	TrustedConnection  string      `json:"fcTrustedConnection,omitempty"`
	Active             bool        `json:"fnDatabaseActive"`
	LastUpdate         null.String `json:"fdLastUpdate"`
	Schema             null.String `json:"fcSchema"`
	HasEditAccess      bool        `json:"HasDatabaseEditAccess,omitempty"`
}

// NextConnectionID returns max(id)+1 over the list, starting at 1.
func NextConnectionID(list []DatabaseConnection) int {
	next := 1
	for _, dc := range list {
		if dc.ID >= next {
			next = dc.ID + 1
		}
	}
	return next
}

// FindConnection returns the connection with the given id, or nil.
func FindConnection(list []DatabaseConnection, id int) *DatabaseConnection {
	for i := range list {
		if list[i].ID == id {
			return &list[i]
		}
	}
	return nil
}

type DatabaseAccess struct {
	ID           int  `json:"fnDatabaseAccessID,omitempty"`
	UserID       int  `json:"fnUserID,omitempty"`
	ConnectionID int  `json:"fnConnectionID,omitempty"`
	ImportAccess bool `json:"fbImportAccess"`
	ExportAccess bool `json:"fbExportAccess"`
}

type DatabaseAccessComplex struct {
	DatabaseConnection *DatabaseConnection `json:"DatabaseConnection,omitempty"`
	DatabaseAccess     *DatabaseAccess     `json:"DatabaseAccess,omitempty"`
}
