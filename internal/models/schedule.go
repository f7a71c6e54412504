package models

import "github.com/guregu/null/v5"

// Adhoc is a single run at DateTime.
type Adhoc struct {
	ReportID    int    `json:"fnReportID"`
	DateTime    string `json:"fdDateTime"`
	StatusID    int    `json:"fnStatusID"`
	Rescheduled bool   `json:"fbRescheduled"`
	IsDeleted   bool   `json:"IsDeleted,omitempty"`
}

// Minute runs every StatusID minutes. The backend reuses the status column
// as the interval.
type Minute struct {
	ReportID  int         `json:"fnReportID"`
	StatusID  int         `json:"fnStatusID"`
	LastRun   null.String `json:"fdLastRun"`
	IsDeleted bool        `json:"IsDeleted,omitempty"`
}

// Interval returns the minute interval, at least 1.
func (m Minute) Interval() int {
	if m.StatusID < 1 {
		return 1
	}
	return m.StatusID
}

type Week struct {
	ReportID                  int         `json:"fnReportID"`
	Sunday                    bool        `json:"fnSunday"`
	Monday                    bool        `json:"fnMonday"`
	Tuesday                   bool        `json:"fnTuesday"`
	Wednesday                 bool        `json:"fnWednesday"`
	Thursday                  bool        `json:"fnThursday"`
	Friday                    bool        `json:"fnFriday"`
	Saturday                  bool        `json:"fnSaturday"`
	LastRunDate               null.String `json:"fdLastRunDate"`
	StatusID                  null.Int    `json:"fnStatusID"`
	LastStartTime             null.String `json:"fdLastStartTime"`
	RunHour                   null.Int    `json:"fnRunHour"`
	RunMinute                 null.Int    `json:"fnRunMinute"`
	Rescheduled               bool        `json:"fbRescheduled"`
	CaptureMonthlySnapshot    bool        `json:"fbCaptureMonthlySnapshot"`
	RunOnEveryFirstDayOfMonth bool        `json:"fnRunOnEveryFirstDayOfMonth"`
	IsDeleted                 bool        `json:"IsDeleted,omitempty"`
}

// Days returns the day flags indexed by Weekday-1 (Sunday first).
func (w Week) Days() [7]bool {
	return [7]bool{w.Sunday, w.Monday, w.Tuesday, w.Wednesday, w.Thursday, w.Friday, w.Saturday}
}

// SetDay sets the flag of a single weekday.
func (w *Week) SetDay(d Weekday, on bool) {
	switch d {
	case Sunday:
		w.Sunday = on
	case Monday:
		w.Monday = on
	case Tuesday:
		w.Tuesday = on
	case Wednesday:
		w.Wednesday = on
	case Thursday:
		w.Thursday = on
	case Friday:
		w.Friday = on
	case Saturday:
		w.Saturday = on
	}
}

// HasDay reports whether the weekday flag is set.
func (w Week) HasDay(d Weekday) bool {
	if !d.Valid() {
		return false
	}
	return w.Days()[d-1]
}

// LastWeekNo marks "last <weekday> of the month" in Month.WeekNo.
const LastWeekNo = 5

// Month runs on DayOfMonth, or on the WeekNo-th WeekDay when OnDays is set.
type Month struct {
	ReportID                  int         `json:"fnReportID"`
	DayOfMonth                int         `json:"fnDayOfMonth"`
	RecurrenceMonths          null.Int    `json:"fnRecurrenceMonths"`
	LastRunDate               null.String `json:"fdLastRunDate"`
	StatusID                  null.Int    `json:"fnStatusID"`
	RunHour                   null.Int    `json:"fnRunHour"`
	RunMinute                 null.Int    `json:"fnRunMinute"`
	Rescheduled               bool        `json:"fbRescheduled"`
	OnDays                    null.String `json:"fnOndays"`
	WeekDay                   null.String `json:"fnWeekDay"`
	WeekNo                    int         `json:"fnWeekNo"`
	CaptureMonthlySnapshot    bool        `json:"fbCaptureMonthlySnapshot"`
	RunOnEveryFirstDayOfMonth bool        `json:"fnRunOnEveryFirstDayOfMonth"`
	IsDeleted                 bool        `json:"IsDeleted,omitempty"`
}

// NthWeekday reports whether the month runs on a weekday rule instead of a fixed day.
func (m Month) NthWeekday() bool {
	return m.WeekNo > 0 && m.WeekDay.Valid && m.WeekDay.String != ""
}

type Hour struct {
	ReportID        int         `json:"fnReportID"`
	RunMinute       null.Int    `json:"fnRunMinute"`
	RunHourStart    null.Int    `json:"fnRunHourStart"`
	RunHourEnd      null.Int    `json:"fnRunHourEnd"`
	RecurrenceHours null.Int    `json:"fnRecurrenceHours"`
	LastRunDate     null.String `json:"fdLastRunDate"`
	StatusID        null.Int    `json:"fnStatusID"`
	Rescheduled     bool        `json:"fbRescheduled"`
	IsDeleted       bool        `json:"IsDeleted,omitempty"`
}
