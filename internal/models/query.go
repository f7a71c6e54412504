package models

import "github.com/guregu/null/v5"

// Report list ordering keys.
const (
	OrderByID      = 1
	OrderByName    = 2
	OrderByRunDate = 3
	OrderByStatus  = 4
)

// ReportQueryOptions is the getreports request body and the persisted list state.
type ReportQueryOptions struct {
	Take           int      `json:"Take"`
	Skip           int      `json:"Skip"`
	OrderBy        int      `json:"OrderBy"`
	OrderByReverse bool     `json:"OrderByReverse"`
	Status         null.Int `json:"Status"`
	Type           null.Int `json:"Type"`
	TypeDayOfWeek  null.Int `json:"TypeDayOfWeek"`
	TypeDayOfMonth null.Int `json:"TypeDayOfMonth"`
	User           null.Int `json:"User"`
	Department     null.Int `json:"Department"`
	SearchTerm     string   `json:"SearchTerm"`
	Database       string   `json:"Database"`
	Server         string   `json:"Server"`
}

// DefaultReportQueryOptions returns the first page of ten ordered by id.
func DefaultReportQueryOptions() ReportQueryOptions {
	return ReportQueryOptions{
		Take:    10,
		Skip:    0,
		OrderBy: OrderByID,
	}
}
