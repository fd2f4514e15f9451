package assignment

import (
	"time"

	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/core/calendar"
)

// Status はアサインの状態を表します。
type Status string

const (
	StatusActive     Status = "active"
	StatusTerminated Status = "terminated"
)

// Assignment は社員のプロジェクトへのアサインです。終了は論理削除として扱い、行は残します。
type Assignment struct {
	ID                   int64
	EmployeeID           int64
	ProjectID            int64
	RequirementID        *int64
	ProjectName          string
	AllocationPercentage int
	StartDate            calendar.Date
	EndDate              calendar.Date
	Status               Status
	// WorkloadWarning は保存時点の検証結果をキャッシュしたものです。
	WorkloadWarning   bool
	TerminationReason *string
	Notes             *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Period はアサイン期間を閉区間として返します。
func (a *Assignment) Period() calendar.Range {
	return calendar.Range{Start: a.StartDate, End: a.EndDate}
}

// IsActive は status=active かを返します。
func (a *Assignment) IsActive() bool {
	return a.Status == StatusActive
}
