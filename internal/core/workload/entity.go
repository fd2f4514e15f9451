package workload

import (
	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/core/calendar"
	"github.com/shopspring/decimal"
)

// Allocation は稼働率計算の対象となる有効なアサインのスナップショットです。
type Allocation struct {
	AssignmentID         int64
	ProjectID            int64
	ProjectName          string
	AllocationPercentage int
	Period               calendar.Range
}

// ProjectAllocation はある一日における一件のアサインの実効稼働率です。
type ProjectAllocation struct {
	AssignmentID         int64
	ProjectID            int64
	ProjectName          string
	AllocationPercentage int
	EffectiveAllocation  decimal.Decimal
}

// DailyWorkload は一日分の稼働率の内訳です。永続化はされません。
type DailyWorkload struct {
	Date          calendar.Date
	TotalWorkload decimal.Decimal
	Assignments   []ProjectAllocation
}

// ValidationResult はアサイン検証の結果です。Message は問題がなければ空文字列です。
type ValidationResult struct {
	Valid   bool
	Warning bool
	Message string
}
