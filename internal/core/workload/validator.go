package workload

import (
	"context"
	"fmt"

	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/core/calendar"
	"github.com/shopspring/decimal"
)

const (
	// AllocationStep はアサイン割合の刻み幅です。
	AllocationStep = 10
	// MaxAllocation は一件のアサイン割合の上限です。
	MaxAllocation = 100

	// MessageAllocationStep は刻み幅違反時のメッセージです。
	MessageAllocationStep = "Allocation must be in steps of 10%"
	// MessageHighWorkload は高稼働警告のメッセージです。
	MessageHighWorkload = "High workload warning (>80%)"
)

var (
	workloadCeiling   = decimal.NewFromInt(100)
	workloadWarnLevel = decimal.NewFromInt(80)
)

// ValidateAssignmentInput はアサイン検証の入力です。
type ValidateAssignmentInput struct {
	EmployeeID           int64
	Start                calendar.Date
	End                  calendar.Date
	AllocationPercentage int
	// ExcludeAssignmentID は更新対象のアサイン自身を既存稼働から除外するために使います。
	ExcludeAssignmentID *int64
}

// Service は Calculator と Validator をまとめた UseCase 実装です。
type Service struct {
	*Calculator
	*Validator
}

// NewService は Service を生成します。
func NewService(calc *Calculator) *Service {
	return &Service{Calculator: calc, Validator: NewValidator(calc)}
}

type workloadCalculator interface {
	CalculateWorkload(ctx context.Context, in CalculateWorkloadInput) ([]DailyWorkload, error)
}

// Validator は既存の稼働に対して新しい割合を追加できるかを判定します。
type Validator struct {
	calc workloadCalculator
}

// NewValidator は Validator を生成します。
func NewValidator(calc workloadCalculator) *Validator {
	return &Validator{calc: calc}
}

// ValidateAssignment は割合の刻み、上限、警告閾値の順に判定します。
// 判定結果は error ではなく ValidationResult で返し、計算そのものの失敗のみ error を返します。
func (v *Validator) ValidateAssignment(ctx context.Context, in ValidateAssignmentInput) (*ValidationResult, error) {
	if !IsValidAllocation(in.AllocationPercentage) {
		return &ValidationResult{Valid: false, Warning: false, Message: MessageAllocationStep}, nil
	}

	days, err := v.calc.CalculateWorkload(ctx, CalculateWorkloadInput{
		EmployeeID:          in.EmployeeID,
		Start:               in.Start,
		End:                 in.End,
		ExcludeAssignmentID: in.ExcludeAssignmentID,
	})
	if err != nil {
		return nil, err
	}

	projected := MaxTotalWorkload(days).Add(decimal.NewFromInt(int64(in.AllocationPercentage)))

	switch {
	case projected.GreaterThan(workloadCeiling):
		return &ValidationResult{
			Valid:   false,
			Warning: false,
			Message: fmt.Sprintf("Total workload would exceed 100%%: %s%%", projected.String()),
		}, nil
	case projected.GreaterThan(workloadWarnLevel):
		return &ValidationResult{Valid: true, Warning: true, Message: MessageHighWorkload}, nil
	default:
		return &ValidationResult{Valid: true}, nil
	}
}

// IsValidAllocation は 0 < x <= 100 かつ 10 刻みかを返します。
func IsValidAllocation(allocationPercentage int) bool {
	return allocationPercentage > 0 &&
		allocationPercentage <= MaxAllocation &&
		allocationPercentage%AllocationStep == 0
}
