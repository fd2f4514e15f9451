package workload

import (
	"context"
	"fmt"

	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/core/calendar"
	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/core/employee"
	"github.com/shopspring/decimal"
)

// 実効稼働率と日次合計は小数第 2 位で四捨五入します。
const allocationScale = 2

// UseCase は稼働率計算と検証の公開インターフェースです。
type UseCase interface {
	CalculateWorkload(ctx context.Context, in CalculateWorkloadInput) ([]DailyWorkload, error)
	ValidateAssignment(ctx context.Context, in ValidateAssignmentInput) (*ValidationResult, error)
}

// CalculateWorkloadInput は稼働率計算の入力です。Start と End はともに含みます。
type CalculateWorkloadInput struct {
	EmployeeID          int64
	Start               calendar.Date
	End                 calendar.Date
	ExcludeAssignmentID *int64
}

// Calculator は社員の日次稼働率を計算します。
type Calculator struct {
	employees   EmployeeFinder
	allocations AllocationSource
	tx          TransactionManager
}

// NewCalculator は Calculator を生成します。
func NewCalculator(employees EmployeeFinder, allocations AllocationSource, tx TransactionManager) *Calculator {
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Calculator{employees: employees, allocations: allocations, tx: tx}
}

// CalculateWorkload は期間内の各日について有効なアサインの実効稼働率を集計します。
// 結果は日付の昇順で、期間の日数と同じ件数になります。
func (c *Calculator) CalculateWorkload(ctx context.Context, in CalculateWorkloadInput) ([]DailyWorkload, error) {
	if in.EmployeeID <= 0 {
		return nil, ErrInvalidEmployeeID
	}

	period, err := calendar.NewRange(in.Start, in.End)
	if err != nil {
		return nil, err
	}

	var days []DailyWorkload
	if err := c.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		emp, err := c.employees.FindByID(txCtx, in.EmployeeID)
		if err != nil {
			return err
		}

		allocations, err := c.allocations.ListActiveAllocations(txCtx, AllocationQuery{
			EmployeeID:          in.EmployeeID,
			Period:              period,
			ExcludeAssignmentID: in.ExcludeAssignmentID,
		})
		if err != nil {
			return fmt.Errorf("workload: list allocations: %w", err)
		}

		days = buildDailyWorkloads(emp, period, allocations)
		return nil
	}); err != nil {
		return nil, err
	}

	return days, nil
}

func buildDailyWorkloads(emp *employee.Employee, period calendar.Range, allocations []Allocation) []DailyWorkload {
	factor := capacityFactor(emp)
	days := make([]DailyWorkload, 0, period.Days())

	period.Each(func(day calendar.Date) {
		total := decimal.Zero
		entries := make([]ProjectAllocation, 0)

		for _, a := range allocations {
			if !a.Period.Contains(day) {
				continue
			}
			effective := EffectiveAllocation(a.AllocationPercentage, factor)
			total = total.Add(effective)
			entries = append(entries, ProjectAllocation{
				AssignmentID:         a.AssignmentID,
				ProjectID:            a.ProjectID,
				ProjectName:          a.ProjectName,
				AllocationPercentage: a.AllocationPercentage,
				EffectiveAllocation:  effective,
			})
		}

		days = append(days, DailyWorkload{
			Date:          day,
			TotalWorkload: total.Round(allocationScale),
			Assignments:   entries,
		})
	})

	return days
}

// capacityFactor は work_time_factor × part_time_fraction を返します。
func capacityFactor(emp *employee.Employee) decimal.Decimal {
	workTime := decimal.NewFromFloat(emp.WorkTimeFactor)
	partTime := decimal.NewFromFloat(emp.PartTimeFactor).Shift(-2)
	return workTime.Mul(partTime)
}

// EffectiveAllocation は allocation × factor を小数第 2 位で四捨五入した値を返します。
func EffectiveAllocation(allocationPercentage int, factor decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(int64(allocationPercentage)).Mul(factor).Round(allocationScale)
}

// MaxTotalWorkload は日次合計の最大値を返します。days が空ならゼロです。
func MaxTotalWorkload(days []DailyWorkload) decimal.Decimal {
	highest := decimal.Zero
	for _, d := range days {
		if d.TotalWorkload.GreaterThan(highest) {
			highest = d.TotalWorkload
		}
	}
	return highest
}
