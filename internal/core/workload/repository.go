package workload

import (
	"context"

	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/core/calendar"
	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/core/employee"
)

// AllocationQuery は期間と重なる有効なアサインの検索条件です。
type AllocationQuery struct {
	EmployeeID int64
	Period     calendar.Range
	// ExcludeAssignmentID が指定された場合、そのアサインは結果に含めません。
	ExcludeAssignmentID *int64
}

// AllocationSource は status=active かつ期間が重なるアサインを返します。
// 重なり判定は assignment.start <= period.end AND assignment.end >= period.start です。
type AllocationSource interface {
	ListActiveAllocations(ctx context.Context, q AllocationQuery) ([]Allocation, error)
}

// EmployeeFinder は稼働率計算に必要な社員情報を取得します。
type EmployeeFinder interface {
	FindByID(ctx context.Context, id int64) (*employee.Employee, error)
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}
