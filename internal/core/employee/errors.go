package employee

import "github.com/ogurasousui/staffing-grpc-clean-arch/internal/core/failure"

var (
	// ErrEmployeeNotFound は社員が存在しない場合に返却されます。
	ErrEmployeeNotFound = failure.NotFound("employee: not found")
	// ErrInvalidID は ID が不正な場合に返却されます。
	ErrInvalidID = failure.Validation("employee: invalid id")
)
