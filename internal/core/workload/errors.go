package workload

import "github.com/ogurasousui/staffing-grpc-clean-arch/internal/core/failure"

// ErrInvalidEmployeeID は社員 ID が正の整数でない場合に返却されます。
var ErrInvalidEmployeeID = failure.Validation("workload: employee id must be positive")
