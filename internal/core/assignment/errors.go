package assignment

import (
	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/core/failure"
)

var (
	// ErrAssignmentNotFound はアサインが存在しない場合に返却されます。
	ErrAssignmentNotFound = failure.NotFound("assignment: not found")
	// ErrInvalidID は ID が不正な場合に返却されます。
	ErrInvalidID = failure.Validation("assignment: invalid id")
	// ErrInvalidEmployeeID は社員 ID が不正な場合に返却されます。
	ErrInvalidEmployeeID = failure.Validation("assignment: invalid employee id")
	// ErrInvalidProjectID はプロジェクト ID が不正な場合に返却されます。
	ErrInvalidProjectID = failure.Validation("assignment: invalid project id")
	// ErrInvalidRequirementID は要件 ID が不正な場合に返却されます。
	ErrInvalidRequirementID = failure.Validation("assignment: invalid requirement id")
	// ErrInvalidNotes は備考が長すぎる場合に返却されます。
	ErrInvalidNotes = failure.Validation("assignment: notes too long")
	// ErrInvalidAllocation は割合が 10 刻みでない場合に返却されます。
	ErrInvalidAllocation = failure.Validation("Allocation must be in steps of 10%")
	// ErrInvalidPeriod は期間が不正な場合に返却されます。
	ErrInvalidPeriod = failure.Validation("assignment: end date must not be before start date")
	// ErrInvalidStatus はステータスが不正な場合に返却されます。
	ErrInvalidStatus = failure.Validation("assignment: invalid status")
	// ErrInvalidPageSize は一覧取得時のページサイズが不正な場合に返却されます。
	ErrInvalidPageSize = failure.Validation("assignment: invalid page size")
	// ErrInvalidPageToken は一覧取得時のページトークンが不正な場合に返却されます。
	ErrInvalidPageToken = failure.Validation("assignment: invalid page token")
	// ErrTerminationReasonRequired は終了理由が空の場合に返却されます。
	ErrTerminationReasonRequired = failure.Validation("assignment: termination reason is required")
	// ErrAlreadyTerminated は終了済みのアサインを再度終了しようとした場合に返却されます。
	ErrAlreadyTerminated = failure.Validation("assignment: already terminated")

	// ErrEmployeeReference は参照先の社員が存在しない場合に返却されます。
	ErrEmployeeReference = failure.ReferenceNotFound("assignment: employee does not exist")
	// ErrProjectReference は参照先のプロジェクトが存在しない場合に返却されます。
	ErrProjectReference = failure.ReferenceNotFound("assignment: project does not exist")
	// ErrRequirementReference は参照先の要件が存在しない場合に返却されます。
	ErrRequirementReference = failure.ReferenceNotFound("assignment: requirement does not exist")
)

// ValidationError は稼働率検証で拒否された場合のエラーです。Error は検証メッセージをそのまま返します。
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap は failure.ErrValidation を返します。
func (e *ValidationError) Unwrap() error {
	return failure.ErrValidation
}
