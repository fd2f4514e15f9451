// Package failure はユースケース層で共有するエラー分類を定義します。
package failure

import "errors"

// 分類用のセンチネルエラーです。各ドメインのエラーはいずれかを包みます。
var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrReferenceNotFound = errors.New("reference not found")
	ErrConflict          = errors.New("conflict")
	ErrTransient         = errors.New("transient failure")
)

// Error は分類とメッセージを持つエラーです。
type Error struct {
	kind  error
	msg   string
	cause error
}

// Error はメッセージをそのまま返します。
func (e *Error) Error() string {
	return e.msg
}

// Unwrap は分類と原因エラーを返します。
func (e *Error) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}

// Kind は分類用のセンチネルエラーを返します。
func (e *Error) Kind() error {
	return e.kind
}

// New は指定した分類のエラーを生成します。
func New(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// Wrap は原因エラーを保持したまま分類を付与します。
func Wrap(kind error, err error) error {
	if err == nil {
		return nil
	}
	return &Error{kind: kind, msg: err.Error(), cause: err}
}

// NotFound は ErrNotFound に分類されるエラーを生成します。
func NotFound(msg string) *Error { return New(ErrNotFound, msg) }

// Validation は ErrValidation に分類されるエラーを生成します。
func Validation(msg string) *Error { return New(ErrValidation, msg) }

// ReferenceNotFound は ErrReferenceNotFound に分類されるエラーを生成します。
func ReferenceNotFound(msg string) *Error { return New(ErrReferenceNotFound, msg) }

// Conflict は ErrConflict に分類されるエラーを生成します。
func Conflict(msg string) *Error { return New(ErrConflict, msg) }

// IsTransient は呼び出し元で再試行可能なエラーかを判定します。
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
