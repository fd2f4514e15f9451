package assignment

import "context"

// Repository はアサイン永続化の抽象です。物理削除は提供しません。
type Repository interface {
	Create(ctx context.Context, a *Assignment) (*Assignment, error)
	Update(ctx context.Context, a *Assignment) (*Assignment, error)
	FindByID(ctx context.Context, id int64) (*Assignment, error)
	// FindByIDForUpdate はトランザクション内でアサイン行を排他ロックして取得します。
	FindByIDForUpdate(ctx context.Context, id int64) (*Assignment, error)
	List(ctx context.Context, filter ListAssignmentsFilter) ([]*Assignment, string, error)
}

// ListAssignmentsFilter は一覧取得用フィルタです。
type ListAssignmentsFilter struct {
	EmployeeID *int64
	ProjectID  *int64
	Status     *Status
	Limit      int
	Offset     int
}
