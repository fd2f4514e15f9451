package employee

import "context"

// Repository は社員参照の抽象です。社員の作成・更新はこのサービスの範囲外です。
type Repository interface {
	FindByID(ctx context.Context, id int64) (*Employee, error)
	// LockByID はトランザクション内で社員行を排他ロックして取得します。
	LockByID(ctx context.Context, id int64) (*Employee, error)
}
