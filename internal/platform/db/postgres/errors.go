package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/core/failure"
)

const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateLockNotAvailable     = "55P03"
	sqlStateAdminShutdown        = "57P01"
	sqlStateCannotConnectNow     = "57P03"
)

// IsTransient は再試行で成功しうるエラーかを判定します。
// シリアライズ失敗・デッドロック・ロック待ち失敗・接続断が該当します。
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateSerializationFailure, sqlStateDeadlockDetected, sqlStateLockNotAvailable,
			sqlStateAdminShutdown, sqlStateCannotConnectNow:
			return true
		default:
			return false
		}
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	return pgconn.SafeToRetry(err) || pgconn.Timeout(err)
}

// Classify は一時的なエラーを failure.ErrTransient に分類します。それ以外はそのまま返します。
func Classify(err error) error {
	if err == nil || errors.Is(err, failure.ErrTransient) || !IsTransient(err) {
		return err
	}
	return failure.Wrap(failure.ErrTransient, err)
}
