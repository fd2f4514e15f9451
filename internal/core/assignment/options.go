package assignment

import (
	"context"
	"log/slog"
	"time"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// Locker は社員単位の排他を提供します。返却された関数でロックを解放します。
type Locker interface {
	Lock(ctx context.Context, key int64) (func(), error)
}

type noopLocker struct{}

func (noopLocker) Lock(context.Context, int64) (func(), error) {
	return func() {}, nil
}

// Metrics はアサイン操作の計測を受け取ります。
type Metrics interface {
	// ObserveOperation は操作名・結果・所要時間を記録します。
	ObserveOperation(op, outcome string, elapsed time.Duration)
	// RecordValidation は稼働率検証の結果 (accepted, warning, rejected) を記録します。
	RecordValidation(outcome string)
}

type nopMetrics struct{}

func (nopMetrics) ObserveOperation(string, string, time.Duration) {}
func (nopMetrics) RecordValidation(string)                        {}

// Option は Service の任意依存を設定します。
type Option func(*Service)

// WithClock は現在時刻の取得元を差し替えます。
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLocker はプロセス内の社員単位ロックを設定します。
//
// 未設定の場合、直列化は社員行の SELECT ... FOR UPDATE のみに依存します。
func WithLocker(locker Locker) Option {
	return func(s *Service) {
		if locker != nil {
			s.locker = locker
		}
	}
}

// WithLogger はロガーを設定します。
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics はメトリクス収集先を設定します。
func WithMetrics(metrics Metrics) Option {
	return func(s *Service) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

// WithOperationTimeout は更新系操作全体のタイムアウトを設定します。0 以下なら無制限です。
func WithOperationTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		s.timeout = timeout
	}
}
