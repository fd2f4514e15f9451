package lock

import (
	"context"
	"sync"

	"github.com/puzpuzpuz/xsync/v4"
)

type entry struct {
	sem  chan struct{}
	refs int
}

// KeyedMutex はキーごとの排他ロックを提供します。
// 待機者がいなくなったキーは自動的に破棄されます。
type KeyedMutex struct {
	entries *xsync.Map[int64, *entry]
}

// NewKeyedMutex は KeyedMutex を生成します。
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: xsync.NewMap[int64, *entry]()}
}

// Lock は key のロックを取得します。ctx が終了した場合は ctx.Err() を返します。
// 返却された関数を呼ぶとロックを解放します。複数回呼んでも安全です。
func (k *KeyedMutex) Lock(ctx context.Context, key int64) (func(), error) {
	e, _ := k.entries.Compute(key, func(old *entry, loaded bool) (*entry, xsync.ComputeOp) {
		if !loaded {
			old = &entry{sem: make(chan struct{}, 1)}
		}
		old.refs++
		return old, xsync.UpdateOp
	})

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		k.leave(key)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			k.leave(key)
		})
	}, nil
}

// Len は現在保持しているキー数を返します。
func (k *KeyedMutex) Len() int {
	return k.entries.Size()
}

func (k *KeyedMutex) leave(key int64) {
	k.entries.Compute(key, func(old *entry, loaded bool) (*entry, xsync.ComputeOp) {
		if !loaded {
			return old, xsync.CancelOp
		}
		old.refs--
		if old.refs == 0 {
			return old, xsync.DeleteOp
		}
		return old, xsync.UpdateOp
	})
}
