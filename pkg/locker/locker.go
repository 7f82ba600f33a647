// Package locker 提供按 key 串行化的互斥锁，用于保证同一用户的连续学习更新不会并发执行。
package locker

import (
	"context"
	"errors"
)

var ErrLockTimeout = errors.New("lock wait timeout")

// Locker 获取 key 上的锁，返回的 unlock 可重复调用
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
