package service

import (
	"sync"

	"learning_streak_backend/internal/model"

	lru "github.com/hashicorp/golang-lru"
)

const defaultStreakCacheSize = 1024

// StreakCache 缓存用户的连续学习记录，写入成功后由 StreakService 失效。
// 只影响本进程的读，多实例下读可能短暂落后。
//
// 读路径在查库前取 Version，回填时若期间发生过 Invalidate 则放弃回填，
// 避免旧记录覆盖刚提交的写入。
type StreakCache struct {
	mu    sync.Mutex
	cache *lru.Cache
	// userID -> 最近一次失效时的序号
	invalidated *lru.Cache
	seq         uint64
	// 被淘汰的失效序号中的最大值，淘汰后按此值保守判断
	floor uint64
}

func NewStreakCache(size int) *StreakCache {
	if size <= 0 {
		size = defaultStreakCacheSize
	}
	c := &StreakCache{}
	c.cache, _ = lru.New(size)
	c.invalidated, _ = lru.NewWithEvict(size, func(_, value interface{}) {
		// 在 c.mu 内由 invalidated.Add 触发
		if s := value.(uint64); s > c.floor {
			c.floor = s
		}
	})
	return c
}

func (c *StreakCache) Get(userID uint) (*model.UserStreak, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.cache.Get(userID)
	if !ok {
		return nil, false
	}
	return v.(*model.UserStreak).Clone(), true
}

// Version 查库前调用，结果传给 Add
func (c *StreakCache) Version() uint64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Add 仅当 version 之后该用户没有被失效时回填，返回是否写入
func (c *StreakCache) Add(streak *model.UserStreak, version uint64) bool {
	if c == nil || streak == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	last := c.floor
	if v, ok := c.invalidated.Peek(streak.UserID); ok {
		last = v.(uint64)
	}
	if last > version {
		return false
	}
	c.cache.Add(streak.UserID, streak.Clone())
	return true
}

func (c *StreakCache) Invalidate(userID uint) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	c.invalidated.Add(userID, c.seq)
	c.cache.Remove(userID)
}
