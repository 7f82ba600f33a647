package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"learning_streak_backend/internal/model"
	"learning_streak_backend/internal/repository"
	"learning_streak_backend/pkg/locker"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) AdvanceDays(n int) {
	c.mu.Lock()
	c.t = c.t.AddDate(0, 0, n)
	c.mu.Unlock()
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func (c *fakeClock) Today() time.Time {
	y, m, d := c.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	store  *repository.MemoryStore
	clock  *fakeClock
	cache  *StreakCache
	engine *StreakService
	query  *QueryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, repository.NewMemoryStore())
}

func newFixtureWithStore(t *testing.T, store *repository.MemoryStore) *fixture {
	t.Helper()
	return newFixtureWith(t, store, store)
}

// newFixtureWith engine 使用 engineStore（可注入故障），query 与断言使用 store
func newFixtureWith(t *testing.T, store *repository.MemoryStore, engineStore repository.StreakStore) *fixture {
	t.Helper()
	clock := newFakeClock()
	cache := NewStreakCache(16)
	catalog := model.BadgeCatalog()

	engine := NewStreakService(engineStore, locker.NewKeyedMutex(time.Second), NewBadgeAwarder(catalog, clock.Now), cache).
		WithClock(clock.Now, time.UTC)
	query := NewQueryService(store, catalog, cache).WithClock(clock.Now, time.UTC)

	return &fixture{store: store, clock: clock, cache: cache, engine: engine, query: query}
}

// seedStreak 直接写入一条记录，lastDaysAgo 相对 clock 的今天
func (f *fixture) seedStreak(t *testing.T, userID uint, current, longest, total, lastDaysAgo int) {
	t.Helper()
	last := f.clock.Today().AddDate(0, 0, -lastDaysAgo)
	require.NoError(t, f.store.SaveStreak(context.Background(), &model.UserStreak{
		UserID:          userID,
		CurrentStreak:   current,
		LongestStreak:   longest,
		LastActiveDay:   &last,
		TotalDaysActive: total,
	}))
}

func (f *fixture) seedBadges(t *testing.T, userID uint, names ...string) {
	t.Helper()
	for _, name := range names {
		_, err := f.store.AwardBadge(context.Background(), &model.UserBadge{
			UserID:    userID,
			BadgeName: name,
			EarnedAt:  f.clock.Now().AddDate(0, 0, -30),
		})
		require.NoError(t, err)
	}
}

func (f *fixture) activityCount(t *testing.T, userID uint) int {
	t.Helper()
	entries, err := f.store.ListActivity(context.Background(), userID,
		time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return len(entries)
}

func badgeNames(badges []model.BadgeDefinition) []string {
	names := make([]string, 0, len(badges))
	for _, b := range badges {
		names = append(names, b.Name)
	}
	return names
}

// faultyStore 在指定操作上注入错误，事务内同样生效
type faultyStore struct {
	repository.StreakStore
	appendErr error
	awardErr  error
	saveErr   error
}

func (f *faultyStore) SaveStreak(ctx context.Context, streak *model.UserStreak) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.StreakStore.SaveStreak(ctx, streak)
}

func (f *faultyStore) AppendActivity(ctx context.Context, entry *model.StreakActivity) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	return f.StreakStore.AppendActivity(ctx, entry)
}

func (f *faultyStore) AwardBadge(ctx context.Context, award *model.UserBadge) (bool, error) {
	if f.awardErr != nil {
		return false, f.awardErr
	}
	return f.StreakStore.AwardBadge(ctx, award)
}

func (f *faultyStore) Transaction(ctx context.Context, fn func(tx repository.StreakStore) error) error {
	return f.StreakStore.Transaction(ctx, func(tx repository.StreakStore) error {
		return fn(&faultyStore{StreakStore: tx, appendErr: f.appendErr, awardErr: f.awardErr, saveErr: f.saveErr})
	})
}

type failingLocker struct{ err error }

func (l failingLocker) Lock(ctx context.Context, key string) (func(), error) {
	return nil, l.err
}

// pausingStore 在 FindStreak 读完之后暂停，直到 release 关闭
type pausingStore struct {
	*repository.MemoryStore
	armed   atomic.Bool
	read    chan struct{}
	release chan struct{}
}

func newPausingStore(store *repository.MemoryStore) *pausingStore {
	p := &pausingStore{MemoryStore: store, read: make(chan struct{}), release: make(chan struct{})}
	p.armed.Store(true)
	return p
}

func (p *pausingStore) FindStreak(ctx context.Context, userID uint) (*model.UserStreak, error) {
	streak, err := p.MemoryStore.FindStreak(ctx, userID)
	if p.armed.CompareAndSwap(true, false) {
		close(p.read)
		<-p.release
	}
	return streak, err
}

// hookedStore 在 ListActivity 返回前执行 onList
type hookedStore struct {
	*repository.MemoryStore
	onList func()
}

func (h *hookedStore) ListActivity(ctx context.Context, userID uint, from, to time.Time) ([]model.StreakActivity, error) {
	entries, err := h.MemoryStore.ListActivity(ctx, userID, from, to)
	if h.onList != nil {
		h.onList()
	}
	return entries, err
}
