package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"learning_streak_backend/internal/model"
	"learning_streak_backend/internal/util"
)

type memoryState struct {
	streaks    map[uint]*model.UserStreak
	activities map[uint][]model.StreakActivity
	awards     map[uint][]model.UserBadge
	nextID     uint
}

func newMemoryState() *memoryState {
	return &memoryState{
		streaks:    make(map[uint]*model.UserStreak),
		activities: make(map[uint][]model.StreakActivity),
		awards:     make(map[uint][]model.UserBadge),
	}
}

func (s *memoryState) clone() *memoryState {
	out := newMemoryState()
	out.nextID = s.nextID
	for k, v := range s.streaks {
		out.streaks[k] = v.Clone()
	}
	for k, v := range s.activities {
		out.activities[k] = append([]model.StreakActivity(nil), v...)
	}
	for k, v := range s.awards {
		out.awards[k] = append([]model.UserBadge(nil), v...)
	}
	return out
}

func (s *memoryState) id() uint {
	s.nextID++
	return s.nextID
}

// MemoryStore 内存实现，用于 database.driver=memory 的本地运行和测试。
// 事务在快照上执行，成功后整体替换，失败则丢弃。
type MemoryStore struct {
	mu    sync.RWMutex
	txMu  sync.Mutex
	state *memoryState
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemoryState(), now: time.Now}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (m *MemoryStore) FindStreak(ctx context.Context, userID uint) (*model.UserStreak, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	streak, ok := m.state.streaks[userID]
	if !ok {
		return nil, util.ErrStreakNotFound
	}
	return streak.Clone(), nil
}

func (m *MemoryStore) SaveStreak(ctx context.Context, streak *model.UserStreak) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if streak.ID == 0 {
		if _, exists := m.state.streaks[streak.UserID]; exists {
			return util.ErrActivityConflict
		}
		streak.ID = m.state.id()
		streak.CreatedAt = now
	}
	streak.UpdatedAt = now
	m.state.streaks[streak.UserID] = streak.Clone()
	return nil
}

func (m *MemoryStore) AppendActivity(ctx context.Context, entry *model.StreakActivity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.state.activities[entry.UserID] {
		if sameDay(existing.ActivityDay, entry.ActivityDay) {
			return util.ErrActivityConflict
		}
	}
	entry.ID = m.state.id()
	entry.CreatedAt = m.now()
	m.state.activities[entry.UserID] = append(m.state.activities[entry.UserID], *entry)
	return nil
}

func (m *MemoryStore) ListActivity(ctx context.Context, userID uint, from, to time.Time) ([]model.StreakActivity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := []model.StreakActivity{}
	for _, e := range m.state.activities[userID] {
		if e.ActivityDay.Before(from) || e.ActivityDay.After(to) {
			continue
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ActivityDay.Before(entries[j].ActivityDay)
	})
	return entries, nil
}

func (m *MemoryStore) ListBadgeAwards(ctx context.Context, userID uint) ([]model.UserBadge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]model.UserBadge{}, m.state.awards[userID]...), nil
}

func (m *MemoryStore) AwardBadge(ctx context.Context, award *model.UserBadge) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.state.awards[award.UserID] {
		if existing.BadgeName == award.BadgeName {
			return false, nil
		}
	}
	award.ID = m.state.id()
	m.state.awards[award.UserID] = append(m.state.awards[award.UserID], *award)
	return true, nil
}

func (m *MemoryStore) Transaction(ctx context.Context, fn func(tx StreakStore) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.RLock()
	snapshot := m.state.clone()
	m.mu.RUnlock()

	tx := &MemoryStore{state: snapshot, now: m.now}
	if err := fn(tx); err != nil {
		return err
	}

	m.mu.Lock()
	m.state = tx.state
	m.mu.Unlock()
	return nil
}
