package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBadgeCatalogOrdered(t *testing.T) {
	catalog := BadgeCatalog()
	assert.Len(t, catalog, 11)

	names := map[string]bool{}
	for i, b := range catalog {
		assert.False(t, names[b.Name], "duplicate badge %s", b.Name)
		names[b.Name] = true
		if i > 0 {
			assert.Greater(t, b.MilestoneDays, catalog[i-1].MilestoneDays)
		}
	}
	assert.Equal(t, "Starter Spark", catalog[0].Name)
	assert.Equal(t, 1, catalog[0].MilestoneDays)
}

func TestBadgeCatalogReturnsCopy(t *testing.T) {
	catalog := BadgeCatalog()
	catalog[0].Name = "mutated"

	assert.Equal(t, "Starter Spark", BadgeCatalog()[0].Name)
}

func TestFindBadge(t *testing.T) {
	b, ok := FindBadge("Weekly Warrior")
	assert.True(t, ok)
	assert.Equal(t, 7, b.MilestoneDays)
	assert.Equal(t, "flame", b.Shape)

	_, ok = FindBadge("Nope")
	assert.False(t, ok)
}

func TestNextBadge(t *testing.T) {
	catalog := BadgeCatalog()

	next, ok := NextBadge(catalog, 0)
	assert.True(t, ok)
	assert.Equal(t, "Starter Spark", next.Name)

	next, ok = NextBadge(catalog, 7)
	assert.True(t, ok)
	assert.Equal(t, "Focused Learner", next.Name)

	_, ok = NextBadge(catalog, 200)
	assert.False(t, ok)
}

func TestUserStreakClone(t *testing.T) {
	var nilStreak *UserStreak
	assert.Nil(t, nilStreak.Clone())

	day := mustDay(2024, 3, 1)
	s := &UserStreak{UserID: 1, CurrentStreak: 2, LastActiveDay: &day}
	c := s.Clone()
	*c.LastActiveDay = mustDay(2024, 3, 2)

	assert.Equal(t, mustDay(2024, 3, 1), *s.LastActiveDay)
}

func mustDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
