package util

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToday(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	now := time.Date(2024, 5, 10, 20, 30, 0, 0, time.UTC) // 次日 04:30 (UTC+8)

	today := Today(now, loc)
	assert.Equal(t, time.Date(2024, 5, 11, 0, 0, 0, 0, loc), today)
	assert.Equal(t, "2024-05-11", FormatDay(today))
}

func TestNormalizeDayKeepsCalendarDate(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	stored := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	day := NormalizeDay(stored, loc)
	assert.Equal(t, 2024, day.Year())
	assert.Equal(t, time.May, day.Month())
	assert.Equal(t, 10, day.Day())
	assert.Equal(t, loc, day.Location())
}

func TestDaysBetween(t *testing.T) {
	d := func(y int, m time.Month, day int) time.Time {
		return time.Date(y, m, day, 0, 0, 0, 0, time.Local)
	}

	assert.Equal(t, 0, DaysBetween(d(2024, 1, 1), d(2024, 1, 1)))
	assert.Equal(t, 1, DaysBetween(d(2024, 1, 1), d(2024, 1, 2)))
	assert.Equal(t, 1, DaysBetween(d(2023, 12, 31), d(2024, 1, 1)))
	assert.Equal(t, 1, DaysBetween(d(2024, 2, 28), d(2024, 2, 29)))
	assert.Equal(t, 5, DaysBetween(d(2024, 3, 1), d(2024, 3, 6)))
	assert.Equal(t, -2, DaysBetween(d(2024, 3, 6), d(2024, 3, 4)))
}

func TestDaysBetweenAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	// 2024-03-10 夏令时开始，当天只有 23 小时
	from := time.Date(2024, 3, 10, 0, 0, 0, 0, ny)
	to := time.Date(2024, 3, 11, 0, 0, 0, 0, ny)
	assert.Equal(t, 1, DaysBetween(from, to))
}

func TestWrapStorage(t *testing.T) {
	assert.Nil(t, WrapStorage("noop", nil))

	cause := errors.New("connection refused")
	err := WrapStorage("load streak", cause)
	assert.True(t, errors.Is(err, ErrStorage))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "load streak")

	// 不重复包装
	assert.Equal(t, err, WrapStorage("again", err))
}

func TestParseIntDefault(t *testing.T) {
	v, err := ParseIntDefault("", 90)
	assert.NoError(t, err)
	assert.Equal(t, 90, v)

	v, err = ParseIntDefault(" 30 ", 90)
	assert.NoError(t, err)
	assert.Equal(t, 30, v)

	_, err = ParseIntDefault("abc", 90)
	assert.Error(t, err)
}
