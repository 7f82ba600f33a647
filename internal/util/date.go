package util

import "time"

// 日期按服务器所在时区（time.Local）的零点截断，不区分用户时区。

// Today 返回 now 在 loc 中所在日期的零点
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// NormalizeDay 取数据库读回的日期的年月日，不做时区换算。
// DATE 列在不同驱动下可能以 UTC 或本地零点返回。
func NormalizeDay(day time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// DaysBetween 返回 to 与 from 相差的自然日数，to 在前时为负
func DaysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	f := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	t := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

func FormatDay(day time.Time) string {
	return day.Format(DateFormat)
}
