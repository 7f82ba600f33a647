package util

import (
	"strconv"
	"strings"
)

// ParseIntDefault 空字符串返回默认值，否则按十进制解析
func ParseIntDefault(s string, def int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}
