package util

const (
	DateFormat = "2006-01-02"
)

// gin 上下文中的键
const (
	ContextUserKey = "user"
)
