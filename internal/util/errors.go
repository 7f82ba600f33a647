package util

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrStreakNotFound   = errors.New("streak record not found")
	ErrActivityConflict = errors.New("activity already recorded for this day")
	ErrStorage          = errors.New("storage unavailable")
	ErrInvalidWindow    = errors.New("window days must be positive")
)

// WrapStorage 将底层存储错误包装为 ErrStorage，保留原始错误
func WrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
