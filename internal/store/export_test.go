package store

import "testing"

func setBeforeBreakInsert(t *testing.T, fn func(index int) error) {
	t.Helper()
	prev := beforeBreakInsert
	beforeBreakInsert = fn
	t.Cleanup(func() { beforeBreakInsert = prev })
}
