package repository

import (
	"sync"
)

// memTable 按 tenant 隔离的内存表，存值拷贝
type memTable[T any] struct {
	mu   sync.RWMutex
	rows map[string]map[string]T // tenantID -> id -> row
}

func newMemTable[T any]() *memTable[T] {
	return &memTable[T]{rows: map[string]map[string]T{}}
}

func (t *memTable[T]) get(tenantID, id string) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.rows[tenantID][id]
	return v, ok
}

func (t *memTable[T]) put(tenantID, id string, v T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.rows[tenantID] == nil {
		t.rows[tenantID] = map[string]T{}
	}
	t.rows[tenantID][id] = v
}

// replace 只在记录已存在时覆盖
func (t *memTable[T]) replace(tenantID, id string, v T) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[tenantID][id]; !ok {
		return false
	}
	t.rows[tenantID][id] = v
	return true
}

func (t *memTable[T]) del(tenantID, id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[tenantID][id]; !ok {
		return false
	}
	delete(t.rows[tenantID], id)
	return true
}

// list 返回 keep 为 true 的行（keep 为 nil 时全部），顺序不保证
func (t *memTable[T]) list(tenantID string, keep func(T) bool) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]T, 0, len(t.rows[tenantID]))
	for _, v := range t.rows[tenantID] {
		if keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// update 在写锁内对某个 tenant 的整张表做复合操作
func (t *memTable[T]) update(tenantID string, fn func(rows map[string]T) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.rows[tenantID] == nil {
		t.rows[tenantID] = map[string]T{}
	}
	return fn(t.rows[tenantID])
}
