// Package store はクライアントの認証情報を保持するキーバリューストアを提供する。
package store

import (
	"context"
	"sync"
)

// Memory はプロセス内でのみ値を保持するストア。
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory は空のMemoryを生成する。
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Get はkeyの値を返す。存在しない場合はokがfalseになる。
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set はkeyに値を書き込む。
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Delete はkeyを削除する。存在しないkeyの削除は成功として扱う。
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
