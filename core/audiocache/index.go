package audiocache

import (
	"context"
	"sync"
	"time"

	"CloudDJ/model"
)

// Index 缓存索引接口
// MySQL实现见repository包，内存实现用于测试和未配置数据库的部署
type Index interface {
	// Get 返回索引记录，不存在时返回(nil, nil)
	Get(ctx context.Context, trackID string) (*model.CacheEntry, error)
	// Put 写入索引记录，同trackId的旧记录整条替换
	Put(ctx context.Context, entry *model.CacheEntry) error
	// Touch 更新最近访问时间
	Touch(ctx context.Context, trackID string, at time.Time) error
}

// MemoryIndex 进程内缓存索引
type MemoryIndex struct {
	mu      sync.RWMutex
	entries map[string]*model.CacheEntry
}

// NewMemoryIndex 创建内存缓存索引
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		entries: make(map[string]*model.CacheEntry),
	}
}

func (m *MemoryIndex) Get(_ context.Context, trackID string) (*model.CacheEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[trackID]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (m *MemoryIndex) Put(_ context.Context, entry *model.CacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *entry
	m.entries[entry.TrackID] = &cp
	return nil
}

func (m *MemoryIndex) Touch(_ context.Context, trackID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[trackID]; ok {
		e.LastAccessedAt = at
	}
	return nil
}
