package session

import (
	"context"
	"sync"
	"time"

	"CloudDJ/model"
)

// Store 会话存储接口
// Redis实现见cache包，内存实现用于测试和未配置Redis的部署
type Store interface {
	// Get 返回会话，不存在时返回(nil, nil)
	Get(ctx context.Context, conversationID string) (*model.SearchSession, error)
	// Put 写入会话并设置存活时间
	Put(ctx context.Context, s *model.SearchSession, ttl time.Duration) error
	// Delete 删除会话，不存在时不报错
	Delete(ctx context.Context, conversationID string) error
}

// MemoryStore 进程内会话存储
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*model.SearchSession
}

// NewMemoryStore 创建内存会话存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*model.SearchSession),
	}
}

// Get 返回会话副本，避免调用方改动存储内状态
func (m *MemoryStore) Get(_ context.Context, conversationID string) (*model.SearchSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[conversationID]
	if !ok {
		return nil, nil
	}
	cp := *s
	cp.Results = append([]model.Track(nil), s.Results...)
	return &cp, nil
}

// Put 写入会话，TTL由管理器通过ExpiresAt判断，这里不另起定时器
func (m *MemoryStore) Put(_ context.Context, s *model.SearchSession, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	cp.Results = append([]model.Track(nil), s.Results...)
	m.sessions[s.ConversationID] = &cp
	return nil
}

// Delete 删除会话
func (m *MemoryStore) Delete(_ context.Context, conversationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, conversationID)
	return nil
}
