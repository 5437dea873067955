package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"CloudDJ/model"

	"github.com/redis/go-redis/v9"
)

// SessionCache Redis实现的搜索会话存储
// 实现core/session.Store接口，键带TTL，过期由Redis自动回收
type SessionCache struct {
	client *redis.Client
}

// NewSessionCache 创建会话存储
func NewSessionCache(client *redis.Client) *SessionCache {
	return &SessionCache{client: client}
}

// sessionKey 根据会话标识生成Redis键
func sessionKey(conversationID string) string {
	return fmt.Sprintf("music:session:%s", conversationID)
}

// Get 读取会话，不存在时返回(nil, nil)
func (c *SessionCache) Get(ctx context.Context, conversationID string) (*model.SearchSession, error) {
	data, err := c.client.Get(ctx, sessionKey(conversationID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var s model.SearchSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

// Put 写入会话并设置存活时间，同键旧会话整条覆盖
func (c *SessionCache) Put(ctx context.Context, s *model.SearchSession, ttl time.Duration) error {
	if ttl <= 0 {
		// 已过期的会话没有写入价值
		return c.Delete(ctx, s.ConversationID)
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := c.client.Set(ctx, sessionKey(s.ConversationID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Delete 删除会话
func (c *SessionCache) Delete(ctx context.Context, conversationID string) error {
	if err := c.client.Del(ctx, sessionKey(conversationID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
