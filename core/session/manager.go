package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"CloudDJ/logger"
	"CloudDJ/model"
)

// searchFetchLimit 一次搜索从API抓取的最大结果数
// 完整序列存入会话，翻页在本地切片上进行
const searchFetchLimit = 60

// filterDelimiter 艺术家过滤后缀分隔符，如"稻香 -周杰伦"
const filterDelimiter = " -"

// Direction 翻页方向
type Direction int

const (
	PageCurrent Direction = iota
	PageNext
	PagePrev
)

// Searcher 会话管理器消费的目录搜索能力
type Searcher interface {
	SearchSongs(ctx context.Context, keyword string, limit, offset int) (*model.SearchResult, error)
}

// Manager 管理每个会话的分页搜索状态
// 同一会话的变更操作通过逐会话互斥锁严格串行，不同会话互不影响
type Manager struct {
	store    Store
	catalog  Searcher
	pageSize int
	ttl      time.Duration
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager 创建会话管理器
func NewManager(store Store, catalog Searcher, pageSize int, ttl time.Duration) *Manager {
	if pageSize <= 0 {
		pageSize = 15
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Manager{
		store:    store,
		catalog:  catalog,
		pageSize: pageSize,
		ttl:      ttl,
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
}

// SetClock 注入时钟，测试用
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// convLock 返回该会话的互斥锁
func (m *Manager) convLock(conversationID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[conversationID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[conversationID] = l
	}
	return l
}

// ParseQuery 解析查询文本，拆出" -艺术家"过滤后缀
// "稻香 -周杰伦" → ("稻香", "周杰伦")
func ParseQuery(raw string) (query, artistFilter string) {
	raw = strings.TrimSpace(raw)
	idx := strings.LastIndex(raw, filterDelimiter)
	if idx <= 0 {
		return raw, ""
	}
	query = strings.TrimSpace(raw[:idx])
	artistFilter = strings.TrimSpace(raw[idx+len(filterDelimiter):])
	if query == "" || artistFilter == "" {
		return raw, ""
	}
	return query, artistFilter
}

// Search 执行新搜索并替换该会话此前的任何会话状态
// 无结果时会话仍然创建（空结果、禁止选择），同时返回ErrNoResults
func (m *Manager) Search(ctx context.Context, conversationID, queryText string) (*model.SearchSession, error) {
	lock := m.convLock(conversationID)
	lock.Lock()
	defer lock.Unlock()

	query, artistFilter := ParseQuery(queryText)
	if query == "" {
		return nil, fmt.Errorf("%w: 搜索关键词不能为空", ErrNoResults)
	}

	keyword := query
	if artistFilter != "" {
		keyword = query + " " + artistFilter
	}

	result, err := m.catalog.SearchSongs(ctx, keyword, searchFetchLimit, 0)
	if err != nil {
		return nil, err
	}

	tracks := result.Tracks
	if artistFilter != "" {
		tracks = filterByArtist(tracks, artistFilter)
	}
	// 过滤后重排原始序号，页内序号以过滤后的序列为准
	for i := range tracks {
		tracks[i].SourceRank = i
	}

	now := m.now()
	s := &model.SearchSession{
		ConversationID: conversationID,
		Query:          query,
		ArtistFilter:   artistFilter,
		Results:        tracks,
		PageSize:       m.pageSize,
		CurrentPage:    0,
		CreatedAt:      now,
		ExpiresAt:      now.Add(m.ttl),
	}

	if err := m.store.Put(ctx, s, m.ttl); err != nil {
		return nil, fmt.Errorf("存储会话失败: %w", err)
	}

	logger.Info("[Search] 会话已创建",
		logger.String("conversationID", conversationID),
		logger.String("query", query),
		logger.String("artistFilter", artistFilter),
		logger.Int("results", len(tracks)))

	if len(tracks) == 0 {
		return s, fmt.Errorf("%w: 未找到与'%s'相关的歌曲", ErrNoResults, query)
	}
	return s, nil
}

// Page 翻页并返回当前页的结果切片
// 越过首尾页是空操作：返回当前页并附带ErrPageBoundary提示
func (m *Manager) Page(ctx context.Context, conversationID string, direction Direction) ([]model.Track, error) {
	lock := m.convLock(conversationID)
	lock.Lock()
	defer lock.Unlock()

	s, err := m.active(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if len(s.Results) == 0 {
		return nil, fmt.Errorf("%w: 当前会话没有结果", ErrNoResults)
	}

	boundary := false
	switch direction {
	case PageNext:
		if s.CurrentPage+1 < s.PageCount() {
			s.CurrentPage++
		} else {
			boundary = true
		}
	case PagePrev:
		if s.CurrentPage > 0 {
			s.CurrentPage--
		} else {
			boundary = true
		}
	}

	if !boundary && direction != PageCurrent {
		// 剩余TTL内续存，翻页不重置过期时间
		if err := m.store.Put(ctx, s, s.ExpiresAt.Sub(m.now())); err != nil {
			return nil, fmt.Errorf("存储会话失败: %w", err)
		}
	}

	page := s.PageSlice()
	if boundary {
		return page, ErrPageBoundary
	}
	return page, nil
}

// Select 按当前页1起始的展示编号取出歌曲，不改变会话状态
// 同一页可以反复选择
func (m *Manager) Select(ctx context.Context, conversationID string, displayIndex int) (model.Track, error) {
	lock := m.convLock(conversationID)
	lock.Lock()
	defer lock.Unlock()

	s, err := m.active(ctx, conversationID)
	if err != nil {
		return model.Track{}, err
	}

	page := s.PageSlice()
	if displayIndex < 1 || displayIndex > len(page) {
		return model.Track{}, fmt.Errorf("%w: 编号%d超出当前页范围(1-%d)", ErrInvalidSelection, displayIndex, len(page))
	}
	return page[displayIndex-1], nil
}

// Current 返回当前活跃会话，测试和状态查询用
func (m *Manager) Current(ctx context.Context, conversationID string) (*model.SearchSession, error) {
	return m.active(ctx, conversationID)
}

// active 取出会话并校验有效期
func (m *Manager) active(ctx context.Context, conversationID string) (*model.SearchSession, error) {
	s, err := m.store.Get(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("读取会话失败: %w", err)
	}
	if s == nil {
		return nil, fmt.Errorf("%w: 请先搜索歌曲", ErrNoActiveSession)
	}
	if m.now().After(s.ExpiresAt) {
		// 过期会话保留在存储里等TTL回收，反复访问都报同一个错误
		return nil, fmt.Errorf("%w: 请重新搜索", ErrSessionExpired)
	}
	return s, nil
}

// filterByArtist 保留艺术家名包含过滤词的结果
func filterByArtist(tracks []model.Track, artistFilter string) []model.Track {
	filtered := make([]model.Track, 0, len(tracks))
	needle := strings.ToLower(artistFilter)
	for _, t := range tracks {
		if strings.Contains(strings.ToLower(t.Artist), needle) {
			filtered = append(filtered, t)
		}
	}
	return filtered
}
