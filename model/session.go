package model

import "time"

// SearchSession 一个会话的分页搜索状态
// 以会话标识为键存储，只由搜索、翻页、选择操作读写
type SearchSession struct {
	ConversationID string    `json:"conversationId"`
	Query          string    `json:"query"`                  // 去掉艺术家过滤后缀的原始关键词
	ArtistFilter   string    `json:"artistFilter,omitempty"` // " -艺术家" 后缀解析结果
	Results        []Track   `json:"results"`                // 插入顺序 = API原始顺序
	PageSize       int       `json:"pageSize"`
	CurrentPage    int       `json:"currentPage"` // 0起始
	CreatedAt      time.Time `json:"createdAt"`
	ExpiresAt      time.Time `json:"expiresAt"`
}

// PageCount 总页数，空结果集为0
func (s *SearchSession) PageCount() int {
	if len(s.Results) == 0 || s.PageSize <= 0 {
		return 0
	}
	return (len(s.Results) + s.PageSize - 1) / s.PageSize
}

// PageSlice 返回当前页的结果切片，越界部分收缩到边界
func (s *SearchSession) PageSlice() []Track {
	if len(s.Results) == 0 {
		return nil
	}
	start := s.CurrentPage * s.PageSize
	if start >= len(s.Results) {
		return nil
	}
	end := start + s.PageSize
	if end > len(s.Results) {
		end = len(s.Results)
	}
	return s.Results[start:end]
}
