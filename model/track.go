package model

// Track 一条搜索命中结果，抓取后不可变
type Track struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	CoverURL   string `json:"coverUrl"`
	Duration   int    `json:"duration"` // 时长（秒）
	VIP        bool   `json:"vip"`
	SourceRank int    `json:"sourceRank"` // 在API原始响应中的位置
}

// TrackDetail 歌曲详情，detail接口返回
type TrackDetail struct {
	Track Track `json:"track"`
	VIP   bool  `json:"vip"`
}

// SearchResult 搜索结果
type SearchResult struct {
	Tracks []Track `json:"tracks"`
	Total  int     `json:"total"`
}
