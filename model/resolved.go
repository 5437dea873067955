package model

import "time"

// ResolvedTrack 解析完成的歌曲：元数据加可播放/可下载的资源位置
type ResolvedTrack struct {
	Track      Track     `json:"track"`
	StreamURL  string    `json:"streamUrl,omitempty"` // 远端流地址（未下载时）
	AssetPath  string    `json:"assetPath,omitempty"` // 本地缓存文件路径
	ObjectName string    `json:"objectName,omitempty"`
	Unlocked   bool      `json:"unlocked"`
	ResolvedAt time.Time `json:"resolvedAt"`
}

// Cached 是否已有本地音频文件
func (r *ResolvedTrack) Cached() bool {
	return r.AssetPath != ""
}

// CacheEntry 下载缓存索引记录，每个trackId至多一条
// 记录不做原地修改，重新解析时整条替换
type CacheEntry struct {
	TrackID        string    `json:"trackId" gorm:"primaryKey;size:64;column:track_id"`
	ContentHash    string    `json:"contentHash" gorm:"size:64"`
	LocalPath      string    `json:"localPath" gorm:"size:512"`
	ObjectName     string    `json:"objectName" gorm:"size:255"`
	SizeBytes      int64     `json:"sizeBytes"`
	CreatedAt      time.Time `json:"createdAt"`
	LastAccessedAt time.Time `json:"lastAccessedAt"`
}

// TableName 指定表名
func (CacheEntry) TableName() string {
	return "audio_cache_entry"
}
