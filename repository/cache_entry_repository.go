package repository

import (
	"context"
	"errors"
	"time"

	"CloudDJ/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CacheEntryRepository MySQL实现的下载缓存索引
// 实现core/audiocache.Index接口
type CacheEntryRepository struct {
	db *gorm.DB
}

// NewCacheEntryRepository 创建缓存索引仓库
func NewCacheEntryRepository(db *gorm.DB) *CacheEntryRepository {
	return &CacheEntryRepository{db: db}
}

// Get 根据trackId查询索引记录，不存在时返回(nil, nil)
func (r *CacheEntryRepository) Get(ctx context.Context, trackID string) (*model.CacheEntry, error) {
	var entry model.CacheEntry
	err := r.db.WithContext(ctx).First(&entry, "track_id = ?", trackID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// Put 写入索引记录，主键冲突时整条替换（记录不做原地修改）
func (r *CacheEntryRepository) Put(ctx context.Context, entry *model.CacheEntry) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "track_id"}},
		UpdateAll: true,
	}).Create(entry).Error
}

// Touch 更新最近访问时间
func (r *CacheEntryRepository) Touch(ctx context.Context, trackID string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.CacheEntry{}).
		Where("track_id = ?", trackID).
		Update("last_accessed_at", at).Error
}
