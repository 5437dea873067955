package audiocache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"CloudDJ/logger"
	"CloudDJ/model"

	"github.com/google/uuid"
)

// Producer 音频生产者，把完整的音频字节写入w
// 每个trackId并发下至多被调用一次
type Producer func(ctx context.Context, w io.Writer) error

// Mirror 可选的对象存储镜像，上传失败不影响缓存结果
type Mirror interface {
	UploadAudio(ctx context.Context, objectName, localPath string) error
	AudioObjectName(trackID string) string
}

// flight 一次进行中的下载，后来者挂在done上等结果
type flight struct {
	done  chan struct{}
	entry *model.CacheEntry
	err   error
}

// Store 按trackId内容寻址的下载缓存
// 只保证每个trackId唯一一条记录和写入的原子性，淘汰策略由外部负责
type Store struct {
	dir    string
	index  Index
	mirror Mirror
	now    func() time.Time

	mu      sync.Mutex
	flights map[string]*flight
}

// NewStore 创建下载缓存，目录不存在时创建
func NewStore(dir string, index Index, mirror Mirror) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("创建缓存目录失败: %w", err)
	}
	return &Store{
		dir:     dir,
		index:   index,
		mirror:  mirror,
		now:     time.Now,
		flights: make(map[string]*flight),
	}, nil
}

// SetClock 注入时钟，测试用
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Lookup 查询缓存，命中时更新访问时间
// 缓存即权威：音频发布后不可变，命中不做新鲜度检查
func (s *Store) Lookup(ctx context.Context, trackID string) (*model.CacheEntry, error) {
	entry, err := s.index.Get(ctx, trackID)
	if err != nil {
		return nil, fmt.Errorf("读取缓存索引失败: %w", err)
	}
	if entry == nil {
		return nil, nil
	}
	if err := s.index.Touch(ctx, trackID, s.now()); err != nil {
		logger.Warn("[Lookup] 更新访问时间失败",
			logger.String("trackID", trackID), logger.ErrorField(err))
	}
	return entry, nil
}

// GetOrCreate 查询或创建缓存记录
// 同一trackId的并发请求汇聚到一次producer调用上，其余请求等待其结果（或失败）。
// 写入是全有或全无的：字节先进临时文件，哈希校验后rename到最终路径，
// 任何失败都不留半成品。
func (s *Store) GetOrCreate(ctx context.Context, trackID string, producer Producer) (*model.CacheEntry, error) {
	s.mu.Lock()
	if f, ok := s.flights[trackID]; ok {
		s.mu.Unlock()
		select {
		case <-f.done:
			return f.entry, f.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f := &flight{done: make(chan struct{})}
	s.flights[trackID] = f
	s.mu.Unlock()

	entry, err := s.produce(ctx, trackID, producer)
	f.entry, f.err = entry, err
	close(f.done)

	s.mu.Lock()
	delete(s.flights, trackID)
	s.mu.Unlock()

	return entry, err
}

// produce 单飞持有者的实际工作
func (s *Store) produce(ctx context.Context, trackID string, producer Producer) (*model.CacheEntry, error) {
	// 拿到单飞后再查一次索引，前一轮单飞可能刚写完
	if entry, err := s.Lookup(ctx, trackID); err != nil {
		return nil, err
	} else if entry != nil {
		return entry, nil
	}

	finalPath := filepath.Join(s.dir, trackID+".mp3")
	tmpPath := filepath.Join(s.dir, fmt.Sprintf("%s.%s.part", trackID, uuid.NewString()))

	file, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("创建临时文件失败: %w", err)
	}

	hasher := sha256.New()
	counter := &countingWriter{}
	w := io.MultiWriter(file, hasher, counter)

	if err := producer(ctx, w); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return nil, err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("刷写临时文件失败: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("关闭临时文件失败: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("落盘缓存文件失败: %w", err)
	}

	now := s.now()
	entry := &model.CacheEntry{
		TrackID:        trackID,
		ContentHash:    hex.EncodeToString(hasher.Sum(nil)),
		LocalPath:      finalPath,
		SizeBytes:      counter.n,
		CreatedAt:      now,
		LastAccessedAt: now,
	}

	if s.mirror != nil {
		objectName := s.mirror.AudioObjectName(trackID)
		if err := s.mirror.UploadAudio(ctx, objectName, finalPath); err != nil {
			// 镜像失败不影响缓存，语音/文件投递可退回本地路径
			logger.Warn("[GetOrCreate] 上传音频镜像失败",
				logger.String("trackID", trackID), logger.ErrorField(err))
		} else {
			entry.ObjectName = objectName
		}
	}

	if err := s.index.Put(ctx, entry); err != nil {
		os.Remove(finalPath)
		return nil, fmt.Errorf("写入缓存索引失败: %w", err)
	}

	logger.Info("[GetOrCreate] 缓存写入完成",
		logger.String("trackID", trackID),
		logger.String("hash", entry.ContentHash),
		logger.Int64("sizeBytes", entry.SizeBytes))

	return entry, nil
}

type countingWriter struct {
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	return len(p), nil
}
