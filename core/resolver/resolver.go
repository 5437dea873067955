package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"CloudDJ/core/audiocache"
	"CloudDJ/core/netease"
	"CloudDJ/logger"
	"CloudDJ/model"
)

var (
	// ErrVipUnlock VIP歌曲解锁失败，只有提供有效凭证才能恢复
	// 永远不会静默降级到非VIP流
	ErrVipUnlock = errors.New("resolver: vip unlock failed")
	// ErrDownloadFailed 重试耗尽后的下载失败，不留半成品缓存
	ErrDownloadFailed = errors.New("resolver: download failed")
)

// Catalog 解析器消费的目录能力
type Catalog interface {
	GetSongDetail(ctx context.Context, songID string) (*model.TrackDetail, error)
	GetSongURL(ctx context.Context, songID string) (string, error)
}

// Resolver 把搜索命中解析成可播放/可下载的资源
type Resolver struct {
	catalog Catalog
	cache   *audiocache.Store
	client  *http.Client
	retries int
	backoff time.Duration
	now     func() time.Time
}

// New 创建解析器
func New(catalog Catalog, cache *audiocache.Store, retries int, backoff time.Duration) *Resolver {
	if retries <= 0 {
		retries = 3
	}
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	return &Resolver{
		catalog: catalog,
		cache:   cache,
		client:  &http.Client{Timeout: 5 * time.Minute},
		retries: retries,
		backoff: backoff,
		now:     time.Now,
	}
}

// SetClock 注入时钟，测试用
func (r *Resolver) SetClock(now func() time.Time) {
	r.now = now
}

// SetHTTPClient 替换下载用的HTTP客户端，测试用
func (r *Resolver) SetHTTPClient(c *http.Client) {
	r.client = c
}

// Resolve 解析一首歌曲
// 缓存命中即返回，不发任何网络请求；未命中时走 详情→VIP解锁→(可选)下载 流程。
// wantDownload=false且通过VIP检查时只返回远端流地址，不抓取字节。
func (r *Resolver) Resolve(ctx context.Context, track model.Track, wantDownload bool) (*model.ResolvedTrack, error) {
	if entry, err := r.cache.Lookup(ctx, track.ID); err != nil {
		return nil, err
	} else if entry != nil {
		logger.Debug("[Resolve] 缓存命中", logger.String("trackID", track.ID))
		return &model.ResolvedTrack{
			Track:      track,
			AssetPath:  entry.LocalPath,
			ObjectName: entry.ObjectName,
			Unlocked:   true,
			ResolvedAt: r.now(),
		}, nil
	}

	detail, err := r.catalog.GetSongDetail(ctx, track.ID)
	if err != nil {
		return nil, err
	}
	// 详情里的VIP标记和元数据为准，搜索结果可能过时
	track = mergeDetail(track, detail)

	streamURL, err := r.catalog.GetSongURL(ctx, track.ID)
	if err != nil {
		if detail.VIP && errors.Is(err, netease.ErrStreamUnavailable) {
			return nil, fmt.Errorf("%w: 需要有效的VIP凭证 (ID: %s)", ErrVipUnlock, track.ID)
		}
		return nil, err
	}

	if !wantDownload {
		return &model.ResolvedTrack{
			Track:      track,
			StreamURL:  streamURL,
			Unlocked:   true,
			ResolvedAt: r.now(),
		}, nil
	}

	entry, err := r.download(ctx, track.ID, streamURL)
	if err != nil {
		return nil, err
	}

	return &model.ResolvedTrack{
		Track:      track,
		StreamURL:  streamURL,
		AssetPath:  entry.LocalPath,
		ObjectName: entry.ObjectName,
		Unlocked:   true,
		ResolvedAt: r.now(),
	}, nil
}

// download 带重试的流式下载，指数退避
// 单次尝试整体进缓存的GetOrCreate，失败不留半成品
func (r *Resolver) download(ctx context.Context, trackID, streamURL string) (*model.CacheEntry, error) {
	var lastErr error
	for attempt := 0; attempt < r.retries; attempt++ {
		if attempt > 0 {
			backoff := r.backoff << (attempt - 1)
			logger.Warn("[download] 下载失败，准备重试",
				logger.String("trackID", trackID),
				logger.Int("attempt", attempt),
				logger.Duration("backoff", backoff),
				logger.ErrorField(lastErr))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		entry, err := r.cache.GetOrCreate(ctx, trackID, func(ctx context.Context, w io.Writer) error {
			return r.fetchStream(ctx, streamURL, w)
		})
		if err == nil {
			return entry, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: 重试%d次后放弃: %v", ErrDownloadFailed, r.retries, lastErr)
}

// fetchStream 把音频流写入w
func (r *Resolver) fetchStream(ctx context.Context, streamURL string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return fmt.Errorf("创建下载请求失败: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("下载请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("下载返回错误状态码: %d", resp.StatusCode)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("写入音频数据失败: %w", err)
	}
	return nil
}

// mergeDetail 用详情补全搜索结果中的元数据
func mergeDetail(track model.Track, detail *model.TrackDetail) model.Track {
	d := detail.Track
	if d.Title != "" {
		track.Title = d.Title
	}
	if d.Artist != "" {
		track.Artist = d.Artist
	}
	if d.Album != "" {
		track.Album = d.Album
	}
	if d.CoverURL != "" {
		track.CoverURL = d.CoverURL
	}
	if d.Duration > 0 {
		track.Duration = d.Duration
	}
	track.VIP = detail.VIP
	return track
}
