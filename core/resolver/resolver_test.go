package resolver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"CloudDJ/core/audiocache"
	"CloudDJ/core/netease"
	"CloudDJ/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	detail      *model.TrackDetail
	streamURL   string
	streamErr   error
	detailCalls int32
	urlCalls    int32
}

func (f *fakeCatalog) GetSongDetail(_ context.Context, _ string) (*model.TrackDetail, error) {
	atomic.AddInt32(&f.detailCalls, 1)
	if f.detail == nil {
		return nil, fmt.Errorf("%w: no detail", netease.ErrTrackNotFound)
	}
	return f.detail, nil
}

func (f *fakeCatalog) GetSongURL(_ context.Context, _ string) (string, error) {
	atomic.AddInt32(&f.urlCalls, 1)
	if f.streamErr != nil {
		return "", f.streamErr
	}
	return f.streamURL, nil
}

func testTrack() model.Track {
	return model.Track{ID: "1001", Title: "稻香", Artist: "周杰伦", Album: "魔杰座", Duration: 223}
}

func newTestCache(t *testing.T) *audiocache.Store {
	t.Helper()
	s, err := audiocache.NewStore(t.TempDir(), audiocache.NewMemoryIndex(), nil)
	require.NoError(t, err)
	return s
}

func TestResolveStreamOnly(t *testing.T) {
	catalog := &fakeCatalog{
		detail:    &model.TrackDetail{Track: testTrack(), VIP: false},
		streamURL: "http://cdn.example/1001.mp3",
	}
	r := New(catalog, newTestCache(t), 3, time.Millisecond)

	resolved, err := r.Resolve(context.Background(), testTrack(), false)
	require.NoError(t, err)
	// 非VIP无门槛，unlocked恒为true，且不抓取本地字节
	assert.True(t, resolved.Unlocked)
	assert.Empty(t, resolved.AssetPath)
	assert.Equal(t, "http://cdn.example/1001.mp3", resolved.StreamURL)
}

func TestResolveVipUnlockFailure(t *testing.T) {
	cache := newTestCache(t)
	catalog := &fakeCatalog{
		detail:    &model.TrackDetail{Track: testTrack(), VIP: true},
		streamErr: fmt.Errorf("%w: 歌曲URL为空", netease.ErrStreamUnavailable),
	}
	r := New(catalog, cache, 3, time.Millisecond)

	_, err := r.Resolve(context.Background(), testTrack(), true)
	require.ErrorIs(t, err, ErrVipUnlock)

	// 解锁失败不得留下缓存记录
	entry, err := cache.Lookup(context.Background(), "1001")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestResolveVipCatalogOutageIsNotUnlockError(t *testing.T) {
	catalog := &fakeCatalog{
		detail:    &model.TrackDetail{Track: testTrack(), VIP: true},
		streamErr: fmt.Errorf("%w: connection refused", netease.ErrCatalogUnavailable),
	}
	r := New(catalog, newTestCache(t), 3, time.Millisecond)

	_, err := r.Resolve(context.Background(), testTrack(), true)
	assert.ErrorIs(t, err, netease.ErrCatalogUnavailable)
	assert.NotErrorIs(t, err, ErrVipUnlock)
}

func TestResolveDownloadAndCacheHit(t *testing.T) {
	payload := []byte("mp3 bytes for 1001")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	cache := newTestCache(t)
	catalog := &fakeCatalog{
		detail:    &model.TrackDetail{Track: testTrack(), VIP: false},
		streamURL: srv.URL + "/1001.mp3",
	}
	r := New(catalog, cache, 3, time.Millisecond)

	resolved, err := r.Resolve(context.Background(), testTrack(), true)
	require.NoError(t, err)
	require.NotEmpty(t, resolved.AssetPath)

	wantHash := sha256.Sum256(payload)
	entry, err := cache.Lookup(context.Background(), "1001")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, hex.EncodeToString(wantHash[:]), entry.ContentHash)

	// 第二次解析走缓存，不再有任何网络调用
	detailBefore := atomic.LoadInt32(&catalog.detailCalls)
	urlBefore := atomic.LoadInt32(&catalog.urlCalls)

	again, err := r.Resolve(context.Background(), testTrack(), true)
	require.NoError(t, err)
	assert.Equal(t, resolved.AssetPath, again.AssetPath)
	assert.True(t, again.Unlocked)
	assert.Equal(t, detailBefore, atomic.LoadInt32(&catalog.detailCalls))
	assert.Equal(t, urlBefore, atomic.LoadInt32(&catalog.urlCalls))
}

func TestResolveDownloadRetriesThenSucceeds(t *testing.T) {
	payload := []byte("eventually served")
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&hits, 1) <= 2 {
			http.Error(w, "upstream hiccup", http.StatusBadGateway)
			return
		}
		w.Write(payload)
	}))
	defer srv.Close()

	catalog := &fakeCatalog{
		detail:    &model.TrackDetail{Track: testTrack(), VIP: false},
		streamURL: srv.URL + "/1001.mp3",
	}
	r := New(catalog, newTestCache(t), 3, time.Millisecond)

	resolved, err := r.Resolve(context.Background(), testTrack(), true)
	require.NoError(t, err)
	assert.NotEmpty(t, resolved.AssetPath)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestResolveDownloadFailedAfterRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "permanently broken", http.StatusInternalServerError)
	}))
	defer srv.Close()

	cache := newTestCache(t)
	catalog := &fakeCatalog{
		detail:    &model.TrackDetail{Track: testTrack(), VIP: false},
		streamURL: srv.URL + "/1001.mp3",
	}
	r := New(catalog, cache, 3, time.Millisecond)

	_, err := r.Resolve(context.Background(), testTrack(), true)
	require.ErrorIs(t, err, ErrDownloadFailed)

	// 重试耗尽后不留半成品
	entry, err := cache.Lookup(context.Background(), "1001")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestResolveConcurrentSingleDownload(t *testing.T) {
	payload := []byte("shared download")
	var hits int32
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-started
		w.Write(payload)
	}))
	defer srv.Close()

	catalog := &fakeCatalog{
		detail:    &model.TrackDetail{Track: testTrack(), VIP: false},
		streamURL: srv.URL + "/1001.mp3",
	}
	r := New(catalog, newTestCache(t), 3, time.Millisecond)

	const n = 4
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := r.Resolve(context.Background(), testTrack(), true)
			results <- err
		}()
	}
	// 给所有请求时间挤进同一次单飞
	time.Sleep(50 * time.Millisecond)
	close(started)

	for i := 0; i < n; i++ {
		require.NoError(t, <-results)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "exactly one underlying fetch")
}

func TestResolveUsesDetailMetadata(t *testing.T) {
	detail := &model.TrackDetail{
		Track: model.Track{ID: "1001", Title: "稻香", Artist: "周杰伦", Album: "魔杰座", CoverURL: "http://p2.example/cover.jpg", Duration: 223},
		VIP:   false,
	}
	catalog := &fakeCatalog{detail: detail, streamURL: "http://cdn.example/1001.mp3"}
	r := New(catalog, newTestCache(t), 3, time.Millisecond)

	stale := model.Track{ID: "1001", Title: "稻香"}
	resolved, err := r.Resolve(context.Background(), stale, false)
	require.NoError(t, err)
	assert.Equal(t, "周杰伦", resolved.Track.Artist)
	assert.Equal(t, "http://p2.example/cover.jpg", resolved.Track.CoverURL)
	assert.Equal(t, 223, resolved.Track.Duration)
}
