package audiocache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"CloudDJ/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), NewMemoryIndex(), nil)
	require.NoError(t, err)
	return s
}

func TestGetOrCreateWritesEntry(t *testing.T) {
	s := newTestStore(t)
	payload := []byte("fake mp3 bytes")

	entry, err := s.GetOrCreate(context.Background(), "1001", func(_ context.Context, w io.Writer) error {
		_, err := w.Write(payload)
		return err
	})
	require.NoError(t, err)

	wantHash := sha256.Sum256(payload)
	assert.Equal(t, hex.EncodeToString(wantHash[:]), entry.ContentHash)
	assert.Equal(t, int64(len(payload)), entry.SizeBytes)

	data, err := os.ReadFile(entry.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	// 目录里不残留临时文件
	parts, err := filepath.Glob(filepath.Join(filepath.Dir(entry.LocalPath), "*.part"))
	require.NoError(t, err)
	assert.Empty(t, parts)
}

func TestGetOrCreateSingleFlight(t *testing.T) {
	s := newTestStore(t)
	payload := []byte("audio payload")

	var produced int32
	started := make(chan struct{})
	producer := func(_ context.Context, w io.Writer) error {
		atomic.AddInt32(&produced, 1)
		<-started // 压住生产者，确保其他请求都挤进同一次单飞
		_, err := w.Write(payload)
		return err
	}

	const n = 8
	var wg sync.WaitGroup
	entries := make([]*model.CacheEntry, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entries[i], errs[i] = s.GetOrCreate(context.Background(), "2001", producer)
		}(i)
	}
	close(started)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&produced), "producer must run exactly once")
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, entries[i])
		assert.Equal(t, entries[0].ContentHash, entries[i].ContentHash)
		assert.Equal(t, entries[0].LocalPath, entries[i].LocalPath)
	}
}

func TestGetOrCreateIdempotent(t *testing.T) {
	s := newTestStore(t)
	payload := []byte("same bytes")

	var produced int
	producer := func(_ context.Context, w io.Writer) error {
		produced++
		_, err := w.Write(payload)
		return err
	}

	first, err := s.GetOrCreate(context.Background(), "3001", producer)
	require.NoError(t, err)
	second, err := s.GetOrCreate(context.Background(), "3001", producer)
	require.NoError(t, err)

	assert.Equal(t, 1, produced, "second resolution must be free")
	assert.Equal(t, first.ContentHash, second.ContentHash)
}

func TestGetOrCreateFailureLeavesNothing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetOrCreate(context.Background(), "4001", func(_ context.Context, w io.Writer) error {
		w.Write([]byte("partial"))
		return errors.New("stream interrupted")
	})
	require.Error(t, err)

	// 索引无记录
	entry, err := s.Lookup(context.Background(), "4001")
	require.NoError(t, err)
	assert.Nil(t, entry)

	// 目录无任何残留文件
	files, err := filepath.Glob(filepath.Join(s.dir, "*"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestLookupMiss(t *testing.T) {
	s := newTestStore(t)
	entry, err := s.Lookup(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, entry)
}
