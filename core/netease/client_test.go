package netease

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(srv *httptest.Server) *Client {
	c := NewClient()
	c.SetBaseURL(srv.URL)
	return c
}

func TestSearchSongsParsesResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "稻香", r.URL.Query().Get("keywords"))
		assert.Equal(t, "15", r.URL.Query().Get("limit"))
		w.Write([]byte(`{
			"code": 200,
			"result": {
				"songCount": 2,
				"songs": [
					{
						"id": 185809,
						"name": "稻香",
						"fee": 1,
						"artists": [{"id": 6452, "name": "周杰伦"}],
						"album": {"id": 18906, "name": "魔杰座", "picUrl": "http://p2.music.126.net/cover.jpg"},
						"duration": 223000
					},
					{
						"id": 185810,
						"name": "稻香 (Live)",
						"fee": 0,
						"artists": [{"id": 6452, "name": "周杰伦"}, {"id": 7763, "name": "嘉宾"}],
						"album": {"id": 18907, "name": "演唱会", "picUrl": ""},
						"duration": 240500
					}
				]
			}
		}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	result, err := c.SearchSongs(context.Background(), "稻香", 15, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	require.Len(t, result.Tracks, 2)

	first := result.Tracks[0]
	assert.Equal(t, "185809", first.ID)
	assert.Equal(t, "稻香", first.Title)
	assert.Equal(t, "周杰伦", first.Artist)
	assert.Equal(t, "魔杰座", first.Album)
	assert.Equal(t, "http://p2.music.126.net/cover.jpg", first.CoverURL)
	assert.Equal(t, 223, first.Duration)
	assert.True(t, first.VIP)
	assert.Equal(t, 0, first.SourceRank)

	second := result.Tracks[1]
	assert.Equal(t, "周杰伦, 嘉宾", second.Artist)
	assert.Equal(t, 240, second.Duration)
	assert.False(t, second.VIP)
	assert.Equal(t, 1, second.SourceRank)
}

func TestSearchSongsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"code": 500, "result": {}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).SearchSongs(context.Background(), "x", 15, 0)
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
}

func TestSearchSongsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	srv.Close() // 立刻关掉，模拟API不可达

	_, err := newTestClient(srv).SearchSongs(context.Background(), "x", 15, 0)
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
}

func TestGetSongDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/song/detail", r.URL.Path)
		assert.Equal(t, "185809", r.URL.Query().Get("ids"))
		w.Write([]byte(`{
			"code": 200,
			"songs": [{
				"id": 185809,
				"name": "稻香",
				"fee": 1,
				"ar": [{"id": 6452, "name": "周杰伦"}],
				"al": {"id": 18906, "name": "魔杰座", "picUrl": "http://p2.music.126.net/cover.jpg"},
				"dt": 223000
			}]
		}`))
	}))
	defer srv.Close()

	detail, err := newTestClient(srv).GetSongDetail(context.Background(), "185809")
	require.NoError(t, err)
	assert.Equal(t, "稻香", detail.Track.Title)
	assert.Equal(t, "周杰伦", detail.Track.Artist)
	assert.Equal(t, 223, detail.Track.Duration)
	assert.True(t, detail.VIP)
}

func TestGetSongDetailNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"code": 200, "songs": []}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).GetSongDetail(context.Background(), "999")
	assert.ErrorIs(t, err, ErrTrackNotFound)
}

func TestGetSongURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/song/url/v1", r.URL.Path)
		assert.Equal(t, "lossless", r.URL.Query().Get("level"))
		w.Write([]byte(`{"code": 200, "data": [{"id": 185809, "url": "http://m801.music.126.net/x.mp3"}]}`))
	}))
	defer srv.Close()

	url, err := newTestClient(srv).GetSongURL(context.Background(), "185809")
	require.NoError(t, err)
	assert.Equal(t, "http://m801.music.126.net/x.mp3", url)
}

func TestGetSongURLEmptyMeansUnavailable(t *testing.T) {
	// VIP未解锁时API返回code 200但url为空
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"code": 200, "data": [{"id": 185809, "url": ""}]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).GetSongURL(context.Background(), "185809")
	assert.ErrorIs(t, err, ErrStreamUnavailable)
}

func TestRequestCarriesCookies(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Write([]byte(`{"code": 200, "data": [{"id": 1, "url": "http://x/y.mp3"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	require.NoError(t, c.SetCookieString("MUSIC_U=abc123; __csrf=def456"))
	assert.True(t, c.HasCredentials())

	_, err := c.GetSongURL(context.Background(), "1")
	require.NoError(t, err)

	ck, err := got.Cookie("MUSIC_U")
	require.NoError(t, err)
	assert.Equal(t, "abc123", ck.Value)
	ck, err = got.Cookie("os")
	require.NoError(t, err)
	assert.Equal(t, "pc", ck.Value)
}

func TestHelperURLs(t *testing.T) {
	assert.Equal(t, "https://music.163.com/song/media/outer/url?id=185809.mp3", OuterPlayURL("185809"))
	assert.Equal(t, "https://music.163.com/#/song?id=185809", SongJumpURL("185809"))
	assert.Equal(t, "http://p2.example/c.jpg?param=500y500", CoverSized("http://p2.example/c.jpg", 500))
	assert.Equal(t, "http://p2.example/c.jpg", CoverSized("http://p2.example/c.jpg", 0))
	assert.Equal(t, "", CoverSized("", 500))
}
