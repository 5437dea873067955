package delivery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"CloudDJ/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCardPayload(t *testing.T) {
	track := model.Track{ID: "185809", Title: "稻香", Artist: "周杰伦"}
	p := BuildCardPayload(track, "http://m801.music.126.net/x.mp3", "http://p2.example/c.jpg?param=500y500")

	assert.Equal(t, "http://m801.music.126.net/x.mp3", p.URL)
	assert.Equal(t, "https://music.163.com/#/song?id=185809", p.Jump)
	assert.Equal(t, "稻香", p.Song)
	assert.Equal(t, "周杰伦", p.Singer)
	assert.Equal(t, "http://p2.example/c.jpg?param=500y500", p.Cover)
	assert.Equal(t, "163", p.Format)
}

func TestSignSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "稻香", r.PostForm.Get("song"))
		assert.Equal(t, "周杰伦", r.PostForm.Get("singer"))
		assert.Equal(t, "163", r.PostForm.Get("format"))
		w.Write([]byte(`{"code": 1, "message": "{\"app\":\"com.tencent.structmsg\"}"}`))
	}))
	defer srv.Close()

	signer := NewCardSigner(srv.URL, 5*time.Second)
	card := signer.Sign(context.Background(), model.CardPayload{
		URL: "http://x/y.mp3", Jump: "http://jump", Song: "稻香", Singer: "周杰伦", Cover: "http://c", Format: "163",
	})
	assert.Equal(t, `{"app":"com.tencent.structmsg"}`, card)
}

func TestSignFailureReturnsEmpty(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"api error code", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"code": 0, "message": ""}`))
		}},
		{"http 500", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"bad json", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`not json`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			signer := NewCardSigner(srv.URL, 5*time.Second)
			assert.Empty(t, signer.Sign(context.Background(), model.CardPayload{Song: "x"}))
		})
	}
}

func TestSignTransportFailureReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	signer := NewCardSigner(srv.URL, time.Second)
	assert.Empty(t, signer.Sign(context.Background(), model.CardPayload{Song: "x"}))
}

func TestModeValidation(t *testing.T) {
	assert.True(t, ModeCard.Valid())
	assert.True(t, ModeVoice.Valid())
	assert.True(t, ModeFile.Valid())
	assert.False(t, Mode("webpage").Valid())

	assert.False(t, ModeCard.NeedsLocalAsset())
	assert.True(t, ModeVoice.NeedsLocalAsset())
	assert.True(t, ModeFile.NeedsLocalAsset())
}

func TestRenderTrackList(t *testing.T) {
	page := []model.Track{
		{Title: "稻香", Artist: "周杰伦", Album: "魔杰座", Duration: 223},
		{Title: "晴天", Artist: "周杰伦", Album: "叶惠美", Duration: 269},
	}

	multi := RenderTrackList("稻香", page, 0, 3)
	assert.Contains(t, multi, "关键词: 稻香")
	assert.Contains(t, multi, "1. 稻香 - 周杰伦 [魔杰座] 3:43")
	assert.Contains(t, multi, "2. 晴天 - 周杰伦 [叶惠美] 4:29")
	assert.Contains(t, multi, "第 1/3 页")

	single := RenderTrackList("稻香", page, 0, 1)
	assert.NotContains(t, single, "页")
	assert.Contains(t, single, "回复编号播放。")
}
