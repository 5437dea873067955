package netease

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"CloudDJ/logger"
	"CloudDJ/model"
)

// GetSongDetail 获取歌曲详情，确认VIP标记和最新元数据
func (c *Client) GetSongDetail(ctx context.Context, songID string) (*model.TrackDetail, error) {
	reqURL := fmt.Sprintf("%s/song/detail?ids=%s", c.baseURL, songID)
	logger.Debug("[GetSongDetail] 开始获取歌曲详情", logger.String("songID", songID))

	req, err := c.newRequest(ctx, http.MethodGet, reqURL)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: 请求失败: %v", ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: API返回错误状态码: %d", ErrCatalogUnavailable, resp.StatusCode)
	}

	var result struct {
		Songs []struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
			Fee  int    `json:"fee"`
			Ar   []struct {
				ID   int64  `json:"id"`
				Name string `json:"name"`
			} `json:"ar"`
			Al struct {
				ID     int64  `json:"id"`
				Name   string `json:"name"`
				PicURL string `json:"picUrl"`
			} `json:"al"`
			Dt int `json:"dt"` // 毫秒
		} `json:"songs"`
		Code int `json:"code"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: 解析响应失败: %v", ErrCatalogUnavailable, err)
	}
	if result.Code != 200 {
		return nil, fmt.Errorf("%w: API返回错误 (code: %d)", ErrCatalogUnavailable, result.Code)
	}
	if len(result.Songs) == 0 {
		return nil, fmt.Errorf("%w: 未找到歌曲ID %s", ErrTrackNotFound, songID)
	}

	song := result.Songs[0]
	artistNames := make([]string, len(song.Ar))
	for i, ar := range song.Ar {
		artistNames[i] = ar.Name
	}

	return &model.TrackDetail{
		Track: model.Track{
			ID:       strconv.FormatInt(song.ID, 10),
			Title:    song.Name,
			Artist:   strings.Join(artistNames, ", "),
			Album:    song.Al.Name,
			CoverURL: song.Al.PicURL,
			Duration: song.Dt / 1000,
			VIP:      song.Fee == feeVIP,
		},
		VIP: song.Fee == feeVIP,
	}, nil
}

// GetSongURL 获取歌曲流地址
// VIP歌曲在凭证有效时才会返回真实地址，空地址归为ErrStreamUnavailable，
// 上层不得降级为其他流
func (c *Client) GetSongURL(ctx context.Context, songID string) (string, error) {
	reqURL := fmt.Sprintf("%s/song/url/v1?id=%s&level=lossless", c.baseURL, songID)
	logger.Debug("[GetSongURL] 开始获取歌曲URL", logger.String("songID", songID))

	req, err := c.newRequest(ctx, http.MethodGet, reqURL)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: 请求失败: %v", ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: API返回错误状态码: %d", ErrCatalogUnavailable, resp.StatusCode)
	}

	var result struct {
		Data []struct {
			ID  int64  `json:"id"`
			URL string `json:"url"`
		} `json:"data"`
		Code int    `json:"code"`
		Msg  string `json:"msg,omitempty"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: 解析响应失败: %v", ErrCatalogUnavailable, err)
	}
	if result.Code != 200 {
		return "", fmt.Errorf("%w: API返回错误: %s (code: %d)", ErrCatalogUnavailable, result.Msg, result.Code)
	}
	if len(result.Data) == 0 || result.Data[0].URL == "" {
		logger.Warn("[GetSongURL] 歌曲URL为空，可能是VIP或版权限制", logger.String("songID", songID))
		return "", fmt.Errorf("%w: 歌曲URL为空 (ID: %s)", ErrStreamUnavailable, songID)
	}

	logger.Debug("[GetSongURL] 成功获取歌曲URL", logger.String("songID", songID))
	return result.Data[0].URL, nil
}

// OuterPlayURL 外链播放地址，无需凭证但仅限非VIP歌曲
func OuterPlayURL(songID string) string {
	return fmt.Sprintf("https://music.163.com/song/media/outer/url?id=%s.mp3", songID)
}

// SongJumpURL 网页端跳转地址
func SongJumpURL(songID string) string {
	return fmt.Sprintf("https://music.163.com/#/song?id=%s", songID)
}

// CoverSized 给封面地址附加尺寸参数，size<=0时原样返回
func CoverSized(picURL string, size int) string {
	if picURL == "" || size <= 0 {
		return picURL
	}
	return fmt.Sprintf("%s?param=%dy%d", picURL, size, size)
}
