package delivery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"CloudDJ/core/netease"
	"CloudDJ/logger"
	"CloudDJ/model"
)

// cardFormat 网易云卡片样式标识
const cardFormat = "163"

// BuildCardPayload 组装卡片签名参数
func BuildCardPayload(track model.Track, streamURL, coverURL string) model.CardPayload {
	return model.CardPayload{
		URL:    streamURL,
		Jump:   netease.SongJumpURL(track.ID),
		Song:   track.Title,
		Singer: track.Artist,
		Cover:  coverURL,
		Format: cardFormat,
	}
}

// CardSigner 卡片签名API客户端
// 签名失败返回空串而非错误，调用方退回文字+封面+语音的投递方案
type CardSigner struct {
	apiURL     string
	httpClient *http.Client
}

// NewCardSigner 创建签名客户端
func NewCardSigner(apiURL string, timeout time.Duration) *CardSigner {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CardSigner{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Sign 请求签名后的JSON卡片
func (s *CardSigner) Sign(ctx context.Context, payload model.CardPayload) string {
	form := url.Values{}
	form.Set("url", payload.URL)
	form.Set("jump", payload.Jump)
	form.Set("song", payload.Song)
	form.Set("singer", payload.Singer)
	form.Set("cover", payload.Cover)
	form.Set("format", payload.Format)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		logger.Warn("[Sign] 创建签名请求失败", logger.ErrorField(err))
		return ""
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		logger.Warn("[Sign] 卡片签名请求失败", logger.ErrorField(err))
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warn("[Sign] 卡片API返回错误状态码", logger.Int("status", resp.StatusCode))
		return ""
	}

	var result struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		logger.Warn("[Sign] 解析签名响应失败", logger.ErrorField(err))
		return ""
	}
	if result.Code != 1 || result.Message == "" {
		logger.Warn("[Sign] 获取卡片失败", logger.Int("code", result.Code))
		return ""
	}

	logger.Info("[Sign] 获取音乐卡片成功", logger.String("song", payload.Song))
	return result.Message
}
