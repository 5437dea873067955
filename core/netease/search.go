package netease

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"CloudDJ/logger"
	"CloudDJ/model"
)

// feeVIP 歌曲fee字段为1表示VIP专享
const feeVIP = 1

// SearchSongs 搜索歌曲，返回按API原始顺序排列的结果
func (c *Client) SearchSongs(ctx context.Context, keyword string, limit, offset int) (*model.SearchResult, error) {
	params := url.Values{}
	params.Set("keywords", keyword)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	reqURL := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())
	logger.Debug("[SearchSongs] 开始搜索歌曲",
		logger.String("keyword", keyword),
		logger.Int("limit", limit),
		logger.Int("offset", offset))

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
		Result struct {
			Songs []struct {
				ID      int64  `json:"id"`
				Name    string `json:"name"`
				Fee     int    `json:"fee"`
				Artists []struct {
					ID   int64  `json:"id"`
					Name string `json:"name"`
				} `json:"artists"`
				Album struct {
					ID     int64  `json:"id"`
					Name   string `json:"name"`
					PicURL string `json:"picUrl"`
				} `json:"album"`
				Duration int `json:"duration"` // 毫秒
			} `json:"songs"`
			Total int `json:"songCount"`
		} `json:"result"`
		Code int `json:"code"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: 解析响应失败: %v", ErrCatalogUnavailable, err)
	}
	if result.Code != 200 {
		return nil, fmt.Errorf("%w: API返回错误 (code: %d)", ErrCatalogUnavailable, result.Code)
	}

	searchResult := &model.SearchResult{
		Total:  result.Result.Total,
		Tracks: make([]model.Track, 0, len(result.Result.Songs)),
	}

	for i, song := range result.Result.Songs {
		artistNames := make([]string, len(song.Artists))
		for j, artist := range song.Artists {
			artistNames[j] = artist.Name
		}

		searchResult.Tracks = append(searchResult.Tracks, model.Track{
			ID:         strconv.FormatInt(song.ID, 10),
			Title:      song.Name,
			Artist:     strings.Join(artistNames, ", "),
			Album:      song.Album.Name,
			CoverURL:   song.Album.PicURL,
			Duration:   song.Duration / 1000,
			VIP:        song.Fee == feeVIP,
			SourceRank: i,
		})
	}

	logger.Info("[SearchSongs] 搜索完成",
		logger.String("keyword", keyword),
		logger.Int("count", len(searchResult.Tracks)))

	return searchResult, nil
}
