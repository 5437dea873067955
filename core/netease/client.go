package netease

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// 目录服务错误
var (
	// ErrCatalogUnavailable 上游API不可达或返回异常，稍后重试整个请求是安全的
	ErrCatalogUnavailable = errors.New("netease: catalog unavailable")
	// ErrStreamUnavailable 歌曲存在但拿不到流地址（VIP未解锁或版权限制）
	ErrStreamUnavailable = errors.New("netease: stream unavailable")
	// ErrTrackNotFound 歌曲不存在
	ErrTrackNotFound = errors.New("netease: track not found")
)

// Client 网易云音乐API客户端
// 凭证来自浏览器Cookie字符串，见SetCookieString
type Client struct {
	baseURL    string
	httpClient *http.Client
	cookies    []*http.Cookie
}

// NewClient 创建新的API客户端
func NewClient() *Client {
	return &Client{
		baseURL: "http://localhost:3000",
		httpClient: &http.Client{
			Timeout: time.Second * 15,
		},
	}
}

// SetBaseURL 设置API基础URL
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// SetTimeout 设置请求超时时间
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// SetCookieString 解析并应用Cookie凭证，VIP解锁依赖它
// 空字符串表示清除凭证
func (c *Client) SetCookieString(raw string) error {
	if raw == "" {
		c.cookies = nil
		return nil
	}
	pairs, err := ParseCookieString(raw)
	if err != nil {
		return err
	}
	cookies := make([]*http.Cookie, 0, len(pairs))
	for name, value := range pairs {
		cookies = append(cookies, &http.Cookie{Name: name, Value: value})
	}
	c.cookies = cookies
	return nil
}

// HasCredentials 是否已配置登录凭证
func (c *Client) HasCredentials() bool {
	return len(c.cookies) > 0
}

// newRequest 创建带凭证的请求
func (c *Client) newRequest(ctx context.Context, method, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	// os=pc确保返回正常码率的url
	req.AddCookie(&http.Cookie{Name: "os", Value: "pc"})
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	return req, nil
}
