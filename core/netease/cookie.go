package netease

import (
	"fmt"
	"strings"
)

// requiredCookieKeys 登录态必需的Cookie字段
var requiredCookieKeys = []string{"MUSIC_U", "__csrf"}

// ParseCookieString 解析浏览器复制的Cookie字符串
// 支持分号和换行分隔，校验MUSIC_U与__csrf字段是否存在
func ParseCookieString(raw string) (map[string]string, error) {
	cookies := make(map[string]string)
	if strings.TrimSpace(raw) == "" {
		return cookies, nil
	}

	// 支持多种分隔符: 分号、换行
	raw = strings.ReplaceAll(raw, "\n", "; ")
	raw = strings.ReplaceAll(raw, "\r", "")

	for _, item := range strings.Split(raw, ";") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key, value, found := strings.Cut(item, "=")
		if !found {
			continue
		}
		cookies[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	var missing []string
	for _, k := range requiredCookieKeys {
		if _, ok := cookies[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("Cookie字符串缺少必需字段: %s。请确保Cookie包含 MUSIC_U 和 __csrf 字段", strings.Join(missing, ", "))
	}

	return cookies, nil
}
