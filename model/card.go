package model

// CardPayload 音乐卡片签名请求参数
// format固定为"163"表示网易云样式
type CardPayload struct {
	URL    string `json:"url"`    // 音频地址
	Jump   string `json:"jump"`   // 网页跳转地址
	Song   string `json:"song"`   // 歌曲标题
	Singer string `json:"singer"` // 艺术家
	Cover  string `json:"cover"`  // 封面地址
	Format string `json:"format"`
}
