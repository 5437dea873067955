package delivery

import (
	"context"

	"CloudDJ/model"
)

// Mode 投递形式
type Mode string

const (
	ModeCard  Mode = "card"  // 结构化音乐卡片
	ModeVoice Mode = "voice" // 语音消息
	ModeFile  Mode = "file"  // 音频文件附件
)

// Valid 是否是已知投递形式
func (m Mode) Valid() bool {
	switch m {
	case ModeCard, ModeVoice, ModeFile:
		return true
	}
	return false
}

// NeedsLocalAsset 该形式是否需要本地音频字节
// 卡片只引用远端流地址，语音和文件要先下载
func (m Mode) NeedsLocalAsset() bool {
	return m == ModeVoice || m == ModeFile
}

// Adapter 投递适配器，由宿主框架实现
// 核心只交出解析结果和期望形式，投递失败的重试是适配器自己的事
type Adapter interface {
	Deliver(ctx context.Context, track *model.ResolvedTrack, mode Mode) error
}
