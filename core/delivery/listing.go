package delivery

import (
	"fmt"
	"strings"

	"CloudDJ/core/utils"
	"CloudDJ/model"
)

// RenderTrackList 把一页搜索结果渲染成编号文本列表
// 编号是页内1起始的展示编号，与选择操作一致
func RenderTrackList(query string, page []model.Track, pageIndex, pageCount int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "为您找到以下歌曲(关键词: %s):\n\n", query)
	for i, t := range page {
		fmt.Fprintf(&b, "%d. %s - %s [%s] %s\n",
			i+1, t.Title, t.Artist, t.Album, utils.FormatDuration(t.Duration))
	}
	if pageCount > 1 {
		fmt.Fprintf(&b, "\n第 %d/%d 页，回复编号播放，翻页请说\"下一页\"。", pageIndex+1, pageCount)
	} else {
		b.WriteString("\n回复编号播放。")
	}
	return b.String()
}
