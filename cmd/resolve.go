package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"CloudDJ/config"
	"CloudDJ/core/audiocache"
	"CloudDJ/core/netease"
	"CloudDJ/core/resolver"
	"CloudDJ/core/utils"
	"CloudDJ/logger"

	"github.com/spf13/cobra"
)

var (
	searchKeyword string
	wantDownload  bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "命令行点歌工具",
	Long:  `搜索歌曲并解析播放地址，可选下载到本地缓存`,
	Run: func(cmd *cobra.Command, args []string) {
		if searchKeyword == "" {
			fmt.Println("请输入要搜索的歌曲名称")
			os.Exit(1)
		}

		cfg := config.Load()
		logger.Init(logger.Config{Level: cfg.LogLevel})

		client := netease.NewClient()
		client.SetBaseURL(cfg.NeteaseAPIURL)
		client.SetTimeout(cfg.HTTPTimeout)
		if cfg.NeteaseCookie != "" {
			if err := client.SetCookieString(cfg.NeteaseCookie); err != nil {
				log.Printf("Cookie无效，VIP解锁不可用: %v", err)
			}
		}

		ctx := context.Background()

		// 搜索歌曲
		fmt.Printf("正在搜索: %s\n", searchKeyword)
		result, err := client.SearchSongs(ctx, searchKeyword, cfg.PageSize, 0)
		if err != nil {
			log.Fatalf("搜索失败: %v", err)
		}
		if len(result.Tracks) == 0 {
			fmt.Println("未找到相关歌曲")
			return
		}

		// 显示搜索结果
		fmt.Printf("\n找到 %d 首歌曲:\n", len(result.Tracks))
		for i, t := range result.Tracks {
			vip := ""
			if t.VIP {
				vip = " [VIP]"
			}
			fmt.Printf("%d. %s - %s [%s] %s%s\n",
				i+1, t.Title, t.Artist, t.Album, utils.FormatDuration(t.Duration), vip)
		}

		// 获取用户选择
		var choice int
		fmt.Print("\n请选择要解析的歌曲编号: ")
		fmt.Scan(&choice)
		if choice < 1 || choice > len(result.Tracks) {
			fmt.Println("无效的选择")
			return
		}

		cacheStore, err := audiocache.NewStore(cfg.AudioCacheDir, audiocache.NewMemoryIndex(), nil)
		if err != nil {
			log.Fatalf("创建缓存失败: %v", err)
		}
		res := resolver.New(client, cacheStore, cfg.DownloadRetries, cfg.DownloadBackoff)

		resolved, err := res.Resolve(ctx, result.Tracks[choice-1], wantDownload)
		if err != nil {
			log.Fatalf("解析失败: %v", err)
		}

		fmt.Printf("\n歌曲: %s - %s\n", resolved.Track.Title, resolved.Track.Artist)
		if resolved.StreamURL != "" {
			fmt.Printf("播放地址: %s\n", resolved.StreamURL)
		}
		if resolved.AssetPath != "" {
			fmt.Printf("本地文件: %s\n", resolved.AssetPath)
		}
	},
}

func init() {
	resolveCmd.Flags().StringVarP(&searchKeyword, "keyword", "k", "", "搜索关键词")
	resolveCmd.Flags().BoolVarP(&wantDownload, "download", "d", false, "下载音频到本地缓存")
	rootCmd.AddCommand(resolveCmd)
}
