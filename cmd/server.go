package cmd

import (
	"CloudDJ/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动点歌引擎服务器",
	Long:  `启动CloudDJ的HTTP服务器，提供搜索、翻页、选择和播放API`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
