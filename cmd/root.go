package cmd

import (
	"fmt"
	"os"

	"CloudDJ/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "clouddj",
	Short: "CloudDJ is a conversational song-request engine for NetEase Cloud Music.",
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
