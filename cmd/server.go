package cmd

import (
	"Sc2Mp3/server"

	"github.com/spf13/cobra"
)

var serverPort string

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动下载服务器",
	Long:  `启动HTTP服务器，提供下载API、文件下载、健康检查和Web界面，并在后台定期清理过期文件`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serverPort != "" {
			cfg.Port = serverPort
		}
		return server.Start(cfg)
	},
}

func init() {
	serverCmd.Flags().StringVarP(&serverPort, "port", "p", "", "listen port (overrides PORT)")
	rootCmd.AddCommand(serverCmd)
}
