package cmd

import (
	"fmt"
	"time"

	"Sc2Mp3/core/retention"

	"github.com/spf13/cobra"
)

var (
	sweepDir    string
	sweepMaxAge time.Duration
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "清理过期文件",
	Long:  `执行一次保留期清理，删除下载目录中创建时间超过最大保留时长的文件。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cfg.DownloadDir
		if sweepDir != "" {
			dir = sweepDir
		}
		maxAge := cfg.RetentionMaxAge
		if sweepMaxAge > 0 {
			maxAge = sweepMaxAge
		}

		removed, err := retention.NewSweeper(dir, maxAge, cfg.RetentionInterval).SweepOnce()
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d file(s) older than %s from %s\n", removed, maxAge, dir)
		return err
	},
}

func init() {
	sweepCmd.Flags().StringVarP(&sweepDir, "dir", "d", "", "directory to sweep (overrides DOWNLOAD_DIR)")
	sweepCmd.Flags().DurationVar(&sweepMaxAge, "max-age", 0, "maximum file age (overrides RETENTION_MAX_AGE)")
	rootCmd.AddCommand(sweepCmd)
}
