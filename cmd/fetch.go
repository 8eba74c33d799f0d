package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"Sc2Mp3/core/track"
	"Sc2Mp3/model"
	"Sc2Mp3/server"

	"github.com/spf13/cobra"
)

var fetchDir string

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "下载单个SoundCloud音轨",
	Long:  `不启动服务器，直接下载一个SoundCloud音轨为MP3（以及可选的封面），并以JSON输出结果。`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if fetchDir != "" {
			cfg.DownloadDir = fetchDir
		}

		url, err := track.ValidateURL(args[0], cfg.DomainMarker)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(cfg.DownloadDir, 0755); err != nil {
			return fmt.Errorf("failed to create download directory: %w", err)
		}

		trackID := track.NewTrackID()
		res := server.NewRetriever(cfg).Retrieve(cmd.Context(), url, trackID)
		if !res.Success {
			return fmt.Errorf("download failed: %s", res.Error)
		}

		out := struct {
			model.DownloadResponse
			AudioPath string `json:"audio_path"`
			CoverPath string `json:"cover_path,omitempty"`
		}{
			DownloadResponse: model.NewDownloadResponse(trackID, res),
			AudioPath:        res.AudioPath,
			CoverPath:        res.CoverPath,
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchDir, "dir", "d", "", "download directory (overrides DOWNLOAD_DIR)")
	rootCmd.AddCommand(fetchCmd)
}
