package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"Sc2Mp3/logger"

	"github.com/lrstanley/go-ytdlp"
)

// YtDlpExtractor implements Extractor by driving the yt-dlp binary, which in
// turn runs ffmpeg for the audio post-processing step.
type YtDlpExtractor struct {
	ytdlpPath   string
	ffmpegPath  string
	autoInstall bool

	installOnce sync.Once
	installErr  error
}

// NewYtDlpExtractor creates a new YtDlpExtractor. Empty paths mean "look up in PATH".
func NewYtDlpExtractor(ytdlpPath, ffmpegPath string, autoInstall bool) *YtDlpExtractor {
	return &YtDlpExtractor{
		ytdlpPath:   ytdlpPath,
		ffmpegPath:  ffmpegPath,
		autoInstall: autoInstall,
	}
}

// ensureInstalled downloads a yt-dlp build into the cache dir on first use
// when auto-install is enabled and no explicit path was configured.
func (e *YtDlpExtractor) ensureInstalled(ctx context.Context) error {
	if !e.autoInstall || e.ytdlpPath != "" {
		return nil
	}
	e.installOnce.Do(func() {
		resolved, err := ytdlp.Install(ctx, nil)
		if err != nil {
			e.installErr = fmt.Errorf("install yt-dlp: %w", err)
			return
		}
		logger.Info("yt-dlp ready",
			logger.String("path", resolved.Executable),
			logger.String("version", resolved.Version))
	})
	return e.installErr
}

func (e *YtDlpExtractor) command(opts ExtractOptions) *ytdlp.Command {
	dl := ytdlp.New().
		Format(opts.Format).
		ExtractAudio().
		AudioFormat(opts.AudioFormat).
		AudioQuality(opts.AudioQuality).
		Output(opts.OutputTemplate).
		DumpJSON().
		NoSimulate()

	if opts.NoPlaylist {
		dl.NoPlaylist()
	}
	if e.ytdlpPath != "" {
		dl.SetExecutable(e.ytdlpPath)
	}
	if e.ffmpegPath != "" {
		dl.FFmpegLocation(e.ffmpegPath)
	}
	return dl
}

// Extract downloads and transcodes url according to opts.
func (e *YtDlpExtractor) Extract(ctx context.Context, url string, opts ExtractOptions) (*TrackInfo, error) {
	if err := e.ensureInstalled(ctx); err != nil {
		return nil, err
	}

	logger.Debug("Executing yt-dlp",
		logger.String("url", url),
		logger.String("output", opts.OutputTemplate),
		logger.String("codec", opts.AudioFormat),
		logger.String("quality", opts.AudioQuality))

	res, err := e.command(opts).Run(ctx, url)
	if err != nil {
		return nil, err
	}

	infos, err := res.GetExtractedInfo()
	if err != nil {
		return nil, fmt.Errorf("read yt-dlp metadata: %w", err)
	}
	return trackInfoFrom(infos)
}

func trackInfoFrom(infos []*ytdlp.ExtractedInfo) (*TrackInfo, error) {
	if len(infos) == 0 || infos[0] == nil {
		return nil, errors.New("yt-dlp returned no track metadata")
	}

	info := &TrackInfo{}
	if infos[0].Title != nil {
		info.Title = *infos[0].Title
	}
	if infos[0].Thumbnail != nil {
		info.ThumbnailURL = *infos[0].Thumbnail
	}
	return info, nil
}
