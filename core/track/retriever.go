package track

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"Sc2Mp3/core/audio"
	"Sc2Mp3/core/utils"
	"Sc2Mp3/logger"
	"Sc2Mp3/model"
)

const (
	unknownTitle = "Unknown Track"
	sourceFormat = "bestaudio"
)

// Options configures a Retriever.
type Options struct {
	Dir          string
	AudioQuality string
	CoverTimeout time.Duration
}

// Retriever runs the per-request download: extract and transcode the audio,
// then fetch the cover on a best-effort basis.
type Retriever struct {
	extractor  audio.Extractor
	httpClient *http.Client
	opts       Options
}

// NewRetriever creates a new Retriever. The cover client carries the only
// timeout in the pipeline; extraction is bounded by ctx alone.
func NewRetriever(extractor audio.Extractor, opts Options) *Retriever {
	return &Retriever{
		extractor:  extractor,
		httpClient: &http.Client{Timeout: opts.CoverTimeout},
		opts:       opts,
	}
}

// Retrieve downloads url into files named after trackID. It never returns an
// error: every failure, including a panic in the collaborator, becomes an
// error result.
func (r *Retriever) Retrieve(ctx context.Context, url, trackID string) (res model.DownloadResult) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("Track retrieval panicked",
				logger.String("trackId", trackID),
				logger.Any("panic", p))
			res = model.DownloadResult{Error: fmt.Sprintf("Server error: %v", p)}
		}
	}()

	t0 := time.Now()
	info, err := r.extractor.Extract(ctx, url, audio.ExtractOptions{
		Format:         sourceFormat,
		OutputTemplate: filepath.Join(r.opts.Dir, trackID+".%(ext)s"),
		AudioFormat:    AudioExt,
		AudioQuality:   r.opts.AudioQuality,
		NoPlaylist:     true,
	})
	if err == nil && info == nil {
		err = errors.New("extractor returned no metadata")
	}

	audioPath := filepath.Join(r.opts.Dir, AudioFileName(trackID))
	if err == nil && !utils.FileExists(audioPath) {
		err = errors.New("audio file was not produced")
	}
	if err != nil {
		logger.Error("Audio extraction failed",
			logger.String("trackId", trackID),
			logger.String("url", url),
			logger.ErrorField(err))
		return model.DownloadResult{Error: err.Error()}
	}
	t1 := time.Now()
	logger.Info("Audio download/conversion finished",
		logger.String("trackId", trackID),
		logger.Duration("took", t1.Sub(t0)))

	res = model.DownloadResult{
		Success:      true,
		Title:        info.Title,
		AudioPath:    audioPath,
		ThumbnailURL: info.ThumbnailURL,
	}
	if res.Title == "" {
		res.Title = unknownTitle
	}

	if info.ThumbnailURL != "" {
		res.CoverExt, res.CoverPath = r.fetchCover(ctx, info.ThumbnailURL, trackID)
		logger.Info("Cover download finished",
			logger.String("trackId", trackID),
			logger.Bool("stored", res.HasCover()),
			logger.Duration("took", time.Since(t1)))
	}
	return res
}

// fetchCover returns empty strings when the cover could not be stored.
func (r *Retriever) fetchCover(ctx context.Context, thumbnailURL, trackID string) (ext, path string) {
	ext = CoverExt(thumbnailURL)
	path = filepath.Join(r.opts.Dir, CoverFileName(trackID, ext))

	if err := utils.DownloadFile(ctx, r.httpClient, thumbnailURL, path); err != nil {
		logger.Warn("Error downloading cover",
			logger.String("trackId", trackID),
			logger.String("thumbnail", thumbnailURL),
			logger.ErrorField(err))
		return "", ""
	}
	return ext, path
}
