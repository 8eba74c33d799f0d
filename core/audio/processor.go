package audio

import "context"

// ExtractOptions controls one extraction run.
type ExtractOptions struct {
	Format         string // source format selector, e.g. "bestaudio"
	OutputTemplate string // yt-dlp output template, e.g. "downloads/ab12cd34.%(ext)s"
	AudioFormat    string // post-processing codec, e.g. "mp3"
	AudioQuality   string // post-processing quality, e.g. "128K"
	NoPlaylist     bool
}

// TrackInfo is the subset of extraction metadata the service uses.
type TrackInfo struct {
	Title        string
	ThumbnailURL string
}

// Extractor resolves a source URL to a transcoded audio file on disk and
// returns the track metadata. Implementations block until the file is written.
type Extractor interface {
	Extract(ctx context.Context, url string, opts ExtractOptions) (*TrackInfo, error)
}
