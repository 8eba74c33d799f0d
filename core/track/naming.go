package track

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// AudioExt is the fixed codec every track is transcoded to.
const AudioExt = "mp3"

const (
	defaultCoverExt = "jpg"
	coverSuffix     = "_cover"
	idLength        = 8
)

var allowedCoverExts = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"webp": true,
}

var (
	ErrURLRequired = errors.New("URL is required")
	ErrInvalidURL  = errors.New("Please provide a valid SoundCloud URL")
)

// NewTrackID returns a short random token used to name one request's files.
func NewTrackID() string {
	return uuid.New().String()[:idLength]
}

// AudioFileName is the stored name of a track's audio file.
func AudioFileName(trackID string) string {
	return trackID + "." + AudioExt
}

// CoverFileName is the stored name of a track's cover image.
func CoverFileName(trackID, ext string) string {
	return trackID + coverSuffix + "." + ext
}

// CoverExt derives the cover file extension from a thumbnail URL: the text
// after the last dot with any query string removed. Anything outside the
// allow-list becomes "jpg".
func CoverExt(thumbnailURL string) string {
	ext := thumbnailURL[strings.LastIndex(thumbnailURL, ".")+1:]
	ext, _, _ = strings.Cut(ext, "?")
	if allowedCoverExts[strings.ToLower(ext)] {
		return ext
	}
	return defaultCoverExt
}

// ValidateURL trims rawURL and checks it contains marker. No other parsing is done.
func ValidateURL(rawURL, marker string) (string, error) {
	u := strings.TrimSpace(rawURL)
	if u == "" {
		return "", ErrURLRequired
	}
	if !strings.Contains(u, marker) {
		return "", ErrInvalidURL
	}
	return u, nil
}
