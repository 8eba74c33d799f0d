package track

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"Sc2Mp3/core/audio"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExtractor writes a placeholder audio file where yt-dlp would.
type fakeExtractor struct {
	info      *audio.TrackInfo
	err       error
	skipWrite bool
	panicWith any

	calls   int
	gotURL  string
	gotOpts audio.ExtractOptions
}

func (f *fakeExtractor) Extract(ctx context.Context, url string, opts audio.ExtractOptions) (*audio.TrackInfo, error) {
	f.calls++
	f.gotURL = url
	f.gotOpts = opts
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	if f.err != nil {
		return nil, f.err
	}
	if !f.skipWrite {
		out := strings.Replace(opts.OutputTemplate, "%(ext)s", opts.AudioFormat, 1)
		if err := os.WriteFile(out, []byte("ID3"), 0644); err != nil {
			return nil, err
		}
	}
	return f.info, nil
}

func newTestRetriever(t *testing.T, ex audio.Extractor, coverTimeout time.Duration) *Retriever {
	t.Helper()
	return NewRetriever(ex, Options{
		Dir:          t.TempDir(),
		AudioQuality: "128K",
		CoverTimeout: coverTimeout,
	})
}

func TestRetrieveWithoutThumbnail(t *testing.T) {
	ex := &fakeExtractor{info: &audio.TrackInfo{Title: "Example Track"}}
	r := newTestRetriever(t, ex, time.Second)

	res := r.Retrieve(context.Background(), "https://soundcloud.com/artist/track", "ab12cd34")

	require.True(t, res.Success, res.Error)
	assert.Equal(t, "Example Track", res.Title)
	assert.Equal(t, filepath.Join(r.opts.Dir, "ab12cd34.mp3"), res.AudioPath)
	assert.FileExists(t, res.AudioPath)
	assert.False(t, res.HasCover())
	assert.Empty(t, res.ThumbnailURL)

	assert.Equal(t, "https://soundcloud.com/artist/track", ex.gotURL)
	assert.Equal(t, audio.ExtractOptions{
		Format:         "bestaudio",
		OutputTemplate: filepath.Join(r.opts.Dir, "ab12cd34.%(ext)s"),
		AudioFormat:    "mp3",
		AudioQuality:   "128K",
		NoPlaylist:     true,
	}, ex.gotOpts)
}

func TestRetrieveFallsBackToUnknownTitle(t *testing.T) {
	r := newTestRetriever(t, &fakeExtractor{info: &audio.TrackInfo{}}, time.Second)

	res := r.Retrieve(context.Background(), "https://soundcloud.com/a/b", "ab12cd34")

	require.True(t, res.Success)
	assert.Equal(t, "Unknown Track", res.Title)
}

func TestRetrieveStoresCover(t *testing.T) {
	img := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("PNGDATA"))
	}))
	defer img.Close()

	thumb := img.URL + "/artworks-t500x500.png?v=3"
	r := newTestRetriever(t, &fakeExtractor{info: &audio.TrackInfo{Title: "t", ThumbnailURL: thumb}}, time.Second)

	res := r.Retrieve(context.Background(), "https://soundcloud.com/a/b", "ab12cd34")

	require.True(t, res.Success)
	assert.Equal(t, "png", res.CoverExt)
	assert.Equal(t, filepath.Join(r.opts.Dir, "ab12cd34_cover.png"), res.CoverPath)
	assert.Equal(t, thumb, res.ThumbnailURL)

	data, err := os.ReadFile(res.CoverPath)
	require.NoError(t, err)
	assert.Equal(t, "PNGDATA", string(data))
}

func TestRetrieveSwallowsCoverStatusError(t *testing.T) {
	img := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer img.Close()

	thumb := img.URL + "/a.jpg"
	r := newTestRetriever(t, &fakeExtractor{info: &audio.TrackInfo{Title: "t", ThumbnailURL: thumb}}, time.Second)

	res := r.Retrieve(context.Background(), "https://soundcloud.com/a/b", "ab12cd34")

	require.True(t, res.Success)
	assert.False(t, res.HasCover())
	assert.Empty(t, res.CoverExt)
	assert.Equal(t, thumb, res.ThumbnailURL)
	assert.NoFileExists(t, filepath.Join(r.opts.Dir, "ab12cd34_cover.jpg"))
}

func TestRetrieveSwallowsCoverTimeout(t *testing.T) {
	img := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer img.Close()

	r := newTestRetriever(t, &fakeExtractor{info: &audio.TrackInfo{Title: "t", ThumbnailURL: img.URL + "/a.jpg"}}, 50*time.Millisecond)

	res := r.Retrieve(context.Background(), "https://soundcloud.com/a/b", "ab12cd34")

	require.True(t, res.Success)
	assert.False(t, res.HasCover())
}

func TestRetrieveReportsExtractionError(t *testing.T) {
	ex := &fakeExtractor{err: errors.New("ERROR: Unsupported URL")}
	r := newTestRetriever(t, ex, time.Second)

	res := r.Retrieve(context.Background(), "https://soundcloud.com/a/b", "ab12cd34")

	assert.False(t, res.Success)
	assert.Equal(t, "ERROR: Unsupported URL", res.Error)
	assert.Equal(t, 1, ex.calls)
}

func TestRetrieveFailsWhenAudioMissing(t *testing.T) {
	r := newTestRetriever(t, &fakeExtractor{info: &audio.TrackInfo{Title: "t"}, skipWrite: true}, time.Second)

	res := r.Retrieve(context.Background(), "https://soundcloud.com/a/b", "ab12cd34")

	assert.False(t, res.Success)
	assert.Equal(t, "audio file was not produced", res.Error)
}

func TestRetrieveRecoversPanic(t *testing.T) {
	r := newTestRetriever(t, &fakeExtractor{panicWith: "boom"}, time.Second)

	res := r.Retrieve(context.Background(), "https://soundcloud.com/a/b", "ab12cd34")

	assert.False(t, res.Success)
	assert.Equal(t, "Server error: boom", res.Error)
}
