package retention

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	return path
}

// withAges makes the sweeper see each named file as created age ago.
func withAges(s *Sweeper, now time.Time, ages map[string]time.Duration) {
	s.now = func() time.Time { return now }
	s.createdAt = func(path string, info fs.FileInfo) time.Time {
		return now.Add(-ages[info.Name()])
	}
}

func TestSweepOnceRemovesOnlyExpiredFiles(t *testing.T) {
	dir := t.TempDir()
	oldAudio := writeFile(t, dir, "aaaa1111.mp3")
	oldCover := writeFile(t, dir, "aaaa1111_cover.jpg")
	fresh := writeFile(t, dir, "bbbb2222.mp3")

	s := NewSweeper(dir, time.Hour, time.Hour)
	withAges(s, time.Now(), map[string]time.Duration{
		"aaaa1111.mp3":       61 * time.Minute,
		"aaaa1111_cover.jpg": 3 * time.Hour,
		"bbbb2222.mp3":       59 * time.Minute,
	})

	removed, err := s.SweepOnce()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.NoFileExists(t, oldAudio)
	assert.NoFileExists(t, oldCover)
	assert.FileExists(t, fresh)
}

func TestSweepOnceSkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0755))

	s := NewSweeper(dir, time.Hour, time.Hour)
	withAges(s, time.Now(), map[string]time.Duration{"nested": 24 * time.Hour})

	removed, err := s.SweepOnce()
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.DirExists(t, sub)
}

func TestSweepOnceUsesRealTimestamps(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "cccc3333.mp3")

	s := NewSweeper(dir, time.Hour, time.Hour)
	removed, err := s.SweepOnce()
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.FileExists(t, path)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	removed, err = s.SweepOnce()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, path)
}

func TestSweepOnceMissingDirectory(t *testing.T) {
	s := NewSweeper(filepath.Join(t.TempDir(), "gone"), time.Hour, time.Hour)

	_, err := s.SweepOnce()
	assert.Error(t, err)
}

func TestStartSweepsUntilStopped(t *testing.T) {
	dir := t.TempDir()
	s := NewSweeper(dir, time.Hour, 20*time.Millisecond)
	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	s.Start()
	defer s.Stop()

	// The first sweep runs immediately; this file is picked up by a later tick.
	time.Sleep(30 * time.Millisecond)
	path := writeFile(t, dir, "dddd4444.mp3")

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return os.IsNotExist(err)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLoopSurvivesMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "later")
	s := NewSweeper(dir, time.Hour, 20*time.Millisecond)
	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	s.Start()
	defer s.Stop()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.Mkdir(dir, 0755))
	path := writeFile(t, dir, "eeee5555.mp3")

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return os.IsNotExist(err)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStopIsIdempotent(t *testing.T) {
	s := NewSweeper(t.TempDir(), time.Hour, time.Hour)
	s.Start()
	s.Stop()
	s.Stop()
}

func TestSweepOnceSkipsFileRemovedMidSweep(t *testing.T) {
	dir := t.TempDir()
	vanished := writeFile(t, dir, "aaaa1111.mp3")
	other := writeFile(t, dir, "bbbb2222.mp3")

	now := time.Now()
	s := NewSweeper(dir, time.Hour, time.Hour)
	s.now = func() time.Time { return now }
	s.createdAt = func(path string, info fs.FileInfo) time.Time {
		if path == vanished {
			// Another process removes the file between listing and deletion.
			require.NoError(t, os.Remove(path))
		}
		return now.Add(-2 * time.Hour)
	}

	removed, err := s.SweepOnce()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, vanished)
	assert.NoFileExists(t, other)
}

func TestSweepOnceContinuesAfterRemoveFailure(t *testing.T) {
	dir := t.TempDir()
	locked := writeFile(t, dir, "aaaa1111.mp3")
	first := writeFile(t, dir, "bbbb2222.mp3")
	second := writeFile(t, dir, "cccc3333_cover.jpg")

	s := NewSweeper(dir, time.Hour, time.Hour)
	withAges(s, time.Now(), map[string]time.Duration{
		"aaaa1111.mp3":       2 * time.Hour,
		"bbbb2222.mp3":       2 * time.Hour,
		"cccc3333_cover.jpg": 2 * time.Hour,
	})
	s.remove = func(path string) error {
		if path == locked {
			return &fs.PathError{Op: "remove", Path: path, Err: fs.ErrPermission}
		}
		return os.Remove(path)
	}

	removed, err := s.SweepOnce()
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrPermission)
	assert.Equal(t, 2, removed)
	assert.FileExists(t, locked)
	assert.NoFileExists(t, first)
	assert.NoFileExists(t, second)
}

func TestLoopSurvivesRemoveFailure(t *testing.T) {
	dir := t.TempDir()
	locked := writeFile(t, dir, "aaaa1111.mp3")

	s := NewSweeper(dir, time.Hour, 20*time.Millisecond)
	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	s.remove = func(path string) error {
		if path == locked {
			return &fs.PathError{Op: "remove", Path: path, Err: fs.ErrPermission}
		}
		return os.Remove(path)
	}

	s.Start()
	defer s.Stop()

	// The locked file fails on every tick; a file written later is still swept.
	time.Sleep(30 * time.Millisecond)
	path := writeFile(t, dir, "bbbb2222.mp3")

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return os.IsNotExist(err)
	}, 2*time.Second, 10*time.Millisecond)
	assert.FileExists(t, locked)
}
