package retention

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"Sc2Mp3/logger"
)

// Sweeper deletes files older than a fixed age from one flat directory.
type Sweeper struct {
	dir      string
	maxAge   time.Duration
	interval time.Duration

	now       func() time.Time
	createdAt func(path string, info fs.FileInfo) time.Time
	remove    func(path string) error

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewSweeper creates a Sweeper for dir.
func NewSweeper(dir string, maxAge, interval time.Duration) *Sweeper {
	return &Sweeper{
		dir:       dir,
		maxAge:    maxAge,
		interval:  interval,
		now:       time.Now,
		createdAt: fileCreatedAt,
		remove:    os.Remove,
		stopChan:  make(chan struct{}),
	}
}

// Start runs a sweep immediately and then once per interval until Stop.
func (s *Sweeper) Start() {
	logger.Info("Retention sweeper started",
		logger.String("dir", s.dir),
		logger.Duration("maxAge", s.maxAge),
		logger.Duration("interval", s.interval))

	s.wg.Add(1)
	go s.run()
}

// Stop ends the loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
	logger.Info("Retention sweeper stopped")
}

func (s *Sweeper) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		// Errors are already logged per file; the next tick always runs.
		if _, err := s.SweepOnce(); err != nil {
			logger.Error("Cleanup error", logger.ErrorField(err))
		}

		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
		}
	}
}

// SweepOnce removes every regular file in the directory whose creation time
// is older than maxAge. A failure on one file does not stop the sweep; all
// failures are joined into the returned error.
func (s *Sweeper) SweepOnce() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("list %s: %w", s.dir, err)
	}

	now := s.now()
	removed := 0
	var errs []error
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, fmt.Errorf("stat %s: %w", path, err))
			}
			continue
		}

		if now.Sub(s.createdAt(path, info)) <= s.maxAge {
			continue
		}

		if err := s.remove(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			logger.Warn("Failed to remove expired file",
				logger.String("file", entry.Name()),
				logger.ErrorField(err))
			errs = append(errs, fmt.Errorf("remove %s: %w", path, err))
			continue
		}
		removed++
		logger.Info("Cleaned up old file", logger.String("file", entry.Name()))
	}

	return removed, errors.Join(errs...)
}
