//go:build !(linux || darwin || freebsd)

package retention

import (
	"io/fs"
	"time"
)

func fileCreatedAt(path string, info fs.FileInfo) time.Time {
	return info.ModTime()
}
