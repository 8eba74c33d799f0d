//go:build linux || darwin || freebsd

package retention

import (
	"io/fs"
	"time"

	"golang.org/x/sys/unix"
)

// fileCreatedAt returns the inode change time, which is the closest thing to
// a creation time these platforms expose for a file that is written once.
func fileCreatedAt(path string, info fs.FileInfo) time.Time {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return info.ModTime()
	}
	return time.Unix(st.Ctim.Unix())
}
