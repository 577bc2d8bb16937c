package cache

import (
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

// syncAndClose flocks the file exclusively for the duration of the fsync so
// a concurrent reader opening the same temp path (shouldn't normally happen,
// given the random suffix, but guards against a colliding suffix) never
// observes a torn write, then fsyncs and closes it.
func syncAndClose(f *os.File) error {
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return err
	}
	syncErr := f.Sync()
	unix.Flock(int(f.Fd()), unix.LOCK_UN)
	closeErr := f.Close()
	if syncErr != nil {
		return syncErr
	}
	return closeErr
}

func walkFiles(root string, fn func(path string, size int64, modTime time.Time)) error {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil
	}
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return nil
		}
		fn(path, info.Size(), info.ModTime())
		return nil
	})
}
