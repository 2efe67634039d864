package disk

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// fsGeometry returns the block count and block size of the filesystem
// holding path.
func fsGeometry(path string) (blocks, bsize int64, err error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, 0, err
	}
	return int64(st.Blocks), int64(st.Bsize), nil //nolint:gosec // G115: block counts fit in int64
}

// deviceID returns the OS device id of path.
func deviceID(path string) (uint64, error) {
	dev, _, err := fileID(path)
	return dev, err
}

// fileID returns the device and inode of path.
func fileID(path string) (dev, ino uint64, err error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return 0, 0, err
	}
	return uint64(st.Dev), uint64(st.Ino), nil //nolint:gosec // G115: dev_t is non-negative
}

// isMountPoint reports whether path is a mount boundary: a directory on
// a different device than its parent, or the root of the tree.
func isMountPoint(path string) (bool, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if !fi.IsDir() {
		return false, nil
	}

	parent := filepath.Dir(path)
	if parent == path {
		return true, nil
	}

	dev, ino, err := fileID(path)
	if err != nil {
		return false, err
	}
	pdev, pino, err := fileID(parent)
	if err != nil {
		return false, err
	}
	if dev != pdev {
		return true, nil
	}
	// Same device and same inode means path and its parent are the same
	// directory, i.e. the root of a mounted tree.
	return ino == pino, nil
}
