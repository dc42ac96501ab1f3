package files

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// MovePath renames src to dst, falling back to copy-and-delete when the two
// sit on different filesystems. Mounts make that case routine: a named mount
// is usually another device, and rename across devices fails with EXDEV.
func MovePath(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil || !crossDevice(err) {
		return err
	}
	return moveByCopy(src, dst)
}

func crossDevice(err error) bool {
	var linkErr *os.LinkError
	return errors.As(err, &linkErr) && errors.Is(linkErr.Err, unix.EXDEV)
}

// moveByCopy replicates src at dst then removes src. A failed copy cleans up
// the partial destination and leaves the source untouched.
func moveByCopy(src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}

	switch {
	case info.Mode()&os.ModeSymlink != 0:
		target, err := os.Readlink(src)
		if err != nil {
			return err
		}
		if err := os.Symlink(target, dst); err != nil {
			return err
		}
	case info.IsDir():
		if err := copyTree(src, dst); err != nil {
			os.RemoveAll(dst)
			return err
		}
	default:
		if err := copyFile(src, dst, info.Mode()); err != nil {
			return err
		}
	}
	return os.RemoveAll(src)
}
