package fs

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"
)

// blockSize is the chunk size used to feed file contents into the running
// digest. 4 KiB keeps memory flat regardless of file size.
const blockSize = 4096

// ContentHash computes a deterministic digest of a directory tree: every
// file's path relative to root, followed by its contents, is folded into a
// single MD5 digest in sorted traversal order. Two directories with the same
// relative paths and byte-for-byte identical file contents hash the same,
// regardless of mtimes, permissions, or the order the OS returned entries in.
//
// This is an integrity check, not a security boundary, so MD5 is enough.
func ContentHash(root string) (string, error) {
	h := md5.New()
	buf := make([]byte, blockSize)

	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			if osPathname == root {
				return nil
			}
			rel, err := filepath.Rel(root, osPathname)
			if err != nil {
				return errors.Wrapf(err, "cannot compute relative path for %s", osPathname)
			}

			if de.IsDir() {
				h.Write([]byte(rel))
				return nil
			}

			h.Write([]byte(rel))

			f, err := os.Open(osPathname)
			if err != nil {
				return errors.Wrapf(err, "cannot open %s", osPathname)
			}
			defer f.Close()

			for {
				n, rerr := f.Read(buf)
				if n > 0 {
					h.Write(buf[:n])
				}
				if rerr == io.EOF {
					break
				}
				if rerr != nil {
					return errors.Wrapf(rerr, "cannot read %s", osPathname)
				}
			}

			return nil
		},
	})
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// DirSize returns the sum of file sizes (not block allocation) under root.
func DirSize(root string) (int64, error) {
	var total int64

	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			fi, err := os.Lstat(osPathname)
			if err != nil {
				return errors.Wrapf(err, "cannot stat %s", osPathname)
			}
			total += fi.Size()
			return nil
		},
	})
	if err != nil {
		return 0, err
	}

	return total, nil
}
