// Package fileutil provides the copy and device-check primitives behind the
// organizer's transfer modes.
package fileutil

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// CopyFile streams src to dst with default permissions (0o644).
func CopyFile(src, dst string) error {
	return CopyFileMode(src, dst, 0o644)
}

// CopyFileMode streams src to dst, setting the given file mode on dst.
func CopyFileMode(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	return writeStream(in, dst, mode)
}

func writeStream(in io.Reader, dst string, mode os.FileMode) error {
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// CopyFileVerified copies src to dst preserving the source permissions, then
// re-reads dst and compares size and SHA256 against what came off src. On
// any mismatch dst is removed and an error returned. Used when
// transfer.verify_copies is enabled.
func CopyFileVerified(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	hasher := sha256.New()
	if err := writeStream(io.TeeReader(in, hasher), dst, info.Mode().Perm()); err != nil {
		return err
	}

	size, sum, err := hashFile(dst)
	if err != nil {
		os.Remove(dst)
		return fmt.Errorf("read back copy: %w", err)
	}
	if size != info.Size() {
		os.Remove(dst)
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", info.Size(), size)
	}
	if !bytes.Equal(sum, hasher.Sum(nil)) {
		os.Remove(dst)
		return fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}
	return nil
}

func hashFile(path string) (int64, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, err
	}
	defer f.Close()
	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return 0, nil, err
	}
	return n, h.Sum(nil), nil
}

// SameDevice reports whether the two paths reside on the same filesystem
// device. Hardlink transfers preflight with this so a cross-volume attempt
// fails with a clear cause instead of a bare link error.
func SameDevice(a, b string) (bool, error) {
	var statA, statB unix.Stat_t
	if err := unix.Stat(a, &statA); err != nil {
		return false, &os.PathError{Op: "stat", Path: a, Err: err}
	}
	if err := unix.Stat(b, &statB); err != nil {
		return false, &os.PathError{Op: "stat", Path: b, Err: err}
	}
	return statA.Dev == statB.Dev, nil
}
