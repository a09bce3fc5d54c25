// Package filex holds the filesystem helpers used for uploads: directory
// preparation and spooling request bodies into uniquely named temp files.
package filex

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ErrTooLarge is returned by Spool when the source exceeds the size limit.
var ErrTooLarge = errors.New("file exceeds size limit")

// EnsureDir creates dir (and parents) when missing and returns its absolute path.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}
	return abs, nil
}

// Spool copies r into a new file inside dir named "<uuid><ext>". At most limit
// bytes are accepted when limit > 0. The returned cleanup removes the file and
// is safe to call more than once; on error nothing is left behind.
func Spool(dir, ext string, r io.Reader, limit int64) (path string, cleanup func(), err error) {
	path = filepath.Join(dir, uuid.NewString()+ext)
	cleanup = func() { _ = os.Remove(path) }

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", func() {}, fmt.Errorf("create %s: %w", path, err)
	}

	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && limit > 0 && n > limit {
		err = ErrTooLarge
	}
	if err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("spool %s: %w", path, err)
	}

	return path, cleanup, nil
}

// WriteAtomic writes data to path through a temp file in the same directory
// followed by a rename, so readers never observe a partially written file.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp in %s: %w", dir, err)
	}
	name := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
