// Package romarchive unpacks ROM images shipped inside .zip, .7z or .rar
// archives. The first entry with the wanted extension is used.
package romarchive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/nwaples/rardecode/v2"

	"github.com/dmitrijs2005/deltacheats/internal/common"
	"github.com/dmitrijs2005/deltacheats/internal/filex"
)

// ErrNoROM is returned when an archive holds no entry with the wanted extension.
var ErrNoROM = fmt.Errorf("%w: archive contains no rom image", common.ErrInputValidation)

// Extensions lists the archive formats Extract understands.
var Extensions = []string{".zip", ".7z", ".rar"}

// IsArchive reports whether name has one of Extensions.
func IsArchive(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Extract copies the first entry of the archive at src whose name ends in
// romExt into a new file inside dir. At most limit bytes are accepted when
// limit > 0. The returned cleanup removes the extracted file.
func Extract(src, dir, romExt string, limit int64) (string, func(), error) {
	switch strings.ToLower(filepath.Ext(src)) {
	case ".zip":
		return extractZip(src, dir, romExt, limit)
	case ".7z":
		return extract7z(src, dir, romExt, limit)
	case ".rar":
		return extractRar(src, dir, romExt, limit)
	default:
		return "", func() {}, fmt.Errorf("%w: unsupported archive %s", common.ErrInputValidation, filepath.Base(src))
	}
}

func wanted(name, romExt string) bool {
	return strings.EqualFold(path.Ext(name), romExt)
}

func spoolEntry(open func() (io.ReadCloser, error), dir, romExt string, limit int64) (string, func(), error) {
	rc, err := open()
	if err != nil {
		return "", func() {}, fmt.Errorf("%w: %v", common.ErrInputValidation, err)
	}
	defer rc.Close()
	return filex.Spool(dir, romExt, rc, limit)
}

func extractZip(src, dir, romExt string, limit int64) (string, func(), error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return "", func() {}, fmt.Errorf("%w: open zip: %v", common.ErrInputValidation, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() || !wanted(f.Name, romExt) {
			continue
		}
		return spoolEntry(f.Open, dir, romExt, limit)
	}
	return "", func() {}, ErrNoROM
}

func extract7z(src, dir, romExt string, limit int64) (string, func(), error) {
	r, err := sevenzip.OpenReader(src)
	if err != nil {
		return "", func() {}, fmt.Errorf("%w: open 7z: %v", common.ErrInputValidation, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() || !wanted(f.Name, romExt) {
			continue
		}
		return spoolEntry(f.Open, dir, romExt, limit)
	}
	return "", func() {}, ErrNoROM
}

func extractRar(src, dir, romExt string, limit int64) (string, func(), error) {
	file, err := os.Open(src)
	if err != nil {
		return "", func() {}, fmt.Errorf("open %s: %w", src, err)
	}
	defer file.Close()

	r, err := rardecode.NewReader(file)
	if err != nil {
		return "", func() {}, fmt.Errorf("%w: open rar: %v", common.ErrInputValidation, err)
	}
	for {
		hdr, err := r.Next()
		if errors.Is(err, io.EOF) {
			return "", func() {}, ErrNoROM
		}
		if err != nil {
			return "", func() {}, fmt.Errorf("%w: read rar: %v", common.ErrInputValidation, err)
		}
		if hdr.IsDir || !wanted(hdr.Name, romExt) {
			continue
		}
		return filex.Spool(dir, romExt, r, limit)
	}
}
