package reader

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/pkg/errors"
)

// ErrFileNotFound means no location in the fallback chain held the file
var ErrFileNotFound = errors.New("data file not found")

// FileLocator finds data files under a directory. It looks, in order, for
// the plain file, an entry inside the data set archive, and a single-entry
// archive named after the file.
type FileLocator struct {
	DataDir string
}

// NewFileLocator creates a locator rooted at dataDir
func NewFileLocator(dataDir string) *FileLocator {
	return &FileLocator{DataDir: dataDir}
}

// ReadLines returns the file's lines without trailing newlines
func (l *FileLocator) ReadLines(ctx context.Context, archiveName, fileName string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	plain := filepath.Join(l.DataDir, fileName)
	f, err := os.Open(plain)
	switch {
	case err == nil:
		defer f.Close()
		return scanLines(f)
	case !os.IsNotExist(err):
		return nil, errors.Wrapf(err, "open %s", plain)
	}

	tried := []string{plain}
	if archiveName != "" {
		archive := filepath.Join(l.DataDir, archiveName)
		if !strings.HasSuffix(strings.ToLower(archive), ".zip") {
			archive += ".zip"
		}
		lines, found, err := readFromArchive(archive, func(f *zip.File) bool {
			return filepath.Base(f.Name) == filepath.Base(fileName)
		})
		if err != nil {
			return nil, err
		}
		if found {
			return lines, nil
		}
		tried = append(tried, archive+"!"+fileName)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	single := plain + ".zip"
	lines, found, err := readFromArchive(single, func(f *zip.File) bool {
		return !f.FileInfo().IsDir()
	})
	if err != nil {
		return nil, err
	}
	if found {
		return lines, nil
	}
	tried = append(tried, single)

	return nil, errors.Wrapf(ErrFileNotFound, "%s (tried %s)", fileName, strings.Join(tried, ", "))
}

// readFromArchive reads the first entry accepted by match; a missing archive is not an error
func readFromArchive(path string, match func(*zip.File) bool) ([]string, bool, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "open archive %s", path)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if !match(f) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, false, errors.Wrapf(err, "open %s in %s", f.Name, path)
		}
		lines, err := scanLines(rc)
		rc.Close()
		if err != nil {
			return nil, false, errors.Wrapf(err, "read %s in %s", f.Name, path)
		}
		return lines, true, nil
	}
	return nil, false, nil
}

func scanLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scan lines")
	}
	return lines, nil
}
