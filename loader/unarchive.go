package loader

import (
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4"
)

// source is an opened input stream plus the extension of the payload inside any archive.
type source struct {
	io.Reader
	ext     string
	closers []io.Closer
}

func (s *source) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// openSource opens filePath and transparently unwraps .gz, .lz4 and .zip containers.
func openSource(filePath string) (*source, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".zip":
		return openZip(filePath)
	case ".gz":
		return openGzip(filePath)
	case ".lz4":
		return openLZ4(filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	return &source{Reader: file, ext: ext, closers: []io.Closer{file}}, nil
}

// openZip streams the largest file of the archive.
func openZip(filePath string) (*source, error) {
	r, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, err
	}

	var largestFile *zip.File
	var largestSize uint64
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if largestFile == nil || f.UncompressedSize64 > largestSize {
			largestFile = f
			largestSize = f.UncompressedSize64
		}
	}
	if largestFile == nil {
		r.Close()
		return nil, fmt.Errorf("zip archive %s contains no files", filePath)
	}

	rc, err := largestFile.Open()
	if err != nil {
		r.Close()
		return nil, err
	}
	return &source{
		Reader:  rc,
		ext:     strings.ToLower(filepath.Ext(largestFile.Name)),
		closers: []io.Closer{r, rc},
	}, nil
}

func openGzip(filePath string) (*source, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	gr, err := gzip.NewReader(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	return &source{
		Reader:  gr,
		ext:     strings.ToLower(filepath.Ext(strings.TrimSuffix(filePath, filepath.Ext(filePath)))),
		closers: []io.Closer{file, gr},
	}, nil
}

func openLZ4(filePath string) (*source, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	return &source{
		Reader:  lz4.NewReader(file),
		ext:     strings.ToLower(filepath.Ext(strings.TrimSuffix(filePath, filepath.Ext(filePath)))),
		closers: []io.Closer{file},
	}, nil
}
