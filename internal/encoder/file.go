package encoder

import (
	"bytes"
	"io"
	"mime"
	"os"
	"path/filepath"

	"memegen/internal/domain"
)

// BytesFile is an in-memory upload, typically copied out of a multipart form.
type BytesFile struct {
	name      string
	mediaType string
	data      []byte
}

func NewBytesFile(name, mediaType string, data []byte) *BytesFile {
	return &BytesFile{name: name, mediaType: domain.NormalizeMediaType(mediaType), data: data}
}

func (f *BytesFile) Name() string      { return f.name }
func (f *BytesFile) MediaType() string { return f.mediaType }
func (f *BytesFile) Size() int64       { return int64(len(f.data)) }

func (f *BytesFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

// DiskFile reads its content from path on every Open.
type DiskFile struct {
	path      string
	mediaType string
	size      int64
}

// NewDiskFile stats path and derives the media type from its extension.
func NewDiskFile(path string) (*DiskFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &domain.ReadError{Name: filepath.Base(path), Cause: err}
	}
	return &DiskFile{
		path:      path,
		mediaType: domain.NormalizeMediaType(mime.TypeByExtension(filepath.Ext(path))),
		size:      info.Size(),
	}, nil
}

func (f *DiskFile) Name() string      { return filepath.Base(f.path) }
func (f *DiskFile) MediaType() string { return f.mediaType }
func (f *DiskFile) Size() int64       { return f.size }

func (f *DiskFile) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}

var (
	_ domain.File = (*BytesFile)(nil)
	_ domain.File = (*DiskFile)(nil)
)
