package encoder

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"memegen/internal/domain"
)

type failingFile struct {
	openErr error
	readErr error
}

func (f failingFile) Name() string      { return "broken.png" }
func (f failingFile) MediaType() string { return domain.MediaTypePNG }
func (f failingFile) Size() int64       { return 0 }

func (f failingFile) Open() (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return io.NopCloser(errReader{f.readErr}), nil
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

func TestEncodeRoundTrip(t *testing.T) {
	data := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01, 0x02}
	payload, err := New().Encode(context.Background(), NewBytesFile("cat.jpg", "image/jpeg", data))
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if payload.MediaType != domain.MediaTypeJPEG {
		t.Fatalf("MediaType = %q, want %q", payload.MediaType, domain.MediaTypeJPEG)
	}
	decoded, err := payload.Decode()
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if !bytes.Equal(decoded, data) {
		t.Fatalf("round trip mismatch: got %v want %v", decoded, data)
	}
}

func TestEncodeSniffsMissingMediaType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	payload, err := New().Encode(context.Background(), NewBytesFile("blob", "", png))
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if payload.MediaType != domain.MediaTypePNG {
		t.Fatalf("MediaType = %q, want %q", payload.MediaType, domain.MediaTypePNG)
	}
}

func TestEncodeReadErrors(t *testing.T) {
	tests := []struct {
		name string
		file domain.File
	}{
		{name: "empty", file: NewBytesFile("empty.png", "image/png", nil)},
		{name: "open fails", file: failingFile{openErr: errors.New("permission denied")}},
		{name: "read fails", file: failingFile{readErr: errors.New("disk gone")}},
		{name: "nil file", file: nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New().Encode(context.Background(), tc.file)
			if !errors.Is(err, domain.ErrRead) {
				t.Fatalf("err = %v, want ErrRead", err)
			}
			var readErr *domain.ReadError
			if !errors.As(err, &readErr) {
				t.Fatalf("err = %T, want *domain.ReadError", err)
			}
		})
	}
}

func TestEncodeHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Encode(ctx, NewBytesFile("a.png", "image/png", []byte{1}))
	if !errors.Is(err, context.Canceled) || !errors.Is(err, domain.ErrRead) {
		t.Fatalf("err = %v, want context.Canceled wrapped as a read error", err)
	}
	var readErr *domain.ReadError
	if !errors.As(err, &readErr) || readErr.Name != "a.png" {
		t.Fatalf("err = %#v, want *domain.ReadError for a.png", err)
	}
}

func TestDiskFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.webp")
	if err := os.WriteFile(path, []byte("RIFF0000WEBPVP8 "), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := NewDiskFile(path)
	if err != nil {
		t.Fatalf("NewDiskFile returned error: %v", err)
	}
	if f.MediaType() != domain.MediaTypeWEBP {
		t.Fatalf("MediaType = %q, want %q", f.MediaType(), domain.MediaTypeWEBP)
	}
	if f.Size() != 16 {
		t.Fatalf("Size = %d, want 16", f.Size())
	}
	payload, err := New().Encode(context.Background(), f)
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if got := DataURL(payload); got != "data:image/webp;base64,"+payload.Data {
		t.Fatalf("DataURL = %q", got)
	}

	if _, err := NewDiskFile(filepath.Join(t.TempDir(), "missing.png")); !errors.Is(err, domain.ErrRead) {
		t.Fatalf("missing file err = %v, want ErrRead", err)
	}
}
