package domain

import (
	"encoding/base64"
	"io"
	"strings"
)

// Accepted upload media types.
const (
	MediaTypePNG  = "image/png"
	MediaTypeJPEG = "image/jpeg"
	MediaTypeGIF  = "image/gif"
	MediaTypeWEBP = "image/webp"
)

// SupportedMediaType reports whether mediaType is on the upload allow-list.
func SupportedMediaType(mediaType string) bool {
	switch NormalizeMediaType(mediaType) {
	case MediaTypePNG, MediaTypeJPEG, MediaTypeGIF, MediaTypeWEBP:
		return true
	default:
		return false
	}
}

// NormalizeMediaType lowercases mediaType and strips parameters.
func NormalizeMediaType(mediaType string) string {
	if idx := strings.IndexByte(mediaType, ';'); idx >= 0 {
		mediaType = mediaType[:idx]
	}
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if mediaType == "image/jpg" {
		return MediaTypeJPEG
	}
	return mediaType
}

// File is a user-supplied image handle. Open may be called more than once.
type File interface {
	Name() string
	MediaType() string
	Size() int64
	Open() (io.ReadCloser, error)
}

// UploadedImage is the selected file together with its local preview reference.
type UploadedImage struct {
	File    File
	Preview string
}

// EncodedPayload is the transport form of an uploaded image.
type EncodedPayload struct {
	Data      string
	MediaType string
}

// Decode reverses the base64 transport encoding.
func (p EncodedPayload) Decode() ([]byte, error) {
	return base64.StdEncoding.DecodeString(p.Data)
}

// GeneratedImage is a successful generation result.
type GeneratedImage struct {
	Data      []byte
	MediaType string
}
