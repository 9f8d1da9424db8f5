package encoder

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/webp"

	"memegen/internal/domain"
)

// ToPNG returns img as PNG bytes. PNG input is returned untouched; JPEG, GIF
// and WEBP are decoded and re-encoded.
func ToPNG(img domain.GeneratedImage) ([]byte, error) {
	if domain.NormalizeMediaType(img.MediaType) == domain.MediaTypePNG {
		return img.Data, nil
	}
	decoded, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return nil, fmt.Errorf("decode %s result: %w", img.MediaType, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, decoded); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// ExtensionForMIME maps an image media type to its file extension.
func ExtensionForMIME(mime string) string {
	switch domain.NormalizeMediaType(mime) {
	case domain.MediaTypePNG:
		return ".png"
	case domain.MediaTypeJPEG:
		return ".jpg"
	case domain.MediaTypeGIF:
		return ".gif"
	case domain.MediaTypeWEBP:
		return ".webp"
	default:
		return ".bin"
	}
}
