package encoder

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"memegen/internal/domain"
)

func sampleImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(1, 1, color.RGBA{G: 200, A: 255})
	return img
}

func TestToPNG(t *testing.T) {
	var pngBuf, jpegBuf, gifBuf bytes.Buffer
	if err := png.Encode(&pngBuf, sampleImage()); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	if err := jpeg.Encode(&jpegBuf, sampleImage(), nil); err != nil {
		t.Fatalf("jpeg encode: %v", err)
	}
	if err := gif.Encode(&gifBuf, sampleImage(), nil); err != nil {
		t.Fatalf("gif encode: %v", err)
	}

	tests := []struct {
		name      string
		img       domain.GeneratedImage
		wantSame  bool
		wantError bool
	}{
		{name: "png passes through", img: domain.GeneratedImage{Data: pngBuf.Bytes(), MediaType: "image/png"}, wantSame: true},
		{name: "jpeg transcoded", img: domain.GeneratedImage{Data: jpegBuf.Bytes(), MediaType: "image/jpeg"}},
		{name: "gif transcoded", img: domain.GeneratedImage{Data: gifBuf.Bytes(), MediaType: "image/gif"}},
		{name: "undecodable", img: domain.GeneratedImage{Data: []byte("not an image"), MediaType: "image/webp"}, wantError: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := ToPNG(tc.img)
			if tc.wantError {
				if err == nil {
					t.Fatal("ToPNG accepted undecodable data")
				}
				return
			}
			if err != nil {
				t.Fatalf("ToPNG returned error: %v", err)
			}
			if tc.wantSame && !bytes.Equal(out, tc.img.Data) {
				t.Fatal("png input was re-encoded")
			}
			decoded, err := png.Decode(bytes.NewReader(out))
			if err != nil {
				t.Fatalf("output is not a PNG: %v", err)
			}
			if b := decoded.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
				t.Fatalf("bounds = %v, want 3x2", b)
			}
		})
	}
}

func TestExtensionForMIME(t *testing.T) {
	tests := map[string]string{
		"image/png":                ".png",
		"image/jpg":                ".jpg",
		"IMAGE/JPEG; charset=x":    ".jpg",
		"image/gif":                ".gif",
		"image/webp":               ".webp",
		"application/octet-stream": ".bin",
	}
	for mime, want := range tests {
		if got := ExtensionForMIME(mime); got != want {
			t.Fatalf("ExtensionForMIME(%q) = %q, want %q", mime, got, want)
		}
	}
}
