package main

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"testing"

	"memegen/internal/domain"
)

func TestOutputTranscodesJPEG(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4)), nil); err != nil {
		t.Fatalf("jpeg encode: %v", err)
	}
	path, data, mediaType, err := output("meme.png", domain.GeneratedImage{Data: buf.Bytes(), MediaType: "image/jpeg"})
	if err != nil {
		t.Fatalf("output returned error: %v", err)
	}
	if path != "meme.png" || mediaType != "image/png" {
		t.Fatalf("output = %q %q, want meme.png image/png", path, mediaType)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Fatalf("written data is not a PNG: %v", err)
	}
}

func TestOutputKeepsUndecodableResult(t *testing.T) {
	raw := []byte("RIFF0000WEBPbroken")
	path, data, mediaType, err := output("out/meme.png", domain.GeneratedImage{Data: raw, MediaType: "image/webp"})
	if err == nil {
		t.Fatal("expected a conversion error")
	}
	if path != "out/meme.webp" || mediaType != "image/webp" || !bytes.Equal(data, raw) {
		t.Fatalf("output = %q %q %d bytes", path, mediaType, len(data))
	}
}
