package receipt

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func decodeDataURL(t *testing.T, dataURL string) image.Image {
	t.Helper()
	const prefix = "data:image/jpeg;base64,"
	if !strings.HasPrefix(dataURL, prefix) {
		t.Fatalf("missing data URL prefix: %.40s", dataURL)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, prefix))
	if err != nil {
		t.Fatalf("decode base64: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("payload is not jpeg: %v", err)
	}
	return img
}

func TestNormalizeDownscalesLargeImage(t *testing.T) {
	n := NewNormalizer()
	dataURL, err := n.Normalize(context.Background(), n.Start(), encodePNG(t, testImage(2000, 1000)))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	b := decodeDataURL(t, dataURL).Bounds()
	if b.Dx() != 800 || b.Dy() != 400 {
		t.Fatalf("dimensions = %dx%d, want 800x400", b.Dx(), b.Dy())
	}
}

func TestNormalizeKeepsSmallImageSize(t *testing.T) {
	n := NewNormalizer()
	dataURL, err := n.Normalize(context.Background(), n.Start(), encodePNG(t, testImage(400, 300)))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	b := decodeDataURL(t, dataURL).Bounds()
	if b.Dx() != 400 || b.Dy() != 300 {
		t.Fatalf("dimensions = %dx%d, want 400x300 untouched", b.Dx(), b.Dy())
	}
}

func TestNormalizePortraitBoundsHeight(t *testing.T) {
	n := NewNormalizer()
	dataURL, err := n.Normalize(context.Background(), n.Start(), encodePNG(t, testImage(600, 1200)))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	b := decodeDataURL(t, dataURL).Bounds()
	if b.Dy() != 800 || b.Dx() != 400 {
		t.Fatalf("dimensions = %dx%d, want 400x800", b.Dx(), b.Dy())
	}
}

func TestNormalizeAcceptsJPEGInput(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testImage(100, 100), nil); err != nil {
		t.Fatal(err)
	}
	n := NewNormalizer()
	if _, err := n.Normalize(context.Background(), n.Start(), buf.Bytes()); err != nil {
		t.Fatalf("jpeg input rejected: %v", err)
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	n := NewNormalizer()
	_, err := n.Normalize(context.Background(), n.Start(), []byte("definitely not an image"))
	if !errors.Is(err, ErrNotAnImage) {
		t.Fatalf("err = %v, want ErrNotAnImage", err)
	}
}

func TestNormalizeSupersededByNewerCapture(t *testing.T) {
	n := NewNormalizer()
	data := encodePNG(t, testImage(50, 50))

	stale := n.Start()
	fresh := n.Start()

	if _, err := n.Normalize(context.Background(), stale, data); !errors.Is(err, ErrSuperseded) {
		t.Fatalf("stale capture err = %v, want ErrSuperseded", err)
	}
	if _, err := n.Normalize(context.Background(), fresh, data); err != nil {
		t.Fatalf("fresh capture err = %v", err)
	}
}
