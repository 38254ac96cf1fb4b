// Package receipt normalizes uploaded receipt photos into small JPEG data
// URLs suitable for embedding in an expense record.
package receipt

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"sync/atomic"

	"golang.org/x/image/draw"

	_ "image/gif"
	_ "image/png"
)

const (
	// MaxDimension bounds the longer side of the stored image.
	MaxDimension = 800
	// JPEGQuality trades size for legibility; receipts stay readable.
	JPEGQuality = 60

	dataURLPrefix = "data:image/jpeg;base64,"
)

var (
	ErrNotAnImage = errors.New("receipt: data is not a decodable image")
	// ErrSuperseded means a newer capture started while this one was
	// still processing; its result must be discarded.
	ErrSuperseded = errors.New("receipt: capture superseded by a newer one")
)

// Normalizer converts uploads one logical capture at a time. Starting a
// new capture invalidates any still-running older one, so a slow large
// photo can never overwrite the receipt chosen after it.
type Normalizer struct {
	generation atomic.Int64
}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Token identifies one capture attempt.
type Token int64

// Start registers a new capture attempt and invalidates all earlier ones.
func (n *Normalizer) Start() Token {
	return Token(n.generation.Add(1))
}

// Normalize decodes the upload, scales it down so the longer side is at
// most MaxDimension (never upscaling), re-encodes as JPEG and returns a
// data URL. JPEG, PNG and GIF inputs are accepted. If a newer capture
// started meanwhile the result is dropped with ErrSuperseded.
func (n *Normalizer) Normalize(ctx context.Context, token Token, data []byte) (string, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotAnImage, err)
	}

	scaled := Downscale(src)

	var buf bytes.Buffer
	buf.WriteString(dataURLPrefix)
	enc := base64.NewEncoder(base64.StdEncoding, &buf)
	if err := jpeg.Encode(enc, scaled, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return "", fmt.Errorf("encode receipt jpeg: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode receipt jpeg: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if Token(n.generation.Load()) != token {
		return "", ErrSuperseded
	}

	b := scaled.Bounds()
	slog.InfoContext(ctx, "Receipt normalized",
		"format", format,
		"width", b.Dx(),
		"height", b.Dy(),
		"bytes", buf.Len())
	return buf.String(), nil
}

// Downscale shrinks the image proportionally so its longer side is at
// most MaxDimension. Smaller images come back untouched.
func Downscale(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	longer := w
	if h > w {
		longer = h
	}
	if longer <= MaxDimension {
		return src
	}

	scale := float64(MaxDimension) / float64(longer)
	dw := int(float64(w) * scale)
	dh := int(float64(h) * scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
