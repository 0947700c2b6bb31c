package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// DefaultMaxDimension is the maximum width or height for stored proof images
// when no limit is configured.
const DefaultMaxDimension = 1600

// JPEGQuality is the compression quality for JPEG output.
const JPEGQuality = 85

// AllowedMIME lists the accepted input MIME types.
var AllowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Result contains the processed image data.
type Result struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// Process reads image data, validates the format by sniffing bytes,
// downscales it so neither side exceeds maxDim and re-encodes as JPEG.
// A maxDim of zero or less uses DefaultMaxDimension.
func Process(r io.Reader, maxDim int) (*Result, error) {
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}

	// Sniff actual MIME type from bytes (not trusting client headers).
	detected := http.DetectContentType(data)
	if !AllowedMIME[detected] {
		return nil, fmt.Errorf("unsupported image format: %s (only JPEG, PNG and WebP accepted)", detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	img = downscale(img, maxDim)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}

	b := img.Bounds()
	return &Result{
		Data:   buf.Bytes(),
		MIME:   "image/jpeg",
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

// downscale resizes the image so neither dimension exceeds maxDim.
// Uses high-quality Catmull-Rom interpolation.
// Returns the original image if already within bounds.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := w, h
	if w > h {
		newW = maxDim
		newH = int(float64(h) * float64(maxDim) / float64(w))
	} else {
		newH = maxDim
		newW = int(float64(w) * float64(maxDim) / float64(h))
	}

	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
	image.RegisterFormat("webp", "RIFF????WEBPVP8", webp.Decode, webp.DecodeConfig)
}
