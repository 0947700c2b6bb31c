package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func createTestJPEG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{255, 0, 0, 255})
		}
	}
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func createTestPNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{0, 0, 255, 255})
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func TestProcessJPEG(t *testing.T) {
	data := createTestJPEG(100, 80)
	result, err := Process(bytes.NewReader(data), 0)
	if err != nil {
		t.Fatalf("Process JPEG: %v", err)
	}
	if result.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", result.MIME)
	}
	if len(result.Data) == 0 {
		t.Error("expected non-empty data")
	}
	if result.Width != 100 || result.Height != 80 {
		t.Errorf("expected 100x80, got %dx%d", result.Width, result.Height)
	}
}

func TestProcessPNG(t *testing.T) {
	data := createTestPNG(100, 100)
	result, err := Process(bytes.NewReader(data), 0)
	if err != nil {
		t.Fatalf("Process PNG: %v", err)
	}
	if result.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg (always outputs JPEG), got %s", result.MIME)
	}
}

func TestProcessDownscale(t *testing.T) {
	data := createTestJPEG(800, 400)
	result, err := Process(bytes.NewReader(data), 200)
	if err != nil {
		t.Fatalf("Process large image: %v", err)
	}
	if result.Width != 200 || result.Height != 100 {
		t.Errorf("expected 200x100, got %dx%d", result.Width, result.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if img.Bounds().Dx() != 200 {
		t.Errorf("encoded width %d does not match result", img.Bounds().Dx())
	}
}

func TestProcessSmallImageNotUpscaled(t *testing.T) {
	data := createTestJPEG(50, 50)
	result, err := Process(bytes.NewReader(data), 1024)
	if err != nil {
		t.Fatalf("Process small image: %v", err)
	}
	if result.Width != 50 || result.Height != 50 {
		t.Errorf("small image should not be resized: got %dx%d", result.Width, result.Height)
	}
}

func TestProcessRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"text", []byte("not an image")},
		{"gif", []byte("GIF89a...")},
		{"truncated jpeg", append([]byte{0xff, 0xd8, 0xff, 0xe0}, []byte("garbage")...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Process(bytes.NewReader(tt.data), 0); err == nil {
				t.Error("expected error")
			}
		})
	}
}
