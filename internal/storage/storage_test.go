package storage

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/erazemk/campusfound/internal/apperr"
)

func newTestStore(t *testing.T, maxBytes int64) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	s, err := New(Options{
		UploadDir:     filepath.Join(root, "uploads"),
		StagingDir:    filepath.Join(root, "staging"),
		MaxImageBytes: maxBytes,
		MaxDimension:  64,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, root
}

func testPNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{10, 200, 30, 255})
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	n := 0
	filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			n++
		}
		return nil
	})
	return n
}

func TestStageRejectsOversize(t *testing.T) {
	s, root := newTestStore(t, 16)

	_, err := s.Stage(strings.NewReader(strings.Repeat("x", 17)), "big.jpg")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "16 B") {
		t.Errorf("expected humanized limit in error, got %q", err.Error())
	}
	if n := countFiles(t, filepath.Join(root, "staging")); n != 0 {
		t.Errorf("expected no staged files, got %d", n)
	}
}

func TestPlaceClaimImage(t *testing.T) {
	s, root := newTestStore(t, 0)

	staged, err := s.Stage(bytes.NewReader(testPNG(128, 32)), "proof.png")
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}

	img, created, err := s.PlaceClaimImage(7, staged)
	if err != nil {
		t.Fatalf("PlaceClaimImage: %v", err)
	}
	if !created {
		t.Error("expected claim dir to be created")
	}
	if img.Width != 64 || img.Height != 16 {
		t.Errorf("expected downscale to 64x16, got %dx%d", img.Width, img.Height)
	}
	if img.MIME != "image/jpeg" || !strings.HasPrefix(img.Path, "claims/7/") {
		t.Errorf("unexpected image %+v", img)
	}
	if _, err := os.Stat(staged.Path); !os.IsNotExist(err) {
		t.Error("expected staged file to be removed")
	}

	second, _ := s.Stage(bytes.NewReader(testPNG(10, 10)), "b.png")
	_, created, err = s.PlaceClaimImage(7, second)
	if err != nil {
		t.Fatalf("PlaceClaimImage second: %v", err)
	}
	if created {
		t.Error("existing claim dir must not be reported as created")
	}

	f, err := s.Open(img.Path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	f.Close()

	if err := s.DeleteClaimDir(7); err != nil {
		t.Fatalf("DeleteClaimDir: %v", err)
	}
	if n := countFiles(t, filepath.Join(root, "uploads")); n != 0 {
		t.Errorf("expected empty uploads dir, got %d files", n)
	}
}

func TestPlaceClaimImageCorrupt(t *testing.T) {
	s, _ := newTestStore(t, 0)

	staged, _ := s.Stage(bytes.NewReader([]byte{0xff, 0xd8, 0xff, 0x00, 0x01}), "broken.jpg")
	_, created, err := s.PlaceClaimImage(3, staged)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !created {
		t.Error("claim dir should be reported so the caller can remove it")
	}
	s.DiscardStaged([]*Staged{staged})
	s.DeleteClaimDir(3)
	if _, err := os.Stat(staged.Path); !os.IsNotExist(err) {
		t.Error("expected staged file to be discarded")
	}
}

func TestResolveRejectsTraversal(t *testing.T) {
	s, _ := newTestStore(t, 0)
	for _, p := range []string{"../etc/passwd", "/etc/passwd", ".."} {
		if err := s.DeleteFile(p); err == nil {
			t.Errorf("expected error for %q", p)
		}
	}
}
