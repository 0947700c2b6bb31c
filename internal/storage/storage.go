// Package storage keeps claim proof images on the local filesystem. Uploads
// are staged first, then processed and placed under the claim's directory
// while the submitting transaction is still open.
package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/erazemk/campusfound/internal/apperr"
	"github.com/erazemk/campusfound/internal/imaging"
	"github.com/erazemk/campusfound/internal/model"
)

// DefaultMaxImageBytes caps a single raw upload.
const DefaultMaxImageBytes = 10 << 20

// Options configures a Store.
type Options struct {
	UploadDir     string
	StagingDir    string
	MaxImageBytes int64
	MaxDimension  int
}

// Store manages staged uploads and placed claim images.
type Store struct {
	uploadDir     string
	stagingDir    string
	maxImageBytes int64
	maxDimension  int
}

// Staged is a raw upload waiting to be processed.
type Staged struct {
	Path         string
	OriginalName string
	Size         int64
}

// New creates the upload and staging directories and returns a Store.
func New(opts Options) (*Store, error) {
	if opts.UploadDir == "" {
		return nil, errors.New("storage: upload dir required")
	}
	if opts.StagingDir == "" {
		opts.StagingDir = filepath.Join(opts.UploadDir, ".staging")
	}
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = DefaultMaxImageBytes
	}
	for _, dir := range []string{opts.UploadDir, opts.StagingDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return &Store{
		uploadDir:     opts.UploadDir,
		stagingDir:    opts.StagingDir,
		maxImageBytes: opts.MaxImageBytes,
		maxDimension:  opts.MaxDimension,
	}, nil
}

// Stage copies r into the staging directory under a random name. Uploads
// larger than the configured limit are rejected and leave nothing behind.
func (s *Store) Stage(r io.Reader, name string) (*Staged, error) {
	f, err := os.CreateTemp(s.stagingDir, "upload-*")
	if err != nil {
		return nil, fmt.Errorf("creating staged file: %w", err)
	}
	path := f.Name()

	n, err := io.Copy(f, io.LimitReader(r, s.maxImageBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing staged file: %w", err)
	}
	if n > s.maxImageBytes {
		os.Remove(path)
		return nil, apperr.Validation("image %q exceeds the %s upload limit",
			name, humanize.IBytes(uint64(s.maxImageBytes)))
	}

	return &Staged{Path: path, OriginalName: name, Size: n}, nil
}

// DiscardStaged removes staged uploads that were never placed.
func (s *Store) DiscardStaged(files []*Staged) {
	for _, f := range files {
		if f == nil {
			continue
		}
		if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("removing staged upload", "path", f.Path, "error", err)
		}
	}
}

// PlaceClaimImage processes a staged upload and writes the result into the
// claim's image directory. It reports whether the directory was created by
// this call so the caller can undo it on failure. The staged file is removed
// once the image is written.
func (s *Store) PlaceClaimImage(claimID int64, staged *Staged) (*model.ClaimImage, bool, error) {
	dir := s.claimDir(claimID)
	created := false
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, false, fmt.Errorf("creating claim dir: %w", err)
		}
		created = true
	}

	src, err := os.Open(staged.Path)
	if err != nil {
		return nil, created, fmt.Errorf("opening staged file: %w", err)
	}
	result, err := imaging.Process(src, s.maxDimension)
	src.Close()
	if err != nil {
		return nil, created, apperr.Validation("image %q: %v", staged.OriginalName, err)
	}

	rel := filepath.Join("claims", strconv.FormatInt(claimID, 10), uuid.NewString()+".jpg")
	if err := writeFileAtomic(filepath.Join(s.uploadDir, rel), result.Data, 0o644); err != nil {
		return nil, created, fmt.Errorf("writing claim image: %w", err)
	}

	if err := os.Remove(staged.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("removing staged upload", "path", staged.Path, "error", err)
	}

	return &model.ClaimImage{
		ClaimID:   claimID,
		Path:      filepath.ToSlash(rel),
		MIME:      result.MIME,
		SizeBytes: int64(len(result.Data)),
		Width:     result.Width,
		Height:    result.Height,
	}, created, nil
}

// DeleteFile removes a placed file given its path relative to the upload dir.
func (s *Store) DeleteFile(rel string) error {
	path, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting %s: %w", rel, err)
	}
	return nil
}

// DeleteClaimDir removes a claim's image directory and everything in it.
func (s *Store) DeleteClaimDir(claimID int64) error {
	if err := os.RemoveAll(s.claimDir(claimID)); err != nil {
		return fmt.Errorf("deleting claim dir: %w", err)
	}
	return nil
}

// Open opens a placed file for reading.
func (s *Store) Open(rel string) (*os.File, error) {
	path, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

func (s *Store) claimDir(claimID int64) string {
	return filepath.Join(s.uploadDir, "claims", strconv.FormatInt(claimID, 10))
}

// resolve maps a stored relative path to an absolute one, refusing paths that
// escape the upload dir.
func (s *Store) resolve(rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid storage path %q", rel)
	}
	return filepath.Join(s.uploadDir, clean), nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "img-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
