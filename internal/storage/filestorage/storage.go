package filestorage

import (
	"context"
	"fmt"
	"image/jpeg"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/nfnt/resize"

	"photovault/internal/lib/imaging"
)

const thumbnailDir = "thumbnails"

// FileStorage persists uploaded photo content under generated storage keys.
type FileStorage interface {
	Save(ctx context.Context, file *multipart.FileHeader, name string) (int64, error)
	Thumbnail(name string, width uint) error
	Delete(ctx context.Context, name string) error
	FullPath(name string) string
	ThumbnailPath(name string) string
	BaseDir() string
}

// LocalFileStorage keeps files on the local filesystem. The thumbnails
// subdirectory is provisioned at construction time.
type LocalFileStorage struct {
	baseDir string
}

func NewLocalFileStorage(baseDir string) (*LocalFileStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(baseDir, thumbnailDir), 0755); err != nil {
		return nil, err
	}

	return &LocalFileStorage{baseDir: baseDir}, nil
}

// Save writes the uploaded file under the given generated name. The target
// is opened with O_EXCL so a storage-key collision surfaces as os.ErrExist
// instead of silently overwriting another user's file.
func (s *LocalFileStorage) Save(ctx context.Context, file *multipart.FileHeader, name string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	src, err := file.Open()
	if err != nil {
		return 0, fmt.Errorf("failed to open source file: %w", err)
	}
	defer src.Close()

	filePath := filepath.Join(s.baseDir, name)

	dst, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	done := make(chan struct{})
	var size int64
	var copyErr error

	go func() {
		size, copyErr = io.Copy(dst, src)
		close(done)
	}()

	select {
	case <-done:
		if copyErr != nil {
			_ = os.Remove(filePath)
			return 0, fmt.Errorf("failed to copy file: %w", copyErr)
		}
	case <-ctx.Done():
		_ = os.Remove(filePath)
		return 0, ctx.Err()
	}

	return size, nil
}

// Thumbnail renders a scaled-down copy of a stored file into the thumbnails
// subdirectory, preserving aspect ratio at the given width.
func (s *LocalFileStorage) Thumbnail(name string, width uint) error {
	img, err := imaging.Decode(s.FullPath(name))
	if err != nil {
		return fmt.Errorf("failed to decode for thumbnail: %w", err)
	}

	thumb := resize.Resize(width, 0, img, resize.Lanczos3)

	out, err := os.Create(s.ThumbnailPath(name))
	if err != nil {
		return fmt.Errorf("failed to create thumbnail file: %w", err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, thumb, &jpeg.Options{Quality: 85}); err != nil {
		_ = os.Remove(s.ThumbnailPath(name))
		return fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return nil
}

// Delete removes a stored file and its thumbnail, if present.
func (s *LocalFileStorage) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_ = os.Remove(s.ThumbnailPath(name))

	return os.Remove(s.FullPath(name))
}

// FullPath returns the on-disk path for a storage key.
func (s *LocalFileStorage) FullPath(name string) string {
	return filepath.Join(s.baseDir, name)
}

// ThumbnailPath returns the on-disk path of a storage key's thumbnail.
func (s *LocalFileStorage) ThumbnailPath(name string) string {
	return filepath.Join(s.baseDir, thumbnailDir, name)
}

func (s *LocalFileStorage) BaseDir() string {
	return s.baseDir
}
