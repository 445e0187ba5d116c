package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"os"
	"strings"
	"time"

	"photovault/internal/domain/models"
	"photovault/internal/lib/imaging"
	"photovault/internal/lib/logger/sl"
	"photovault/internal/lib/random"
	"photovault/internal/metrics"
	"photovault/internal/repository"
	"photovault/internal/storage"
	filestorage "photovault/internal/storage/filestorage"

	gocache "github.com/patrickmn/go-cache"
)

var (
	ErrPhotoNotFound   = errors.New("photo not found")
	ErrEmptyName       = errors.New("filename cannot be empty")
	ErrInvalidFileType = errors.New("invalid file type")
)

const (
	storageKeyLength = 6
	thumbnailWidth   = 200
	statsCacheTTL    = gocache.DefaultExpiration
)

// FileError reports a single failed file within a batch upload.
type FileError struct {
	Filename string
	Err      error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Filename, e.Err)
}

type DashboardData struct {
	Recent []models.Photo
	Stats  models.StorageStats
}

type PhotoService struct {
	log         *slog.Logger
	repo        repository.PhotoRepository
	users       repository.UserRepository
	fileStorage filestorage.FileStorage
	statsCache  *gocache.Cache

	perPage      uint64
	recentLimit  uint64
	storageQuota int64
}

func NewPhotoService(
	log *slog.Logger,
	repo repository.PhotoRepository,
	users repository.UserRepository,
	fileStorage filestorage.FileStorage,
	perPage, recentLimit uint64,
	storageQuota int64,
) *PhotoService {
	return &PhotoService{
		log:          log,
		repo:         repo,
		users:        users,
		fileStorage:  fileStorage,
		statsCache:   gocache.New(30*time.Second, time.Minute),
		perPage:      perPage,
		recentLimit:  recentLimit,
		storageQuota: storageQuota,
	}
}

// UploadBatch validates and stores a set of uploaded files. Files are staged
// to disk one by one; every staged success is committed in a single
// transaction at the end, so the catalog never sees half a batch.
//
// With stopOnError the first bad file aborts the whole batch and prior
// staged files are removed. Otherwise bad files are reported and the rest
// proceed.
func (s *PhotoService) UploadBatch(ctx context.Context, userID int64, files []*multipart.FileHeader, stopOnError bool) ([]models.Photo, []FileError, error) {
	const op = "photo_service.PhotoService.UploadBatch"

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("user_id", userID),
		slog.Int("files", len(files)),
	)

	log.Info("uploading batch")

	var (
		staged     []models.Photo
		fileErrors []FileError
	)

	discardStaged := func() {
		for _, p := range staged {
			_ = s.fileStorage.Delete(ctx, p.Filename)
		}
	}

	for _, fh := range files {
		photo, err := s.stageFile(ctx, userID, fh)
		if err != nil {
			log.Warn("file rejected", slog.String("filename", fh.Filename), sl.Err(err))

			fileErrors = append(fileErrors, FileError{Filename: fh.Filename, Err: err})
			if stopOnError {
				discardStaged()
				return nil, fileErrors, nil
			}
			continue
		}
		staged = append(staged, photo)
	}

	if len(staged) == 0 {
		return nil, fileErrors, nil
	}

	saved, err := s.repo.SavePhotos(ctx, staged)
	if err != nil {
		log.Error("failed to save batch", sl.Err(err))

		discardStaged()
		return nil, fileErrors, fmt.Errorf("%s: %w", op, err)
	}

	for _, p := range saved {
		metrics.PhotosUploadedTotal.Inc()
		metrics.UploadBytesTotal.Add(float64(p.FileSize))
	}
	s.invalidateStats(userID)

	log.Info("batch uploaded", slog.Int("saved", len(saved)), slog.Int("rejected", len(fileErrors)))

	return saved, fileErrors, nil
}

// stageFile writes one upload to disk under a fresh storage key and probes
// its dimensions. The key is random, so one collision retry is plenty.
func (s *PhotoService) stageFile(ctx context.Context, userID int64, fh *multipart.FileHeader) (models.Photo, error) {
	original := imaging.SanitizeFilename(fh.Filename)
	if original == "" {
		return models.Photo{}, ErrEmptyName
	}
	if !imaging.AllowedFile(original) {
		return models.Photo{}, ErrInvalidFileType
	}

	ext := imaging.Ext(original)

	var (
		name string
		size int64
		err  error
	)
	for attempt := 0; attempt < 2; attempt++ {
		name = random.NewKey(storageKeyLength) + ext
		size, err = s.fileStorage.Save(ctx, fh, name)
		if err == nil || !errors.Is(err, os.ErrExist) {
			break
		}
	}
	if err != nil {
		return models.Photo{}, fmt.Errorf("failed to store file: %w", err)
	}

	photo := models.Photo{
		Filename:         name,
		OriginalFilename: original,
		UserID:           userID,
		FileSize:         size,
	}

	w, h, err := imaging.Probe(s.fileStorage.FullPath(name))
	if err != nil {
		// Allowed extension, undecodable content. Drop the staged file.
		if delErr := s.fileStorage.Delete(ctx, name); delErr != nil {
			s.log.Warn("failed to remove undecodable file",
				slog.String("filename", name), sl.Err(delErr))
		}
		return models.Photo{}, fmt.Errorf("failed to decode image: %w", err)
	}
	photo.Width = &w
	photo.Height = &h

	// Thumbnails are a convenience, not part of the contract.
	if err := s.fileStorage.Thumbnail(name, thumbnailWidth); err != nil {
		s.log.Warn("thumbnail generation failed",
			slog.String("filename", name), sl.Err(err))
	}

	return photo, nil
}

func (s *PhotoService) ListPage(ctx context.Context, userID int64, page int) ([]models.Photo, int64, error) {
	const op = "photo_service.PhotoService.ListPage"

	if page < 1 {
		page = 1
	}
	offset := uint64(page-1) * s.perPage

	photos, err := s.repo.ListByUser(ctx, userID, s.perPage, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	total, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return photos, total, nil
}

func (s *PhotoService) PerPage() int {
	return int(s.perPage)
}

func (s *PhotoService) GetOwned(ctx context.Context, userID, photoID int64) (models.Photo, error) {
	const op = "photo_service.PhotoService.GetOwned"

	photo, err := s.repo.FindOwned(ctx, userID, photoID)
	if err != nil {
		if errors.Is(err, storage.ErrPhotoNotFound) {
			return models.Photo{}, fmt.Errorf("%s: %w", op, ErrPhotoNotFound)
		}
		return models.Photo{}, fmt.Errorf("%s: %w", op, err)
	}

	return photo, nil
}

// Rename changes the display name only. The file on disk keeps its key.
func (s *PhotoService) Rename(ctx context.Context, userID, photoID int64, newName string) error {
	const op = "photo_service.PhotoService.Rename"

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("user_id", userID),
		slog.Int64("photo_id", photoID),
	)

	newName = strings.TrimSpace(newName)
	if newName == "" {
		return ErrEmptyName
	}

	if err := s.repo.Rename(ctx, userID, photoID, newName); err != nil {
		if errors.Is(err, storage.ErrPhotoNotFound) {
			log.Warn("rename of unknown photo", sl.Err(err))

			return fmt.Errorf("%s: %w", op, ErrPhotoNotFound)
		}
		log.Error("failed to rename photo", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	s.invalidateStats(userID)

	return nil
}

// Dashboard returns the recent photos alongside storage totals. Totals are
// cached briefly per user; uploads and renames invalidate the entry.
func (s *PhotoService) Dashboard(ctx context.Context, user models.User) (DashboardData, error) {
	const op = "photo_service.PhotoService.Dashboard"

	recent, err := s.repo.Recent(ctx, user.ID, s.recentLimit)
	if err != nil {
		return DashboardData{}, fmt.Errorf("%s: %w", op, err)
	}

	stats, err := s.storageStats(ctx, user)
	if err != nil {
		return DashboardData{}, fmt.Errorf("%s: %w", op, err)
	}

	return DashboardData{Recent: recent, Stats: stats}, nil
}

// ProfileStats returns the storage totals shown on the profile page.
func (s *PhotoService) ProfileStats(ctx context.Context, user models.User) (models.StorageStats, error) {
	const op = "photo_service.PhotoService.ProfileStats"

	stats, err := s.storageStats(ctx, user)
	if err != nil {
		return models.StorageStats{}, fmt.Errorf("%s: %w", op, err)
	}

	return stats, nil
}

func (s *PhotoService) storageStats(ctx context.Context, user models.User) (models.StorageStats, error) {
	key := statsCacheKey(user.ID)

	if cached, ok := s.statsCache.Get(key); ok {
		stats := cached.(models.StorageStats)
		// An admin flag granted mid-session recomputes to pick up TotalUsers.
		if !user.IsAdmin || stats.TotalUsers != nil {
			return stats, nil
		}
	}

	total, edited, size, err := s.repo.Aggregates(ctx, user.ID)
	if err != nil {
		return models.StorageStats{}, err
	}

	stats := models.NewStorageStats(total, edited, size, s.storageQuota)

	if user.IsAdmin {
		users, err := s.users.CountUsers(ctx)
		if err != nil {
			return models.StorageStats{}, err
		}
		stats.TotalUsers = &users
	}

	s.statsCache.Set(key, stats, statsCacheTTL)

	return stats, nil
}

func (s *PhotoService) invalidateStats(userID int64) {
	s.statsCache.Delete(statsCacheKey(userID))
}

func statsCacheKey(userID int64) string {
	return fmt.Sprintf("stats:%d", userID)
}
