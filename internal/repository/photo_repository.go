package repository

import (
	"context"
	"errors"
	"fmt"

	"photovault/internal/domain/models"
	"photovault/internal/storage"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

type PhotoRepo struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewPhotoRepository(db *pgxpool.Pool) *PhotoRepo {
	return &PhotoRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

const photoColumns = "id, filename, original_filename, user_id, uploaded_at, description, tags, file_size, width, height, edited_filename"

func scanPhoto(row pgx.Row) (models.Photo, error) {
	var p models.Photo
	err := row.Scan(
		&p.ID,
		&p.Filename,
		&p.OriginalFilename,
		&p.UserID,
		&p.UploadedAt,
		&p.Description,
		&p.Tags,
		&p.FileSize,
		&p.Width,
		&p.Height,
		&p.EditedFilename,
	)
	return p, err
}

// SavePhotos inserts a batch of catalog entries in one transaction, so the
// successes of a multi-file upload commit together.
func (r *PhotoRepo) SavePhotos(ctx context.Context, photos []models.Photo) ([]models.Photo, error) {
	const op = "repository.photo_repository.SavePhotos"

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer tx.Rollback(ctx)

	saved := make([]models.Photo, 0, len(photos))

	for _, photo := range photos {
		query, args, err := r.sb.Insert("photos").
			Columns("filename", "original_filename", "user_id", "description", "tags", "file_size", "width", "height").
			Values(
				photo.Filename,
				photo.OriginalFilename,
				photo.UserID,
				photo.Description,
				photo.Tags,
				photo.FileSize,
				photo.Width,
				photo.Height,
			).
			Suffix("RETURNING " + photoColumns).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("%s: can't build sql: %w", op, err)
		}

		created, err := scanPhoto(tx.QueryRow(ctx, query, args...))
		if err != nil {
			return nil, fmt.Errorf("%s: failed to create photo: %w", op, err)
		}

		saved = append(saved, created)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return saved, nil
}

func (r *PhotoRepo) ListByUser(ctx context.Context, userID int64, limit, offset uint64) ([]models.Photo, error) {
	const op = "repository.photo_repository.ListByUser"

	query, args, err := r.sb.
		Select(photoColumns).
		From("photos").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("uploaded_at DESC").
		Limit(limit).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	return r.queryPhotos(ctx, op, query, args)
}

func (r *PhotoRepo) Recent(ctx context.Context, userID int64, limit uint64) ([]models.Photo, error) {
	const op = "repository.photo_repository.Recent"

	query, args, err := r.sb.
		Select(photoColumns).
		From("photos").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("uploaded_at DESC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	return r.queryPhotos(ctx, op, query, args)
}

func (r *PhotoRepo) queryPhotos(ctx context.Context, op, query string, args []interface{}) ([]models.Photo, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var photos []models.Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: row scanning failed: %w", op, err)
		}
		photos = append(photos, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration error: %w", op, err)
	}

	return photos, nil
}

func (r *PhotoRepo) CountByUser(ctx context.Context, userID int64) (int64, error) {
	const op = "repository.photo_repository.CountByUser"

	query, args, err := r.sb.
		Select("COUNT(*)").
		From("photos").
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	var count int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return count, nil
}

// FindOwned fetches a photo by id scoped to its owner. A photo that exists
// but belongs to someone else is indistinguishable from a missing one.
func (r *PhotoRepo) FindOwned(ctx context.Context, userID, photoID int64) (models.Photo, error) {
	const op = "repository.photo_repository.FindOwned"

	query, args, err := r.sb.
		Select(photoColumns).
		From("photos").
		Where(sq.Eq{"id": photoID, "user_id": userID}).
		ToSql()
	if err != nil {
		return models.Photo{}, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	photo, err := scanPhoto(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Photo{}, fmt.Errorf("%s: %w", op, storage.ErrPhotoNotFound)
		}
		return models.Photo{}, fmt.Errorf("%s: %w", op, err)
	}

	return photo, nil
}

// Rename updates only the display name; the storage filename never changes.
func (r *PhotoRepo) Rename(ctx context.Context, userID, photoID int64, newName string) error {
	const op = "repository.photo_repository.Rename"

	query, args, err := r.sb.Update("photos").
		Set("original_filename", newName).
		Where(sq.Eq{"id": photoID, "user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrPhotoNotFound)
	}

	return nil
}

// Aggregates computes the per-user catalog totals in one round trip.
func (r *PhotoRepo) Aggregates(ctx context.Context, userID int64) (int64, int64, int64, error) {
	const op = "repository.photo_repository.Aggregates"

	query, args, err := r.sb.
		Select(
			"COUNT(*)",
			"COUNT(edited_filename)",
			"COALESCE(SUM(file_size), 0)",
		).
		From("photos").
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	var total, edited, totalSize int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total, &edited, &totalSize); err != nil {
		return 0, 0, 0, fmt.Errorf("%s: %w", op, err)
	}

	return total, edited, totalSize, nil
}
