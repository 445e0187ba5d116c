package repository

import (
	"context"
	"errors"
	"fmt"

	"photovault/internal/domain/models"
	"photovault/internal/storage"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const uniqueViolation = "23505"

type UserRepo struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewUserRepository(db *pgxpool.Pool) *UserRepo {
	return &UserRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *UserRepo) SaveUser(ctx context.Context, user models.User) (int64, error) {
	const op = "repository.user_repository.SaveUser"

	query, args, err := r.sb.Insert("users").
		Columns("username", "email", "password_hash", "is_admin", "is_superuser").
		Values(user.Username, user.Email, user.PasswordHash, user.IsAdmin, user.IsSuperuser).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	var id int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			switch pgErr.ConstraintName {
			case "users_username_key":
				return 0, fmt.Errorf("%s: %w", op, storage.ErrUsernameTaken)
			case "users_email_key":
				return 0, fmt.Errorf("%s: %w", op, storage.ErrEmailTaken)
			}
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

const userColumns = "id, username, email, password_hash, created_at, is_admin, is_superuser"

func (r *UserRepo) scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.IsAdmin,
		&user.IsSuperuser,
	)
	return user, err
}

// UserByIdentifier resolves a login identifier that may be either a username
// or an email address.
func (r *UserRepo) UserByIdentifier(ctx context.Context, identifier string) (models.User, error) {
	const op = "repository.user_repository.UserByIdentifier"

	query, args, err := r.sb.
		Select(userColumns).
		From("users").
		Where(sq.Or{sq.Eq{"username": identifier}, sq.Eq{"email": identifier}}).
		ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	user, err := r.scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (r *UserRepo) GetUserByID(ctx context.Context, userID int64) (models.User, error) {
	const op = "repository.user_repository.GetUserByID"

	query, args, err := r.sb.
		Select(userColumns).
		From("users").
		Where(sq.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	user, err := r.scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// FindByUsernameOrEmail is the duplicate pre-check used at registration.
// The unique constraints remain authoritative under concurrent requests.
func (r *UserRepo) FindByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error) {
	const op = "repository.user_repository.FindByUsernameOrEmail"

	query, args, err := r.sb.
		Select(userColumns).
		From("users").
		Where(sq.Or{sq.Eq{"username": username}, sq.Eq{"email": email}}).
		ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	user, err := r.scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (r *UserRepo) CountUsers(ctx context.Context) (int64, error) {
	const op = "repository.user_repository.CountUsers"

	query, args, err := r.sb.Select("COUNT(*)").From("users").ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	var count int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return count, nil
}

func (r *UserRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	const op = "repository.user_repository.ListUsers"

	query, args, err := r.sb.
		Select(userColumns).
		From("users").
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := r.scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: row scanning failed: %w", op, err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration error: %w", op, err)
	}

	return users, nil
}
