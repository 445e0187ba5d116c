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

type PersonRepo struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewPersonRepository(db *pgxpool.Pool) *PersonRepo {
	return &PersonRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

const personColumns = "id, name, nickname, relationship, birth_year, notes, user_id"

func scanPerson(row pgx.Row) (models.Person, error) {
	var p models.Person
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Nickname,
		&p.Relationship,
		&p.BirthYear,
		&p.Notes,
		&p.UserID,
	)
	return p, err
}

func (r *PersonRepo) SavePerson(ctx context.Context, person models.Person) (int64, error) {
	const op = "repository.person_repository.SavePerson"

	query, args, err := r.sb.Insert("people").
		Columns("name", "nickname", "relationship", "birth_year", "notes", "user_id").
		Values(person.Name, person.Nickname, person.Relationship, person.BirthYear, person.Notes, person.UserID).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	var id int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, fmt.Errorf("%s: %w", op, storage.ErrPersonExists)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// UpdatePerson overwrites every profile field of the owner's person record.
func (r *PersonRepo) UpdatePerson(ctx context.Context, person models.Person) error {
	const op = "repository.person_repository.UpdatePerson"

	query, args, err := r.sb.Update("people").
		Set("name", person.Name).
		Set("nickname", person.Nickname).
		Set("relationship", person.Relationship).
		Set("birth_year", person.BirthYear).
		Set("notes", person.Notes).
		Where(sq.Eq{"id": person.ID, "user_id": person.UserID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrPersonExists)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrPersonNotFound)
	}

	return nil
}

func (r *PersonRepo) FindOwned(ctx context.Context, userID, personID int64) (models.Person, error) {
	const op = "repository.person_repository.FindOwned"

	query, args, err := r.sb.
		Select(personColumns).
		From("people").
		Where(sq.Eq{"id": personID, "user_id": userID}).
		ToSql()
	if err != nil {
		return models.Person{}, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	person, err := scanPerson(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Person{}, fmt.Errorf("%s: %w", op, storage.ErrPersonNotFound)
		}
		return models.Person{}, fmt.Errorf("%s: %w", op, err)
	}

	return person, nil
}

func (r *PersonRepo) FindByName(ctx context.Context, userID int64, name string) (models.Person, error) {
	const op = "repository.person_repository.FindByName"

	query, args, err := r.sb.
		Select(personColumns).
		From("people").
		Where(sq.Eq{"user_id": userID, "name": name}).
		ToSql()
	if err != nil {
		return models.Person{}, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	person, err := scanPerson(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Person{}, fmt.Errorf("%s: %w", op, storage.ErrPersonNotFound)
		}
		return models.Person{}, fmt.Errorf("%s: %w", op, err)
	}

	return person, nil
}

// ListWithCounts returns the owner's people in name order along with the
// number of photos each appears in. People without tags are included.
func (r *PersonRepo) ListWithCounts(ctx context.Context, userID int64, limit, offset uint64) ([]models.PersonWithCount, error) {
	const op = "repository.person_repository.ListWithCounts"

	query, args, err := r.sb.
		Select(
			"p.id", "p.name", "p.nickname", "p.relationship", "p.birth_year", "p.notes", "p.user_id",
			"COUNT(pp.photo_id) AS photo_count",
		).
		From("people p").
		LeftJoin("photo_people pp ON pp.person_id = p.id").
		Where(sq.Eq{"p.user_id": userID}).
		GroupBy("p.id").
		OrderBy("p.name").
		Limit(limit).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var people []models.PersonWithCount
	for rows.Next() {
		var pc models.PersonWithCount
		if err := rows.Scan(
			&pc.ID,
			&pc.Name,
			&pc.Nickname,
			&pc.Relationship,
			&pc.BirthYear,
			&pc.Notes,
			&pc.UserID,
			&pc.PhotoCount,
		); err != nil {
			return nil, fmt.Errorf("%s: row scanning failed: %w", op, err)
		}
		people = append(people, pc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration error: %w", op, err)
	}

	return people, nil
}

func (r *PersonRepo) ListAll(ctx context.Context, userID int64) ([]models.Person, error) {
	const op = "repository.person_repository.ListAll"

	query, args, err := r.sb.
		Select(personColumns).
		From("people").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var people []models.Person
	for rows.Next() {
		person, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: row scanning failed: %w", op, err)
		}
		people = append(people, person)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration error: %w", op, err)
	}

	return people, nil
}

func (r *PersonRepo) CountByUser(ctx context.Context, userID int64) (int64, error) {
	const op = "repository.person_repository.CountByUser"

	query, args, err := r.sb.
		Select("COUNT(*)").
		From("people").
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

// Tag records that a person appears in a photo. Tagging twice is a no-op.
func (r *PersonRepo) Tag(ctx context.Context, photoID, personID int64) error {
	const op = "repository.person_repository.Tag"

	query, args, err := r.sb.Insert("photo_people").
		Columns("photo_id", "person_id").
		Values(photoID, personID).
		Suffix("ON CONFLICT (photo_id, person_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *PersonRepo) Untag(ctx context.Context, photoID, personID int64) error {
	const op = "repository.person_repository.Untag"

	query, args, err := r.sb.Delete("photo_people").
		Where(sq.Eq{"photo_id": photoID, "person_id": personID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// TaggedPeople lists the people tagged in a photo. The inner join drops any
// tag whose person record no longer exists.
func (r *PersonRepo) TaggedPeople(ctx context.Context, photoID int64) ([]models.TaggedPerson, error) {
	const op = "repository.person_repository.TaggedPeople"

	query, args, err := r.sb.
		Select(
			"p.id", "p.name", "p.nickname", "p.relationship", "p.birth_year", "p.notes", "p.user_id",
			"pp.created_at",
		).
		From("photo_people pp").
		Join("people p ON p.id = pp.person_id").
		Where(sq.Eq{"pp.photo_id": photoID}).
		OrderBy("p.name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var people []models.TaggedPerson
	for rows.Next() {
		var tp models.TaggedPerson
		if err := rows.Scan(
			&tp.ID,
			&tp.Name,
			&tp.Nickname,
			&tp.Relationship,
			&tp.BirthYear,
			&tp.Notes,
			&tp.UserID,
			&tp.TaggedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: row scanning failed: %w", op, err)
		}
		people = append(people, tp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration error: %w", op, err)
	}

	return people, nil
}
