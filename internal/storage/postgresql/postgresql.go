package postgresql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

type Storage struct {
	db *pgxpool.Pool
}

// schema carries the storage-level uniqueness constraints: duplicate
// username/email/person-name checks in the services are a fast path, the
// constraints are authoritative under concurrent identical requests.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	username      TEXT NOT NULL,
	email         TEXT NOT NULL,
	password_hash BYTEA NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	is_admin      BOOLEAN NOT NULL DEFAULT FALSE,
	is_superuser  BOOLEAN NOT NULL DEFAULT FALSE,
	CONSTRAINT users_username_key UNIQUE (username),
	CONSTRAINT users_email_key UNIQUE (email)
);

CREATE TABLE IF NOT EXISTS photos (
	id                BIGSERIAL PRIMARY KEY,
	filename          TEXT NOT NULL,
	original_filename TEXT,
	user_id           BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	uploaded_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	description       TEXT NOT NULL DEFAULT '',
	tags              TEXT NOT NULL DEFAULT '',
	file_size         BIGINT NOT NULL,
	width             INT,
	height            INT,
	edited_filename   TEXT
);
CREATE INDEX IF NOT EXISTS idx_photos_user_uploaded ON photos(user_id, uploaded_at DESC);

CREATE TABLE IF NOT EXISTS people (
	id           BIGSERIAL PRIMARY KEY,
	name         TEXT NOT NULL,
	nickname     TEXT NOT NULL DEFAULT '',
	relationship TEXT NOT NULL DEFAULT '',
	birth_year   INT,
	notes        TEXT NOT NULL DEFAULT '',
	user_id      BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	CONSTRAINT people_user_name_key UNIQUE (user_id, name)
);

CREATE TABLE IF NOT EXISTS photo_people (
	photo_id   BIGINT NOT NULL REFERENCES photos(id) ON DELETE CASCADE,
	person_id  BIGINT NOT NULL REFERENCES people(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (photo_id, person_id)
);
`

func New(ctx context.Context, storagePath string) (*Storage, error) {
	const op = "storage.postgresql.New"

	db, err := pgxpool.Connect(ctx, storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

// Bootstrap creates the schema. Any failure aborts startup.
func (s *Storage) Bootstrap(ctx context.Context) error {
	const op = "storage.postgresql.Bootstrap"

	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) Pool() *pgxpool.Pool {
	return s.db
}

func (s *Storage) Stop() {
	s.db.Close()
}
