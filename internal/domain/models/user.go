package models

import "time"

type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash []byte    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	IsAdmin      bool      `db:"is_admin" json:"is_admin"`
	IsSuperuser  bool      `db:"is_superuser" json:"is_superuser"`
}
