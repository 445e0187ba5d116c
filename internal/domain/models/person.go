package models

import "time"

// Person is a tagging subject scoped to one user. Name is unique per owner.
type Person struct {
	ID           int64  `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	Nickname     string `db:"nickname" json:"nickname,omitempty"`
	Relationship string `db:"relationship" json:"relationship,omitempty"`
	BirthYear    *int   `db:"birth_year" json:"birth_year,omitempty"`
	Notes        string `db:"notes" json:"notes,omitempty"`
	UserID       int64  `db:"user_id" json:"user_id"`
}

// PersonWithCount carries the person plus the number of photos they are
// tagged in, computed on read for the people listing.
type PersonWithCount struct {
	Person
	PhotoCount int64 `json:"photo_count"`
}

// PhotoTag links a Photo to a Person.
type PhotoTag struct {
	PhotoID   int64     `db:"photo_id" json:"photo_id"`
	PersonID  int64     `db:"person_id" json:"person_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TaggedPerson pairs a person with the moment they were tagged in a photo,
// for the photo view.
type TaggedPerson struct {
	Person
	TaggedAt time.Time `json:"tagged_at"`
}
