package repository

import (
	"context"
	"time"

	"photovault/internal/domain/models"
)

type UserRepository interface {
	SaveUser(ctx context.Context, user models.User) (int64, error)
	UserByIdentifier(ctx context.Context, identifier string) (models.User, error)
	GetUserByID(ctx context.Context, userID int64) (models.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error)
	CountUsers(ctx context.Context) (int64, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

type PhotoRepository interface {
	SavePhotos(ctx context.Context, photos []models.Photo) ([]models.Photo, error)
	ListByUser(ctx context.Context, userID int64, limit, offset uint64) ([]models.Photo, error)
	CountByUser(ctx context.Context, userID int64) (int64, error)
	Recent(ctx context.Context, userID int64, limit uint64) ([]models.Photo, error)
	FindOwned(ctx context.Context, userID, photoID int64) (models.Photo, error)
	Rename(ctx context.Context, userID, photoID int64, newName string) error
	Aggregates(ctx context.Context, userID int64) (total, edited, totalSize int64, err error)
}

type PersonRepository interface {
	SavePerson(ctx context.Context, person models.Person) (int64, error)
	UpdatePerson(ctx context.Context, person models.Person) error
	FindOwned(ctx context.Context, userID, personID int64) (models.Person, error)
	FindByName(ctx context.Context, userID int64, name string) (models.Person, error)
	ListWithCounts(ctx context.Context, userID int64, limit, offset uint64) ([]models.PersonWithCount, error)
	ListAll(ctx context.Context, userID int64) ([]models.Person, error)
	CountByUser(ctx context.Context, userID int64) (int64, error)
	Tag(ctx context.Context, photoID, personID int64) error
	Untag(ctx context.Context, photoID, personID int64) error
	TaggedPeople(ctx context.Context, photoID int64) ([]models.TaggedPerson, error)
}

type TokenRepository interface {
	SaveRememberToken(ctx context.Context, userID int64, tokenID string, ttl time.Duration) error
	RememberTokenExists(ctx context.Context, userID int64, tokenID string) (bool, error)
	DeleteRememberToken(ctx context.Context, userID int64, tokenID string) error
	DeleteAllUserTokens(ctx context.Context, userID int64) error
}
