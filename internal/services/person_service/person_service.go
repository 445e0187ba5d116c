package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"photovault/internal/domain/models"
	"photovault/internal/lib/logger/sl"
	"photovault/internal/repository"
	"photovault/internal/storage"
)

var (
	ErrPersonExists   = errors.New("a person with this name already exists")
	ErrPersonNotFound = errors.New("person not found")
	ErrPhotoNotFound  = errors.New("photo not found")
	ErrNameRequired   = errors.New("name is required")
)

const peoplePerPage = 20

type PersonInput struct {
	Name         string
	Nickname     string
	Relationship string
	BirthYear    *int
	Notes        string
}

// PersonService manages the people catalog and photo tagging. Tag and Untag
// check photo ownership through the photo repository, so a user can only
// tag their own photos with their own people.
type PersonService struct {
	log    *slog.Logger
	repo   repository.PersonRepository
	photos repository.PhotoRepository
}

func NewPersonService(log *slog.Logger, repo repository.PersonRepository, photos repository.PhotoRepository) *PersonService {
	return &PersonService{log: log, repo: repo, photos: photos}
}

func (s *PersonService) Add(ctx context.Context, userID int64, in PersonInput) (int64, error) {
	const op = "person_service.PersonService.Add"

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("user_id", userID),
	)

	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return 0, ErrNameRequired
	}

	if _, err := s.repo.FindByName(ctx, userID, in.Name); err == nil {
		return 0, ErrPersonExists
	} else if !errors.Is(err, storage.ErrPersonNotFound) {
		log.Error("failed to check existing person", sl.Err(err))

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.repo.SavePerson(ctx, models.Person{
		Name:         in.Name,
		Nickname:     in.Nickname,
		Relationship: in.Relationship,
		BirthYear:    in.BirthYear,
		Notes:        in.Notes,
		UserID:       userID,
	})
	if err != nil {
		if errors.Is(err, storage.ErrPersonExists) {
			return 0, ErrPersonExists
		}
		log.Error("failed to save person", sl.Err(err))

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("person added", slog.Int64("person_id", id), slog.String("name", in.Name))

	return id, nil
}

// Update replaces every profile field with the submitted values, so clearing
// a field on the form clears it in the record.
func (s *PersonService) Update(ctx context.Context, userID, personID int64, in PersonInput) error {
	const op = "person_service.PersonService.Update"

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("user_id", userID),
		slog.Int64("person_id", personID),
	)

	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return ErrNameRequired
	}

	err := s.repo.UpdatePerson(ctx, models.Person{
		ID:           personID,
		Name:         in.Name,
		Nickname:     in.Nickname,
		Relationship: in.Relationship,
		BirthYear:    in.BirthYear,
		Notes:        in.Notes,
		UserID:       userID,
	})
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrPersonNotFound):
			return ErrPersonNotFound
		case errors.Is(err, storage.ErrPersonExists):
			return ErrPersonExists
		}
		log.Error("failed to update person", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("person updated")

	return nil
}

func (s *PersonService) GetOwned(ctx context.Context, userID, personID int64) (models.Person, error) {
	const op = "person_service.PersonService.GetOwned"

	person, err := s.repo.FindOwned(ctx, userID, personID)
	if err != nil {
		if errors.Is(err, storage.ErrPersonNotFound) {
			return models.Person{}, fmt.Errorf("%s: %w", op, ErrPersonNotFound)
		}
		return models.Person{}, fmt.Errorf("%s: %w", op, err)
	}

	return person, nil
}

// ListPage returns a page of the user's people with their photo counts.
func (s *PersonService) ListPage(ctx context.Context, userID int64, page int) ([]models.PersonWithCount, int64, error) {
	const op = "person_service.PersonService.ListPage"

	if page < 1 {
		page = 1
	}
	offset := uint64(page-1) * peoplePerPage

	people, err := s.repo.ListWithCounts(ctx, userID, peoplePerPage, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	total, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return people, total, nil
}

func (s *PersonService) PerPage() int {
	return peoplePerPage
}

// ListAll returns every person the user has, for tag pickers.
func (s *PersonService) ListAll(ctx context.Context, userID int64) ([]models.Person, error) {
	const op = "person_service.PersonService.ListAll"

	people, err := s.repo.ListAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return people, nil
}

func (s *PersonService) Tag(ctx context.Context, userID, photoID, personID int64) error {
	const op = "person_service.PersonService.Tag"

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("user_id", userID),
		slog.Int64("photo_id", photoID),
		slog.Int64("person_id", personID),
	)

	if _, err := s.photos.FindOwned(ctx, userID, photoID); err != nil {
		if errors.Is(err, storage.ErrPhotoNotFound) {
			return ErrPhotoNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := s.repo.FindOwned(ctx, userID, personID); err != nil {
		if errors.Is(err, storage.ErrPersonNotFound) {
			return ErrPersonNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.Tag(ctx, photoID, personID); err != nil {
		log.Error("failed to tag person", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("person tagged")

	return nil
}

func (s *PersonService) Untag(ctx context.Context, userID, photoID, personID int64) error {
	const op = "person_service.PersonService.Untag"

	if _, err := s.photos.FindOwned(ctx, userID, photoID); err != nil {
		if errors.Is(err, storage.ErrPhotoNotFound) {
			return ErrPhotoNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.Untag(ctx, photoID, personID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// TaggedPeople lists who appears in a photo, after an ownership check.
func (s *PersonService) TaggedPeople(ctx context.Context, userID, photoID int64) ([]models.TaggedPerson, error) {
	const op = "person_service.PersonService.TaggedPeople"

	if _, err := s.photos.FindOwned(ctx, userID, photoID); err != nil {
		if errors.Is(err, storage.ErrPhotoNotFound) {
			return nil, ErrPhotoNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	people, err := s.repo.TaggedPeople(ctx, photoID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return people, nil
}
