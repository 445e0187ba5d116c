package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"photovault/internal/domain/models"
	"photovault/internal/lib/logger/sl"
	"photovault/internal/repository"
	"photovault/internal/storage"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
)

// ValidationError carries the message shown back on the registration form.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

type UserService struct {
	log  *slog.Logger
	repo repository.UserRepository
}

func NewUserService(log *slog.Logger, repo repository.UserRepository) *UserService {
	return &UserService{log: log, repo: repo}
}

// validateRegistration applies the account rules in a fixed order and
// returns the first failure, matching what the registration form reports.
func validateRegistration(in RegisterInput) error {
	if in.Username == "" || in.Email == "" || in.Password == "" || in.ConfirmPassword == "" {
		return &ValidationError{Message: "All fields are required."}
	}
	if len(in.Username) < 3 {
		return &ValidationError{Message: "Username must be at least 3 characters long."}
	}
	if !usernameRe.MatchString(in.Username) {
		return &ValidationError{Message: "Username can only contain letters, numbers, and underscores."}
	}
	if !emailRe.MatchString(in.Email) {
		return &ValidationError{Message: "Please enter a valid email address."}
	}
	if len(in.Password) < 8 {
		return &ValidationError{Message: "Password must be at least 8 characters long."}
	}
	if !strings.ContainsFunc(in.Password, func(r rune) bool { return r >= 'A' && r <= 'Z' }) {
		return &ValidationError{Message: "Password must contain at least one uppercase letter."}
	}
	if !strings.ContainsFunc(in.Password, func(r rune) bool { return r >= 'a' && r <= 'z' }) {
		return &ValidationError{Message: "Password must contain at least one lowercase letter."}
	}
	if !strings.ContainsFunc(in.Password, func(r rune) bool { return r >= '0' && r <= '9' }) {
		return &ValidationError{Message: "Password must contain at least one number."}
	}
	if in.Password != in.ConfirmPassword {
		return &ValidationError{Message: "Passwords do not match."}
	}
	return nil
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (int64, error) {
	const op = "user_service.UserService.Register"

	log := s.log.With(
		slog.String("op", op),
		slog.String("username", in.Username),
	)

	in.Email = strings.ToLower(in.Email)

	if err := validateRegistration(in); err != nil {
		log.Info("registration rejected", sl.Err(err))

		return 0, err
	}

	existing, err := s.repo.FindByUsernameOrEmail(ctx, in.Username, in.Email)
	if err == nil {
		if existing.Username == in.Username {
			return 0, &ValidationError{Message: "Username already exists."}
		}
		return 0, &ValidationError{Message: "Email already registered."}
	}
	if !errors.Is(err, storage.ErrUserNotFound) {
		log.Error("failed to check existing user", sl.Err(err))

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.repo.SaveUser(ctx, models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: passHash,
	})
	if err != nil {
		// The unique constraints close the race left open by the pre-check.
		if errors.Is(err, storage.ErrUsernameTaken) {
			log.Warn("username taken", sl.Err(err))

			return 0, &ValidationError{Message: "Username already exists."}
		}
		if errors.Is(err, storage.ErrEmailTaken) {
			log.Warn("email taken", sl.Err(err))

			return 0, &ValidationError{Message: "Email already registered."}
		}

		log.Error("failed to save user", sl.Err(err))

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user registered", slog.Int64("user_id", id))

	return id, nil
}

// Login accepts a username or email. A missing account and a wrong password
// return the same error so probes cannot tell them apart.
func (s *UserService) Login(ctx context.Context, identifier, password string) (models.User, error) {
	const op = "user_service.UserService.Login"

	log := s.log.With(
		slog.String("op", op),
		slog.String("identifier", identifier),
	)

	log.Info("attempting to login user")

	user, err := s.repo.UserByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found", sl.Err(err))

			return models.User{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		log.Error("failed to get user", sl.Err(err))

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		log.Info("invalid credentials", sl.Err(err))

		return models.User{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	log.Info("user logged in successfully", slog.Int64("user_id", user.ID))

	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, userID int64) (models.User, error) {
	const op = "user_service.UserService.GetUserByID"

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.User{}, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (s *UserService) CountUsers(ctx context.Context) (int64, error) {
	const op = "user_service.UserService.CountUsers"

	count, err := s.repo.CountUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return count, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	const op = "user_service.UserService.ListUsers"

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return users, nil
}
