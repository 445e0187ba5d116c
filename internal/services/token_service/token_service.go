package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"photovault/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidTokenClaims = errors.New("invalid token claims")
	ErrTokenRevoked       = errors.New("token revoked")
)

// TokenService issues remember-me tokens as signed JWTs. The token id is
// also stored in redis, so parsing alone never authenticates: a token whose
// id is gone from the store has been revoked.
type TokenService struct {
	repo   repository.TokenRepository
	secret []byte
	ttl    time.Duration
}

func NewTokenService(repo repository.TokenRepository, secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		repo:   repo,
		secret: []byte(secret),
		ttl:    ttl,
	}
}

func (s *TokenService) IssueRememberToken(ctx context.Context, userID int64) (string, error) {
	const op = "token_service.TokenService.IssueRememberToken"

	tokenID := uuid.NewString()

	token := jwt.New(jwt.SigningMethodHS256)
	claims := token.Claims.(jwt.MapClaims)
	claims["uid"] = userID
	claims["jti"] = tokenID
	claims["iat"] = time.Now().Unix()
	claims["exp"] = time.Now().Add(s.ttl).Unix()

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.SaveRememberToken(ctx, userID, tokenID, s.ttl); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// ValidateRememberToken verifies the signature and expiry, then checks the
// token id is still present in the store. Returns the user id on success.
func (s *TokenService) ValidateRememberToken(ctx context.Context, tokenString string) (int64, error) {
	const op = "token_service.TokenService.ValidateRememberToken"

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("%s: %w", op, ErrInvalidTokenClaims)
	}

	uid, ok := claims["uid"].(float64)
	if !ok {
		return 0, fmt.Errorf("%s: %w", op, ErrInvalidTokenClaims)
	}
	tokenID, ok := claims["jti"].(string)
	if !ok {
		return 0, fmt.Errorf("%s: %w", op, ErrInvalidTokenClaims)
	}

	userID := int64(uid)

	exists, err := s.repo.RememberTokenExists(ctx, userID, tokenID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return 0, fmt.Errorf("%s: %w", op, ErrTokenRevoked)
	}

	return userID, nil
}

// RevokeUserTokens invalidates every remember-me token the user holds.
func (s *TokenService) RevokeUserTokens(ctx context.Context, userID int64) error {
	const op = "token_service.TokenService.RevokeUserTokens"

	if err := s.repo.DeleteAllUserTokens(ctx, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
