package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenRepo keeps remember-me token ids in redis so a logout can revoke
// every outstanding token without a database round trip on each request.
type TokenRepo struct {
	client *redis.Client
}

func NewTokenRepository(client *redis.Client) *TokenRepo {
	return &TokenRepo{client: client}
}

func rememberKey(userID int64, tokenID string) string {
	return fmt.Sprintf("remember:%d:%s", userID, tokenID)
}

func (r *TokenRepo) SaveRememberToken(ctx context.Context, userID int64, tokenID string, ttl time.Duration) error {
	const op = "repository.token_repository.SaveRememberToken"

	if err := r.client.Set(ctx, rememberKey(userID, tokenID), 1, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *TokenRepo) RememberTokenExists(ctx context.Context, userID int64, tokenID string) (bool, error) {
	const op = "repository.token_repository.RememberTokenExists"

	n, err := r.client.Exists(ctx, rememberKey(userID, tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return n > 0, nil
}

func (r *TokenRepo) DeleteRememberToken(ctx context.Context, userID int64, tokenID string) error {
	const op = "repository.token_repository.DeleteRememberToken"

	if err := r.client.Del(ctx, rememberKey(userID, tokenID)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// DeleteAllUserTokens walks the user's remember keys with SCAN so revocation
// does not block redis the way KEYS would.
func (r *TokenRepo) DeleteAllUserTokens(ctx context.Context, userID int64) error {
	const op = "repository.token_repository.DeleteAllUserTokens"

	pattern := fmt.Sprintf("remember:%d:*", userID)

	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
