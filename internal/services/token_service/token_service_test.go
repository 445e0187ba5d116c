package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) SaveRememberToken(ctx context.Context, userID int64, tokenID string, ttl time.Duration) error {
	args := m.Called(ctx, userID, tokenID, ttl)
	return args.Error(0)
}

func (m *MockTokenRepository) RememberTokenExists(ctx context.Context, userID int64, tokenID string) (bool, error) {
	args := m.Called(ctx, userID, tokenID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTokenRepository) DeleteRememberToken(ctx context.Context, userID int64, tokenID string) error {
	args := m.Called(ctx, userID, tokenID)
	return args.Error(0)
}

func (m *MockTokenRepository) DeleteAllUserTokens(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

const testSecret = "test-secret"

func TestTokenService_IssueAndValidate(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockTokenRepository)
	service := NewTokenService(mockRepo, testSecret, 720*time.Hour)

	mockRepo.On("SaveRememberToken", ctx, int64(5), mock.AnythingOfType("string"), 720*time.Hour).
		Return(nil).Once()
	mockRepo.On("RememberTokenExists", ctx, int64(5), mock.AnythingOfType("string")).
		Return(true, nil).Once()

	token, err := service.IssueRememberToken(ctx, 5)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := service.ValidateRememberToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, int64(5), userID)

	mockRepo.AssertExpectations(t)
}

func TestTokenService_Validate(t *testing.T) {
	ctx := context.Background()

	t.Run("garbage token", func(t *testing.T) {
		mockRepo := new(MockTokenRepository)
		service := NewTokenService(mockRepo, testSecret, time.Hour)

		_, err := service.ValidateRememberToken(ctx, "not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		mockRepo := new(MockTokenRepository)
		service := NewTokenService(mockRepo, testSecret, time.Hour)

		forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"uid": int64(5),
			"jti": "forged",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		signed, err := forged.SignedString([]byte("other-secret"))
		require.NoError(t, err)

		_, err = service.ValidateRememberToken(ctx, signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		mockRepo := new(MockTokenRepository)
		service := NewTokenService(mockRepo, testSecret, time.Hour)

		expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"uid": int64(5),
			"jti": "old",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})
		signed, err := expired.SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = service.ValidateRememberToken(ctx, signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("revoked token", func(t *testing.T) {
		mockRepo := new(MockTokenRepository)
		service := NewTokenService(mockRepo, testSecret, time.Hour)

		mockRepo.On("SaveRememberToken", ctx, int64(5), mock.AnythingOfType("string"), time.Hour).
			Return(nil).Once()
		mockRepo.On("RememberTokenExists", ctx, int64(5), mock.AnythingOfType("string")).
			Return(false, nil).Once()

		token, err := service.IssueRememberToken(ctx, 5)
		require.NoError(t, err)

		_, err = service.ValidateRememberToken(ctx, token)
		assert.ErrorIs(t, err, ErrTokenRevoked)
	})
}

func TestTokenService_RevokeUserTokens(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockTokenRepository)
	service := NewTokenService(mockRepo, testSecret, time.Hour)

	mockRepo.On("DeleteAllUserTokens", ctx, int64(9)).Return(nil).Once()

	err := service.RevokeUserTokens(ctx, 9)
	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}
