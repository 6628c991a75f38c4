package service_test

import (
	"context"
	"database/sql"
	"media-vault-server/config"
	"media-vault-server/internal/model"
	"media-vault-server/internal/security"
	"media-vault-server/internal/service"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type MockJWTRepository struct{ mock.Mock }

func (m *MockJWTRepository) FindByUUID(ctx context.Context, uuid string) (*model.RefreshToken, error) {
	args := m.Called(ctx, uuid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RefreshToken), args.Error(1)
}

func (m *MockJWTRepository) MarkRefreshTokenUsedByUUID(ctx context.Context, uuid string) error {
	return m.Called(ctx, uuid).Error(0)
}

func (m *MockJWTRepository) SaveRefreshToken(ctx context.Context, token *model.RefreshToken) error {
	return m.Called(ctx, token).Error(0)
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) NotifyVerification(ctx context.Context, email, link string) error {
	return m.Called(ctx, email, link).Error(0)
}

func (m *MockNotifier) NotifyPasswordReset(ctx context.Context, email, link string) error {
	return m.Called(ctx, email, link).Error(0)
}

func (m *MockNotifier) NotifyNewIPLogin(ctx context.Context, userUUID, ipAddress string) error {
	return m.Called(ctx, userUUID, ipAddress).Error(0)
}

type authServiceMocks struct {
	jwtRepo    *MockJWTRepository
	jwtService *MockJWTService
	userRepo   *MockUserRepository
	notifier   *MockNotifier
}

func newTestAuthenticationService() (*service.AuthenticationService, *authServiceMocks) {
	m := &authServiceMocks{
		jwtRepo:    new(MockJWTRepository),
		jwtService: new(MockJWTService),
		userRepo:   new(MockUserRepository),
		notifier:   new(MockNotifier),
	}

	cfg := &config.AppConfig{
		JWT: config.JWTConfig{
			SecretKey:       "test-secret",
			AccessTokenTTL:  "15m",
			RefreshTokenTTL: "720h",
			FolderGrantTTL:  "30m",
		},
	}

	svc := service.NewAuthenticationService(m.jwtRepo, cfg, m.jwtService, m.userRepo, m.notifier)
	return svc, m
}

func TestLogin_AllCases(t *testing.T) {
	ctx := dbContext()
	passwordHash, err := security.HashPassword("correct-password")
	require.NoError(t, err)

	tests := []struct {
		name        string
		email       string
		password    string
		setupMocks  func(m *authServiceMocks)
		expectedErr error
	}{
		{
			name:     "Success",
			email:    "user@example.com",
			password: "correct-password",
			setupMocks: func(m *authServiceMocks) {
				user := &model.User{UUID: "user-1", Email: "user@example.com", PasswordHash: passwordHash, IsVerified: true}
				m.userRepo.On("FindByEmail", ctx, mock.Anything, "user@example.com").Return(user, nil)
				m.jwtService.On("GenerateAccessRefreshTokens", "user-1").Return(
					&model.TokensPair{AccessToken: "access", RefreshToken: "refresh"},
					&model.RefreshToken{UUID: "rt-1", UserUUID: "user-1"},
					nil,
				)
				m.jwtRepo.On("SaveRefreshToken", ctx, mock.MatchedBy(func(rt *model.RefreshToken) bool {
					return rt.UserAgent == "test-agent" && rt.IpAddress == "127.0.0.1"
				})).Return(nil)
			},
		},
		{
			name:     "Unknown email",
			email:    "nobody@example.com",
			password: "correct-password",
			setupMocks: func(m *authServiceMocks) {
				m.userRepo.On("FindByEmail", ctx, mock.Anything, "nobody@example.com").Return(nil, sql.ErrNoRows)
			},
			expectedErr: service.ErrUnauthorized,
		},
		{
			name:     "Wrong password",
			email:    "user@example.com",
			password: "wrong",
			setupMocks: func(m *authServiceMocks) {
				user := &model.User{UUID: "user-1", PasswordHash: passwordHash, IsVerified: true}
				m.userRepo.On("FindByEmail", ctx, mock.Anything, "user@example.com").Return(user, nil)
			},
			expectedErr: service.ErrUnauthorized,
		},
		{
			name:     "Unverified email",
			email:    "user@example.com",
			password: "correct-password",
			setupMocks: func(m *authServiceMocks) {
				user := &model.User{UUID: "user-1", PasswordHash: passwordHash, IsVerified: false}
				m.userRepo.On("FindByEmail", ctx, mock.Anything, "user@example.com").Return(user, nil)
			},
			expectedErr: service.ErrUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestAuthenticationService()
			tt.setupMocks(m)

			tokens, err := svc.Login(ctx, tt.email, tt.password, "test-agent", "127.0.0.1")

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "access", tokens.AccessToken)
			m.jwtRepo.AssertExpectations(t)
		})
	}
}

func storedToken(t *testing.T, refreshTokenStr string) *model.RefreshToken {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(refreshTokenStr), bcrypt.MinCost)
	require.NoError(t, err)
	return &model.RefreshToken{
		UUID:      "rt-1",
		UserUUID:  "user-1",
		TokenHash: string(hash),
		ExpireAt:  time.Now().Add(time.Hour),
		UserAgent: "test-agent",
		IpAddress: "127.0.0.1",
	}
}

func refreshClaims() *security.Claims {
	return &security.Claims{UserUUID: "user-1", RefreshTokenUUID: "rt-1"}
}

func TestRefreshToken_Success(t *testing.T) {
	svc, m := newTestAuthenticationService()
	ctx := context.Background()

	m.jwtService.On("ParseAccessToken", "access").Return(refreshClaims(), nil)
	m.jwtRepo.On("FindByUUID", ctx, "rt-1").Return(storedToken(t, "refresh-secret"), nil)
	m.jwtRepo.On("MarkRefreshTokenUsedByUUID", ctx, "rt-1").Return(nil)
	m.jwtService.On("GenerateAccessRefreshTokens", "user-1").Return(
		&model.TokensPair{AccessToken: "new-access", RefreshToken: "new-refresh"},
		&model.RefreshToken{UUID: "rt-2", UserUUID: "user-1"},
		nil,
	)
	m.jwtRepo.On("SaveRefreshToken", ctx, mock.MatchedBy(func(rt *model.RefreshToken) bool {
		return rt.UUID == "rt-2" && rt.UserAgent == "test-agent"
	})).Return(nil)

	tokens, err := svc.RefreshToken(ctx, "test-agent", "127.0.0.1", "access", "refresh-secret")

	require.NoError(t, err)
	assert.Equal(t, "new-access", tokens.AccessToken)
	m.jwtRepo.AssertExpectations(t)
}

func TestRefreshToken_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("Used token", func(t *testing.T) {
		svc, m := newTestAuthenticationService()
		stored := storedToken(t, "refresh-secret")
		stored.Used = true

		m.jwtService.On("ParseAccessToken", "access").Return(refreshClaims(), nil)
		m.jwtRepo.On("FindByUUID", ctx, "rt-1").Return(stored, nil)

		_, err := svc.RefreshToken(ctx, "test-agent", "127.0.0.1", "access", "refresh-secret")

		assert.ErrorIs(t, err, service.ErrUnauthorized)
	})

	t.Run("Expired token", func(t *testing.T) {
		svc, m := newTestAuthenticationService()
		stored := storedToken(t, "refresh-secret")
		stored.ExpireAt = time.Now().Add(-time.Hour)

		m.jwtService.On("ParseAccessToken", "access").Return(refreshClaims(), nil)
		m.jwtRepo.On("FindByUUID", ctx, "rt-1").Return(stored, nil)

		_, err := svc.RefreshToken(ctx, "test-agent", "127.0.0.1", "access", "refresh-secret")

		assert.ErrorIs(t, err, service.ErrUnauthorized)
	})

	t.Run("Foreign refresh token", func(t *testing.T) {
		// пара не совпадает: предъявлен refresh токен от другой выдачи
		svc, m := newTestAuthenticationService()

		m.jwtService.On("ParseAccessToken", "access").Return(refreshClaims(), nil)
		m.jwtRepo.On("FindByUUID", ctx, "rt-1").Return(storedToken(t, "refresh-secret"), nil)

		_, err := svc.RefreshToken(ctx, "test-agent", "127.0.0.1", "access", "another-refresh")

		require.Error(t, err)
		m.jwtRepo.AssertNotCalled(t, "SaveRefreshToken", mock.Anything, mock.Anything)
	})
}

// Попытка обновления с другого User-Agent деавторизует пользователя
func TestRefreshToken_UserAgentMismatch(t *testing.T) {
	svc, m := newTestAuthenticationService()
	ctx := context.Background()

	m.jwtService.On("ParseAccessToken", "access").Return(refreshClaims(), nil)
	m.jwtRepo.On("FindByUUID", ctx, "rt-1").Return(storedToken(t, "refresh-secret"), nil)
	m.jwtRepo.On("MarkRefreshTokenUsedByUUID", ctx, "rt-1").Return(nil)

	_, err := svc.RefreshToken(ctx, "another-agent", "127.0.0.1", "access", "refresh-secret")

	assert.ErrorIs(t, err, service.ErrUnauthorized)
	m.jwtRepo.AssertCalled(t, "MarkRefreshTokenUsedByUUID", ctx, "rt-1")
}

// Новый IP не блокирует операцию, но уходит уведомление
func TestRefreshToken_NewIPNotifies(t *testing.T) {
	svc, m := newTestAuthenticationService()
	ctx := context.Background()

	notified := make(chan struct{})
	m.jwtService.On("ParseAccessToken", "access").Return(refreshClaims(), nil)
	m.jwtRepo.On("FindByUUID", ctx, "rt-1").Return(storedToken(t, "refresh-secret"), nil)
	m.jwtRepo.On("MarkRefreshTokenUsedByUUID", ctx, "rt-1").Return(nil)
	m.jwtService.On("GenerateAccessRefreshTokens", "user-1").Return(
		&model.TokensPair{AccessToken: "new-access", RefreshToken: "new-refresh"},
		&model.RefreshToken{UUID: "rt-2"},
		nil,
	)
	m.jwtRepo.On("SaveRefreshToken", ctx, mock.Anything).Return(nil)
	m.notifier.On("NotifyNewIPLogin", mock.Anything, "user-1", "10.0.0.5").
		Run(func(args mock.Arguments) { close(notified) }).Return(nil)

	_, err := svc.RefreshToken(ctx, "test-agent", "10.0.0.5", "access", "refresh-secret")

	require.NoError(t, err)
	select {
	case <-notified:
	case <-time.After(2 * time.Second):
		t.Fatal("уведомление о новом IP не отправлено")
	}
}

func TestLogout(t *testing.T) {
	svc, m := newTestAuthenticationService()
	ctx := context.Background()

	m.jwtRepo.On("MarkRefreshTokenUsedByUUID", ctx, "rt-1").Return(nil)

	require.NoError(t, svc.Logout(ctx, "rt-1"))
	m.jwtRepo.AssertExpectations(t)
}
