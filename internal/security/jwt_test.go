package security_test

import (
	"media-vault-server/config"
	"media-vault-server/internal/security"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *security.JWTService {
	return security.NewJWTService(&config.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenTTL:  "15m",
		RefreshTokenTTL: "720h",
		FolderGrantTTL:  "30m",
	})
}

func TestGenerateAccessRefreshTokens(t *testing.T) {
	svc := newTestJWTService()

	tokens, refreshToken, err := svc.GenerateAccessRefreshTokens("user-1")

	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, "user-1", refreshToken.UserUUID)
	// клиенту уходит исходный токен, в БД — только bcrypt-хэш
	assert.NotEqual(t, tokens.RefreshToken, refreshToken.TokenHash)

	claims, err := svc.ValidateJWT(tokens.AccessToken, []byte("test-secret"))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserUUID)
	assert.Equal(t, refreshToken.UUID, claims.RefreshTokenUUID)
}

func TestValidateJWT_WrongSecret(t *testing.T) {
	svc := newTestJWTService()

	tokens, _, err := svc.GenerateAccessRefreshTokens("user-1")
	require.NoError(t, err)

	_, err = svc.ValidateJWT(tokens.AccessToken, []byte("another-secret"))
	assert.Error(t, err)
}

// ParseAccessToken нужен при refresh: access токен к этому моменту истёк
func TestParseAccessToken_ExpiredToken(t *testing.T) {
	svc := newTestJWTService()

	expired := security.Claims{
		UserUUID:         "user-1",
		RefreshTokenUUID: "rt-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS512, expired).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	// строгая проверка отклоняет просроченный токен
	_, err = svc.ValidateJWT(tokenStr, []byte("test-secret"))
	assert.Error(t, err)

	// разбор без проверки срока действия возвращает claims
	claims, err := svc.ParseAccessToken(tokenStr)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserUUID)
	assert.Equal(t, "rt-1", claims.RefreshTokenUUID)
}

func TestFolderGrant(t *testing.T) {
	svc := newTestJWTService()

	grant, err := svc.GenerateFolderGrant("folder-1", "user-1")
	require.NoError(t, err)
	require.NotEmpty(t, grant)

	tests := []struct {
		name       string
		token      string
		folderUUID string
		userUUID   string
		valid      bool
	}{
		{name: "Valid grant", token: grant, folderUUID: "folder-1", userUUID: "user-1", valid: true},
		{name: "Another folder", token: grant, folderUUID: "folder-2", userUUID: "user-1", valid: false},
		{name: "Another user", token: grant, folderUUID: "folder-1", userUUID: "user-2", valid: false},
		{name: "Empty token", token: "", folderUUID: "folder-1", userUUID: "user-1", valid: false},
		{name: "Garbage token", token: "not-a-jwt", folderUUID: "folder-1", userUUID: "user-1", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, svc.ValidateFolderGrant(tt.token, tt.folderUUID, tt.userUUID))
		})
	}
}

func TestFolderGrant_ForeignSignature(t *testing.T) {
	svc := newTestJWTService()
	foreign := security.NewJWTService(&config.JWTConfig{
		SecretKey:      "other-secret",
		FolderGrantTTL: "30m",
	})

	grant, err := foreign.GenerateFolderGrant("folder-1", "user-1")
	require.NoError(t, err)

	assert.False(t, svc.ValidateFolderGrant(grant, "folder-1", "user-1"))
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := security.HashPassword("secret-password")
	require.NoError(t, err)

	assert.True(t, security.CheckPassword("secret-password", hash))
	assert.False(t, security.CheckPassword("wrong", hash))
}
