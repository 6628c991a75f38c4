package ports

import (
	"context"
	"media-vault-server/internal/model"
	"media-vault-server/internal/security"
)

type JWTRepositoryInterface interface {
	FindByUUID(ctx context.Context, uuid string) (*model.RefreshToken, error)
	MarkRefreshTokenUsedByUUID(ctx context.Context, uuid string) error
	SaveRefreshToken(ctx context.Context, token *model.RefreshToken) error
}

type JWTServiceInterface interface {
	GenerateAccessRefreshTokens(userUUID string) (*model.TokensPair, *model.RefreshToken, error)
	ValidateJWT(tokenString string, secret []byte) (*security.Claims, error)
	ParseAccessToken(tokenStr string) (*security.Claims, error)
	// GenerateFolderGrant : подписанный токен доступа к защищённой паролем папке,
	// выдаётся после успешной проверки пароля, чтобы не пересылать пароль в каждом запросе
	GenerateFolderGrant(folderUUID, userUUID string) (string, error)
	ValidateFolderGrant(tokenStr, folderUUID, userUUID string) bool
}
