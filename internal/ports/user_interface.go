package ports

import (
	"context"
	"media-vault-server/internal/model"
	"time"

	"github.com/jmoiron/sqlx"
)

type UserRepository interface {
	CreateUser(ctx context.Context, exec sqlx.ExtContext, user *model.User) (*model.User, error)
	FindByUUID(ctx context.Context, exec sqlx.ExtContext, uuid string) (*model.User, error)
	FindByEmail(ctx context.Context, exec sqlx.ExtContext, email string) (*model.User, error)
	FindByVerificationToken(ctx context.Context, exec sqlx.ExtContext, token string) (*model.User, error)
	FindByResetToken(ctx context.Context, exec sqlx.ExtContext, token string) (*model.User, error)
	MarkVerified(ctx context.Context, exec sqlx.ExtContext, uuid string) error
	SetResetToken(ctx context.Context, exec sqlx.ExtContext, uuid string, token string, expires time.Time) error
	UpdatePassword(ctx context.Context, exec sqlx.ExtContext, uuid, newPasswordHash string) error
	Exists(ctx context.Context, exec sqlx.ExtContext, uuid string) (bool, error)
}

type UserService interface {
	Register(ctx context.Context, username, email, password string) (*model.User, error)
	VerifyEmail(ctx context.Context, token string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token string, newPassword string) error
	GetUser(ctx context.Context, uuid string) (*model.User, error)
}
