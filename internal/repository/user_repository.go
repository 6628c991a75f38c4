package repository

import (
	"context"
	"database/sql"
	"errors"
	"media-vault-server/config"
	"media-vault-server/internal/model"
	"media-vault-server/internal/util"
	"time"

	"github.com/jmoiron/sqlx"
)

type UserRepository struct {
	*config.Database
}

func NewUserRepository(database *config.Database) *UserRepository {
	return &UserRepository{database}
}

const userColumns = `uuid, username, email, password_hash, is_verified, verification_token, reset_token, reset_expires, created_at`

// CreateUser : сохраняет нового пользователя (email хранится в нижнем регистре)
func (r *UserRepository) CreateUser(ctx context.Context, exec sqlx.ExtContext, user *model.User) (*model.User, error) {
	query := `
	INSERT INTO users (uuid, username, email, password_hash, verification_token)
	VALUES ($1, $2, LOWER($3), $4, $5)
	RETURNING ` + userColumns

	createdUser := &model.User{}
	err := exec.QueryRowxContext(ctx, query, user.UUID, user.Username, user.Email, user.PasswordHash, user.VerificationToken).
		StructScan(createdUser)

	if err != nil {
		return nil, util.LogError("[UserRepo] ошибка вставки данных в БД", err)
	}

	return createdUser, nil
}

// FindByUUID : ищет пользователя по UUID
func (r *UserRepository) FindByUUID(ctx context.Context, exec sqlx.ExtContext, uuid string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE uuid = $1`
	var user model.User
	err := sqlx.GetContext(ctx, exec, &user, query, uuid)
	if err != nil {
		return nil, util.LogError("[UserRepo] не удалось найти пользователя в БД", err)
	}
	return &user, nil
}

// FindByEmail : ищет пользователя по email (без учёта регистра)
func (r *UserRepository) FindByEmail(ctx context.Context, exec sqlx.ExtContext, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = LOWER($1)`
	var user model.User
	err := sqlx.GetContext(ctx, exec, &user, query, email)
	if err != nil {
		return nil, util.LogError("[UserRepo] не удалось найти пользователя по email", err)
	}
	return &user, nil
}

// FindByVerificationToken : ищет неподтверждённого пользователя по токену из письма
func (r *UserRepository) FindByVerificationToken(ctx context.Context, exec sqlx.ExtContext, token string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE verification_token = $1`
	var user model.User
	err := sqlx.GetContext(ctx, exec, &user, query, token)
	if err != nil {
		return nil, util.LogError("[UserRepo] не удалось найти пользователя по токену подтверждения", err)
	}
	return &user, nil
}

// FindByResetToken : ищет пользователя по действующему токену сброса пароля
func (r *UserRepository) FindByResetToken(ctx context.Context, exec sqlx.ExtContext, token string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE reset_token = $1 AND reset_expires > NOW()`
	var user model.User
	err := sqlx.GetContext(ctx, exec, &user, query, token)
	if err != nil {
		return nil, util.LogError("[UserRepo] не удалось найти пользователя по токену сброса", err)
	}
	return &user, nil
}

// MarkVerified : подтверждает email, токен подтверждения очищается (одноразовый)
func (r *UserRepository) MarkVerified(ctx context.Context, exec sqlx.ExtContext, uuid string) error {
	query := `UPDATE users SET is_verified = TRUE, verification_token = NULL WHERE uuid = $1`
	_, err := exec.ExecContext(ctx, query, uuid)
	if err != nil {
		return util.LogError("[UserRepo] не удалось подтвердить пользователя", err)
	}
	return nil
}

// SetResetToken : сохраняет токен сброса пароля и срок его действия
func (r *UserRepository) SetResetToken(ctx context.Context, exec sqlx.ExtContext, uuid string, token string, expires time.Time) error {
	query := `UPDATE users SET reset_token = $2, reset_expires = $3 WHERE uuid = $1`
	_, err := exec.ExecContext(ctx, query, uuid, token, expires)
	if err != nil {
		return util.LogError("[UserRepo] не удалось сохранить токен сброса", err)
	}
	return nil
}

// UpdatePassword : меняет пароль пользователя и очищает токен сброса
func (r *UserRepository) UpdatePassword(ctx context.Context, exec sqlx.ExtContext, uuid, newPasswordHash string) error {
	query := `UPDATE users SET password_hash = $2, reset_token = NULL, reset_expires = NULL WHERE uuid = $1`
	_, err := exec.ExecContext(ctx, query, uuid, newPasswordHash)
	if err != nil {
		return util.LogError("[UserRepo] не удалось обновить пароль", err)
	}
	return nil
}

// Exists : проверяет, существует ли пользователь по UUID
func (r *UserRepository) Exists(ctx context.Context, exec sqlx.ExtContext, uuid string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE uuid = $1)`
	err := sqlx.GetContext(ctx, exec, &exists, query, uuid)
	if err != nil {
		return false, util.LogError("[UserRepo] ошибка проверки существования пользователя", err)
	}
	return exists, nil
}

// IsNoRows : true, если ошибка репозитория вызвана отсутствием строки
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
