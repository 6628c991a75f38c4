package service

import (
	"context"
	"fmt"
	"log"
	"media-vault-server/config"
	"media-vault-server/internal/model"
	"media-vault-server/internal/ports"
	"media-vault-server/internal/repository"
	"media-vault-server/internal/security"
	"media-vault-server/internal/util"
	"strings"
	"time"

	"github.com/google/uuid"
)

type UserService struct {
	userRepository ports.UserRepository
	notifier       ports.Notifier
	cfg            *config.AppConfig
}

func NewUserService(userRepository ports.UserRepository, notifier ports.Notifier, cfg *config.AppConfig) *UserService {
	return &UserService{
		userRepository: userRepository,
		notifier:       notifier,
		cfg:            cfg,
	}
}

// Register создаёт пользователя с неподтверждённым email
// и отправляет ссылку подтверждения через notifier
func (s *UserService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return nil, fmt.Errorf("[UserService] database connection не найден в context")
	}

	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf("[UserService] username, email и password обязательны: %w", ErrValidation)
	}
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("[UserService] некорректный email: %w", ErrValidation)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("[UserService] пароль должен содержать не менее 8 символов: %w", ErrValidation)
	}

	if _, err := s.userRepository.FindByEmail(ctx, db, email); err == nil {
		return nil, fmt.Errorf("[UserService] пользователь с таким email уже существует: %w", ErrValidation)
	} else if !repository.IsNoRows(err) {
		return nil, util.LogError("[UserService] ошибка поиска пользователя", err)
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, util.LogError("[UserService] ошибка хэширования пароля", err)
	}

	verificationToken, err := util.GenerateRandomToken(s.cfg.AuthTokens.VerificationTokenLength)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		UUID:              uuid.New().String(),
		Username:          username,
		Email:             strings.ToLower(email),
		PasswordHash:      passwordHash,
		IsVerified:        false,
		VerificationToken: &verificationToken,
	}

	created, err := s.userRepository.CreateUser(ctx, db, user)
	if err != nil {
		return nil, util.LogError("[UserService] не удалось создать пользователя", err)
	}

	link := fmt.Sprintf("%s/api/auth/verify-email?token=%s", s.cfg.PublicBaseURL, verificationToken)
	go func() {
		notifyCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.notifier.NotifyVerification(notifyCtx, created.Email, link); err != nil {
			log.Printf("[UserService] ошибка отправки письма подтверждения: %v", err)
		}
	}()

	log.Printf("[UserService] зарегистрирован пользователь %s", created.Email)
	return created, nil
}

// VerifyEmail подтверждает email по токену из письма
func (s *UserService) VerifyEmail(ctx context.Context, token string) error {
	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return fmt.Errorf("[UserService] database connection не найден в context")
	}

	if token == "" {
		return fmt.Errorf("[UserService] токен обязателен: %w", ErrValidation)
	}

	user, err := s.userRepository.FindByVerificationToken(ctx, db, token)
	if err != nil {
		if repository.IsNoRows(err) {
			return fmt.Errorf("[UserService] токен подтверждения не найден: %w", ErrNotFound)
		}
		return util.LogError("[UserService] ошибка поиска пользователя", err)
	}

	if err := s.userRepository.MarkVerified(ctx, db, user.UUID); err != nil {
		return util.LogError("[UserService] не удалось подтвердить email", err)
	}

	log.Printf("[UserService] email %s подтверждён", user.Email)
	return nil
}

// ForgotPassword выдаёт токен сброса пароля и отправляет ссылку через notifier.
// Чтобы не раскрывать наличие аккаунта, для незарегистрированного email
// возвращает nil без отправки письма.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return fmt.Errorf("[UserService] database connection не найден в context")
	}

	user, err := s.userRepository.FindByEmail(ctx, db, email)
	if err != nil {
		if repository.IsNoRows(err) {
			log.Printf("[UserService] запрос сброса пароля для незарегистрированного email")
			return nil
		}
		return util.LogError("[UserService] ошибка поиска пользователя", err)
	}

	resetToken, err := util.GenerateRandomToken(s.cfg.AuthTokens.VerificationTokenLength)
	if err != nil {
		return err
	}

	ttl, err := time.ParseDuration(s.cfg.AuthTokens.ResetTokenTTL)
	if err != nil {
		return util.LogError("[UserService] ошибка парсинга", err)
	}

	if err := s.userRepository.SetResetToken(ctx, db, user.UUID, resetToken, time.Now().Add(ttl)); err != nil {
		return util.LogError("[UserService] не удалось сохранить токен сброса", err)
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.cfg.PublicBaseURL, resetToken)
	go func() {
		notifyCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.notifier.NotifyPasswordReset(notifyCtx, user.Email, link); err != nil {
			log.Printf("[UserService] ошибка отправки письма сброса пароля: %v", err)
		}
	}()

	return nil
}

// ResetPassword меняет пароль по действующему токену сброса
func (s *UserService) ResetPassword(ctx context.Context, token string, newPassword string) error {
	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return fmt.Errorf("[UserService] database connection не найден в context")
	}

	if token == "" {
		return fmt.Errorf("[UserService] токен обязателен: %w", ErrValidation)
	}
	if len(newPassword) < 8 {
		return fmt.Errorf("[UserService] пароль должен содержать не менее 8 символов: %w", ErrValidation)
	}

	// поиск учитывает срок действия токена — просроченный равносилен отсутствующему
	user, err := s.userRepository.FindByResetToken(ctx, db, token)
	if err != nil {
		if repository.IsNoRows(err) {
			return fmt.Errorf("[UserService] токен сброса не найден или просрочен: %w", ErrNotFound)
		}
		return util.LogError("[UserService] ошибка поиска пользователя", err)
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return util.LogError("[UserService] ошибка хэширования пароля", err)
	}

	if err := s.userRepository.UpdatePassword(ctx, db, user.UUID, passwordHash); err != nil {
		return util.LogError("[UserService] не удалось обновить пароль", err)
	}

	log.Printf("[UserService] пароль пользователя %s сброшен", user.Email)
	return nil
}

// GetUser возвращает профиль пользователя по UUID
func (s *UserService) GetUser(ctx context.Context, userUUID string) (*model.User, error) {
	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return nil, fmt.Errorf("[UserService] database connection не найден в context")
	}

	user, err := s.userRepository.FindByUUID(ctx, db, userUUID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, fmt.Errorf("[UserService] пользователь не найден: %w", ErrNotFound)
		}
		return nil, util.LogError("[UserService] ошибка поиска пользователя", err)
	}

	return user, nil
}
