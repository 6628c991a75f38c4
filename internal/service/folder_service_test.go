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

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ===== Моки репозиториев =====

type MockFolderRepository struct{ mock.Mock }

func (m *MockFolderRepository) Create(ctx context.Context, exec sqlx.ExtContext, folder *model.Folder) error {
	return m.Called(ctx, exec, folder).Error(0)
}

func (m *MockFolderRepository) GetByUUID(ctx context.Context, exec sqlx.ExtContext, folderUUID string) (*model.Folder, error) {
	args := m.Called(ctx, exec, folderUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Folder), args.Error(1)
}

func (m *MockFolderRepository) ListChildren(ctx context.Context, exec sqlx.ExtContext, filter *model.ContentFilter) ([]model.Folder, error) {
	args := m.Called(ctx, exec, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Folder), args.Error(1)
}

func (m *MockFolderRepository) ListOwnedNodes(ctx context.Context, exec sqlx.ExtContext, ownerUUID string) ([]model.FolderNode, error) {
	args := m.Called(ctx, exec, ownerUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FolderNode), args.Error(1)
}

func (m *MockFolderRepository) ListNav(ctx context.Context, exec sqlx.ExtContext, ownerUUID string) ([]model.FolderNavItem, error) {
	args := m.Called(ctx, exec, ownerUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FolderNavItem), args.Error(1)
}

func (m *MockFolderRepository) Update(ctx context.Context, exec sqlx.ExtContext, folder *model.Folder) error {
	return m.Called(ctx, exec, folder).Error(0)
}

func (m *MockFolderRepository) SetDeletedByUUIDs(ctx context.Context, exec sqlx.ExtContext, ownerUUID string, folderUUIDs []string, deleted bool, deletedAt *time.Time) error {
	return m.Called(ctx, exec, ownerUUID, folderUUIDs, deleted, deletedAt).Error(0)
}

func (m *MockFolderRepository) BeginTX(ctx context.Context) (sqlx.ExtContext, func() error, func() error, error) {
	args := m.Called(ctx)
	return args.Get(0).(sqlx.ExtContext), args.Get(1).(func() error), args.Get(2).(func() error), args.Error(3)
}

type MockMediaRepository struct{ mock.Mock }

func (m *MockMediaRepository) Create(ctx context.Context, exec sqlx.ExtContext, media *model.Media) error {
	return m.Called(ctx, exec, media).Error(0)
}

func (m *MockMediaRepository) GetByUUID(ctx context.Context, exec sqlx.ExtContext, mediaUUID string) (*model.Media, error) {
	args := m.Called(ctx, exec, mediaUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Media), args.Error(1)
}

func (m *MockMediaRepository) List(ctx context.Context, exec sqlx.ExtContext, filter *model.ContentFilter) ([]model.Media, error) {
	args := m.Called(ctx, exec, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Media), args.Error(1)
}

func (m *MockMediaRepository) Update(ctx context.Context, exec sqlx.ExtContext, media *model.Media) error {
	return m.Called(ctx, exec, media).Error(0)
}

func (m *MockMediaRepository) SetFavorite(ctx context.Context, exec sqlx.ExtContext, mediaUUID string, favorite bool) error {
	return m.Called(ctx, exec, mediaUUID, favorite).Error(0)
}

func (m *MockMediaRepository) SetDeleted(ctx context.Context, exec sqlx.ExtContext, mediaUUID string, deleted bool, deletedAt *time.Time) error {
	return m.Called(ctx, exec, mediaUUID, deleted, deletedAt).Error(0)
}

func (m *MockMediaRepository) SetDeletedByFolders(ctx context.Context, exec sqlx.ExtContext, ownerUUID string, folderUUIDs []string, deleted bool, deletedAt *time.Time) error {
	return m.Called(ctx, exec, ownerUUID, folderUUIDs, deleted, deletedAt).Error(0)
}

func (m *MockMediaRepository) DeletePermanently(ctx context.Context, exec sqlx.ExtContext, mediaUUID, ownerUUID string) (string, error) {
	args := m.Called(ctx, exec, mediaUUID, ownerUUID)
	return args.String(0), args.Error(1)
}

type MockCollaboratorRepository struct{ mock.Mock }

func (m *MockCollaboratorRepository) Upsert(ctx context.Context, exec sqlx.ExtContext, folderUUID, userUUID, role string) error {
	return m.Called(ctx, exec, folderUUID, userUUID, role).Error(0)
}

func (m *MockCollaboratorRepository) Remove(ctx context.Context, exec sqlx.ExtContext, folderUUID, userUUID string) error {
	return m.Called(ctx, exec, folderUUID, userUUID).Error(0)
}

func (m *MockCollaboratorRepository) List(ctx context.Context, exec sqlx.ExtContext, folderUUID string) ([]model.Collaborator, error) {
	args := m.Called(ctx, exec, folderUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Collaborator), args.Error(1)
}

func (m *MockCollaboratorRepository) GetRole(ctx context.Context, exec sqlx.ExtContext, folderUUID, userUUID string) (string, error) {
	args := m.Called(ctx, exec, folderUUID, userUUID)
	return args.String(0), args.Error(1)
}

type MockUserRepository struct{ mock.Mock }

func (m *MockUserRepository) CreateUser(ctx context.Context, exec sqlx.ExtContext, user *model.User) (*model.User, error) {
	args := m.Called(ctx, exec, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByUUID(ctx context.Context, exec sqlx.ExtContext, uuid string) (*model.User, error) {
	args := m.Called(ctx, exec, uuid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, exec sqlx.ExtContext, email string) (*model.User, error) {
	args := m.Called(ctx, exec, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByVerificationToken(ctx context.Context, exec sqlx.ExtContext, token string) (*model.User, error) {
	args := m.Called(ctx, exec, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByResetToken(ctx context.Context, exec sqlx.ExtContext, token string) (*model.User, error) {
	args := m.Called(ctx, exec, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) MarkVerified(ctx context.Context, exec sqlx.ExtContext, uuid string) error {
	return m.Called(ctx, exec, uuid).Error(0)
}

func (m *MockUserRepository) SetResetToken(ctx context.Context, exec sqlx.ExtContext, uuid string, token string, expires time.Time) error {
	return m.Called(ctx, exec, uuid, token, expires).Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, exec sqlx.ExtContext, uuid, newPasswordHash string) error {
	return m.Called(ctx, exec, uuid, newPasswordHash).Error(0)
}

func (m *MockUserRepository) Exists(ctx context.Context, exec sqlx.ExtContext, uuid string) (bool, error) {
	args := m.Called(ctx, exec, uuid)
	return args.Bool(0), args.Error(1)
}

type MockCacheRepository struct{ mock.Mock }

func (m *MockCacheRepository) SetFolder(ctx context.Context, folder *model.Folder) error {
	return m.Called(ctx, folder).Error(0)
}

func (m *MockCacheRepository) GetFolder(ctx context.Context, uuid string) (*model.Folder, error) {
	args := m.Called(ctx, uuid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Folder), args.Error(1)
}

func (m *MockCacheRepository) DeleteFolder(ctx context.Context, uuid string) error {
	return m.Called(ctx, uuid).Error(0)
}

func (m *MockCacheRepository) SetNav(ctx context.Context, ownerUUID string, items []model.FolderNavItem) error {
	return m.Called(ctx, ownerUUID, items).Error(0)
}

func (m *MockCacheRepository) GetNav(ctx context.Context, ownerUUID string) ([]model.FolderNavItem, error) {
	args := m.Called(ctx, ownerUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FolderNavItem), args.Error(1)
}

func (m *MockCacheRepository) DeleteNav(ctx context.Context, ownerUUID string) error {
	return m.Called(ctx, ownerUUID).Error(0)
}

type MockS3Storage struct{ mock.Mock }

func (m *MockS3Storage) GeneratePresignedGetURL(ctx context.Context, key string, expire time.Duration) (string, error) {
	args := m.Called(ctx, key, expire)
	return args.String(0), args.Error(1)
}

func (m *MockS3Storage) GeneratePresignedPutURL(ctx context.Context, key string, expire time.Duration) (string, error) {
	args := m.Called(ctx, key, expire)
	return args.String(0), args.Error(1)
}

func (m *MockS3Storage) DeleteObject(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type MockJWTService struct{ mock.Mock }

func (m *MockJWTService) GenerateAccessRefreshTokens(userUUID string) (*model.TokensPair, *model.RefreshToken, error) {
	args := m.Called(userUUID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.TokensPair), args.Get(1).(*model.RefreshToken), args.Error(2)
}

func (m *MockJWTService) ValidateJWT(tokenString string, secret []byte) (*security.Claims, error) {
	args := m.Called(tokenString, secret)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*security.Claims), args.Error(1)
}

func (m *MockJWTService) ParseAccessToken(tokenStr string) (*security.Claims, error) {
	args := m.Called(tokenStr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*security.Claims), args.Error(1)
}

func (m *MockJWTService) GenerateFolderGrant(folderUUID, userUUID string) (string, error) {
	args := m.Called(folderUUID, userUUID)
	return args.String(0), args.Error(1)
}

func (m *MockJWTService) ValidateFolderGrant(tokenStr, folderUUID, userUUID string) bool {
	return m.Called(tokenStr, folderUUID, userUUID).Bool(0)
}

// fakeTx реализует sqlx.ExtContext для транзакционных сценариев
type fakeTx struct{}

func (f *fakeTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}
func (f *fakeTx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, nil
}
func (f *fakeTx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return &sql.Row{}
}
func (f *fakeTx) QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	return nil, nil
}
func (f *fakeTx) QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row {
	return &sqlx.Row{}
}
func (f *fakeTx) BindNamed(query string, arg interface{}) (string, []interface{}, error) {
	return "", nil, nil
}
func (f *fakeTx) DriverName() string         { return "fake" }
func (f *fakeTx) Rebind(query string) string { return query }

// ===== Сборка сервиса с моками =====

type folderServiceMocks struct {
	folderRepo *MockFolderRepository
	mediaRepo  *MockMediaRepository
	collabRepo *MockCollaboratorRepository
	userRepo   *MockUserRepository
	cacheRepo  *MockCacheRepository
	storage    *MockS3Storage
	jwtService *MockJWTService
}

func newTestFolderService() (*service.FolderService, *folderServiceMocks) {
	m := &folderServiceMocks{
		folderRepo: new(MockFolderRepository),
		mediaRepo:  new(MockMediaRepository),
		collabRepo: new(MockCollaboratorRepository),
		userRepo:   new(MockUserRepository),
		cacheRepo:  new(MockCacheRepository),
		storage:    new(MockS3Storage),
		jwtService: new(MockJWTService),
	}

	svc := service.NewFolderService(
		m.folderRepo,
		m.mediaRepo,
		m.collabRepo,
		m.userRepo,
		m.cacheRepo,
		m.storage,
		m.jwtService,
		time.Minute,
	)

	return svc, m
}

func dbContext() context.Context {
	return context.WithValue(context.Background(), "db", &config.Database{})
}

func mustHash(t *testing.T, password string) *string {
	t.Helper()
	hash, err := security.HashPassword(password)
	require.NoError(t, err)
	return &hash
}

// ===== Пароль папки: нет / неверный / верный / grant-токен =====

func TestGetContent_PasswordGate(t *testing.T) {
	ctx := dbContext()
	folderUUID := "folder-1"
	callerUUID := "user-1"

	tests := []struct {
		name        string
		password    string
		grantToken  string
		grantValid  bool
		expectedErr error
	}{
		{
			name:        "Without password",
			password:    "",
			expectedErr: service.ErrPasswordRequired,
		},
		{
			name:        "Wrong password",
			password:    "wrong",
			expectedErr: service.ErrIncorrectPassword,
		},
		{
			name:     "Correct password",
			password: "secret",
		},
		{
			name:       "Valid grant token instead of password",
			grantToken: "grant-token",
			grantValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestFolderService()

			folder := &model.Folder{
				UUID:         folderUUID,
				OwnerUUID:    callerUUID,
				Name:         "Секретная",
				PasswordHash: mustHash(t, "secret"),
			}

			m.cacheRepo.On("GetFolder", ctx, folderUUID).Return(nil, nil)
			m.cacheRepo.On("SetFolder", ctx, mock.Anything).Return(nil).Maybe()
			m.folderRepo.On("GetByUUID", ctx, mock.Anything, folderUUID).Return(folder, nil)
			m.jwtService.On("ValidateFolderGrant", tt.grantToken, folderUUID, callerUUID).Return(tt.grantValid)

			if tt.expectedErr == nil {
				m.jwtService.On("GenerateFolderGrant", folderUUID, callerUUID).Return("new-grant", nil)
				m.folderRepo.On("ListChildren", ctx, mock.Anything, mock.Anything).Return([]model.Folder{}, nil)
				m.mediaRepo.On("List", ctx, mock.Anything, mock.Anything).Return([]model.Media{}, nil)
			}

			uuid := folderUUID
			res, err := svc.GetContent(ctx, callerUUID, &uuid, &model.ContentQuery{
				Password:   tt.password,
				GrantToken: tt.grantToken,
			})

			if tt.expectedErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, model.RoleOwner, res.UserRole)
			// после успешной проверки выдаётся токен, чтобы не слать пароль повторно
			assert.Equal(t, "new-grant", res.FolderToken)
		})
	}
}

// ===== Фильтр favorites скрывает папки =====

func TestGetContent_FavoritesHidesFolders(t *testing.T) {
	svc, m := newTestFolderService()
	ctx := dbContext()

	m.mediaRepo.On("List", ctx, mock.Anything, mock.MatchedBy(func(f *model.ContentFilter) bool {
		return f.FavoritesOnly && f.FoldersNone && f.OwnerUUID == "user-1"
	})).Return([]model.Media{
		{UUID: "m1", Filename: "fav.jpg", StoragePath: "users/user-1/media/fav.jpg", IsFavorite: true},
	}, nil)
	m.storage.On("GeneratePresignedGetURL", ctx, "users/user-1/media/fav.jpg", time.Minute).Return("http://get-url", nil)

	res, err := svc.GetContent(ctx, "user-1", nil, &model.ContentQuery{Type: model.TypeFavorites})

	require.NoError(t, err)
	assert.Empty(t, res.Folders)
	assert.Len(t, res.Media, 1)
	assert.Equal(t, "http://get-url", res.MediaURLs["m1"])
	m.folderRepo.AssertNotCalled(t, "ListChildren", mock.Anything, mock.Anything, mock.Anything)
}

// ===== Корзина доступна без пароля и только владельцу =====

func TestGetContent_TrashBypassesPassword(t *testing.T) {
	svc, m := newTestFolderService()
	ctx := dbContext()
	folderUUID := "folder-1"

	folder := &model.Folder{
		UUID:         folderUUID,
		OwnerUUID:    "user-1",
		PasswordHash: mustHash(t, "secret"),
		IsDeleted:    true,
	}

	m.cacheRepo.On("GetFolder", ctx, folderUUID).Return(nil, nil)
	m.cacheRepo.On("SetFolder", ctx, mock.Anything).Return(nil).Maybe()
	m.folderRepo.On("GetByUUID", ctx, mock.Anything, folderUUID).Return(folder, nil)
	m.folderRepo.On("ListChildren", ctx, mock.Anything, mock.MatchedBy(func(f *model.ContentFilter) bool {
		return f.TrashOnly
	})).Return([]model.Folder{}, nil)
	m.mediaRepo.On("List", ctx, mock.Anything, mock.Anything).Return([]model.Media{}, nil)

	uuid := folderUUID
	_, err := svc.GetContent(ctx, "user-1", &uuid, &model.ContentQuery{View: model.ViewTrash})

	require.NoError(t, err)
	m.jwtService.AssertNotCalled(t, "ValidateFolderGrant", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetContent_TrashOfAnotherUserNotFound(t *testing.T) {
	svc, m := newTestFolderService()
	ctx := dbContext()

	folder := &model.Folder{UUID: "folder-1", OwnerUUID: "someone-else"}
	m.cacheRepo.On("GetFolder", ctx, "folder-1").Return(nil, nil)
	m.cacheRepo.On("SetFolder", ctx, mock.Anything).Return(nil).Maybe()
	m.folderRepo.On("GetByUUID", ctx, mock.Anything, "folder-1").Return(folder, nil)

	uuid := "folder-1"
	_, err := svc.GetContent(ctx, "user-1", &uuid, &model.ContentQuery{View: model.ViewTrash})

	assert.ErrorIs(t, err, service.ErrNotFound)
}

// ===== Доступ коллабораторов =====

func TestGetContent_CollaboratorRoles(t *testing.T) {
	ctx := dbContext()
	folderUUID := "shared-folder"

	tests := []struct {
		name         string
		role         string
		expectedErr  error
		expectedRole string
	}{
		{name: "Viewer reads shared folder", role: model.RoleViewer, expectedRole: model.RoleViewer},
		{name: "Editor reads shared folder", role: model.RoleEditor, expectedRole: model.RoleEditor},
		{name: "Stranger gets not found", role: "", expectedErr: service.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestFolderService()

			folder := &model.Folder{UUID: folderUUID, OwnerUUID: "owner-1", Name: "Общая"}
			m.cacheRepo.On("GetFolder", ctx, folderUUID).Return(nil, nil)
			m.cacheRepo.On("SetFolder", ctx, mock.Anything).Return(nil).Maybe()
			m.folderRepo.On("GetByUUID", ctx, mock.Anything, folderUUID).Return(folder, nil)
			m.collabRepo.On("GetRole", ctx, mock.Anything, folderUUID, "caller-1").Return(tt.role, nil)

			if tt.expectedErr == nil {
				// листинг чужой папки идёт по дереву её владельца
				m.folderRepo.On("ListChildren", ctx, mock.Anything, mock.MatchedBy(func(f *model.ContentFilter) bool {
					return f.OwnerUUID == "owner-1"
				})).Return([]model.Folder{}, nil)
				m.mediaRepo.On("List", ctx, mock.Anything, mock.Anything).Return([]model.Media{}, nil)
			}

			uuid := folderUUID
			res, err := svc.GetContent(ctx, "caller-1", &uuid, &model.ContentQuery{})

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedRole, res.UserRole)
		})
	}
}

// ===== UpdateFolder =====

func TestUpdateFolder_AllCases(t *testing.T) {
	ctx := context.Background()
	folderUUID := "folder-1"
	ownerUUID := "owner-1"

	newName := "Новое имя"
	emptyPassword := ""
	newPassword := "newsecret"

	tests := []struct {
		name            string
		callerUUID      string
		reqName         *string
		currentPassword string
		newPassword     *string
		setupMocks      func(m *folderServiceMocks, tx *fakeTx)
		expectedErr     error
		checkFolder     func(t *testing.T, f *model.Folder)
	}{
		{
			name:       "Owner renames, password hash preserved",
			callerUUID: ownerUUID,
			reqName:    &newName,
			// переименование защищённой папки требует текущий пароль
			currentPassword: "secret",
			setupMocks: func(m *folderServiceMocks, tx *fakeTx) {
				folder := &model.Folder{UUID: folderUUID, OwnerUUID: ownerUUID, Name: "Старое", PasswordHash: mustHash(t, "secret")}
				m.folderRepo.On("GetByUUID", ctx, tx, folderUUID).Return(folder, nil)
				m.folderRepo.On("Update", ctx, tx, mock.MatchedBy(func(f *model.Folder) bool {
					return f.Name == newName && f.HasPassword()
				})).Return(nil)
			},
		},
		{
			name:            "Rename without current password",
			callerUUID:      ownerUUID,
			reqName:         &newName,
			currentPassword: "",
			setupMocks: func(m *folderServiceMocks, tx *fakeTx) {
				folder := &model.Folder{UUID: folderUUID, OwnerUUID: ownerUUID, PasswordHash: mustHash(t, "secret")}
				m.folderRepo.On("GetByUUID", ctx, tx, folderUUID).Return(folder, nil)
			},
			expectedErr: service.ErrPasswordRequired,
		},
		{
			name:            "Empty new password clears protection",
			callerUUID:      ownerUUID,
			currentPassword: "secret",
			newPassword:     &emptyPassword,
			setupMocks: func(m *folderServiceMocks, tx *fakeTx) {
				folder := &model.Folder{UUID: folderUUID, OwnerUUID: ownerUUID, PasswordHash: mustHash(t, "secret")}
				m.folderRepo.On("GetByUUID", ctx, tx, folderUUID).Return(folder, nil)
				m.folderRepo.On("Update", ctx, tx, mock.MatchedBy(func(f *model.Folder) bool {
					return !f.HasPassword()
				})).Return(nil)
			},
		},
		{
			name:       "Viewer cannot rename",
			callerUUID: "viewer-1",
			reqName:    &newName,
			setupMocks: func(m *folderServiceMocks, tx *fakeTx) {
				folder := &model.Folder{UUID: folderUUID, OwnerUUID: ownerUUID}
				m.folderRepo.On("GetByUUID", ctx, tx, folderUUID).Return(folder, nil)
				m.collabRepo.On("GetRole", ctx, tx, folderUUID, "viewer-1").Return(model.RoleViewer, nil)
			},
			expectedErr: service.ErrUnauthorized,
		},
		{
			name:       "Editor renames shared folder",
			callerUUID: "editor-1",
			reqName:    &newName,
			setupMocks: func(m *folderServiceMocks, tx *fakeTx) {
				folder := &model.Folder{UUID: folderUUID, OwnerUUID: ownerUUID}
				m.folderRepo.On("GetByUUID", ctx, tx, folderUUID).Return(folder, nil)
				m.collabRepo.On("GetRole", ctx, tx, folderUUID, "editor-1").Return(model.RoleEditor, nil)
				m.folderRepo.On("Update", ctx, tx, mock.Anything).Return(nil)
			},
		},
		{
			name:        "Editor cannot change password",
			callerUUID:  "editor-1",
			newPassword: &newPassword,
			setupMocks: func(m *folderServiceMocks, tx *fakeTx) {
				folder := &model.Folder{UUID: folderUUID, OwnerUUID: ownerUUID}
				m.folderRepo.On("GetByUUID", ctx, tx, folderUUID).Return(folder, nil)
				m.collabRepo.On("GetRole", ctx, tx, folderUUID, "editor-1").Return(model.RoleEditor, nil)
			},
			expectedErr: service.ErrUnauthorized,
		},
		{
			name:       "Folder not found",
			callerUUID: ownerUUID,
			reqName:    &newName,
			setupMocks: func(m *folderServiceMocks, tx *fakeTx) {
				m.folderRepo.On("GetByUUID", ctx, tx, folderUUID).Return(nil, sql.ErrNoRows)
			},
			expectedErr: service.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestFolderService()
			tx := &fakeTx{}
			m.folderRepo.On("BeginTX", ctx).Return(tx, func() error { return nil }, func() error { return nil }, nil)
			m.cacheRepo.On("DeleteFolder", ctx, mock.Anything).Return(nil).Maybe()
			m.cacheRepo.On("DeleteNav", ctx, mock.Anything).Return(nil).Maybe()

			tt.setupMocks(m, tx)

			err := svc.UpdateFolder(ctx, tt.callerUUID, folderUUID, tt.reqName, nil, tt.currentPassword, tt.newPassword)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			m.folderRepo.AssertExpectations(t)
		})
	}
}

// ===== Перенос папки =====

func TestUpdateFolder_MoveRejectsCycle(t *testing.T) {
	svc, m := newTestFolderService()
	ctx := context.Background()
	tx := &fakeTx{}

	parentA := "folder-a"
	child := "folder-b"

	m.folderRepo.On("BeginTX", ctx).Return(tx, func() error { return nil }, func() error { return nil }, nil)
	m.folderRepo.On("GetByUUID", ctx, tx, parentA).Return(&model.Folder{UUID: parentA, OwnerUUID: "owner-1"}, nil)
	m.folderRepo.On("GetByUUID", ctx, tx, child).Return(&model.Folder{UUID: child, OwnerUUID: "owner-1", ParentUUID: &parentA}, nil)
	m.folderRepo.On("ListOwnedNodes", ctx, tx, "owner-1").Return([]model.FolderNode{
		{UUID: parentA},
		{UUID: child, ParentUUID: &parentA},
	}, nil)

	// попытка перенести a внутрь собственного ребёнка b
	err := svc.UpdateFolder(ctx, "owner-1", parentA, nil, &child, "", nil)

	assert.ErrorIs(t, err, service.ErrValidation)
	m.folderRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

// ===== CreateFolder =====

func TestCreateFolder_SharedTreeOwnership(t *testing.T) {
	svc, m := newTestFolderService()
	ctx := dbContext()

	parentUUID := "shared-parent"
	parent := &model.Folder{UUID: parentUUID, OwnerUUID: "owner-1"}

	m.folderRepo.On("GetByUUID", ctx, mock.Anything, parentUUID).Return(parent, nil)
	m.collabRepo.On("GetRole", ctx, mock.Anything, parentUUID, "editor-1").Return(model.RoleEditor, nil)
	m.folderRepo.On("Create", ctx, mock.Anything, mock.MatchedBy(func(f *model.Folder) bool {
		// папка editor-а в чужом дереве принадлежит владельцу дерева
		return f.OwnerUUID == "owner-1" && f.Name == "Вложенная"
	})).Return(nil)
	m.cacheRepo.On("DeleteNav", ctx, "owner-1").Return(nil)

	folder, err := svc.CreateFolder(ctx, "editor-1", "Вложенная", &parentUUID, "")

	require.NoError(t, err)
	assert.Equal(t, "owner-1", folder.OwnerUUID)
	m.folderRepo.AssertExpectations(t)
}

func TestCreateFolder_ViewerRejected(t *testing.T) {
	svc, m := newTestFolderService()
	ctx := dbContext()

	parentUUID := "shared-parent"
	m.folderRepo.On("GetByUUID", ctx, mock.Anything, parentUUID).Return(&model.Folder{UUID: parentUUID, OwnerUUID: "owner-1"}, nil)
	m.collabRepo.On("GetRole", ctx, mock.Anything, parentUUID, "viewer-1").Return(model.RoleViewer, nil)

	_, err := svc.CreateFolder(ctx, "viewer-1", "Вложенная", &parentUUID, "")

	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

// ===== Коллабораторы =====

func TestAddCollaborator_AllCases(t *testing.T) {
	ctx := dbContext()
	folderUUID := "folder-1"
	ownerUUID := "owner-1"

	tests := []struct {
		name        string
		callerUUID  string
		email       string
		role        string
		setupMocks  func(m *folderServiceMocks)
		expectedErr error
	}{
		{
			name:       "Success",
			callerUUID: ownerUUID,
			email:      "friend@example.com",
			role:       model.RoleViewer,
			setupMocks: func(m *folderServiceMocks) {
				m.folderRepo.On("GetByUUID", ctx, mock.Anything, folderUUID).Return(&model.Folder{UUID: folderUUID, OwnerUUID: ownerUUID}, nil)
				m.userRepo.On("FindByEmail", ctx, mock.Anything, "friend@example.com").Return(&model.User{UUID: "friend-1"}, nil)
				m.collabRepo.On("Upsert", ctx, mock.Anything, folderUUID, "friend-1", model.RoleViewer).Return(nil)
				m.collabRepo.On("List", ctx, mock.Anything, folderUUID).Return([]model.Collaborator{
					{FolderUUID: folderUUID, UserUUID: "friend-1", Role: model.RoleViewer},
				}, nil)
			},
		},
		{
			name:        "Invalid role",
			callerUUID:  ownerUUID,
			email:       "friend@example.com",
			role:        "admin",
			setupMocks:  func(m *folderServiceMocks) {},
			expectedErr: service.ErrValidation,
		},
		{
			name:       "Not owner",
			callerUUID: "editor-1",
			email:      "friend@example.com",
			role:       model.RoleViewer,
			setupMocks: func(m *folderServiceMocks) {
				m.folderRepo.On("GetByUUID", ctx, mock.Anything, folderUUID).Return(&model.Folder{UUID: folderUUID, OwnerUUID: ownerUUID}, nil)
			},
			expectedErr: service.ErrNotFound,
		},
		{
			name:       "Target user not found",
			callerUUID: ownerUUID,
			email:      "nobody@example.com",
			role:       model.RoleEditor,
			setupMocks: func(m *folderServiceMocks) {
				m.folderRepo.On("GetByUUID", ctx, mock.Anything, folderUUID).Return(&model.Folder{UUID: folderUUID, OwnerUUID: ownerUUID}, nil)
				m.userRepo.On("FindByEmail", ctx, mock.Anything, "nobody@example.com").Return(nil, sql.ErrNoRows)
			},
			expectedErr: service.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestFolderService()
			tt.setupMocks(m)

			collaborators, err := svc.AddCollaborator(ctx, tt.callerUUID, folderUUID, tt.email, tt.role)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, collaborators, 1)
		})
	}
}

// ===== Сквозное чтение папки через кэш =====

func TestGetContent_FolderCacheReadThrough(t *testing.T) {
	ctx := dbContext()
	folderUUID := "folder-1"
	folder := &model.Folder{UUID: folderUUID, OwnerUUID: "user-1", Name: "Папка"}

	t.Run("Cache hit skips DB lookup", func(t *testing.T) {
		svc, m := newTestFolderService()

		m.cacheRepo.On("GetFolder", ctx, folderUUID).Return(folder, nil)
		m.folderRepo.On("ListChildren", ctx, mock.Anything, mock.Anything).Return([]model.Folder{}, nil)
		m.mediaRepo.On("List", ctx, mock.Anything, mock.Anything).Return([]model.Media{}, nil)

		uuid := folderUUID
		res, err := svc.GetContent(ctx, "user-1", &uuid, &model.ContentQuery{})

		require.NoError(t, err)
		assert.Equal(t, folderUUID, res.CurrentFolder.UUID)
		m.folderRepo.AssertNotCalled(t, "GetByUUID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Cache miss populates cache", func(t *testing.T) {
		svc, m := newTestFolderService()

		m.cacheRepo.On("GetFolder", ctx, folderUUID).Return(nil, nil)
		m.folderRepo.On("GetByUUID", ctx, mock.Anything, folderUUID).Return(folder, nil)
		m.cacheRepo.On("SetFolder", ctx, folder).Return(nil)
		m.folderRepo.On("ListChildren", ctx, mock.Anything, mock.Anything).Return([]model.Folder{}, nil)
		m.mediaRepo.On("List", ctx, mock.Anything, mock.Anything).Return([]model.Media{}, nil)

		uuid := folderUUID
		_, err := svc.GetContent(ctx, "user-1", &uuid, &model.ContentQuery{})

		require.NoError(t, err)
		m.cacheRepo.AssertCalled(t, "SetFolder", ctx, folder)
	})

	t.Run("Cache hit keeps password gate", func(t *testing.T) {
		// хэш пароля обязан переживать сериализацию в кэш
		svc, m := newTestFolderService()

		protected := &model.Folder{UUID: folderUUID, OwnerUUID: "user-1", PasswordHash: mustHash(t, "secret")}
		m.cacheRepo.On("GetFolder", ctx, folderUUID).Return(protected, nil)
		m.jwtService.On("ValidateFolderGrant", "", folderUUID, "user-1").Return(false)

		uuid := folderUUID
		_, err := svc.GetContent(ctx, "user-1", &uuid, &model.ContentQuery{})

		assert.ErrorIs(t, err, service.ErrPasswordRequired)
	})
}

// ===== Навигация с кэшем =====

func TestListNav_CacheAside(t *testing.T) {
	ctx := dbContext()
	items := []model.FolderNavItem{{UUID: "f1", Name: "Папка"}}

	t.Run("From cache", func(t *testing.T) {
		svc, m := newTestFolderService()
		m.cacheRepo.On("GetNav", ctx, "user-1").Return(items, nil)

		res, err := svc.ListNav(ctx, "user-1")

		require.NoError(t, err)
		assert.Equal(t, items, res)
		m.folderRepo.AssertNotCalled(t, "ListNav", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("From DB and cached", func(t *testing.T) {
		svc, m := newTestFolderService()
		m.cacheRepo.On("GetNav", ctx, "user-1").Return(nil, nil)
		m.folderRepo.On("ListNav", ctx, mock.Anything, "user-1").Return(items, nil)
		m.cacheRepo.On("SetNav", ctx, "user-1", items).Return(nil)

		res, err := svc.ListNav(ctx, "user-1")

		require.NoError(t, err)
		assert.Equal(t, items, res)
		m.cacheRepo.AssertExpectations(t)
	})
}

// compile-time проверка: fakeTx должен оставаться sqlx.ExtContext
var _ sqlx.ExtContext = (*fakeTx)(nil)
