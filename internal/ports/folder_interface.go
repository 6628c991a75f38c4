package ports

import (
	"context"
	"media-vault-server/internal/model"
	"time"

	"github.com/jmoiron/sqlx"
)

// FolderRepository : SQL слой дерева папок
type FolderRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, folder *model.Folder) error
	GetByUUID(ctx context.Context, exec sqlx.ExtContext, folderUUID string) (*model.Folder, error)
	ListChildren(ctx context.Context, exec sqlx.ExtContext, filter *model.ContentFilter) ([]model.Folder, error)
	// ListOwnedNodes : все папки владельца одним запросом — для построения
	// дерева в памяти перед каскадом (без N+1 запросов)
	ListOwnedNodes(ctx context.Context, exec sqlx.ExtContext, ownerUUID string) ([]model.FolderNode, error)
	ListNav(ctx context.Context, exec sqlx.ExtContext, ownerUUID string) ([]model.FolderNavItem, error)
	Update(ctx context.Context, exec sqlx.ExtContext, folder *model.Folder) error
	SetDeletedByUUIDs(ctx context.Context, exec sqlx.ExtContext, ownerUUID string, folderUUIDs []string, deleted bool, deletedAt *time.Time) error
	BeginTX(ctx context.Context) (sqlx.ExtContext, func() error, func() error, error)
}

// CollaboratorRepository : доступ коллабораторов к папкам
type CollaboratorRepository interface {
	Upsert(ctx context.Context, exec sqlx.ExtContext, folderUUID, userUUID, role string) error
	Remove(ctx context.Context, exec sqlx.ExtContext, folderUUID, userUUID string) error
	List(ctx context.Context, exec sqlx.ExtContext, folderUUID string) ([]model.Collaborator, error)
	// GetRole : роль пользователя на конкретной папке, пустая строка — доступа нет
	GetRole(ctx context.Context, exec sqlx.ExtContext, folderUUID, userUUID string) (string, error)
}

// FolderService : операции над деревом папок и коллабораторами
type FolderService interface {
	GetContent(ctx context.Context, callerUUID string, folderUUID *string, query *model.ContentQuery) (*model.ContentResult, error)
	ListNav(ctx context.Context, callerUUID string) ([]model.FolderNavItem, error)
	CreateFolder(ctx context.Context, callerUUID, name string, parentUUID *string, password string) (*model.Folder, error)
	UpdateFolder(ctx context.Context, callerUUID, folderUUID string, name *string, parentUUID *string, currentPassword string, newPassword *string) error
	SoftDeleteFolder(ctx context.Context, callerUUID, folderUUID string) error
	RestoreFolder(ctx context.Context, callerUUID, folderUUID string) error
	AddCollaborator(ctx context.Context, callerUUID, folderUUID, email, role string) ([]model.Collaborator, error)
	RemoveCollaborator(ctx context.Context, callerUUID, folderUUID, collaboratorUUID string) ([]model.Collaborator, error)
}
