package ports

import (
	"context"
	"media-vault-server/internal/model"
)

// CacheRepository : Redis слой
type CacheRepository interface {
	SetFolder(ctx context.Context, folder *model.Folder) error
	GetFolder(ctx context.Context, uuid string) (*model.Folder, error)
	DeleteFolder(ctx context.Context, uuid string) error
	SetNav(ctx context.Context, ownerUUID string, items []model.FolderNavItem) error
	GetNav(ctx context.Context, ownerUUID string) ([]model.FolderNavItem, error)
	DeleteNav(ctx context.Context, ownerUUID string) error
}
