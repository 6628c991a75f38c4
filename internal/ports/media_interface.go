package ports

import (
	"context"
	"media-vault-server/internal/model"
	"time"

	"github.com/jmoiron/sqlx"
)

// MediaRepository : SQL слой метаданных медиа-файлов
type MediaRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, media *model.Media) error
	GetByUUID(ctx context.Context, exec sqlx.ExtContext, mediaUUID string) (*model.Media, error)
	List(ctx context.Context, exec sqlx.ExtContext, filter *model.ContentFilter) ([]model.Media, error)
	Update(ctx context.Context, exec sqlx.ExtContext, media *model.Media) error
	SetFavorite(ctx context.Context, exec sqlx.ExtContext, mediaUUID string, favorite bool) error
	SetDeleted(ctx context.Context, exec sqlx.ExtContext, mediaUUID string, deleted bool, deletedAt *time.Time) error
	// SetDeletedByFolders : пакетное обновление флага для всех файлов в папках —
	// один UPDATE на уровень дерева при каскаде
	SetDeletedByFolders(ctx context.Context, exec sqlx.ExtContext, ownerUUID string, folderUUIDs []string, deleted bool, deletedAt *time.Time) error
	// DeletePermanently : удаляет запись и возвращает storage_path для очистки хранилища
	DeletePermanently(ctx context.Context, exec sqlx.ExtContext, mediaUUID, ownerUUID string) (string, error)
}

// MediaService : операции над медиа-файлами
type MediaService interface {
	UploadMedia(ctx context.Context, callerUUID string, folderUUID *string, items []*model.Media) ([]string, error)
	UpdateMedia(ctx context.Context, callerUUID, mediaUUID string, filename *string, folder *string) (*model.Media, error)
	ToggleFavorite(ctx context.Context, callerUUID, mediaUUID string) (*model.Media, error)
	SoftDeleteMedia(ctx context.Context, callerUUID, mediaUUID string) error
	RestoreMedia(ctx context.Context, callerUUID, mediaUUID string) error
	DeleteMediaPermanently(ctx context.Context, callerUUID, mediaUUID string) error
}
