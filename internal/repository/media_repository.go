package repository

import (
	"context"
	"fmt"
	"media-vault-server/config"
	"media-vault-server/internal/model"
	"media-vault-server/internal/util"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type MediaRepository struct {
	*config.Database
}

func NewMediaRepository(database *config.Database) *MediaRepository {
	return &MediaRepository{database}
}

const mediaColumns = `uuid, owner_uuid, folder_uuid, filename, storage_path, mime_type, media_type, size_bytes, is_favorite, is_deleted, deleted_at, created_at, updated_at`

// Create : сохраняет метаданные загруженного файла
func (r *MediaRepository) Create(ctx context.Context, exec sqlx.ExtContext, media *model.Media) error {
	query := `
		INSERT INTO media (uuid, owner_uuid, folder_uuid, filename, storage_path, mime_type, media_type, size_bytes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := exec.ExecContext(
		ctx,
		query,
		media.UUID,
		media.OwnerUUID,
		media.FolderUUID,
		media.Filename,
		media.StoragePath,
		media.MimeType,
		media.MediaType,
		media.SizeBytes)

	if err != nil {
		return util.LogError("[MediaRepo] ошибка вставки данных в БД", err)
	}
	return nil
}

// GetByUUID : возвращает файл без проверки прав — права проверяет сервисный слой
func (r *MediaRepository) GetByUUID(ctx context.Context, exec sqlx.ExtContext, mediaUUID string) (*model.Media, error) {
	query := `SELECT ` + mediaColumns + ` FROM media WHERE uuid = $1`
	var media model.Media
	err := sqlx.GetContext(ctx, exec, &media, query, mediaUUID)
	if err != nil {
		return nil, err
	}
	return &media, nil
}

// List : файлы по явным критериям фильтра (корзина, поиск, тип, избранное)
func (r *MediaRepository) List(ctx context.Context, exec sqlx.ExtContext, filter *model.ContentFilter) ([]model.Media, error) {
	query := `
		SELECT ` + mediaColumns + `
		FROM media
		WHERE owner_uuid = $1
		  AND is_deleted = $2
		  AND folder_uuid IS NOT DISTINCT FROM $3
	`
	args := []interface{}{filter.OwnerUUID, filter.TrashOnly, filter.ParentUUID}

	if filter.Search != "" {
		query += fmt.Sprintf(" AND filename ILIKE '%%' || $%d || '%%'", len(args)+1)
		args = append(args, escapeLike(filter.Search))
	}
	if filter.FavoritesOnly {
		query += " AND is_favorite = TRUE"
	}
	if filter.MediaType != "" {
		query += fmt.Sprintf(" AND media_type = $%d", len(args)+1)
		args = append(args, filter.MediaType)
	}

	query += " ORDER BY filename ASC"

	media := []model.Media{}
	if err := sqlx.SelectContext(ctx, exec, &media, query, args...); err != nil {
		return nil, util.LogError("[MediaRepo] не удалось получить список файлов", err)
	}
	return media, nil
}

// Update : переименование и/или перенос файла в другую папку
func (r *MediaRepository) Update(ctx context.Context, exec sqlx.ExtContext, media *model.Media) error {
	query := `
		UPDATE media
		SET filename = $2, folder_uuid = $3, updated_at = NOW()
		WHERE uuid = $1
	`
	_, err := exec.ExecContext(ctx, query, media.UUID, media.Filename, media.FolderUUID)
	if err != nil {
		return util.LogError("[MediaRepo] не удалось обновить файл", err)
	}
	return nil
}

func (r *MediaRepository) SetFavorite(ctx context.Context, exec sqlx.ExtContext, mediaUUID string, favorite bool) error {
	query := `UPDATE media SET is_favorite = $2, updated_at = NOW() WHERE uuid = $1`
	_, err := exec.ExecContext(ctx, query, mediaUUID, favorite)
	if err != nil {
		return util.LogError("[MediaRepo] не удалось обновить флаг избранного", err)
	}
	return nil
}

// SetDeleted : флаг удаления одного файла (корзина для отдельного медиа)
func (r *MediaRepository) SetDeleted(ctx context.Context, exec sqlx.ExtContext, mediaUUID string, deleted bool, deletedAt *time.Time) error {
	query := `UPDATE media SET is_deleted = $2, deleted_at = $3, updated_at = NOW() WHERE uuid = $1`
	_, err := exec.ExecContext(ctx, query, mediaUUID, deleted, deletedAt)
	if err != nil {
		return util.LogError("[MediaRepo] не удалось обновить флаг удаления файла", err)
	}
	return nil
}

// SetDeletedByFolders : пакетно выставляет флаг удаления для всех файлов
// в наборе папок — один UPDATE на уровень дерева при каскаде
func (r *MediaRepository) SetDeletedByFolders(ctx context.Context, exec sqlx.ExtContext, ownerUUID string, folderUUIDs []string, deleted bool, deletedAt *time.Time) error {
	if len(folderUUIDs) == 0 {
		return nil
	}

	query := `
		UPDATE media
		SET is_deleted = $3, deleted_at = $4, updated_at = NOW()
		WHERE owner_uuid = $1 AND folder_uuid = ANY($2)
	`
	_, err := exec.ExecContext(ctx, query, ownerUUID, pq.Array(folderUUIDs), deleted, deletedAt)
	if err != nil {
		return util.LogError("[MediaRepo] не удалось обновить флаг удаления файлов в папках", err)
	}
	return nil
}

// DeletePermanently : физически удаляет запись, только владелец
// Возвращает storage_path, чтобы сервис очистил объект в хранилище
func (r *MediaRepository) DeletePermanently(ctx context.Context, exec sqlx.ExtContext, mediaUUID, ownerUUID string) (string, error) {
	query := `
		DELETE FROM media
		WHERE uuid = $1 AND owner_uuid = $2
		RETURNING storage_path
	`
	var storagePath string
	err := sqlx.GetContext(ctx, exec, &storagePath, query, mediaUUID, ownerUUID)
	if err != nil {
		return "", err
	}
	return storagePath, nil
}
