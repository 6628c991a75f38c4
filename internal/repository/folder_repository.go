package repository

import (
	"context"
	"fmt"
	"media-vault-server/config"
	"media-vault-server/internal/model"
	"media-vault-server/internal/util"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike : экранирует спецсимволы LIKE — поиск по "%" или "_" должен
// означать сами символы, а не шаблон
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

type FolderRepository struct {
	*config.Database
}

func NewFolderRepository(database *config.Database) *FolderRepository {
	return &FolderRepository{database}
}

const folderColumns = `uuid, owner_uuid, parent_uuid, name, password_hash, is_deleted, deleted_at, created_at, updated_at`

// Create : сохраняет новую папку
func (r *FolderRepository) Create(ctx context.Context, exec sqlx.ExtContext, folder *model.Folder) error {
	query := `
		INSERT INTO folders (uuid, owner_uuid, parent_uuid, name, password_hash)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := exec.ExecContext(
		ctx,
		query,
		folder.UUID,
		folder.OwnerUUID,
		folder.ParentUUID,
		folder.Name,
		folder.PasswordHash)

	if err != nil {
		return util.LogError("[FolderRepo] ошибка вставки данных в БД", err)
	}
	return nil
}

// GetByUUID : возвращает папку без проверки прав — права проверяет сервисный слой
func (r *FolderRepository) GetByUUID(ctx context.Context, exec sqlx.ExtContext, folderUUID string) (*model.Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders WHERE uuid = $1`
	var folder model.Folder
	err := sqlx.GetContext(ctx, exec, &folder, query, folderUUID)
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

// ListChildren : подпапки по явным критериям фильтра
// parent_uuid сравнивается через IS NOT DISTINCT FROM, чтобы NULL означал корень
func (r *FolderRepository) ListChildren(ctx context.Context, exec sqlx.ExtContext, filter *model.ContentFilter) ([]model.Folder, error) {
	query := `
		SELECT ` + folderColumns + `
		FROM folders
		WHERE owner_uuid = $1
		  AND is_deleted = $2
		  AND parent_uuid IS NOT DISTINCT FROM $3
	`
	args := []interface{}{filter.OwnerUUID, filter.TrashOnly, filter.ParentUUID}

	if filter.Search != "" {
		query += fmt.Sprintf(" AND name ILIKE '%%' || $%d || '%%'", len(args)+1)
		args = append(args, escapeLike(filter.Search))
	}

	query += " ORDER BY name ASC"

	folders := []model.Folder{}
	if err := sqlx.SelectContext(ctx, exec, &folders, query, args...); err != nil {
		return nil, util.LogError("[FolderRepo] не удалось получить список папок", err)
	}
	return folders, nil
}

// ListOwnedNodes : все папки владельца одним запросом — из них сервис строит
// дерево в памяти перед каскадным удалением/восстановлением
func (r *FolderRepository) ListOwnedNodes(ctx context.Context, exec sqlx.ExtContext, ownerUUID string) ([]model.FolderNode, error) {
	query := `SELECT uuid, parent_uuid FROM folders WHERE owner_uuid = $1`
	nodes := []model.FolderNode{}
	if err := sqlx.SelectContext(ctx, exec, &nodes, query, ownerUUID); err != nil {
		return nil, util.LogError("[FolderRepo] не удалось получить дерево папок", err)
	}
	return nodes, nil
}

// ListNav : плоский список неудалённых папок владельца для навигации
func (r *FolderRepository) ListNav(ctx context.Context, exec sqlx.ExtContext, ownerUUID string) ([]model.FolderNavItem, error) {
	query := `
		SELECT uuid, name, parent_uuid,
		       (password_hash IS NOT NULL) AS has_password
		FROM folders
		WHERE owner_uuid = $1 AND is_deleted = FALSE
		ORDER BY name ASC
	`
	items := []model.FolderNavItem{}
	if err := sqlx.SelectContext(ctx, exec, &items, query, ownerUUID); err != nil {
		return nil, util.LogError("[FolderRepo] не удалось получить список папок для навигации", err)
	}
	return items, nil
}

// Update : переименование, перенос и смена хэша пароля
func (r *FolderRepository) Update(ctx context.Context, exec sqlx.ExtContext, folder *model.Folder) error {
	query := `
		UPDATE folders
		SET name = $2, parent_uuid = $3, password_hash = $4, updated_at = NOW()
		WHERE uuid = $1
	`
	_, err := exec.ExecContext(ctx, query, folder.UUID, folder.Name, folder.ParentUUID, folder.PasswordHash)
	if err != nil {
		return util.LogError("[FolderRepo] не удалось обновить папку", err)
	}
	return nil
}

// SetDeletedByUUIDs : пакетно выставляет флаг удаления для набора папок
// Запись абсолютного значения флага делает каскад идемпотентным
func (r *FolderRepository) SetDeletedByUUIDs(ctx context.Context, exec sqlx.ExtContext, ownerUUID string, folderUUIDs []string, deleted bool, deletedAt *time.Time) error {
	if len(folderUUIDs) == 0 {
		return nil
	}

	query := `
		UPDATE folders
		SET is_deleted = $3, deleted_at = $4, updated_at = NOW()
		WHERE owner_uuid = $1 AND uuid = ANY($2)
	`
	_, err := exec.ExecContext(ctx, query, ownerUUID, pq.Array(folderUUIDs), deleted, deletedAt)
	if err != nil {
		return util.LogError("[FolderRepo] не удалось обновить флаг удаления папок", err)
	}
	return nil
}

func (r *FolderRepository) BeginTX(ctx context.Context) (sqlx.ExtContext, func() error, func() error, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	return tx, func() error { return tx.Rollback() }, func() error { return tx.Commit() }, nil
}
