package repository

import (
	"context"
	"database/sql"
	"errors"
	"media-vault-server/config"
	"media-vault-server/internal/model"
	"media-vault-server/internal/util"

	"github.com/jmoiron/sqlx"
)

type CollaboratorRepository struct {
	database *config.Database
}

func NewCollaboratorRepository(database *config.Database) *CollaboratorRepository {
	return &CollaboratorRepository{database: database}
}

// Upsert : выдаёт доступ к папке, повторная выдача обновляет роль
func (r *CollaboratorRepository) Upsert(ctx context.Context, exec sqlx.ExtContext, folderUUID, userUUID, role string) error {
	query := `
		INSERT INTO folder_collaborators (folder_uuid, user_uuid, role, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (folder_uuid, user_uuid) DO UPDATE
		SET role = EXCLUDED.role
	`
	_, err := exec.ExecContext(ctx, query, folderUUID, userUUID, role)
	if err != nil {
		return util.LogError("[CollaboratorRepo] не удалось предоставить доступ к папке", err)
	}
	return nil
}

func (r *CollaboratorRepository) Remove(ctx context.Context, exec sqlx.ExtContext, folderUUID, userUUID string) error {
	_, err := exec.ExecContext(ctx, `
		DELETE FROM folder_collaborators
		WHERE folder_uuid = $1 AND user_uuid = $2
	`, folderUUID, userUUID)
	if err != nil {
		return util.LogError("[CollaboratorRepo] не удалось удалить доступ к папке", err)
	}
	return nil
}

// List : коллабораторы папки вместе с отображаемыми полями пользователя
func (r *CollaboratorRepository) List(ctx context.Context, exec sqlx.ExtContext, folderUUID string) ([]model.Collaborator, error) {
	collaborators := []model.Collaborator{}
	err := sqlx.SelectContext(ctx, exec, &collaborators, `
		SELECT c.folder_uuid, c.user_uuid, c.role, c.created_at, u.username, u.email
		FROM folder_collaborators AS c
		INNER JOIN users AS u ON u.uuid = c.user_uuid
		WHERE c.folder_uuid = $1
		ORDER BY c.created_at ASC
	`, folderUUID)
	if err != nil {
		return nil, util.LogError("[CollaboratorRepo] не удалось получить список коллабораторов", err)
	}
	return collaborators, nil
}

// GetRole : роль пользователя на конкретной папке
// Роль не наследуется подпапками — проверяется ровно та папка, к которой идёт запрос
func (r *CollaboratorRepository) GetRole(ctx context.Context, exec sqlx.ExtContext, folderUUID, userUUID string) (string, error) {
	var role string
	query := `SELECT role FROM folder_collaborators WHERE folder_uuid = $1 AND user_uuid = $2`
	err := sqlx.GetContext(ctx, exec, &role, query, folderUUID, userUUID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	} else if err != nil {
		return "", util.LogError("[CollaboratorRepo] ошибка проверки доступа", err)
	}
	return role, nil
}
