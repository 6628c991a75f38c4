package service

import (
	"context"
	"fmt"
	"log"
	"media-vault-server/internal/model"
	"media-vault-server/internal/repository"
	"media-vault-server/internal/util"
	"time"
)

// SoftDeleteFolder : переносит папку со всем поддеревом в корзину
func (s *FolderService) SoftDeleteFolder(ctx context.Context, callerUUID, folderUUID string) error {
	return s.cascade(ctx, callerUUID, folderUUID, true)
}

// RestoreFolder : восстанавливает папку со всем поддеревом из корзины
func (s *FolderService) RestoreFolder(ctx context.Context, callerUUID, folderUUID string) error {
	return s.cascade(ctx, callerUUID, folderUUID, false)
}

// cascade : каскад soft-delete/restore по поддереву.
// Всё дерево владельца загружается одним запросом, adjacency-индекс строится
// в памяти, обновления идут пакетно по уровням — без N+1 запросов.
// Уровни обрабатываются от листьев к корню, медиа уровня раньше его папок:
// при падении посреди каскада потомки всегда «не менее удалены», чем родитель,
// видимых детей под удалённой папкой не остаётся. Каждая запись — установка
// абсолютного значения флага, поэтому операция идемпотентна и безопасно
// повторяется после сбоя.
func (s *FolderService) cascade(ctx context.Context, callerUUID, folderUUID string, deleted bool) error {
	exec, rollback, commit, err := s.folderRepo.BeginTX(ctx)
	if err != nil {
		return util.LogError("[FolderService] не удалось начать транзакцию", err)
	}
	defer rollback()

	folder, err := s.folderRepo.GetByUUID(ctx, exec, folderUUID)
	if err != nil {
		if repository.IsNoRows(err) {
			return fmt.Errorf("[FolderService] папка не найдена: %w", ErrNotFound)
		}
		return util.LogError("[FolderService] ошибка поиска папки", err)
	}

	if folder.OwnerUUID != callerUUID {
		role, err := s.collabRepo.GetRole(ctx, exec, folder.UUID, callerUUID)
		if err != nil {
			return err
		}
		if role == "" {
			return fmt.Errorf("[FolderService] папка не найдена: %w", ErrNotFound)
		}
		if role == model.RoleViewer {
			return fmt.Errorf("[FolderService] %w: роль viewer не позволяет удалять папку", ErrUnauthorized)
		}
	}

	nodes, err := s.folderRepo.ListOwnedNodes(ctx, exec, folder.OwnerUUID)
	if err != nil {
		return err
	}

	levels := collectSubtreeLevels(nodes, folderUUID)

	var deletedAt *time.Time
	if deleted {
		now := time.Now()
		deletedAt = &now
	}

	// от самого глубокого уровня к целевой папке
	for i := len(levels) - 1; i >= 0; i-- {
		if err := s.mediaRepo.SetDeletedByFolders(ctx, exec, folder.OwnerUUID, levels[i], deleted, deletedAt); err != nil {
			return err
		}
		if err := s.folderRepo.SetDeletedByUUIDs(ctx, exec, folder.OwnerUUID, levels[i], deleted, deletedAt); err != nil {
			return err
		}
	}

	if err := commit(); err != nil {
		return util.LogError("[FolderService] не удалось закоммитить транзакцию", err)
	}

	for _, level := range levels {
		for _, uuid := range level {
			if err := s.cacheRepo.DeleteFolder(ctx, uuid); err != nil {
				log.Printf("[FolderService] ошибка инвалидации кэша: %v", err)
			}
		}
	}
	if err := s.cacheRepo.DeleteNav(ctx, folder.OwnerUUID); err != nil {
		log.Printf("[FolderService] ошибка инвалидации кэша: %v", err)
	}

	log.Printf("[FolderService] каскад (deleted=%v) для папки %s выполнен, уровней: %d", deleted, folderUUID, len(levels))
	return nil
}

// collectSubtreeLevels : группирует UUID папок поддерева по глубине —
// levels[0] содержит только корень поддерева, levels[1] его детей и так далее
func collectSubtreeLevels(nodes []model.FolderNode, rootUUID string) [][]string {
	children := make(map[string][]string, len(nodes))
	for _, node := range nodes {
		if node.ParentUUID != nil {
			children[*node.ParentUUID] = append(children[*node.ParentUUID], node.UUID)
		}
	}

	levels := [][]string{{rootUUID}}
	for {
		var next []string
		for _, uuid := range levels[len(levels)-1] {
			next = append(next, children[uuid]...)
		}
		if len(next) == 0 {
			return levels
		}
		levels = append(levels, next)
	}
}
