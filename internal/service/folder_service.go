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
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type FolderService struct {
	folderRepo ports.FolderRepository
	mediaRepo  ports.MediaRepository
	collabRepo ports.CollaboratorRepository
	userRepo   ports.UserRepository
	cacheRepo  ports.CacheRepository
	storage    ports.S3Storage
	jwtService ports.JWTServiceInterface
	ttl        time.Duration
}

func NewFolderService(
	folderRepo ports.FolderRepository,
	mediaRepo ports.MediaRepository,
	collabRepo ports.CollaboratorRepository,
	userRepo ports.UserRepository,
	cacheRepo ports.CacheRepository,
	storage ports.S3Storage,
	jwtService ports.JWTServiceInterface,
	ttl time.Duration,
) *FolderService {
	return &FolderService{
		folderRepo: folderRepo,
		mediaRepo:  mediaRepo,
		collabRepo: collabRepo,
		userRepo:   userRepo,
		cacheRepo:  cacheRepo,
		storage:    storage,
		jwtService: jwtService,
		ttl:        ttl,
	}
}

// checkFolderAccess : чистая проверка доступа к папке
// nil folderUUID — собственный корень, доступ всегда разрешён.
// Папка не найдена, либо вызывающий не владелец и не коллаборатор — ErrNotFound.
// Защита паролем: валидный folder grant снимает проверку, иначе пустой пароль —
// ErrPasswordRequired, несовпавший — ErrIncorrectPassword.
// Проверка пароля нигде не сохраняется на сервере: каждый запрос предъявляет
// пароль либо выданный grant-токен заново.
func (s *FolderService) checkFolderAccess(ctx context.Context, exec sqlx.ExtContext, folderUUID *string, callerUUID, password, grantToken string) (string, *model.Folder, error) {
	if folderUUID == nil {
		return model.RoleOwner, nil, nil
	}

	folder, err := s.getFolderCached(ctx, exec, *folderUUID)
	if err != nil {
		if repository.IsNoRows(err) {
			return "", nil, fmt.Errorf("[FolderService] папка не найдена: %w", ErrNotFound)
		}
		return "", nil, util.LogError("[FolderService] ошибка поиска папки", err)
	}

	role := model.RoleOwner
	if folder.OwnerUUID != callerUUID {
		role, err = s.collabRepo.GetRole(ctx, exec, folder.UUID, callerUUID)
		if err != nil {
			return "", nil, err
		}
		if role == "" {
			// чужая папка без доступа неотличима от несуществующей
			return "", nil, fmt.Errorf("[FolderService] папка не найдена: %w", ErrNotFound)
		}
	}

	if folder.HasPassword() {
		if s.jwtService.ValidateFolderGrant(grantToken, folder.UUID, callerUUID) {
			return role, folder, nil
		}
		if password == "" {
			return "", nil, fmt.Errorf("[FolderService] %w", ErrPasswordRequired)
		}
		if !security.CheckPassword(password, *folder.PasswordHash) {
			return "", nil, fmt.Errorf("[FolderService] %w", ErrIncorrectPassword)
		}
	}

	return role, folder, nil
}

// getFolderCached : папка по UUID через кэш Redis, промах заполняет кэш.
// Используется только на путях чтения — мутации ходят в БД напрямую
// и инвалидируют ключ после коммита.
func (s *FolderService) getFolderCached(ctx context.Context, exec sqlx.ExtContext, folderUUID string) (*model.Folder, error) {
	folder, err := s.cacheRepo.GetFolder(ctx, folderUUID)
	if err != nil {
		log.Printf("[FolderService] ошибка кэширования: %v", err)
	}
	if folder != nil {
		log.Printf("[FolderService] папка %s взята из кэша Redis", folderUUID)
		return folder, nil
	}

	folder, err = s.folderRepo.GetByUUID(ctx, exec, folderUUID)
	if err != nil {
		return nil, err
	}

	if err := s.cacheRepo.SetFolder(ctx, folder); err != nil {
		log.Printf("[FolderService] ошибка кэширования папки: %v", err)
	}
	return folder, nil
}

// GetContent : листинг папки — подпапки и медиа с учётом режима (drive/trash),
// поиска и фильтра по типу
func (s *FolderService) GetContent(ctx context.Context, callerUUID string, folderUUID *string, query *model.ContentQuery) (*model.ContentResult, error) {
	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return nil, fmt.Errorf("[FolderService] database connection не найден в context")
	}

	result := &model.ContentResult{
		UserRole:  model.RoleOwner,
		MediaURLs: map[string]string{},
	}
	ownerUUID := callerUUID
	trash := query.View == model.ViewTrash

	if trash {
		// корзина всегда доступна владельцу без пароля, чужая корзина не видна
		if folderUUID != nil {
			folder, err := s.getFolderCached(ctx, db, *folderUUID)
			if err != nil {
				if repository.IsNoRows(err) {
					return nil, fmt.Errorf("[FolderService] папка не найдена: %w", ErrNotFound)
				}
				return nil, util.LogError("[FolderService] ошибка поиска папки", err)
			}
			if folder.OwnerUUID != callerUUID {
				return nil, fmt.Errorf("[FolderService] папка не найдена: %w", ErrNotFound)
			}
			result.CurrentFolder = folder
		}
	} else {
		role, folder, err := s.checkFolderAccess(ctx, db, folderUUID, callerUUID, query.Password, query.GrantToken)
		if err != nil {
			return nil, err
		}
		result.UserRole = role
		result.CurrentFolder = folder
		if folder != nil {
			// листинг чужой расшаренной папки показывает содержимое её владельца
			ownerUUID = folder.OwnerUUID

			if folder.HasPassword() {
				grant, err := s.jwtService.GenerateFolderGrant(folder.UUID, callerUUID)
				if err != nil {
					log.Printf("[FolderService] не удалось выдать grant-токен папки: %v", err)
				} else {
					result.FolderToken = grant
				}
			}
		}
	}

	// критерии выборки собираются один раз и передаются в оба репозитория
	filter := &model.ContentFilter{
		OwnerUUID:  ownerUUID,
		ParentUUID: folderUUID,
		TrashOnly:  trash,
		Search:     query.Search,
	}
	switch query.Type {
	case "", "all":
	case model.TypeFavorites:
		// избранное показывает только медиа
		filter.FavoritesOnly = true
		filter.FoldersNone = true
	default:
		filter.MediaType = query.Type
	}

	if filter.FoldersNone {
		result.Folders = []model.Folder{}
	} else {
		folders, err := s.folderRepo.ListChildren(ctx, db, filter)
		if err != nil {
			return nil, util.LogError("[FolderService] не удалось получить список папок", err)
		}
		result.Folders = folders
	}

	media, err := s.mediaRepo.List(ctx, db, filter)
	if err != nil {
		return nil, util.LogError("[FolderService] не удалось получить список файлов", err)
	}
	result.Media = media

	for _, item := range media {
		url, err := s.storage.GeneratePresignedGetURL(ctx, item.StoragePath, s.ttl)
		if err != nil {
			log.Printf("[FolderService] ошибка генерации pre-signed URL для файла %s: %v", item.UUID, err)
			continue
		}
		result.MediaURLs[item.UUID] = url
	}

	return result, nil
}

// ListNav : плоский список папок пользователя, кэшируется в Redis
func (s *FolderService) ListNav(ctx context.Context, callerUUID string) ([]model.FolderNavItem, error) {
	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return nil, fmt.Errorf("[FolderService] database connection не найден в context")
	}

	items, err := s.cacheRepo.GetNav(ctx, callerUUID)
	if err != nil {
		log.Printf("[FolderService] ошибка кэширования: %v", err)
	}
	if items != nil {
		log.Printf("[FolderService] список папок пользователя %s взят из кэша Redis", callerUUID)
		return items, nil
	}

	items, err = s.folderRepo.ListNav(ctx, db, callerUUID)
	if err != nil {
		return nil, util.LogError("[FolderService] не удалось получить список папок", err)
	}

	if err := s.cacheRepo.SetNav(ctx, callerUUID, items); err != nil {
		log.Printf("[FolderService] ошибка кэширования списка папок: %v", err)
	}

	return items, nil
}

// CreateFolder : создаёт папку; внутри расшаренного дерева владельцем новой
// папки становится владелец дерева — родитель и потомок всегда одного владельца
func (s *FolderService) CreateFolder(ctx context.Context, callerUUID, name string, parentUUID *string, password string) (*model.Folder, error) {
	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return nil, fmt.Errorf("[FolderService] database connection не найден в context")
	}

	if name == "" {
		return nil, fmt.Errorf("[FolderService] имя папки обязательно: %w", ErrValidation)
	}

	ownerUUID := callerUUID
	if parentUUID != nil {
		parent, err := s.folderRepo.GetByUUID(ctx, db, *parentUUID)
		if err != nil {
			if repository.IsNoRows(err) {
				return nil, fmt.Errorf("[FolderService] родительская папка не найдена: %w", ErrNotFound)
			}
			return nil, util.LogError("[FolderService] ошибка поиска родительской папки", err)
		}

		role := model.RoleOwner
		if parent.OwnerUUID != callerUUID {
			role, err = s.collabRepo.GetRole(ctx, db, parent.UUID, callerUUID)
			if err != nil {
				return nil, err
			}
			if role == "" {
				return nil, fmt.Errorf("[FolderService] родительская папка не найдена: %w", ErrNotFound)
			}
			if role == model.RoleViewer {
				return nil, fmt.Errorf("[FolderService] %w: роль viewer не позволяет создавать папки", ErrUnauthorized)
			}
		}

		ownerUUID = parent.OwnerUUID
	}

	folder := &model.Folder{
		UUID:       uuid.New().String(),
		OwnerUUID:  ownerUUID,
		ParentUUID: parentUUID,
		Name:       name,
	}

	if password != "" {
		hash, err := security.HashPassword(password)
		if err != nil {
			return nil, util.LogError("[FolderService] не удалось создать хэш пароля папки", err)
		}
		folder.PasswordHash = &hash
	}

	if err := s.folderRepo.Create(ctx, db, folder); err != nil {
		return nil, util.LogError("[FolderService] не удалось сохранить папку в БД", err)
	}

	if err := s.cacheRepo.DeleteNav(ctx, ownerUUID); err != nil {
		log.Printf("[FolderService] ошибка инвалидации кэша: %v", err)
	}

	log.Printf("[FolderService] папка %s успешно создана", folder.Name)
	return folder, nil
}

// UpdateFolder : переименование, перенос и смена пароля папки
// Если пароль установлен, любое изменение требует текущий пароль.
// newPassword == nil — хэш не трогаем, newPassword == "" — защита снимается.
func (s *FolderService) UpdateFolder(ctx context.Context, callerUUID, folderUUID string, name *string, parentUUID *string, currentPassword string, newPassword *string) error {
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

	role := model.RoleOwner
	if folder.OwnerUUID != callerUUID {
		role, err = s.collabRepo.GetRole(ctx, exec, folder.UUID, callerUUID)
		if err != nil {
			return err
		}
		if role == "" {
			return fmt.Errorf("[FolderService] папка не найдена: %w", ErrNotFound)
		}
		if role == model.RoleViewer {
			return fmt.Errorf("[FolderService] %w: роль viewer не позволяет изменять папку", ErrUnauthorized)
		}
	}

	if folder.HasPassword() {
		if currentPassword == "" {
			return fmt.Errorf("[FolderService] %w", ErrPasswordRequired)
		}
		if !security.CheckPassword(currentPassword, *folder.PasswordHash) {
			return fmt.Errorf("[FolderService] %w", ErrIncorrectPassword)
		}
	}

	if newPassword != nil && role != model.RoleOwner {
		return fmt.Errorf("[FolderService] %w: пароль папки меняет только владелец", ErrUnauthorized)
	}

	if name != nil {
		if *name == "" {
			return fmt.Errorf("[FolderService] имя папки обязательно: %w", ErrValidation)
		}
		folder.Name = *name
	}

	if parentUUID != nil {
		if err := s.validateMove(ctx, exec, folder, *parentUUID); err != nil {
			return err
		}
		if *parentUUID == "" {
			folder.ParentUUID = nil
		} else {
			folder.ParentUUID = parentUUID
		}
	}

	if newPassword != nil {
		if *newPassword == "" {
			folder.PasswordHash = nil
		} else {
			hash, err := security.HashPassword(*newPassword)
			if err != nil {
				return util.LogError("[FolderService] не удалось создать хэш пароля папки", err)
			}
			folder.PasswordHash = &hash
		}
	}

	if err := s.folderRepo.Update(ctx, exec, folder); err != nil {
		return util.LogError("[FolderService] не удалось обновить папку", err)
	}

	if err := commit(); err != nil {
		return util.LogError("[FolderService] не удалось закоммитить транзакцию", err)
	}

	if err := s.cacheRepo.DeleteFolder(ctx, folder.UUID); err != nil {
		log.Printf("[FolderService] ошибка инвалидации кэша: %v", err)
	}
	if err := s.cacheRepo.DeleteNav(ctx, folder.OwnerUUID); err != nil {
		log.Printf("[FolderService] ошибка инвалидации кэша: %v", err)
	}

	return nil
}

// validateMove : новый родитель должен существовать, принадлежать тому же
// владельцу и не находиться в поддереве переносимой папки (иначе цикл)
func (s *FolderService) validateMove(ctx context.Context, exec sqlx.ExtContext, folder *model.Folder, newParentUUID string) error {
	if newParentUUID == "" {
		return nil // перенос в корень
	}
	if newParentUUID == folder.UUID {
		return fmt.Errorf("[FolderService] папку нельзя перенести в саму себя: %w", ErrValidation)
	}

	parent, err := s.folderRepo.GetByUUID(ctx, exec, newParentUUID)
	if err != nil {
		if repository.IsNoRows(err) {
			return fmt.Errorf("[FolderService] родительская папка не найдена: %w", ErrNotFound)
		}
		return util.LogError("[FolderService] ошибка поиска родительской папки", err)
	}
	if parent.OwnerUUID != folder.OwnerUUID {
		return fmt.Errorf("[FolderService] родитель принадлежит другому пользователю: %w", ErrValidation)
	}

	// поднимаемся от нового родителя к корню: переносимая папка не должна встретиться
	nodes, err := s.folderRepo.ListOwnedNodes(ctx, exec, folder.OwnerUUID)
	if err != nil {
		return err
	}
	parents := make(map[string]*string, len(nodes))
	for _, node := range nodes {
		parents[node.UUID] = node.ParentUUID
	}

	for cursor := &newParentUUID; cursor != nil; cursor = parents[*cursor] {
		if *cursor == folder.UUID {
			return fmt.Errorf("[FolderService] перенос создал бы цикл в дереве: %w", ErrValidation)
		}
	}

	return nil
}

// AddCollaborator : владелец выдаёт доступ по email, повторная выдача меняет роль
func (s *FolderService) AddCollaborator(ctx context.Context, callerUUID, folderUUID, email, role string) ([]model.Collaborator, error) {
	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return nil, fmt.Errorf("[FolderService] database connection не найден в context")
	}

	if role != model.RoleViewer && role != model.RoleEditor {
		return nil, fmt.Errorf("[FolderService] роль должна быть viewer или editor: %w", ErrValidation)
	}

	folder, err := s.getOwnedFolder(ctx, db, folderUUID, callerUUID)
	if err != nil {
		return nil, err
	}

	target, err := s.userRepo.FindByEmail(ctx, db, email)
	if err != nil {
		return nil, fmt.Errorf("[FolderService] пользователь с таким email не найден: %w", ErrNotFound)
	}
	if target.UUID == folder.OwnerUUID {
		return nil, fmt.Errorf("[FolderService] владелец уже имеет полный доступ: %w", ErrValidation)
	}

	if err := s.collabRepo.Upsert(ctx, db, folderUUID, target.UUID, role); err != nil {
		return nil, err
	}

	return s.collabRepo.List(ctx, db, folderUUID)
}

// RemoveCollaborator : владелец отзывает доступ
func (s *FolderService) RemoveCollaborator(ctx context.Context, callerUUID, folderUUID, collaboratorUUID string) ([]model.Collaborator, error) {
	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return nil, fmt.Errorf("[FolderService] database connection не найден в context")
	}

	if _, err := s.getOwnedFolder(ctx, db, folderUUID, callerUUID); err != nil {
		return nil, err
	}

	if err := s.collabRepo.Remove(ctx, db, folderUUID, collaboratorUUID); err != nil {
		return nil, err
	}

	return s.collabRepo.List(ctx, db, folderUUID)
}

// getOwnedFolder : папка, принадлежащая вызывающему; чужая или отсутствующая — ErrNotFound
func (s *FolderService) getOwnedFolder(ctx context.Context, exec sqlx.ExtContext, folderUUID, callerUUID string) (*model.Folder, error) {
	folder, err := s.folderRepo.GetByUUID(ctx, exec, folderUUID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, fmt.Errorf("[FolderService] папка не найдена: %w", ErrNotFound)
		}
		return nil, util.LogError("[FolderService] ошибка поиска папки", err)
	}
	if folder.OwnerUUID != callerUUID {
		return nil, fmt.Errorf("[FolderService] папка не найдена: %w", ErrNotFound)
	}
	return folder, nil
}
