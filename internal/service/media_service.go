package service

import (
	"context"
	"fmt"
	"log"
	"media-vault-server/config"
	"media-vault-server/internal/model"
	"media-vault-server/internal/ports"
	"media-vault-server/internal/repository"
	"media-vault-server/internal/util"
	"time"

	"github.com/jmoiron/sqlx"
)

type MediaService struct {
	mediaRepo  ports.MediaRepository
	folderRepo ports.FolderRepository
	collabRepo ports.CollaboratorRepository
	storage    ports.S3Storage
	ttl        time.Duration
}

func NewMediaService(
	mediaRepo ports.MediaRepository,
	folderRepo ports.FolderRepository,
	collabRepo ports.CollaboratorRepository,
	storage ports.S3Storage,
	ttl time.Duration,
) *MediaService {
	return &MediaService{
		mediaRepo:  mediaRepo,
		folderRepo: folderRepo,
		collabRepo: collabRepo,
		storage:    storage,
		ttl:        ttl,
	}
}

// UploadMedia : сохраняет метаданные файлов и возвращает pre-signed PUT URL
// для каждого — байты уходят в хранилище напрямую, мимо сервера
func (s *MediaService) UploadMedia(ctx context.Context, callerUUID string, folderUUID *string, items []*model.Media) ([]string, error) {
	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return nil, fmt.Errorf("[MediaService] database connection не найден в context")
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("[MediaService] файлы не переданы: %w", ErrValidation)
	}

	ownerUUID := callerUUID
	if folderUUID != nil {
		folder, err := s.folderRepo.GetByUUID(ctx, db, *folderUUID)
		if err != nil {
			if repository.IsNoRows(err) {
				return nil, fmt.Errorf("[MediaService] папка не найдена: %w", ErrNotFound)
			}
			return nil, util.LogError("[MediaService] ошибка поиска папки", err)
		}

		if folder.OwnerUUID != callerUUID {
			role, err := s.collabRepo.GetRole(ctx, db, folder.UUID, callerUUID)
			if err != nil {
				return nil, err
			}
			if role == "" {
				return nil, fmt.Errorf("[MediaService] папка не найдена: %w", ErrNotFound)
			}
			if role == model.RoleViewer {
				return nil, fmt.Errorf("[MediaService] %w: роль viewer не позволяет загружать файлы", ErrUnauthorized)
			}
		}

		// в расшаренном дереве файл принадлежит владельцу дерева
		ownerUUID = folder.OwnerUUID
	}

	putURLs := make([]string, 0, len(items))
	for _, item := range items {
		item.OwnerUUID = ownerUUID
		item.FolderUUID = folderUUID

		putURL, err := s.storage.GeneratePresignedPutURL(ctx, item.StoragePath, s.ttl)
		if err != nil {
			return nil, util.LogError("[MediaService] не удалось сгенерировать pre-signed PUT URL", err)
		}

		if err := s.mediaRepo.Create(ctx, db, item); err != nil {
			return nil, util.LogError("[MediaService] не удалось сохранить файл в БД", err)
		}

		putURLs = append(putURLs, putURL)
	}

	log.Printf("[MediaService] загружено файлов: %d", len(items))
	return putURLs, nil
}

// UpdateMedia : переименование и/или перенос файла
// folder == nil — не трогаем, folder == "" — перенос в корень
func (s *MediaService) UpdateMedia(ctx context.Context, callerUUID, mediaUUID string, filename *string, folder *string) (*model.Media, error) {
	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return nil, fmt.Errorf("[MediaService] database connection не найден в context")
	}

	media, _, err := s.getWritableMedia(ctx, db, mediaUUID, callerUUID)
	if err != nil {
		return nil, err
	}

	if filename != nil {
		if *filename == "" {
			return nil, fmt.Errorf("[MediaService] имя файла обязательно: %w", ErrValidation)
		}
		media.Filename = *filename
	}

	if folder != nil {
		if *folder == "" {
			// на корень роли не выдаются, поэтому туда переносит только владелец
			if media.OwnerUUID != callerUUID {
				return nil, fmt.Errorf("[MediaService] %w: перенос в корень доступен только владельцу", ErrUnauthorized)
			}
			media.FolderUUID = nil
		} else {
			target, err := s.folderRepo.GetByUUID(ctx, db, *folder)
			if err != nil {
				if repository.IsNoRows(err) {
					return nil, fmt.Errorf("[MediaService] папка не найдена: %w", ErrNotFound)
				}
				return nil, util.LogError("[MediaService] ошибка поиска папки", err)
			}
			if target.OwnerUUID != media.OwnerUUID {
				return nil, fmt.Errorf("[MediaService] папка принадлежит другому пользователю: %w", ErrValidation)
			}

			// у коллаборатора должна быть роль editor и на целевой папке
			if target.OwnerUUID != callerUUID {
				role, err := s.collabRepo.GetRole(ctx, db, target.UUID, callerUUID)
				if err != nil {
					return nil, err
				}
				if role == "" {
					return nil, fmt.Errorf("[MediaService] папка не найдена: %w", ErrNotFound)
				}
				if role == model.RoleViewer {
					return nil, fmt.Errorf("[MediaService] %w: роль viewer не позволяет переносить файлы в папку", ErrUnauthorized)
				}
			}
			media.FolderUUID = folder
		}
	}

	if err := s.mediaRepo.Update(ctx, db, media); err != nil {
		return nil, util.LogError("[MediaService] не удалось обновить файл", err)
	}

	return media, nil
}

// ToggleFavorite : переключает флаг избранного
func (s *MediaService) ToggleFavorite(ctx context.Context, callerUUID, mediaUUID string) (*model.Media, error) {
	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return nil, fmt.Errorf("[MediaService] database connection не найден в context")
	}

	media, _, err := s.getWritableMedia(ctx, db, mediaUUID, callerUUID)
	if err != nil {
		return nil, err
	}

	media.IsFavorite = !media.IsFavorite
	if err := s.mediaRepo.SetFavorite(ctx, db, media.UUID, media.IsFavorite); err != nil {
		return nil, util.LogError("[MediaService] не удалось обновить флаг избранного", err)
	}

	return media, nil
}

// SoftDeleteMedia : переносит файл в корзину
func (s *MediaService) SoftDeleteMedia(ctx context.Context, callerUUID, mediaUUID string) error {
	return s.setMediaDeleted(ctx, callerUUID, mediaUUID, true)
}

// RestoreMedia : восстанавливает файл из корзины
func (s *MediaService) RestoreMedia(ctx context.Context, callerUUID, mediaUUID string) error {
	return s.setMediaDeleted(ctx, callerUUID, mediaUUID, false)
}

func (s *MediaService) setMediaDeleted(ctx context.Context, callerUUID, mediaUUID string, deleted bool) error {
	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return fmt.Errorf("[MediaService] database connection не найден в context")
	}

	media, _, err := s.getWritableMedia(ctx, db, mediaUUID, callerUUID)
	if err != nil {
		return err
	}

	var deletedAt *time.Time
	if deleted {
		now := time.Now()
		deletedAt = &now
	}

	// установка абсолютного значения флага — повторный вызов безвреден
	if err := s.mediaRepo.SetDeleted(ctx, db, media.UUID, deleted, deletedAt); err != nil {
		return util.LogError("[MediaService] не удалось обновить флаг удаления", err)
	}

	return nil
}

// DeleteMediaPermanently : удаляет запись из БД, затем объект из хранилища — только владелец
func (s *MediaService) DeleteMediaPermanently(ctx context.Context, callerUUID, mediaUUID string) error {
	db, ok := ctx.Value("db").(*config.Database)
	if !ok {
		return fmt.Errorf("[MediaService] database connection не найден в context")
	}

	media, err := s.mediaRepo.GetByUUID(ctx, db, mediaUUID)
	if err != nil {
		if repository.IsNoRows(err) {
			return fmt.Errorf("[MediaService] файл не найден: %w", ErrNotFound)
		}
		return util.LogError("[MediaService] ошибка поиска файла", err)
	}

	if media.OwnerUUID != callerUUID {
		role, err := s.collaboratorRole(ctx, db, media, callerUUID)
		if err != nil {
			return err
		}
		if role == "" {
			return fmt.Errorf("[MediaService] файл не найден: %w", ErrNotFound)
		}
		return fmt.Errorf("[MediaService] %w: безвозвратное удаление доступно только владельцу", ErrUnauthorized)
	}

	storagePath, err := s.mediaRepo.DeletePermanently(ctx, db, mediaUUID, media.OwnerUUID)
	if err != nil {
		if repository.IsNoRows(err) {
			return fmt.Errorf("[MediaService] файл не найден: %w", ErrNotFound)
		}
		return util.LogError("[MediaService] ошибка удаления файла из БД", err)
	}

	if err := s.storage.DeleteObject(ctx, storagePath); err != nil {
		// запись уже удалена, объект останется мусором в хранилище — логируем
		log.Printf("[MediaService] ошибка удаления объекта из хранилища: %v", err)
	}

	log.Printf("[MediaService] файл %s безвозвратно удалён", media.Filename)
	return nil
}

// getWritableMedia : файл с правом записи — владелец или editor папки, где он лежит
// Viewer получает ErrUnauthorized, посторонний — ErrNotFound
func (s *MediaService) getWritableMedia(ctx context.Context, exec sqlx.ExtContext, mediaUUID, callerUUID string) (*model.Media, string, error) {
	media, err := s.mediaRepo.GetByUUID(ctx, exec, mediaUUID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, "", fmt.Errorf("[MediaService] файл не найден: %w", ErrNotFound)
		}
		return nil, "", util.LogError("[MediaService] ошибка поиска файла", err)
	}

	if media.OwnerUUID == callerUUID {
		return media, model.RoleOwner, nil
	}

	role, err := s.collaboratorRole(ctx, exec, media, callerUUID)
	if err != nil {
		return nil, "", err
	}
	if role == "" {
		return nil, "", fmt.Errorf("[MediaService] файл не найден: %w", ErrNotFound)
	}
	if role == model.RoleViewer {
		return nil, "", fmt.Errorf("[MediaService] %w: роль viewer не позволяет изменять файл", ErrUnauthorized)
	}

	return media, role, nil
}

// collaboratorRole : роль вызывающего на папке, в которой лежит файл
// Файлы в корне чужого пользователя недоступны — роли выдаются на папки
func (s *MediaService) collaboratorRole(ctx context.Context, exec sqlx.ExtContext, media *model.Media, callerUUID string) (string, error) {
	if media.FolderUUID == nil {
		return "", nil
	}
	return s.collabRepo.GetRole(ctx, exec, *media.FolderUUID, callerUUID)
}
