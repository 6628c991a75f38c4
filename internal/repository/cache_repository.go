package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"media-vault-server/config"
	"media-vault-server/internal/model"
	"media-vault-server/internal/util"
	"time"

	"github.com/redis/go-redis/v9"
)

type CacheRepository struct {
	client *config.RedisClient
	ttl    time.Duration
}

func NewCacheRepository(rdb *config.RedisClient, ttl time.Duration) *CacheRepository {
	return &CacheRepository{rdb, ttl}
}

// cachedFolder : сериализация папки для кэша. json-теги модели скрывают
// password_hash от клиентов, а проверке доступа он нужен — кэшируем отдельно.
type cachedFolder struct {
	model.Folder
	PasswordHash *string `json:"password_hash"`
}

func (r *CacheRepository) SetFolder(ctx context.Context, folder *model.Folder) error {
	data, err := json.Marshal(cachedFolder{Folder: *folder, PasswordHash: folder.PasswordHash})
	if err != nil {
		return util.LogError("ошибка сериализации папки", err)
	}

	cmd := r.client.Client.Set(ctx, r.folderKey(folder.UUID), data, r.ttl)
	if err = cmd.Err(); err != nil {
		return util.LogError("ошибка сохранения в Redis", err)
	}
	if cmd.Val() != "OK" {
		return fmt.Errorf("неожиданный ответ Redis: %s", cmd.Val())
	}

	return nil
}

func (r *CacheRepository) GetFolder(ctx context.Context, uuid string) (*model.Folder, error) {
	val, err := r.client.Client.Get(ctx, r.folderKey(uuid)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil // нет в кэше
	} else if err != nil {
		return nil, util.LogError("ошибка получения папки из Redis", err)
	}

	var cached cachedFolder
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		return nil, util.LogError("ошибка десериализации папки из кэша", err)
	}

	folder := cached.Folder
	folder.PasswordHash = cached.PasswordHash
	return &folder, nil
}

func (r *CacheRepository) DeleteFolder(ctx context.Context, uuid string) error {
	if err := r.client.Client.Del(ctx, r.folderKey(uuid)).Err(); err != nil {
		return util.LogError("ошибка удаления папки из Redis", err)
	}
	return nil
}

// SetNav : кэширует плоский список папок пользователя для навигации
func (r *CacheRepository) SetNav(ctx context.Context, ownerUUID string, items []model.FolderNavItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return util.LogError("ошибка сериализации списка папок", err)
	}

	if err := r.client.Client.Set(ctx, r.navKey(ownerUUID), data, r.ttl).Err(); err != nil {
		return util.LogError("ошибка сохранения в Redis", err)
	}
	return nil
}

func (r *CacheRepository) GetNav(ctx context.Context, ownerUUID string) ([]model.FolderNavItem, error) {
	val, err := r.client.Client.Get(ctx, r.navKey(ownerUUID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	} else if err != nil {
		return nil, util.LogError("ошибка получения списка папок из Redis", err)
	}

	var items []model.FolderNavItem
	if err := json.Unmarshal([]byte(val), &items); err != nil {
		return nil, util.LogError("ошибка десериализации списка папок из кэша", err)
	}
	return items, nil
}

func (r *CacheRepository) DeleteNav(ctx context.Context, ownerUUID string) error {
	if err := r.client.Client.Del(ctx, r.navKey(ownerUUID)).Err(); err != nil {
		return util.LogError("ошибка удаления списка папок из Redis", err)
	}
	return nil
}

func (r *CacheRepository) folderKey(uuid string) string {
	return fmt.Sprintf("folder:%s", uuid)
}

func (r *CacheRepository) navKey(ownerUUID string) string {
	return fmt.Sprintf("nav:%s", ownerUUID)
}
