package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"media-vault-server/internal/model"
	"media-vault-server/internal/model/requestresponse"
	"media-vault-server/internal/ports"
	"media-vault-server/internal/security"
	"media-vault-server/internal/util"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type MediaHandler struct {
	ports.MediaService
}

func NewMediaHandler(mediaService ports.MediaService) *MediaHandler {
	return &MediaHandler{mediaService}
}

// UploadMedia godoc
// @Summary Загрузка медиа-файлов
// @Description Принимает один или несколько файлов multipart/form-data, сохраняет метаданные
// и асинхронно отправляет байты в хранилище по pre-signed URL.
// @Tags Media
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Файлы"
// @Param folder formData string false "UUID папки назначения, пусто — корень"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 202 {object} requestresponse.UploadMediaResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse "Папка не найдена"
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/content/media/upload [post]
func (h *MediaHandler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := ctx.Value(security.UserContextKey).(*security.Claims)
	if ok == false || claims == nil {
		util.HandleError(w, "пользователь не авторизован", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		util.HandleError(w, "неверный формат запроса", http.StatusBadRequest)
		return
	}

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		util.HandleError(w, "файлы не найдены в запросе", http.StatusBadRequest)
		return
	}

	var folderUUID *string
	if folderStr := r.FormValue("folder"); folderStr != "" && folderStr != "root" {
		folderUUID = &folderStr
	}

	items := make([]*model.Media, 0, len(fileHeaders))
	tmpFiles := make([]string, 0, len(fileHeaders))

	for _, header := range fileHeaders {
		file, err := header.Open()
		if err != nil {
			removeTempFiles(tmpFiles)
			util.HandleError(w, "ошибка чтения файла", http.StatusInternalServerError)
			return
		}

		// файл переливается во временный без буферизации в памяти
		tmpFile, err := saveTempFile(file, header.Filename)
		file.Close()
		if err != nil {
			removeTempFiles(tmpFiles)
			util.HandleError(w, "ошибка сохранения файла", http.StatusInternalServerError)
			return
		}
		tmpFiles = append(tmpFiles, tmpFile)

		mimeType := header.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}

		fileExt := filepath.Ext(header.Filename)
		fileName := strings.TrimSuffix(header.Filename, fileExt)
		storagePath := fmt.Sprintf("users/%s/media/%s-%s%s",
			claims.UserUUID,
			url.PathEscape(fileName),
			uuid.New().String()[:8],
			fileExt,
		)

		items = append(items, &model.Media{
			UUID:        uuid.New().String(),
			Filename:    header.Filename,
			StoragePath: storagePath,
			MimeType:    mimeType,
			MediaType:   coarseMediaType(mimeType),
			SizeBytes:   header.Size,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		})
	}

	putURLs, err := h.MediaService.UploadMedia(ctx, claims.UserUUID, folderUUID, items)
	if err != nil {
		removeTempFiles(tmpFiles)
		handleServiceError(w, err)
		return
	}

	uploader := util.NewS3Uploader()
	for i, putURL := range putURLs {
		uploader.UploadFileAsync(putURL, tmpFiles[i])
	}

	resp := requestresponse.UploadMediaResponse{}
	resp.Data.Uploaded = make([]requestresponse.MediaResponse, 0, len(items))
	for _, item := range items {
		resp.Data.Uploaded = append(resp.Data.Uploaded, requestresponse.MediaResponseFromModel(item, ""))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(resp)

	// Асинхронный мониторинг
	go h.monitorUpload(claims.UserUUID, uploader)
}

// saveTempFile : переливает содержимое во временный файл потоково
func saveTempFile(src io.Reader, filename string) (string, error) {
	uploadDir := filepath.Join(os.TempDir(), "uploads")
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return "", fmt.Errorf("ошибка создания директории: %w", err)
	}

	uniqueName := fmt.Sprintf("%d_%s", time.Now().UnixNano(), filepath.Base(filename))
	tmpPath := filepath.Join(uploadDir, uniqueName)

	dst, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("ошибка создания файла: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("ошибка записи файла: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	return tmpPath, nil
}

func removeTempFiles(paths []string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil {
			log.Printf("[MediaHandler] не удалось удалить временный файл %s: %v", path, err)
		}
	}
}

func (h *MediaHandler) monitorUpload(ownerUUID string, uploader *util.S3Uploader) {
	for {
		select {
		case err, ok := <-uploader.Errors():
			if ok == false {
				return
			}
			log.Printf("[MediaHandler/MonitorUpload] ошибка загрузки файла пользователя %s: %v", ownerUUID, err)

		case progress, ok := <-uploader.Progress():
			if ok == false {
				return
			}
			if progress == -1 {
				log.Printf("[MediaHandler/MonitorUpload] файл пользователя %s успешно загружен", ownerUUID)
			}

		case <-time.After(30 * time.Minute):
			log.Printf("[MediaHandler/MonitorUpload] таймаут загрузки файлов пользователя %s", ownerUUID)
			return
		}
	}
}

// coarseMediaType : первый сегмент MIME-типа — image/jpeg даёт image
func coarseMediaType(mimeType string) string {
	if idx := strings.Index(mimeType, "/"); idx > 0 {
		return mimeType[:idx]
	}
	return mimeType
}

// UpdateMedia godoc
// @Summary Обновление медиа-файла
// @Description Переименовывает файл и/или переносит его в другую папку. folder = "null" переносит в корень.
// @Tags Media
// @Accept json
// @Produce json
// @Param media_id path string true "UUID файла"
// @Param body body requestresponse.UpdateMediaRequest true "Тело запроса"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.MediaResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/content/media/{media_id} [put]
func (h *MediaHandler) UpdateMedia(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value(security.UserContextKey).(*security.Claims)
	if ok == false || claims == nil {
		util.HandleError(w, "пользователь не авторизован", http.StatusUnauthorized)
		return
	}

	mediaUUID := chi.URLParam(r, "media_id")
	if mediaUUID == "" {
		util.HandleError(w, "ID файла обязателен", http.StatusBadRequest)
		return
	}

	var req requestresponse.UpdateMediaRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}

	// "null" в поле folder переносит файл в корень
	folder := req.Folder
	if folder != nil && *folder == "null" {
		empty := ""
		folder = &empty
	}

	media, err := h.MediaService.UpdateMedia(r.Context(), claims.UserUUID, mediaUUID, req.Filename, folder)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	json.NewEncoder(w).Encode(requestresponse.MediaResponseFromModel(media, ""))
}

// ToggleFavorite godoc
// @Summary Переключение избранного
// @Description Переключает флаг избранного у файла
// @Tags Media
// @Produce json
// @Param media_id path string true "UUID файла"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.MediaResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/content/media/{media_id}/favorite [put]
func (h *MediaHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value(security.UserContextKey).(*security.Claims)
	if ok == false || claims == nil {
		util.HandleError(w, "пользователь не авторизован", http.StatusUnauthorized)
		return
	}

	mediaUUID := chi.URLParam(r, "media_id")
	if mediaUUID == "" {
		util.HandleError(w, "ID файла обязателен", http.StatusBadRequest)
		return
	}

	media, err := h.MediaService.ToggleFavorite(r.Context(), claims.UserUUID, mediaUUID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	json.NewEncoder(w).Encode(requestresponse.MediaResponseFromModel(media, ""))
}

// DeleteMedia godoc
// @Summary Перенос файла в корзину
// @Description Помечает файл удалённым. Повторный вызов безвреден.
// @Tags Media
// @Produce json
// @Param media_id path string true "UUID файла"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.SuccessResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/content/media/{media_id}/delete [post]
func (h *MediaHandler) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	h.setMediaDeleted(w, r, true)
}

// RestoreMedia godoc
// @Summary Восстановление файла из корзины
// @Description Снимает с файла пометку удаления
// @Tags Media
// @Produce json
// @Param media_id path string true "UUID файла"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.SuccessResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/content/media/{media_id}/restore [post]
func (h *MediaHandler) RestoreMedia(w http.ResponseWriter, r *http.Request) {
	h.setMediaDeleted(w, r, false)
}

func (h *MediaHandler) setMediaDeleted(w http.ResponseWriter, r *http.Request, deleted bool) {
	claims, ok := r.Context().Value(security.UserContextKey).(*security.Claims)
	if ok == false || claims == nil {
		util.HandleError(w, "пользователь не авторизован", http.StatusUnauthorized)
		return
	}

	mediaUUID := chi.URLParam(r, "media_id")
	if mediaUUID == "" {
		util.HandleError(w, "ID файла обязателен", http.StatusBadRequest)
		return
	}

	var err error
	var message string
	if deleted {
		err = h.MediaService.SoftDeleteMedia(r.Context(), claims.UserUUID, mediaUUID)
		message = "файл перенесён в корзину"
	} else {
		err = h.MediaService.RestoreMedia(r.Context(), claims.UserUUID, mediaUUID)
		message = "файл восстановлен"
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	json.NewEncoder(w).Encode(requestresponse.SuccessResponse{Message: message})
}

// DeleteMediaPermanently godoc
// @Summary Безвозвратное удаление файла
// @Description Удаляет запись из базы и объект из хранилища. Доступно только владельцу. Повторный вызов возвращает 404.
// @Tags Media
// @Produce json
// @Param media_id path string true "UUID файла"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.SuccessResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/content/media/{media_id}/permanent [delete]
func (h *MediaHandler) DeleteMediaPermanently(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value(security.UserContextKey).(*security.Claims)
	if ok == false || claims == nil {
		util.HandleError(w, "пользователь не авторизован", http.StatusUnauthorized)
		return
	}

	mediaUUID := chi.URLParam(r, "media_id")
	if mediaUUID == "" {
		util.HandleError(w, "ID файла обязателен", http.StatusBadRequest)
		return
	}

	if err := h.MediaService.DeleteMediaPermanently(r.Context(), claims.UserUUID, mediaUUID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	json.NewEncoder(w).Encode(requestresponse.SuccessResponse{Message: "файл безвозвратно удалён"})
}
