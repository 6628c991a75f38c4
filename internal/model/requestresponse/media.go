package requestresponse

import (
	"media-vault-server/internal/model"
	"time"
)

// MediaResponse : медиа-файл в JSON-ответе, путь в хранилище наружу не отдаётся
type MediaResponse struct {
	UUID       string  `json:"uuid" example:"qwdj1q4o34u34ih759ou1"`
	Filename   string  `json:"filename" example:"photo.jpg"`
	Folder     *string `json:"folder"`
	MimeType   string  `json:"mime_type" example:"image/jpeg"`
	MediaType  string  `json:"type" example:"image"`
	SizeBytes  int64   `json:"size_bytes" example:"102400"`
	IsFavorite bool    `json:"is_favorite" example:"false"`
	IsDeleted  bool    `json:"is_deleted" example:"false"`
	// GetURL : pre-signed ссылка на скачивание/превью
	GetURL    string `json:"get_url,omitempty"`
	CreatedAt string `json:"created_at" example:"2025-08-23T12:34:56Z"`
}

// MediaResponseFromModel : конвертирует model.Media в MediaResponse
func MediaResponseFromModel(media *model.Media, getURL string) MediaResponse {
	return MediaResponse{
		UUID:       media.UUID,
		Filename:   media.Filename,
		Folder:     media.FolderUUID,
		MimeType:   media.MimeType,
		MediaType:  media.MediaType,
		SizeBytes:  media.SizeBytes,
		IsFavorite: media.IsFavorite,
		IsDeleted:  media.IsDeleted,
		GetURL:     getURL,
		CreatedAt:  media.CreatedAt.Format(time.RFC3339),
	}
}

// UploadMediaResponse : ответ на загрузку файлов
type UploadMediaResponse struct {
	Data struct {
		Uploaded []MediaResponse `json:"uploaded"`
	} `json:"data"`
}

// UpdateMediaRequest : переименование и/или перенос файла
// Folder == "null" переносит файл в корень
type UpdateMediaRequest struct {
	Filename *string `json:"filename,omitempty" example:"renamed.jpg"`
	Folder   *string `json:"folder,omitempty"`
}
