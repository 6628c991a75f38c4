package requestresponse

import (
	"media-vault-server/internal/model"
	"time"
)

// CreateFolderRequest : тело запроса на создание папки
type CreateFolderRequest struct {
	Name         string  `json:"name" example:"Отпуск 2025"`
	ParentFolder *string `json:"parent_folder" example:"b6a1e1c4-4b1d-4f1e-8b29-1234567890ab"`
	Password     string  `json:"password,omitempty" example:"folderP@ss"`
}

// UpdateFolderRequest : переименование, перенос и смена пароля папки
// NewPassword == nil — пароль не меняется, NewPassword == "" — защита снимается
type UpdateFolderRequest struct {
	Name            *string `json:"name,omitempty" example:"Новое имя"`
	ParentFolder    *string `json:"parent_folder,omitempty"`
	CurrentPassword string  `json:"current_password,omitempty"`
	NewPassword     *string `json:"new_password,omitempty"`
}

// FolderResponse : папка в JSON-ответе, вместо хэша пароля — только флаг
type FolderResponse struct {
	UUID         string  `json:"uuid" example:"b6a1e1c4-4b1d-4f1e-8b29-1234567890ab"`
	Name         string  `json:"name" example:"Отпуск 2025"`
	ParentFolder *string `json:"parent_folder"`
	HasPassword  bool    `json:"has_password" example:"true"`
	IsDeleted    bool    `json:"is_deleted" example:"false"`
	CreatedAt    string  `json:"created_at" example:"2025-08-23T12:34:56Z"`
}

// FolderResponseFromModel : конвертирует model.Folder в FolderResponse
func FolderResponseFromModel(folder *model.Folder) FolderResponse {
	return FolderResponse{
		UUID:         folder.UUID,
		Name:         folder.Name,
		ParentFolder: folder.ParentUUID,
		HasPassword:  folder.HasPassword(),
		IsDeleted:    folder.IsDeleted,
		CreatedAt:    folder.CreatedAt.Format(time.RFC3339),
	}
}

// GetContentResponse : содержимое папки — подпапки, медиа, роль пользователя
type GetContentResponse struct {
	Data struct {
		Folders       []FolderResponse `json:"folders"`
		Media         []MediaResponse  `json:"media"`
		UserRole      string           `json:"user_role" example:"owner"`
		CurrentFolder *FolderResponse  `json:"current_folder,omitempty"`
		// FolderToken выдаётся после успешной проверки пароля папки,
		// чтобы не передавать пароль в каждом запросе
		FolderToken string `json:"folder_token,omitempty"`
	} `json:"data"`
}

// NavFoldersResponse : плоский список папок для навигации
type NavFoldersResponse struct {
	Data struct {
		Folders []model.FolderNavItem `json:"folders"`
	} `json:"data"`
}

// AddCollaboratorRequest : владелец выдаёт доступ к папке по email
type AddCollaboratorRequest struct {
	Email string `json:"email" example:"friend@example.com"`
	Role  string `json:"role" example:"viewer"`
}

// CollaboratorsResponse : актуальный список коллабораторов папки
type CollaboratorsResponse struct {
	Data struct {
		Collaborators []model.Collaborator `json:"collaborators"`
	} `json:"data"`
}
