package handler

import (
	"encoding/json"
	"media-vault-server/internal/model"
	"media-vault-server/internal/model/requestresponse"
	"media-vault-server/internal/ports"
	"media-vault-server/internal/security"
	"media-vault-server/internal/util"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type FolderHandler struct {
	ports.FolderService
}

func NewFolderHandler(folderService ports.FolderService) *FolderHandler {
	return &FolderHandler{folderService}
}

// GetContent godoc
// @Summary Содержимое папки
// @Description Возвращает подпапки и медиа-файлы папки. folder_id = "root" соответствует корню диска.
// Для защищённой паролем папки требуется password или ранее выданный folder_token.
// @Tags Folders
// @Produce json
// @Param folder_id path string true "UUID папки или root"
// @Param password query string false "Пароль папки"
// @Param folder_token query string false "Токен доступа, выданный после проверки пароля"
// @Param view query string false "drive (по умолчанию) или trash"
// @Param search query string false "Подстрока для поиска по имени"
// @Param type query string false "Фильтр по типу: image, video, audio или favorites"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.GetContentResponse
// @Failure 401 {object} requestresponse.ErrorResponse "Неверный пароль папки"
// @Failure 403 {object} requestresponse.ErrorResponse "Папка защищена паролем"
// @Failure 404 {object} requestresponse.ErrorResponse "Папка не найдена"
// @Failure 500 {object} requestresponse.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/content/folders/{folder_id} [get]
func (h *FolderHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value(security.UserContextKey).(*security.Claims)
	if ok == false || claims == nil {
		util.HandleError(w, "пользователь не авторизован", http.StatusUnauthorized)
		return
	}

	folderUUID := parseFolderParam(chi.URLParam(r, "folder_id"))

	query := &model.ContentQuery{
		Password:   r.URL.Query().Get("password"),
		GrantToken: r.URL.Query().Get("folder_token"),
		View:       r.URL.Query().Get("view"),
		Search:     r.URL.Query().Get("search"),
		Type:       r.URL.Query().Get("type"),
	}

	result, err := h.FolderService.GetContent(r.Context(), claims.UserUUID, folderUUID, query)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := requestresponse.GetContentResponse{}
	resp.Data.Folders = make([]requestresponse.FolderResponse, 0, len(result.Folders))
	for i := range result.Folders {
		resp.Data.Folders = append(resp.Data.Folders, requestresponse.FolderResponseFromModel(&result.Folders[i]))
	}
	resp.Data.Media = make([]requestresponse.MediaResponse, 0, len(result.Media))
	for i := range result.Media {
		resp.Data.Media = append(resp.Data.Media, requestresponse.MediaResponseFromModel(&result.Media[i], result.MediaURLs[result.Media[i].UUID]))
	}
	resp.Data.UserRole = result.UserRole
	if result.CurrentFolder != nil {
		current := requestresponse.FolderResponseFromModel(result.CurrentFolder)
		resp.Data.CurrentFolder = &current
	}
	resp.Data.FolderToken = result.FolderToken

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	json.NewEncoder(w).Encode(resp)
}

// ListNavFolders godoc
// @Summary Дерево папок для навигации
// @Description Возвращает плоский список папок пользователя без содержимого — для сайдбара и диалога переноса
// @Tags Folders
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.NavFoldersResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/content/folders/nav [get]
func (h *FolderHandler) ListNavFolders(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value(security.UserContextKey).(*security.Claims)
	if ok == false || claims == nil {
		util.HandleError(w, "пользователь не авторизован", http.StatusUnauthorized)
		return
	}

	folders, err := h.FolderService.ListNav(r.Context(), claims.UserUUID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := requestresponse.NavFoldersResponse{}
	resp.Data.Folders = folders

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	json.NewEncoder(w).Encode(resp)
}

// CreateFolder godoc
// @Summary Создание папки
// @Description Создаёт папку в корне или внутри родительской. Папка, созданная editor-ом в расшаренном дереве, принадлежит владельцу дерева.
// @Tags Folders
// @Accept json
// @Produce json
// @Param body body requestresponse.CreateFolderRequest true "Тело запроса"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 201 {object} requestresponse.FolderResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/content/folders [post]
func (h *FolderHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value(security.UserContextKey).(*security.Claims)
	if ok == false || claims == nil {
		util.HandleError(w, "пользователь не авторизован", http.StatusUnauthorized)
		return
	}

	var req requestresponse.CreateFolderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}

	folder, err := h.FolderService.CreateFolder(r.Context(), claims.UserUUID, req.Name, req.ParentFolder, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := requestresponse.FolderResponseFromModel(folder)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(201)
	json.NewEncoder(w).Encode(resp)
}

// UpdateFolder godoc
// @Summary Обновление папки
// @Description Переименовывает и/или переносит папку, меняет её пароль. Если папка защищена, требуется current_password.
// new_password = "" снимает защиту, отсутствие поля оставляет пароль без изменений. Смена пароля доступна только владельцу.
// @Tags Folders
// @Accept json
// @Produce json
// @Param folder_id path string true "UUID папки"
// @Param body body requestresponse.UpdateFolderRequest true "Тело запроса"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.SuccessResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 401 {object} requestresponse.ErrorResponse "Неверный пароль папки"
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/content/folders/{folder_id} [put]
func (h *FolderHandler) UpdateFolder(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value(security.UserContextKey).(*security.Claims)
	if ok == false || claims == nil {
		util.HandleError(w, "пользователь не авторизован", http.StatusUnauthorized)
		return
	}

	folderUUID := chi.URLParam(r, "folder_id")
	if folderUUID == "" {
		util.HandleError(w, "ID папки обязателен", http.StatusBadRequest)
		return
	}

	var req requestresponse.UpdateFolderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}

	err := h.FolderService.UpdateFolder(r.Context(), claims.UserUUID, folderUUID, req.Name, req.ParentFolder, req.CurrentPassword, req.NewPassword)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	json.NewEncoder(w).Encode(requestresponse.SuccessResponse{Message: "папка обновлена"})
}

// DeleteFolder godoc
// @Summary Перенос папки в корзину
// @Description Помечает папку и всё её поддерево (вложенные папки и файлы) удалёнными. Повторный вызов безвреден.
// @Tags Folders
// @Produce json
// @Param folder_id path string true "UUID папки"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.SuccessResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/content/folders/{folder_id}/delete [post]
func (h *FolderHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	h.cascadeFolder(w, r, true)
}

// RestoreFolder godoc
// @Summary Восстановление папки из корзины
// @Description Снимает пометку удаления с папки и всего её поддерева
// @Tags Folders
// @Produce json
// @Param folder_id path string true "UUID папки"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.SuccessResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/content/folders/{folder_id}/restore [post]
func (h *FolderHandler) RestoreFolder(w http.ResponseWriter, r *http.Request) {
	h.cascadeFolder(w, r, false)
}

func (h *FolderHandler) cascadeFolder(w http.ResponseWriter, r *http.Request, deleted bool) {
	claims, ok := r.Context().Value(security.UserContextKey).(*security.Claims)
	if ok == false || claims == nil {
		util.HandleError(w, "пользователь не авторизован", http.StatusUnauthorized)
		return
	}

	folderUUID := chi.URLParam(r, "folder_id")
	if folderUUID == "" {
		util.HandleError(w, "ID папки обязателен", http.StatusBadRequest)
		return
	}

	var err error
	var message string
	if deleted {
		err = h.FolderService.SoftDeleteFolder(r.Context(), claims.UserUUID, folderUUID)
		message = "папка перенесена в корзину"
	} else {
		err = h.FolderService.RestoreFolder(r.Context(), claims.UserUUID, folderUUID)
		message = "папка восстановлена"
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	json.NewEncoder(w).Encode(requestresponse.SuccessResponse{Message: message})
}

// AddCollaborator godoc
// @Summary Предоставление доступа к папке
// @Description Выдаёт пользователю роль viewer или editor на папку. Доступно только владельцу. Повторная выдача обновляет роль.
// @Tags Collaborators
// @Accept json
// @Produce json
// @Param folder_id path string true "UUID папки"
// @Param body body requestresponse.AddCollaboratorRequest true "Тело запроса"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.CollaboratorsResponse "Актуальный список коллабораторов"
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse "Папка или пользователь не найдены"
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/content/folders/{folder_id}/collaborators [post]
func (h *FolderHandler) AddCollaborator(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value(security.UserContextKey).(*security.Claims)
	if ok == false || claims == nil {
		util.HandleError(w, "пользователь не авторизован", http.StatusUnauthorized)
		return
	}

	folderUUID := chi.URLParam(r, "folder_id")
	if folderUUID == "" {
		util.HandleError(w, "ID папки обязателен", http.StatusBadRequest)
		return
	}

	var req requestresponse.AddCollaboratorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}

	collaborators, err := h.FolderService.AddCollaborator(r.Context(), claims.UserUUID, folderUUID, req.Email, req.Role)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := requestresponse.CollaboratorsResponse{}
	resp.Data.Collaborators = collaborators

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	json.NewEncoder(w).Encode(resp)
}

// RemoveCollaborator godoc
// @Summary Удаление доступа к папке
// @Description Отзывает роль пользователя на папке. Доступно только владельцу.
// @Tags Collaborators
// @Produce json
// @Param folder_id path string true "UUID папки"
// @Param collaborator_id path string true "UUID пользователя"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.CollaboratorsResponse "Актуальный список коллабораторов"
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/content/folders/{folder_id}/collaborators/{collaborator_id} [delete]
func (h *FolderHandler) RemoveCollaborator(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value(security.UserContextKey).(*security.Claims)
	if ok == false || claims == nil {
		util.HandleError(w, "пользователь не авторизован", http.StatusUnauthorized)
		return
	}

	folderUUID := chi.URLParam(r, "folder_id")
	collaboratorUUID := chi.URLParam(r, "collaborator_id")
	if folderUUID == "" || collaboratorUUID == "" {
		util.HandleError(w, "ID папки и пользователя обязательны", http.StatusBadRequest)
		return
	}

	collaborators, err := h.FolderService.RemoveCollaborator(r.Context(), claims.UserUUID, folderUUID, collaboratorUUID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := requestresponse.CollaboratorsResponse{}
	resp.Data.Collaborators = collaborators

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	json.NewEncoder(w).Encode(resp)
}

// parseFolderParam : "root" и пустая строка означают корень диска
func parseFolderParam(param string) *string {
	if param == "" || param == "root" {
		return nil
	}
	return &param
}
