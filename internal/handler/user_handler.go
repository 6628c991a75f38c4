package handler

import (
	"encoding/json"
	"errors"
	"log"
	"media-vault-server/internal/model/requestresponse"
	"media-vault-server/internal/ports"
	"media-vault-server/internal/security"
	"media-vault-server/internal/service"
	"media-vault-server/internal/util"
	"net/http"
)

type UserHandler struct {
	ports.UserService
}

func NewUserHandler(userService ports.UserService) *UserHandler {
	return &UserHandler{userService}
}

// RegisterUser godoc
// @Summary Регистрация нового пользователя
// @Description Создает пользователя с неподтверждённым email и отправляет ссылку подтверждения на почту
// @Tags Users
// @Accept json
// @Produce json
// @Param body body requestresponse.RegisterRequest true "Тело запроса"
// @Success 201 {object} requestresponse.RegisterResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/auth/register [post]
func (h *UserHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req requestresponse.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}

	user, err := h.UserService.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		log.Println(err)
		switch {
		case errors.Is(err, service.ErrValidation):
			sendErrorResponse(w, 400, "bad request")
		default:
			sendErrorResponse(w, 500, "внутренняя ошибка сервера")
		}
		return
	}

	resp := requestresponse.RegisterResponse{
		Response: requestresponse.RegisterData{
			Username: user.Username,
			Email:    user.Email,
		},
	}

	w.WriteHeader(201)
	json.NewEncoder(w).Encode(resp)
}

// VerifyEmail godoc
// @Summary Подтверждение email
// @Description Подтверждает email пользователя по токену из письма
// @Tags Users
// @Produce json
// @Param token query string true "Токен подтверждения"
// @Success 200 {object} requestresponse.SuccessResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/auth/verify-email [get]
func (h *UserHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	token := r.URL.Query().Get("token")

	if err := h.UserService.VerifyEmail(r.Context(), token); err != nil {
		log.Println(err)
		switch {
		case errors.Is(err, service.ErrValidation):
			sendErrorResponse(w, 400, "токен обязателен")
		case errors.Is(err, service.ErrNotFound):
			sendErrorResponse(w, 404, "токен подтверждения не найден")
		default:
			sendErrorResponse(w, 500, "внутренняя ошибка сервера")
		}
		return
	}

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(requestresponse.SuccessResponse{Message: "email подтверждён"})
}

// ForgotPassword godoc
// @Summary Запрос сброса пароля
// @Description Отправляет ссылку сброса пароля на указанный email. Для незарегистрированного email возвращает тот же ответ.
// @Tags Users
// @Accept json
// @Produce json
// @Param body body requestresponse.ForgotPasswordRequest true "Тело запроса"
// @Success 200 {object} requestresponse.SuccessResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/auth/forgot-password [post]
func (h *UserHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req requestresponse.ForgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}

	if req.Email == "" {
		sendErrorResponse(w, 400, "email обязателен")
		return
	}

	if err := h.UserService.ForgotPassword(r.Context(), req.Email); err != nil {
		log.Println(err)
		sendErrorResponse(w, 500, "внутренняя ошибка сервера")
		return
	}

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(requestresponse.SuccessResponse{Message: "если email зарегистрирован, письмо отправлено"})
}

// ResetPassword godoc
// @Summary Установка нового пароля
// @Description Меняет пароль пользователя по действующему токену сброса
// @Tags Users
// @Accept json
// @Produce json
// @Param token query string true "Токен сброса пароля"
// @Param body body requestresponse.ResetPasswordRequest true "Тело запроса"
// @Success 200 {object} requestresponse.SuccessResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/auth/reset-password [post]
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	token := r.URL.Query().Get("token")

	var req requestresponse.ResetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}

	if err := h.UserService.ResetPassword(r.Context(), token, req.Password); err != nil {
		log.Println(err)
		switch {
		case errors.Is(err, service.ErrValidation):
			sendErrorResponse(w, 400, "bad request")
		case errors.Is(err, service.ErrNotFound):
			sendErrorResponse(w, 404, "токен сброса не найден или просрочен")
		default:
			sendErrorResponse(w, 500, "внутренняя ошибка сервера")
		}
		return
	}

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(requestresponse.SuccessResponse{Message: "пароль обновлён"})
}

// GetCurrentUser godoc
// @Summary Получение текущего пользователя
// @Description Возвращает профиль пользователя, который авторизован в системе
// @Tags Users
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.CurrentUserResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/auth/me [get]
func (h *UserHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	claims, ok := r.Context().Value(security.UserContextKey).(*security.Claims)
	if ok == false || claims == nil {
		sendErrorResponse(w, 401, "не авторизован")
		return
	}

	user, err := h.UserService.GetUser(r.Context(), claims.UserUUID)
	if err != nil {
		log.Println(err)
		switch {
		case errors.Is(err, service.ErrNotFound):
			sendErrorResponse(w, 404, "пользователь не найден")
		default:
			sendErrorResponse(w, 500, "внутренняя ошибка сервера")
		}
		return
	}

	resp := requestresponse.CurrentUserResponse{}
	resp.Response.UserUUID = user.UUID
	resp.Response.Username = user.Username
	resp.Response.Email = user.Email

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(resp)
}

// decodeJSON обрабатывает декодирование JSON и возвращает ответ об ошибке, если декодирование не удалось.
func decodeJSON(w http.ResponseWriter, r *http.Request, target interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(400)
		json.NewEncoder(w).Encode(requestresponse.ErrorResponse{
			Error: requestresponse.ErrorDetail{
				Code: 400,
				Text: "invalid request body",
			},
		})
		return err
	}
	return nil
}

// sendErrorResponse отправляет ответ об ошибке JSON с указанным кодом статуса и сообщением
func sendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(requestresponse.ErrorResponse{
		Error: requestresponse.ErrorDetail{
			Code: statusCode,
			Text: message,
		},
	})
}

// handleServiceError : единая точка маппинга ошибок сервисного слоя на HTTP статусы
func handleServiceError(w http.ResponseWriter, err error) {
	log.Println(err)
	switch {
	case errors.Is(err, service.ErrPasswordRequired):
		util.HandlePasswordRequired(w, "папка защищена паролем")
	case errors.Is(err, service.ErrIncorrectPassword):
		util.HandleError(w, "неверный пароль папки", http.StatusUnauthorized)
	case errors.Is(err, service.ErrNotFound):
		util.HandleError(w, "не найдено", http.StatusNotFound)
	case errors.Is(err, service.ErrUnauthorized):
		util.HandleError(w, "доступ запрещён", http.StatusForbidden)
	case errors.Is(err, service.ErrValidation):
		util.HandleError(w, "bad request", http.StatusBadRequest)
	default:
		util.HandleError(w, "внутренняя ошибка сервера", http.StatusInternalServerError)
	}
}
