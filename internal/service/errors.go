package service

import "errors"

// Доменные ошибки — обработчики транслируют их в HTTP-статусы
var (
	// ErrNotFound : ресурс отсутствует или не принадлежит/не расшарен вызывающему
	ErrNotFound = errors.New("ресурс не найден")
	// ErrPasswordRequired : папка защищена паролем, пароль не передан
	ErrPasswordRequired = errors.New("требуется пароль папки")
	// ErrIncorrectPassword : пароль папки не совпал
	ErrIncorrectPassword = errors.New("неверный пароль папки")
	// ErrUnauthorized : токен валиден, но роли не хватает для операции
	ErrUnauthorized = errors.New("недостаточно прав")
	// ErrValidation : отсутствует обязательное поле или значение некорректно
	ErrValidation = errors.New("некорректный запрос")
)
