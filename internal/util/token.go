package util

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateRandomToken : случайный токен длиной length символов —
// используется для ссылок подтверждения email и сброса пароля
func GenerateRandomToken(length int) (string, error) {
	byteLength := (length + 1) / 2 // т.к. hex кодирует 1 байт = 2 символа
	bytes := make([]byte, byteLength)

	_, err := rand.Read(bytes)
	if err != nil {
		return "", LogError("[util] ошибка генерации токена", err)
	}

	return hex.EncodeToString(bytes)[:length], nil
}
