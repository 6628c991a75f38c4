package security

import "golang.org/x/crypto/bcrypt"

// HashPassword : bcrypt-хэш пароля (пользовательского или пароля папки)
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword : сравнение с постоянным временем выполнения
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
